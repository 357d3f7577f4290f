package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/rhuss/xsltfn/pkg/api"
)

// Recovery returns middleware that converts a panic in the wrapped
// Transformer into an error, so the caller still receives an envelope.
func Recovery() Middleware {
	return func(next Transformer) Transformer {
		return TransformerFunc(func(ctx context.Context, r *http.Request) (res *api.TransformResult, retErr error) {
			defer func() {
				if p := recover(); p != nil {
					slog.Error("panic during transformation",
						"request_id", RequestIDFromContext(ctx),
						"panic", p,
						"stack", string(debug.Stack()))
					res = nil
					retErr = fmt.Errorf("internal error: %v", p)
				}
			}()
			return next.Transform(ctx, r)
		})
	}
}
