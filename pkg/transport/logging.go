package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/xsltfn/pkg/api"
)

// Logging returns middleware that emits one structured log entry per
// invocation with the request ID, stylesheet name, duration and, on
// failure, the error kind and message.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Transformer) Transformer {
		return TransformerFunc(func(ctx context.Context, r *http.Request) (*api.TransformResult, error) {
			start := time.Now()

			res, err := next.Transform(ctx, r)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.String("stylesheet", r.Header.Get(api.HeaderXsltFileName)),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs,
					slog.String("kind", string(api.KindOf(err))),
					slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelWarn, "transformation failed", attrs...)
			} else {
				attrs = append(attrs,
					slog.String("content_type", res.ContentType),
					slog.Int("bytes", len(res.Output)))
				logger.LogAttrs(ctx, slog.LevelInfo, "transformation completed", attrs...)
			}

			return res, err
		})
	}
}
