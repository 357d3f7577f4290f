package transport

import (
	"context"
	"net/http"

	"github.com/rhuss/xsltfn/pkg/api"
)

// Transformer runs one transformation invocation. The request body has not
// been read when Transform is called.
type Transformer interface {
	Transform(ctx context.Context, r *http.Request) (*api.TransformResult, error)
}

// TransformerFunc is an adapter that allows using an ordinary function as
// a Transformer.
type TransformerFunc func(ctx context.Context, r *http.Request) (*api.TransformResult, error)

// Transform calls f(ctx, r).
func (f TransformerFunc) Transform(ctx context.Context, r *http.Request) (*api.TransformResult, error) {
	return f(ctx, r)
}
