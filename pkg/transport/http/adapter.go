package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rhuss/xsltfn/pkg/api"
	"github.com/rhuss/xsltfn/pkg/transport"
)

// FunctionRoute is the path the function is served on.
const FunctionRoute = "/api/" + api.FunctionName

// Adapter serves the transformation function over HTTP.
type Adapter struct {
	transformer transport.Transformer
	inflight    *transport.InFlightRegistry
	mux         *http.ServeMux
	config      Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	// FunctionMiddleware wraps the function route only, outermost first.
	// Health and extra routes are not wrapped.
	FunctionMiddleware []func(http.Handler) http.Handler

	// Clock supplies envelope timestamps. Nil means time.Now.
	Clock func() time.Time
}

// NewAdapter creates an HTTP adapter around t. Middleware is applied to
// the Transformer in the given order.
func NewAdapter(t transport.Transformer, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		t = transport.Chain(middlewares...)(t)
	}

	a := &Adapter{
		transformer: t,
		inflight:    transport.NewInFlightRegistry(),
		mux:         http.NewServeMux(),
		config:      cfg,
	}

	var fn http.Handler = http.HandlerFunc(a.handleTransform)
	for i := len(cfg.FunctionMiddleware) - 1; i >= 0; i-- {
		fn = cfg.FunctionMiddleware[i](fn)
	}

	a.mux.Handle("POST "+FunctionRoute, fn)
	a.mux.HandleFunc("GET /healthz", handleHealth)

	return a
}

// Handle mounts an additional route, such as the metrics endpoint.
func (a *Adapter) Handle(pattern string, h http.Handler) {
	a.mux.Handle(pattern, h)
}

// Handler returns the http.Handler for this adapter. It propagates or
// assigns X-Request-ID on every route.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// InFlight returns the registry of running invocations.
func (a *Adapter) InFlight() *transport.InFlightRegistry {
	return a.inflight
}

// httpRequestIDMiddleware takes X-Request-ID from the request, or assigns
// a new one, stores it in the context and echoes it on the response.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(api.HeaderRequestID)
		if id == "" {
			id = transport.NewRequestID()
		}
		w.Header().Set(api.HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(transport.ContextWithRequestID(r.Context(), id)))
	})
}

// handleTransform handles POST /api/ApplyXSLTTransformation. Nothing is
// written until the invocation has finished. The invocation runs to
// completion when the client disconnects; only server shutdown (through
// the in-flight registry) or the transform timeout cancel it.
func (a *Adapter) handleTransform(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	key := transport.NewRequestID()
	a.inflight.Register(key, cancel)
	defer a.inflight.Remove(key)

	res, err := a.transformer.Transform(ctx, r.WithContext(ctx))
	if err == nil && res == nil {
		err = errors.New("transformation produced no result")
	}
	if err != nil {
		transport.WriteError(w, err, a.config.Clock)
		return
	}
	transport.WriteResult(w, res)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
