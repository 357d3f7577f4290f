package transport

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rhuss/xsltfn/pkg/api"
)

func newRequest() *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/ApplyXSLTTransformation", strings.NewReader("<a/>"))
	r.Header.Set(api.HeaderXsltFileName, "rename.xslt")
	return r
}

func TestChainAppliesMiddlewareInOrder(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Transformer) Transformer {
			return TransformerFunc(func(ctx context.Context, r *http.Request) (*api.TransformResult, error) {
				order = append(order, name+":before")
				res, err := next.Transform(ctx, r)
				order = append(order, name+":after")
				return res, err
			})
		}
	}

	handler := TransformerFunc(func(ctx context.Context, r *http.Request) (*api.TransformResult, error) {
		order = append(order, "handler")
		return &api.TransformResult{}, nil
	})

	Chain(mw("first"), mw("second"))(handler).Transform(context.Background(), newRequest())

	want := "first:before,second:before,handler,second:after,first:after"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestRecoveryConvertsPanic(t *testing.T) {
	handler := Recovery()(TransformerFunc(func(ctx context.Context, r *http.Request) (*api.TransformResult, error) {
		panic("boom")
	}))

	res, err := handler.Transform(context.Background(), newRequest())
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	if res != nil {
		t.Error("result should be nil after a panic")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q should mention the panic value", err)
	}
	if api.KindOf(err) != "UnknownError" {
		t.Errorf("kind = %s, want UnknownError", api.KindOf(err))
	}
}

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if len(a) != 36 || a == b {
		t.Errorf("request IDs %q and %q should be distinct UUIDs", a, b)
	}
}

func TestLoggingSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := Logging(logger)(TransformerFunc(func(ctx context.Context, r *http.Request) (*api.TransformResult, error) {
		return &api.TransformResult{Output: []byte("<c/>"), ContentType: "text/xml"}, nil
	}))
	handler.Transform(ContextWithRequestID(context.Background(), "req-1"), newRequest())

	out := buf.String()
	for _, want := range []string{"transformation completed", "request_id=req-1", "stylesheet=rename.xslt", "bytes=4"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestLoggingFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := Logging(logger)(TransformerFunc(func(ctx context.Context, r *http.Request) (*api.TransformResult, error) {
		return nil, api.NewStorageError("The specified blob does not exist.", errors.New("404"))
	}))
	handler.Transform(context.Background(), newRequest())

	out := buf.String()
	for _, want := range []string{"level=WARN", "transformation failed", "kind=StorageError"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
