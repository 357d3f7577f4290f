// Package pipeline runs one transformation invocation: validate the
// request, fetch the named stylesheet, compile it and apply it to the
// input document. Every failure is returned as a tagged *api.Error.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/rhuss/xsltfn/pkg/api"
	"github.com/rhuss/xsltfn/pkg/config"
	"github.com/rhuss/xsltfn/pkg/debug"
	"github.com/rhuss/xsltfn/pkg/observability"
	"github.com/rhuss/xsltfn/pkg/storage"
	"github.com/rhuss/xsltfn/pkg/transport"
	"github.com/rhuss/xsltfn/pkg/xslt"
)

// Stage names used for spans and the stage duration metric.
const (
	StageValidate = "validate"
	StageFetch    = "fetch"
	StageCompile  = "compile"
	StageApply    = "apply"
)

// TransformRequest is a validated invocation.
type TransformRequest struct {
	XsltFileName      string
	OutputContentType string
	Document          *xslt.Document

	// Storage settings read for this invocation.
	ConnectionString string
	ContainerName    string
}

// Options tune a Pipeline.
type Options struct {
	// Timeout bounds the apply stage. Zero means unbounded.
	Timeout time.Duration

	// MaxBodySize caps the request body in bytes. Zero means unlimited.
	MaxBodySize int64
}

// Pipeline executes transformation requests. It holds no per-request
// state and is safe for concurrent use.
type Pipeline struct {
	source config.Source
	opener storage.Opener
	opts   Options
}

// Ensure Pipeline implements transport.Transformer at compile time.
var _ transport.Transformer = (*Pipeline)(nil)

// New creates a pipeline reading settings from source and opening
// stylesheet storage through opener.
func New(source config.Source, opener storage.Opener, opts Options) *Pipeline {
	return &Pipeline{source: source, opener: opener, opts: opts}
}

// Transform executes all stages for r. The returned error is always an
// *api.Error.
func (p *Pipeline) Transform(ctx context.Context, r *http.Request) (*api.TransformResult, error) {
	var req *TransformRequest
	err := stage(ctx, StageValidate, func(context.Context) error {
		var err error
		req, err = p.Validate(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	var stylesheet []byte
	err = stage(ctx, StageFetch, func(ctx context.Context) error {
		var err error
		stylesheet, err = p.fetch(ctx, req)
		return err
	}, attribute.String("xsltfn.stylesheet", req.XsltFileName))
	if err != nil {
		return nil, err
	}

	var compiled *xslt.Stylesheet
	err = stage(ctx, StageCompile, func(context.Context) error {
		var err error
		compiled, err = xslt.Compile(stylesheet)
		if err != nil {
			return api.Errorf(api.KindCompilation, "stylesheet compilation failed: %w", err)
		}
		return nil
	}, attribute.Int("xsltfn.stylesheet.bytes", len(stylesheet)))
	if err != nil {
		return nil, err
	}
	defer compiled.Close()

	var output []byte
	err = stage(ctx, StageApply, func(ctx context.Context) error {
		var err error
		output, err = p.apply(ctx, compiled, req.Document)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &api.TransformResult{Output: output, ContentType: req.OutputContentType}, nil
}

// Validate reads the storage settings, headers and body of r, in that
// order, and parses the body as XML.
func (p *Pipeline) Validate(r *http.Request) (*TransformRequest, error) {
	connString := p.source.Lookup(config.KeyConnectionString)
	if connString == "" {
		return nil, api.NewConfigurationError("Storage Account Connection String configuration is missing.", nil)
	}
	container := p.source.Lookup(config.KeyContainerName)
	if container == "" {
		return nil, api.NewConfigurationError("Container name configuration is missing.", nil)
	}

	name := r.Header.Get(api.HeaderXsltFileName)
	if name == "" {
		return nil, api.NewValidationError("Header 'XsltFileName' is missing or empty.", nil)
	}

	contentType := r.Header.Get(api.HeaderOutputContentType)
	if contentType == "" {
		contentType = api.DefaultOutputContentType
	}

	body, err := p.readBody(r)
	if err != nil {
		return nil, err
	}

	doc, err := xslt.ParseDocument(body)
	if err != nil {
		return nil, api.Errorf(api.KindValidation, "malformed input XML: %w", err)
	}
	debug.Log("transform", "request validated",
		"stylesheet", name, "content_type", contentType, "root", doc.Root(), "bytes", len(body))

	return &TransformRequest{
		XsltFileName:      name,
		OutputContentType: contentType,
		Document:          doc,
		ConnectionString:  connString,
		ContainerName:     container,
	}, nil
}

func (p *Pipeline) readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	reader := io.Reader(r.Body)
	if p.opts.MaxBodySize > 0 {
		reader = io.LimitReader(r.Body, p.opts.MaxBodySize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, api.Errorf(api.KindValidation, "reading request body: %w", err)
	}
	if p.opts.MaxBodySize > 0 && int64(len(body)) > p.opts.MaxBodySize {
		return nil, api.Errorf(api.KindValidation, "request body exceeds %d bytes", p.opts.MaxBodySize)
	}
	return body, nil
}

// fetch opens storage for this invocation and downloads the stylesheet.
func (p *Pipeline) fetch(ctx context.Context, req *TransformRequest) ([]byte, error) {
	client, err := p.opener.Open(ctx, req.ConnectionString)
	if err != nil {
		if storage.IsConnectionStringError(err) {
			return nil, api.Errorf(api.KindConfiguration, "Storage Account Connection String is invalid: %w", err)
		}
		return nil, api.Errorf(api.KindStorage, "connecting to storage: %w", err)
	}
	defer client.Close()

	data, err := client.Fetch(ctx, req.ContainerName, req.XsltFileName)
	switch {
	case errors.Is(err, storage.ErrContainerNotFound):
		return nil, api.NewStorageError("The specified container does not exist.", err)
	case errors.Is(err, storage.ErrObjectNotFound):
		return nil, api.NewStorageError("The specified blob does not exist.", err)
	case err != nil:
		return nil, api.Errorf(api.KindStorage, "downloading stylesheet: %w", err)
	}
	return data, nil
}

// apply runs the transform, bounded by Options.Timeout when set.
func (p *Pipeline) apply(ctx context.Context, xs *xslt.Stylesheet, doc *xslt.Document) ([]byte, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	out, err := xs.Apply(ctx, doc)
	switch {
	case p.opts.Timeout > 0 && errors.Is(err, context.DeadlineExceeded):
		return nil, api.NewTransformError(fmt.Sprintf("transformation timed out after %s", p.opts.Timeout), err)
	case err != nil:
		return nil, api.Errorf(api.KindTransform, "transformation failed: %w", err)
	}
	return out, nil
}

// stage runs fn inside a span and records its duration.
func stage(ctx context.Context, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := observability.Tracer().Start(ctx, "xsltfn."+name)
	defer span.End()
	span.SetAttributes(attrs...)

	start := time.Now()
	err := fn(ctx)
	observability.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("xsltfn.error.kind", string(api.KindOf(err))))
	}
	return err
}
