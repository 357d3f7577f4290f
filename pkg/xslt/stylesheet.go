package xslt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	goxslt "github.com/wamuir/go-xslt"

	"github.com/rhuss/xsltfn/pkg/debug"
)

// Sentinel errors for stylesheet operations.
var (
	// ErrEmptyStylesheet is returned when Compile is given no content.
	ErrEmptyStylesheet = errors.New("stylesheet is empty")

	// ErrClosed is returned by Apply after Close.
	ErrClosed = errors.New("stylesheet is closed")
)

// Stylesheet is a compiled XSLT program.
type Stylesheet struct {
	mu      sync.Mutex
	xs      *goxslt.Stylesheet
	running int
	closed  bool
}

// Compile parses and compiles an XSLT stylesheet.
func Compile(data []byte) (*Stylesheet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyStylesheet
	}
	var xs *goxslt.Stylesheet
	err := withLibxml("compile", func() error {
		var err error
		xs, err = goxslt.NewStylesheet(data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("compiling stylesheet: %w", err)
	}
	debug.Log("transform", "stylesheet compiled", "bytes", len(data))
	return &Stylesheet{xs: xs}, nil
}

// Apply transforms doc and returns the serialized result, encoded as the
// stylesheet's xsl:output declares.
func (s *Stylesheet) Apply(ctx context.Context, doc *Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("transformation aborted: %w", err)
	}
	if !s.acquire() {
		return nil, ErrClosed
	}

	if ctx.Done() == nil {
		defer s.release()
		return s.transform(doc)
	}

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer s.release()
		out, err := s.transform(doc)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		debug.Log("transform", "transformation abandoned", "reason", ctx.Err())
		return nil, fmt.Errorf("transformation aborted: %w", ctx.Err())
	}
}

func (s *Stylesheet) transform(doc *Document) ([]byte, error) {
	var out []byte
	err := withLibxml("apply", func() error {
		var err error
		out, err = s.xs.Transform(doc.Bytes())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("applying stylesheet: %w", err)
	}
	if debug.TraceIsEnabled("transform") {
		debug.Trace("transform", "transformation output", "preview", debug.Truncate(string(out), 512))
	}
	return out, nil
}

// Close releases the compiled stylesheet. It returns immediately; native
// memory is freed when no transform is running. Close is idempotent.
func (s *Stylesheet) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.running == 0 {
		s.free()
	}
}

func (s *Stylesheet) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.running++
	return true
}

func (s *Stylesheet) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running--
	if s.closed && s.running == 0 {
		s.free()
	}
}

// free must be called with mu held.
func (s *Stylesheet) free() {
	if s.xs != nil {
		s.xs.Close()
		s.xs = nil
	}
}
