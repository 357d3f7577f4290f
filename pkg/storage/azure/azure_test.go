package azure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rhuss/xsltfn/pkg/storage"
)

const testKey = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="

// fakeBlobService serves GET /<account>/<container>/<blob> from blobs and
// answers unknown paths the way the blob service does.
type fakeBlobService struct {
	blobs    map[string]map[string]string
	requests atomic.Int32
	fail     bool
}

func (f *fakeBlobService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	if f.fail {
		w.Header().Set("x-ms-error-code", "InternalError")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// /devstoreaccount1/<container>/<blob...>
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 3)
	if len(parts) != 3 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	container, ok := f.blobs[parts[1]]
	if !ok {
		w.Header().Set("x-ms-error-code", "ContainerNotFound")
		w.WriteHeader(http.StatusNotFound)
		return
	}
	content, ok := container[parts[2]]
	if !ok {
		w.Header().Set("x-ms-error-code", "BlobNotFound")
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content))
}

func newFake(t *testing.T) (*fakeBlobService, string) {
	t.Helper()
	fake := &fakeBlobService{blobs: map[string]map[string]string{
		"xslt": {"identity.xslt": "<xsl:stylesheet/>"},
	}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	conn := "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=" + testKey +
		";BlobEndpoint=" + srv.URL + "/devstoreaccount1;"
	return fake, conn
}

func TestFetch(t *testing.T) {
	_, conn := newFake(t)
	ctx := context.Background()

	client, err := (&Driver{}).Open(ctx, conn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer client.Close()

	got, err := client.Fetch(ctx, "xslt", "identity.xslt")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(got) != "<xsl:stylesheet/>" {
		t.Errorf("content = %q", got)
	}
}

func TestFetchNotFound(t *testing.T) {
	_, conn := newFake(t)
	ctx := context.Background()

	client, err := (&Driver{}).Open(ctx, conn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, err := client.Fetch(ctx, "xslt", "missing.xslt"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Errorf("missing blob error = %v, want ErrObjectNotFound", err)
	}
	if _, err := client.Fetch(ctx, "other", "identity.xslt"); !errors.Is(err, storage.ErrContainerNotFound) {
		t.Errorf("missing container error = %v, want ErrContainerNotFound", err)
	}
}

func TestFetchNoRetry(t *testing.T) {
	fake, conn := newFake(t)
	fake.fail = true
	ctx := context.Background()

	client, err := (&Driver{}).Open(ctx, conn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	_, err = client.Fetch(ctx, "xslt", "identity.xslt")
	if err == nil {
		t.Fatal("expected error from failing service")
	}
	if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrContainerNotFound) {
		t.Errorf("server failure should not map to a not-found sentinel: %v", err)
	}
	if n := fake.requests.Load(); n != 1 {
		t.Errorf("requests = %d, want exactly 1 (no retry)", n)
	}
}

func TestOpenInvalid(t *testing.T) {
	tests := []string{
		"Foo=bar",
		"AccountName=acct;garbage",
		"AccountName=acct",
	}
	for _, conn := range tests {
		if _, err := (&Driver{}).Open(context.Background(), conn); !errors.Is(err, storage.ErrInvalidConnectionString) {
			t.Errorf("Open(%q) error = %v, want ErrInvalidConnectionString", conn, err)
		}
	}
}

func TestOpenDevelopmentStorage(t *testing.T) {
	if _, err := (&Driver{}).Open(context.Background(), "UseDevelopmentStorage=true"); err != nil {
		t.Errorf("Open(UseDevelopmentStorage=true) failed: %v", err)
	}
}

func TestAccepts(t *testing.T) {
	d := &Driver{}
	if !d.Accepts("AccountName=a;AccountKey=b") {
		t.Error("key/value connection string should be accepted")
	}
	if d.Accepts("not-a-connection-string") {
		t.Error("plain string should not be accepted")
	}
}
