// Package azure fetches stylesheets from Azure Blob Storage using
// storage-account connection strings of the form
// "DefaultEndpointsProtocol=https;AccountName=...;AccountKey=...".
package azure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/rhuss/xsltfn/pkg/storage"
)

// developmentStorage is the Azurite emulator connection string that
// "UseDevelopmentStorage=true" stands for.
const developmentStorage = "DefaultEndpointsProtocol=http;" +
	"AccountName=devstoreaccount1;" +
	"AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;" +
	"BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

// Driver opens Azure Blob Storage clients.
type Driver struct {
	// HTTPClient overrides the transport used by the SDK. Nil uses the
	// SDK default.
	HTTPClient *http.Client
}

// Ensure Driver implements storage.Driver at compile time.
var _ storage.Driver = (*Driver)(nil)

// Name returns the driver label.
func (d *Driver) Name() string { return "azblob" }

// Accepts reports whether connString looks like a Key=Value list.
func (d *Driver) Accepts(connString string) bool {
	return strings.Contains(connString, "=")
}

// Open builds a blob service client. Retries are disabled: a failed
// download surfaces immediately.
func (d *Driver) Open(_ context.Context, connString string) (storage.Client, error) {
	if strings.EqualFold(strings.TrimSpace(strings.TrimSuffix(connString, ";")), "UseDevelopmentStorage=true") {
		connString = developmentStorage
	}

	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
	}
	if d.HTTPClient != nil {
		opts.Transport = d.HTTPClient
	}

	client, err := azblob.NewClientFromConnectionString(connString, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidConnectionString, err)
	}
	return &Client{client: client}, nil
}

// Client downloads blobs through an azblob service client.
type Client struct {
	client *azblob.Client
}

// Fetch downloads container/name fully into memory.
func (c *Client) Fetch(ctx context.Context, container, name string) ([]byte, error) {
	resp, err := c.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		return nil, classify(err, container, name)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading blob %q: %w", name, err)
	}
	return data, nil
}

// Close is a no-op; the SDK client holds no per-instance resources.
func (c *Client) Close() error { return nil }

func classify(err error, container, name string) error {
	switch {
	case bloberror.HasCode(err, bloberror.ContainerNotFound):
		return fmt.Errorf("container %q: %w", container, storage.ErrContainerNotFound)
	case bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ResourceNotFound):
		return fmt.Errorf("blob %q in container %q: %w", name, container, storage.ErrObjectNotFound)
	}
	return fmt.Errorf("downloading blob %q: %w", name, err)
}
