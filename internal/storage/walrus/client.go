// Package walrus adapts a Walrus publisher/aggregator pair as the content
// store for certificate artifacts.
//
// The adapter guarantees that Fetch(ref) returns exactly the bytes passed to
// the Store call that produced ref, or fails explicitly. It performs no
// retries; transient failures surface as storage errors for the caller to
// retry.
package walrus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	id "vellum/pkg/domain"
	dErrors "vellum/pkg/domain-errors"
)

// Scheme is the addressing scheme of refs produced by this adapter.
const Scheme = "walrus"

// Client talks to a Walrus publisher (writes) and aggregator (reads).
type Client struct {
	publisherURL  string
	aggregatorURL string
	httpClient    *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates a Walrus client. Timeout applies per request.
func New(publisherURL, aggregatorURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		publisherURL:  strings.TrimRight(publisherURL, "/"),
		aggregatorURL: strings.TrimRight(aggregatorURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// storeResponse is the publisher's reply. A blob that already exists on the
// network comes back as alreadyCertified; either way the blob ID is the
// content address.
type storeResponse struct {
	NewlyCreated *struct {
		BlobObject struct {
			BlobID string `json:"blobId"`
		} `json:"blobObject"`
	} `json:"newlyCreated"`
	AlreadyCertified *struct {
		BlobID string `json:"blobId"`
	} `json:"alreadyCertified"`
}

// Store uploads the artifact and returns its immutable content address.
func (c *Client) Store(ctx context.Context, data []byte, contentType string) (id.StorageRef, error) {
	url := fmt.Sprintf("%s/v1/blobs", c.publisherURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create store request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "store request timed out")
		}
		return "", dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "publisher unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", dErrors.New(dErrors.CodeStorageUnavailable,
			fmt.Sprintf("publisher returned status %d", resp.StatusCode))
	}

	var parsed storeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "invalid publisher response")
	}

	var blobID string
	switch {
	case parsed.NewlyCreated != nil:
		blobID = parsed.NewlyCreated.BlobObject.BlobID
	case parsed.AlreadyCertified != nil:
		blobID = parsed.AlreadyCertified.BlobID
	}
	if blobID == "" {
		return "", dErrors.New(dErrors.CodeStorageUnavailable, "publisher response missing blob ID")
	}

	return id.NewStorageRef(Scheme, blobID), nil
}

// Fetch retrieves the exact bytes behind a ref, or fails explicitly with
// not_found (blob unknown) or storage_unavailable (gateway failure).
func (c *Client) Fetch(ctx context.Context, ref id.StorageRef) ([]byte, error) {
	if ref.Scheme() != Scheme {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("unsupported storage scheme %q", ref.Scheme()))
	}

	url := fmt.Sprintf("%s/v1/blobs/%s", c.aggregatorURL, ref.ContentID())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create fetch request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "fetch request timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "aggregator unreachable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, dErrors.New(dErrors.CodeNotFound, "blob not found")
	default:
		return nil, dErrors.New(dErrors.CodeStorageUnavailable,
			fmt.Sprintf("aggregator returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "failed to read blob body")
	}
	return data, nil
}

// Health checks aggregator reachability for the readiness probe.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.aggregatorURL+"/v1/api", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("aggregator returned status %d", resp.StatusCode)
	}
	return nil
}
