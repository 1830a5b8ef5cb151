package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultEndpoint is the chat route of a locally running reference server.
const DefaultEndpoint = "http://localhost:8000/chat"

// maxReplyBytes bounds how much of a reply body is read.
const maxReplyBytes = 8 << 20

// HTTPBackend posts JSON requests to a chat endpoint. The client has no
// timeout: a request runs until the server answers or the context ends.
type HTTPBackend struct {
	endpoint string
	client   *http.Client
}

func NewHTTPBackend(endpoint string) *HTTPBackend {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HTTPBackend{
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

// WithHTTPClient swaps the underlying client.
func (b *HTTPBackend) WithHTTPClient(c *http.Client) *HTTPBackend {
	b.client = c
	return b
}

func (b *HTTPBackend) Endpoint() string { return b.endpoint }

func (b *HTTPBackend) Send(ctx context.Context, req Request) (Reply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Reply{}, b.fail(0, fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return Reply{}, b.fail(0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return Reply{}, b.fail(0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Reply{}, b.fail(resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, b.fail(resp.StatusCode, fmt.Errorf("HTTP error! status: %d", resp.StatusCode))
	}

	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return Reply{}, b.fail(resp.StatusCode, fmt.Errorf("decode body: %w", err))
	}
	return reply, nil
}

func (b *HTTPBackend) fail(status int, err error) *RequestError {
	return &RequestError{Endpoint: b.endpoint, StatusCode: status, Err: err}
}
