package ops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultRemoteTimeout = 30 * time.Second
	remoteConcurrency    = 4
)

// RemoteResult reports one purge-handle API call.
type RemoteResult struct {
	AuthorHandle string `json:"author_handle"`
	OK           bool   `json:"ok"`
	Deleted      int64  `json:"deleted,omitempty"`
	Status       int    `json:"status,omitempty"`
	Error        string `json:"error,omitempty"`
}

// RemotePurger calls the dashboard API to purge handles from the hosted
// PostgreSQL database.
type RemotePurger struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRemotePurger creates a purge client for the given API base URL.
func NewRemotePurger(baseURL, apiKey string) *RemotePurger {
	return &RemotePurger{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultRemoteTimeout},
	}
}

// PurgeHandles purges each handle via the API, a few requests at a time.
// Per-handle failures are reported in the results, not returned as an
// error; results keep the input order.
func (p *RemotePurger) PurgeHandles(ctx context.Context, handles []string) []RemoteResult {
	results := make([]RemoteResult, len(handles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(remoteConcurrency)
	for i, handle := range handles {
		i, handle := i, handle
		g.Go(func() error {
			results[i] = p.purgeOne(ctx, handle)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (p *RemotePurger) purgeOne(ctx context.Context, handle string) RemoteResult {
	result := RemoteResult{AuthorHandle: handle}

	payload, err := json.Marshal(map[string]string{"author_handle": handle})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/ops/purge-handle", bytes.NewReader(payload))
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = fmt.Sprintf("read response: %v", err)
		return result
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Status = resp.StatusCode
		result.Error = strings.TrimSpace(string(body))
		return result
	}

	var parsed struct {
		Deleted int64 `json:"deleted"`
	}
	if len(bytes.TrimSpace(body)) > 0 {
		_ = json.Unmarshal(body, &parsed)
	}
	result.OK = true
	result.Deleted = parsed.Deleted
	return result
}
