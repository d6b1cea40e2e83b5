package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pairank/internal/app"
	"github.com/okian/pairank/internal/domain/types"
)

// HTTPClient wraps http.Client for the ranking API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// do sends body as JSON and decodes the response into out when it is non-nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, want ...int) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	ok := false
	for _, code := range want {
		ok = ok || resp.StatusCode == code
	}
	if !ok {
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// runRemote drives a running server through its HTTP API.
func runRemote(ctx context.Context, cfg Config, names []string, oracle *Oracle) (Report, error) {
	start := time.Now()
	c := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	if err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK); err != nil {
		return Report{}, fmt.Errorf("service health check failed: %w", err)
	}

	for _, n := range names {
		body := map[string]string{"name": n, "request_id": uuid.NewString()}
		if err := c.do(ctx, http.MethodPost, "/items", body, nil, http.StatusCreated, http.StatusOK); err != nil {
			return Report{}, err
		}
	}

	var rep Report
	for {
		var p app.Prompt
		if err := c.do(ctx, http.MethodGet, "/comparison", nil, &p, http.StatusOK); err != nil {
			return Report{}, err
		}
		if p.Complete {
			break
		}
		side, err := oracle.Choose(ctx, p.ItemA.Name, p.ItemB.Name)
		if err != nil {
			return Report{}, err
		}
		body := map[string]int{"winner_side": int(side)}
		if err := c.do(ctx, http.MethodPost, "/comparison", body, nil, http.StatusOK); err != nil {
			return Report{}, err
		}
		rep.Comparisons++
	}

	var entries []types.Entry
	if err := c.do(ctx, http.MethodGet, "/ranking", nil, &entries, http.StatusOK); err != nil {
		return Report{}, err
	}
	ranked := make([]string, len(entries))
	allLocked := true
	for i, e := range entries {
		ranked[i] = e.Name
		allLocked = allLocked && e.Locked
	}
	rep.Duration = time.Since(start)
	finish(&rep, ranked, oracle.Truth(), allLocked)
	return rep, nil
}
