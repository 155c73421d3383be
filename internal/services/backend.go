// Client for the optional operator-run relay backend.
//
// The backend runs privileged extraction logic the client side cannot
// (stable egress IP, server-side stream demuxing) and exposes three
// endpoints: GET /search?q=, GET /resolve?id=&source= and
// GET /relay?url=&referer=. When configured it is consulted before any
// public mirror.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
)

// BackendClient talks to the operator relay backend.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendClient creates a client for the backend at baseURL. The
// HTTP client defaults to [http.DefaultClient].
func NewBackendClient(baseURL string, client *http.Client) *BackendClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the configured backend base URL.
func (b *BackendClient) BaseURL() string { return b.baseURL }

func (b *BackendClient) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// SearchSongs queries the backend search endpoint and returns the
// unified songs it produced.
func (b *BackendClient) SearchSongs(ctx context.Context, query string) ([]models.Song, error) {
	var body struct {
		Songs []models.Song `json:"songs"`
	}
	path := "/search?q=" + url.QueryEscape(query)
	if err := b.get(ctx, path, &body); err != nil {
		return nil, err
	}
	return body.Songs, nil
}

// ResolveURL asks the backend for a playable URL. URLs for
// referer-locked sources come back pre-wrapped as backend relay URLs.
func (b *BackendClient) ResolveURL(ctx context.Context, id string, source models.Source) (string, error) {
	var body struct {
		URL string `json:"url"`
	}
	path := fmt.Sprintf("/resolve?id=%s&source=%s", url.QueryEscape(id), url.QueryEscape(string(source)))
	if err := b.get(ctx, path, &body); err != nil {
		return "", err
	}
	if body.URL == "" {
		return "", fmt.Errorf("backend returned no url")
	}
	return body.URL, nil
}

// RelayURL builds a backend relay URL wrapping target, optionally with
// a referer the upstream requires.
func (b *BackendClient) RelayURL(target, referer string) string {
	u := b.baseURL + "/relay?url=" + url.QueryEscape(target)
	if referer != "" {
		u += "&referer=" + url.QueryEscape(referer)
	}
	return u
}

// Ping checks backend reachability. Any HTTP exchange counts as
// reachable; a non-2xx search response still proves the host is up.
func (b *BackendClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/search?q=ping", nil)
	if err != nil {
		return err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
