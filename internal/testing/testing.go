// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
)

// MockProvider is a configurable test double for the provider
// interface: fixed songs, a forced error, or an artificial delay.
type MockProvider struct {
	ProviderSource models.Source
	ProviderName   string
	Songs          []models.Song
	Details        *models.PlayDetails
	Err            error
	Delay          time.Duration
}

func (m *MockProvider) Search(ctx context.Context, query string, cred string) ([]models.Song, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Songs, nil
}

func (m *MockProvider) Resolve(ctx context.Context, song models.Song, quality models.Quality, cred string) (*models.PlayDetails, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Details != nil {
		return m.Details, nil
	}
	return &models.PlayDetails{URL: "https://example.com/" + song.ID}, nil
}

func (m *MockProvider) Source() models.Source { return m.ProviderSource }

func (m *MockProvider) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
