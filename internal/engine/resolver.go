package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/services"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// Resolver routes a song to its source provider for URL resolution.
// For the video platforms the operator backend, when configured, is
// consulted first since its extraction is more reliable than public
// mirrors.
type Resolver struct {
	providers map[models.Source]services.Provider
	mu        sync.RWMutex
	backend   *services.BackendClient
	logger    *log.Logger
}

// NewResolver creates a resolver over the given providers. backend may
// be nil.
func NewResolver(providers []services.Provider, backend *services.BackendClient, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	m := make(map[models.Source]services.Provider, len(providers))
	for _, p := range providers {
		m[p.Source()] = p
	}
	return &Resolver{providers: m, backend: backend, logger: logger}
}

// SetBackend swaps the operator backend at runtime. A nil backend
// disables backend-first resolution.
func (r *Resolver) SetBackend(b *services.BackendClient) {
	r.mu.Lock()
	r.backend = b
	r.mu.Unlock()
}

func (r *Resolver) backendClient() *services.BackendClient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backend
}

func (r *Resolver) backendEligible(source models.Source) bool {
	return source == models.SourceBilibili || source == models.SourceYouTube
}

// Resolve produces play details for a song. Resolution errors keep
// their type so callers can distinguish a paywall from a dead upstream.
func (r *Resolver) Resolve(ctx context.Context, song models.Song, quality models.Quality, cred string) (*models.PlayDetails, error) {
	if backend := r.backendClient(); backend != nil && r.backendEligible(song.Source) {
		if u, err := backend.ResolveURL(ctx, song.ID, song.Source); err == nil {
			// Backend relay URLs already embed any referer requirement.
			return &models.PlayDetails{URL: u}, nil
		} else {
			r.logger.Debug("backend resolve failed, falling back", "source", song.Source, "err", err)
		}
	}

	p, ok := r.providers[song.Source]
	if !ok {
		return nil, fmt.Errorf("%w: no provider for source %s", shared.ErrResolutionFailed, song.Source)
	}
	details, err := p.Resolve(ctx, song, quality, cred)
	if err != nil {
		return nil, err
	}
	return details, nil
}
