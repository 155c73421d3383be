package plugins

import (
	"context"
	"fmt"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// Service presents the whole registry as a single provider: search
// fans out across every search-capable plugin, resolution routes to the
// plugin that produced the song.
type Service struct {
	registry *Registry
}

// NewService wraps a registry as a provider.
func NewService(registry *Registry) *Service {
	return &Service{registry: registry}
}

// Source implements the provider contract.
func (s *Service) Source() models.Source { return models.SourcePlugin }

// Name implements the provider contract.
func (s *Service) Name() string { return "plugins" }

// Search queries each search-capable plugin in install order. A
// failing plugin contributes nothing; the batch fails only when no
// plugin is installed at all.
func (s *Service) Search(ctx context.Context, query string, _ string) ([]models.Song, error) {
	installed := s.registry.List()
	if len(installed) == 0 {
		return nil, fmt.Errorf("%w: no plugins installed", shared.ErrProviderUnavailable)
	}

	var songs []models.Song
	for _, p := range installed {
		if !p.CanSearch() {
			continue
		}
		batch, err := p.Search(ctx, query)
		if err != nil {
			continue
		}
		songs = append(songs, batch...)
	}
	return songs, nil
}

// Resolve routes the song back to its originating plugin.
func (s *Service) Resolve(ctx context.Context, song models.Song, _ models.Quality, _ string) (*models.PlayDetails, error) {
	p, ok := s.registry.Get(song.PluginID)
	if !ok {
		return nil, fmt.Errorf("%w: plugin %q not installed", shared.ErrResolutionFailed, song.PluginID)
	}
	u, err := p.Resolve(ctx, song)
	if err != nil {
		return nil, err
	}
	return &models.PlayDetails{URL: u}, nil
}
