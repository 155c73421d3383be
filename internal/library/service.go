package library

import (
	"context"
	"fmt"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// Service presents the library as a provider. Local tracks resolve to
// their file paths, which the HTTP layer serves directly.
type Service struct {
	lib   *Library
	limit int
}

// NewService wraps a library as a provider.
func NewService(lib *Library, limit int) *Service {
	if limit <= 0 {
		limit = 20
	}
	return &Service{lib: lib, limit: limit}
}

// Source implements the provider contract.
func (s *Service) Source() models.Source { return models.SourceLocal }

// Name implements the provider contract.
func (s *Service) Name() string { return "local" }

// Search implements the provider contract against the sqlite index.
func (s *Service) Search(ctx context.Context, query string, _ string) ([]models.Song, error) {
	return s.lib.Search(ctx, query, s.limit)
}

// Resolve implements the provider contract. Local songs carry their
// path from indexing time, so resolution is a lookup, not a fetch.
func (s *Service) Resolve(ctx context.Context, song models.Song, _ models.Quality, _ string) (*models.PlayDetails, error) {
	if song.AudioURL != "" {
		return &models.PlayDetails{URL: song.AudioURL}, nil
	}
	track, err := s.lib.Get(ctx, song.ID)
	if err != nil {
		return nil, err
	}
	if track.AudioURL == "" {
		return nil, fmt.Errorf("%w: track %s has no path", shared.ErrResolutionFailed, song.ID)
	}
	return &models.PlayDetails{URL: track.AudioURL}, nil
}
