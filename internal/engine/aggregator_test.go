package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/services"
	tu "github.com/pengyanjia146-a11y/wyy/internal/testing"
)

func song(source models.Source, id, title string) models.Song {
	return models.Song{ID: id, Title: title, Source: source}
}

func TestAggregatorSearch(t *testing.T) {
	t.Run("Merges all providers", func(t *testing.T) {
		a := NewAggregator([]services.Provider{
			&tu.MockProvider{ProviderSource: models.SourceNetease, Songs: []models.Song{
				song(models.SourceNetease, "1", "one"),
				song(models.SourceNetease, "2", "two"),
			}},
			&tu.MockProvider{ProviderSource: models.SourceBilibili, Songs: []models.Song{
				song(models.SourceBilibili, "BV1", "three"),
			}},
		}, nil)

		songs := a.SearchAll(context.Background(), "q", "")
		if len(songs) != 3 {
			t.Errorf("expected 3 songs, got %d", len(songs))
		}
	})

	t.Run("A failing provider never fails the search", func(t *testing.T) {
		a := NewAggregator([]services.Provider{
			&tu.MockProvider{ProviderSource: models.SourceNetease, Songs: []models.Song{
				song(models.SourceNetease, "1", "one"),
			}},
			&tu.MockProvider{ProviderSource: models.SourceYouTube, Err: errors.New("mirror down")},
		}, nil)

		var okCount, failCount int
		for res := range a.Search(context.Background(), "q", "") {
			if res.OK {
				okCount++
			} else {
				failCount++
				if len(res.Songs) != 0 {
					t.Error("failed batch must be empty")
				}
			}
		}
		if okCount != 1 || failCount != 1 {
			t.Errorf("expected 1 ok + 1 failed batch, got %d/%d", okCount, failCount)
		}
	})

	t.Run("Slow provider is cut off without delaying others", func(t *testing.T) {
		a := NewAggregator([]services.Provider{
			&tu.MockProvider{ProviderSource: models.SourceNetease, Songs: []models.Song{
				song(models.SourceNetease, "1", "fast"),
			}},
			&tu.MockProvider{ProviderSource: models.SourceYouTube, Delay: 5 * time.Second, Songs: []models.Song{
				song(models.SourceYouTube, "y1", "slow"),
			}},
		}, nil)
		a.SetBudget(models.SourceYouTube, 50*time.Millisecond)

		start := time.Now()
		songs := a.SearchAll(context.Background(), "q", "")
		elapsed := time.Since(start)

		if len(songs) != 1 || songs[0].Title != "fast" {
			t.Errorf("expected only the fast provider's song, got %+v", songs)
		}
		if elapsed > 2*time.Second {
			t.Errorf("search took %v, budget was not enforced", elapsed)
		}
	})

	t.Run("Duplicate keys across batches are dropped", func(t *testing.T) {
		// Same (source, id) from two providers claiming the same source.
		a := NewAggregator([]services.Provider{
			&tu.MockProvider{ProviderSource: models.SourceNetease, Songs: []models.Song{
				song(models.SourceNetease, "1", "one"),
			}},
			&tu.MockProvider{ProviderSource: models.SourceNetease, ProviderName: "mock2", Songs: []models.Song{
				song(models.SourceNetease, "1", "one again"),
				song(models.SourceNetease, "2", "two"),
			}},
		}, nil)

		songs := a.SearchAll(context.Background(), "q", "")
		if len(songs) != 2 {
			t.Errorf("expected dedupe to 2 songs, got %d: %+v", len(songs), songs)
		}
		seen := map[string]bool{}
		for _, s := range songs {
			if seen[s.Key()] {
				t.Errorf("duplicate key %s emitted", s.Key())
			}
			seen[s.Key()] = true
		}
	})

	t.Run("Same id from different sources both survive", func(t *testing.T) {
		a := NewAggregator([]services.Provider{
			&tu.MockProvider{ProviderSource: models.SourceNetease, Songs: []models.Song{
				song(models.SourceNetease, "42", "netease song"),
			}},
			&tu.MockProvider{ProviderSource: models.SourceYouTube, Songs: []models.Song{
				song(models.SourceYouTube, "42", "youtube song"),
			}},
		}, nil)

		songs := a.SearchAll(context.Background(), "q", "")
		if len(songs) != 2 {
			t.Errorf("expected both songs, got %d", len(songs))
		}
	})

	t.Run("Cancelled context ends the stream", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		a := NewAggregator([]services.Provider{
			&tu.MockProvider{ProviderSource: models.SourceNetease, Delay: time.Second},
		}, nil)

		done := make(chan struct{})
		go func() {
			for range a.Search(ctx, "q", "") {
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("stream did not end after cancellation")
		}
	})
}
