package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSplitFilename(t *testing.T) {
	cases := []struct {
		name, artist, title string
	}{
		{"周杰伦 - 稻香.mp3", "周杰伦", "稻香"},
		{"untitled.flac", "", "untitled"},
		{"A - B - C.ogg", "A", "B - C"},
	}
	for _, c := range cases {
		artist, title := splitFilename(c.name)
		if artist != c.artist || title != c.title {
			t.Errorf("splitFilename(%q) = %q/%q, expected %q/%q", c.name, artist, title, c.artist, c.title)
		}
	}
}

func TestLibraryScan(t *testing.T) {
	t.Run("Indexes audio files only", func(t *testing.T) {
		lib := newTestLibrary(t)
		dir := t.TempDir()
		writeFiles(t, dir,
			"周杰伦 - 稻香.mp3",
			"sub/Artist - Nested.flac",
			"notes.txt",
			"cover.jpg",
		)

		added, err := lib.Scan(context.Background(), dir)
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if added != 2 {
			t.Errorf("expected 2 indexed, got %d", added)
		}
	})

	t.Run("Rescan is idempotent", func(t *testing.T) {
		lib := newTestLibrary(t)
		dir := t.TempDir()
		writeFiles(t, dir, "a - b.mp3")

		lib.Scan(context.Background(), dir)
		added, err := lib.Scan(context.Background(), dir)
		if err != nil {
			t.Fatalf("rescan failed: %v", err)
		}
		if added != 0 {
			t.Errorf("expected 0 new on rescan, got %d", added)
		}
		if n, _ := lib.Count(context.Background()); n != 1 {
			t.Errorf("expected 1 track total, got %d", n)
		}
	})

	t.Run("Empty dir setting is a config error", func(t *testing.T) {
		lib := newTestLibrary(t)
		if _, err := lib.Scan(context.Background(), ""); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestLibrarySearch(t *testing.T) {
	lib := newTestLibrary(t)
	dir := t.TempDir()
	writeFiles(t, dir, "周杰伦 - 稻香.mp3", "周杰伦 - 晴天.mp3", "Other - Song.mp3")
	lib.Scan(context.Background(), dir)

	t.Run("Matches artist substring", func(t *testing.T) {
		songs, err := lib.Search(context.Background(), "周杰伦", 20)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(songs) != 2 {
			t.Errorf("expected 2 songs, got %d", len(songs))
		}
		for _, s := range songs {
			if s.Source != models.SourceLocal {
				t.Errorf("expected LOCAL source, got %s", s.Source)
			}
			if s.AudioURL == "" {
				t.Error("expected path carried in AudioURL")
			}
		}
	})

	t.Run("Matches title substring", func(t *testing.T) {
		songs, _ := lib.Search(context.Background(), "稻香", 20)
		if len(songs) != 1 {
			t.Errorf("expected 1 song, got %d", len(songs))
		}
	})

	t.Run("No match", func(t *testing.T) {
		songs, err := lib.Search(context.Background(), "nothing here", 20)
		if err != nil || len(songs) != 0 {
			t.Errorf("expected empty result, got %v/%v", songs, err)
		}
	})
}

func TestLibraryService(t *testing.T) {
	lib := newTestLibrary(t)
	dir := t.TempDir()
	writeFiles(t, dir, "a - b.mp3")
	lib.Scan(context.Background(), dir)

	svc := NewService(lib, 20)
	songs, err := svc.Search(context.Background(), "b", "")
	if err != nil || len(songs) != 1 {
		t.Fatalf("Search failed: %v (%d songs)", err, len(songs))
	}

	t.Run("Resolve by carried path", func(t *testing.T) {
		details, err := svc.Resolve(context.Background(), songs[0], models.QualityHigh, "")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if details.URL != songs[0].AudioURL {
			t.Errorf("expected identity resolve, got %q", details.URL)
		}
	})

	t.Run("Resolve by id lookup", func(t *testing.T) {
		bare := models.Song{ID: songs[0].ID, Source: models.SourceLocal}
		details, err := svc.Resolve(context.Background(), bare, models.QualityHigh, "")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if details.URL != songs[0].AudioURL {
			t.Errorf("expected lookup resolve, got %q", details.URL)
		}
	})

	t.Run("Unknown id", func(t *testing.T) {
		_, err := svc.Resolve(context.Background(), models.Song{ID: "missing", Source: models.SourceLocal}, models.QualityHigh, "")
		if !errors.Is(err, shared.ErrResolutionFailed) {
			t.Errorf("expected ErrResolutionFailed, got %v", err)
		}
	})
}
