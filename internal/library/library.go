// package library indexes a local music directory into sqlite and
// serves it as one more searchable source.
package library

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/charmbracelet/log"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".wav":  true,
	".opus": true,
}

const schema = `
CREATE TABLE IF NOT EXISTS local_tracks (
	id TEXT PRIMARY KEY,
	path TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	artist TEXT NOT NULL DEFAULT '',
	album TEXT NOT NULL DEFAULT '',
	duration INTEGER NOT NULL DEFAULT 0
);
`

// Library is the sqlite-backed index over a local music directory.
type Library struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens (creating if needed) the index database at path.
func Open(path string, logger *log.Logger) (*Library, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Library{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (l *Library) Close() error { return l.db.Close() }

// Scan walks dir for audio files and indexes anything new. Filenames
// shaped "Artist - Title.ext" split into both fields; anything else
// becomes the title. Returns the number of newly indexed tracks.
func (l *Library) Scan(ctx context.Context, dir string) (int, error) {
	if dir == "" {
		return 0, fmt.Errorf("%w: music directory not set", shared.ErrMissingConfig)
	}

	added := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		artist, title := splitFilename(d.Name())
		res, err := l.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO local_tracks (id, path, title, artist) VALUES (?, ?, ?, ?)`,
			shared.GenerateID(), path, title, artist)
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", path, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
		return nil
	})
	if err != nil {
		return added, err
	}

	l.logger.Info("library scan complete", "dir", dir, "added", added)
	return added, nil
}

// splitFilename parses "Artist - Title.ext" naming. Without the
// separator the whole stem is the title.
func splitFilename(name string) (artist, title string) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if before, after, ok := strings.Cut(stem, " - "); ok {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return "", stem
}

// Search matches indexed tracks by title or artist substring.
func (l *Library) Search(ctx context.Context, query string, limit int) ([]models.Song, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, path, title, artist, album, duration FROM local_tracks
		 WHERE title LIKE ? OR artist LIKE ? ORDER BY artist, title LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query library: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		s, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

// Get returns the indexed track with the given id.
func (l *Library) Get(ctx context.Context, id string) (*models.Song, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, path, title, artist, album, duration FROM local_tracks WHERE id = ?`, id)
	s, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: track %s not indexed", shared.ErrResolutionFailed, id)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Count returns the number of indexed tracks.
func (l *Library) Count(ctx context.Context) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM local_tracks`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(r rowScanner) (models.Song, error) {
	var s models.Song
	var path string
	if err := r.Scan(&s.ID, &path, &s.Title, &s.Artist, &s.Album, &s.Duration); err != nil {
		return models.Song{}, err
	}
	s.Source = models.SourceLocal
	s.AudioURL = path
	if s.Album == "" {
		s.Album = "Local"
	}
	return s, nil
}
