// package formatter provides functions to export search results to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// ExportToCSV converts a song list to CSV with columns: Source, ID, Title, Artist, Album, Duration
func ExportToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Source", "ID", "Title", "Artist", "Album", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			string(song.Source),
			song.ID,
			song.Title,
			song.Artist,
			song.Album,
			strconv.Itoa(song.Duration),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a song list to a Markdown document titled by the query
func ExportToMarkdown(query string, songs []models.Song) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Results for %q\n\n", query))
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", len(songs)))

	for i, song := range songs {
		duration := shared.FormatDuration(song.Duration)
		albumPart := ""
		if song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. [%s] %s - %s%s [%s]\n", i+1, song.Source, song.Artist, song.Title, albumPart, duration))
	}

	return buf.Bytes()
}

// ExportToText renders a song list as an aligned plain-text table
func ExportToText(songs []models.Song) []byte {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "SOURCE\tID\tTITLE\tARTIST\tALBUM\tDURATION")
	for _, song := range songs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			song.Source,
			song.ID,
			song.Title,
			song.Artist,
			song.Album,
			shared.FormatDuration(song.Duration),
		)
	}

	w.Flush()
	return buf.Bytes()
}
