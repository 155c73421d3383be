// package services defines interface Provider for the upstream music catalogs
//
// NetEase Cloud Music, Bilibili, YouTube (via Piped/Invidious mirror pools)
package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
)

// Provider is one external music catalog behind the aggregation engine.
type Provider interface {
	// Search returns songs matching the query in the source's native
	// relevance order. The context carries the provider's timeout
	// budget. Implementations fail soft: a network error, malformed
	// payload or timeout yields an error that the aggregation layer
	// logs and treats as an empty batch; it is never surfaced per
	// item. Missing or malformed optional fields in an otherwise valid
	// payload map to zero values, never a failure.
	Search(ctx context.Context, query string, cred string) ([]models.Song, error)

	// Resolve produces a playable URL, and opportunistically a lyric
	// payload, for a song previously returned by Search. Unlike
	// Search, resolution faults are typed and surfaced:
	// [shared.ErrPaywallRequired] when the content exists but is
	// access-gated, [shared.ErrResolutionFailed] when no fallback
	// produced a URL.
	Resolve(ctx context.Context, song models.Song, quality models.Quality, cred string) (*models.PlayDetails, error)

	// Source returns the catalog this provider serves.
	Source() models.Source

	// Name returns a human-readable provider name for logs and
	// diagnostics.
	Name() string
}

// ParseDuration converts a colon-delimited clock string ("MM:SS" or
// "HH:MM:SS") to whole seconds. Unparseable input yields 0.
func ParseDuration(s string) int {
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// MillisToSeconds converts a millisecond duration to whole seconds,
// clamping negatives to 0.
func MillisToSeconds(ms int64) int {
	if ms <= 0 {
		return 0
	}
	return int(ms / 1000)
}

// upgradeScheme rewrites http:// URLs to https://. Some sources still
// hand out plain-http CDN links that mixed-content policies would
// block; this applies to playback URLs as well as covers.
func upgradeScheme(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// NormalizeCoverURL upgrades http:// cover URLs to https:// and
// prefixes protocol-relative URLs, so every Song carries an absolute
// HTTPS cover reference.
func NormalizeCoverURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return upgradeScheme(u)
}

var markupRe = regexp.MustCompile(`<[^>]*>`)

// StripTags removes embedded markup from titles. Some sources wrap the
// matched query in emphasis tags for search-result highlighting.
func StripTags(s string) string {
	return markupRe.ReplaceAllString(s, "")
}
