// package models defines the unified data model for the music aggregation service
package models

import "time"

// Source identifies the catalog a Song came from. Song IDs are scoped
// per Source: two sources may use the same ID string for unrelated
// songs, so callers always key by (Source, ID).
type Source string

const (
	SourceNetease  Source = "NETEASE"
	SourceBilibili Source = "BILIBILI"
	SourceYouTube  Source = "YOUTUBE"
	SourceLocal    Source = "LOCAL"
	SourcePlugin   Source = "PLUGIN"
)

// Quality is the caller-requested playback tier. Each tier maps to a
// provider-specific bitrate request that the source may negotiate down
// from.
type Quality string

const (
	QualityStandard Quality = "standard"
	QualityHigh     Quality = "exhigh"
	QualityLossless Quality = "lossless"
)

// FeeTier classifies access restrictions on a song so playback can
// pre-flight a paywall check before requesting a URL.
type FeeTier int

const (
	FeeFree FeeTier = iota
	FeeVIP
	FeePremium
)

// Song is the unified result record every provider adapter maps its
// native response shape into. Normalization (duration units, cover URL
// scheme, markup stripping) happens once on ingest so nothing
// downstream special-cases source quirks.
type Song struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	ArtistID   string  `json:"artistId,omitempty"`
	Album      string  `json:"album"`
	CoverURL   string  `json:"coverUrl"`
	Source     Source  `json:"source"`
	Duration   int     `json:"duration"` // whole seconds, 0 = unknown
	AudioURL   string  `json:"audioUrl,omitempty"`
	MVID       string  `json:"mvId,omitempty"`
	Restricted bool    `json:"isGray"`
	Fee        FeeTier `json:"fee,omitempty"`
	PluginID   string  `json:"pluginId,omitempty"`
}

// Key returns the cross-source identity of a song. IDs are only unique
// within a source, so the key always includes both.
func (s Song) Key() string {
	return string(s.Source) + ":" + s.ID
}

// ProviderResult is one provider's batch for a single aggregation call,
// with provenance. It is transient: it exists only for the duration of
// that call and is never persisted.
type ProviderResult struct {
	Source  Source        `json:"source"`
	Songs   []Song        `json:"songs"`
	Err     error         `json:"-"`
	OK      bool          `json:"ok"`
	Elapsed time.Duration `json:"-"`
}

// PlayDetails is the outcome of resolving a Song to something a media
// element can consume.
type PlayDetails struct {
	URL   string `json:"url"`
	Lyric string `json:"lyric,omitempty"`
	// Referer is non-empty when the URL is only fetchable with a
	// specific referer header the player cannot attach itself; such
	// URLs must be wrapped as relay URLs before being handed out.
	Referer string `json:"-"`
}

// Artist is the subject of an artist detail lookup.
type Artist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CoverURL    string `json:"coverUrl"`
	Description string `json:"description,omitempty"`
	SongCount   int    `json:"songCount,omitempty"`
}

// Playlist is basic playlist metadata from a source.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CoverURL    string `json:"coverUrl"`
	CreatorID   string `json:"creatorId,omitempty"`
	TrackCount  int    `json:"trackCount,omitempty"`
}

// DiagnosticStatus is the outcome of a single endpoint probe.
type DiagnosticStatus string

const (
	DiagOK      DiagnosticStatus = "ok"
	DiagError   DiagnosticStatus = "error"
	DiagSkipped DiagnosticStatus = "skipped"
)

// DiagnosticResult reports the reachability and latency of one upstream
// endpoint. Operational visibility only; nothing acts on it.
type DiagnosticResult struct {
	Name      string           `json:"name"`
	Status    DiagnosticStatus `json:"status"`
	LatencyMS int64            `json:"latencyMs"`
	Message   string           `json:"message,omitempty"`
}
