package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/time/rate"

	"github.com/pengyanjia146-a11y/wyy/internal/mirrors"
	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// YouTubeService adapts YouTube through public Piped and Invidious
// deployments, optionally fronted by the operator backend. Public
// mirrors rate-limit aggressively, so outbound calls share a limiter.
type YouTubeService struct {
	mu         sync.RWMutex
	backend    *BackendClient // nil when no backend is configured
	piped      *mirrors.Pool
	invidious  *mirrors.Pool
	httpClient *http.Client
	limiter    *rate.Limiter
	limit      int
}

// NewYouTubeService creates the YouTube adapter. backend may be nil.
// ratePerSec throttles calls to public mirrors; it does not apply to
// the backend.
func NewYouTubeService(backend *BackendClient, piped, invidious *mirrors.Pool, client *http.Client, ratePerSec float64, limit int) *YouTubeService {
	if client == nil {
		client = http.DefaultClient
	}
	if ratePerSec <= 0 {
		ratePerSec = 4
	}
	if limit <= 0 {
		limit = 20
	}
	return &YouTubeService{
		backend:    backend,
		piped:      piped,
		invidious:  invidious,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), 1),
		limit:      limit,
	}
}

// SetBackend swaps the operator backend at runtime. A nil backend
// drops straight to the public mirror chain.
func (y *YouTubeService) SetBackend(b *BackendClient) {
	y.mu.Lock()
	y.backend = b
	y.mu.Unlock()
}

func (y *YouTubeService) backendClient() *BackendClient {
	y.mu.RLock()
	defer y.mu.RUnlock()
	return y.backend
}

// Source implements Provider.
func (y *YouTubeService) Source() models.Source { return models.SourceYouTube }

// Name implements Provider.
func (y *YouTubeService) Name() string { return "youtube" }

func (y *YouTubeService) getJSON(ctx context.Context, rawURL string, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", shared.DesktopUserAgent)

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: mirror status %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decode: %v", shared.ErrProviderUnavailable, err)
	}
	return nil
}

// Search implements Provider. The backend is tried first when
// configured; public mirrors are the fallback, each pool attempted in
// candidate order with promote-on-success.
func (y *YouTubeService) Search(ctx context.Context, query string, _ string) ([]models.Song, error) {
	if backend := y.backendClient(); backend != nil {
		if songs, err := backend.SearchSongs(ctx, query); err == nil {
			out := songs[:0:0]
			for _, s := range songs {
				if s.Source == models.SourceYouTube {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out, nil
			}
		}
	}

	var lastErr error
	for _, base := range y.piped.Candidates() {
		songs, err := y.pipedSearch(ctx, base, query)
		if err == nil && len(songs) > 0 {
			y.piped.Promote(base)
			return songs, nil
		}
		lastErr = err
		y.piped.Rotate()
	}
	for _, base := range y.invidious.Candidates() {
		songs, err := y.invidiousSearch(ctx, base, query)
		if err == nil && len(songs) > 0 {
			y.invidious.Promote(base)
			return songs, nil
		}
		lastErr = err
		y.invidious.Rotate()
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no mirror produced results", shared.ErrProviderUnavailable)
	}
	return nil, lastErr
}

func (y *YouTubeService) pipedSearch(ctx context.Context, base, query string) ([]models.Song, error) {
	var body struct {
		Items []struct {
			URL          string `json:"url"` // "/watch?v=<id>"
			Title        string `json:"title"`
			UploaderName string `json:"uploaderName"`
			Thumbnail    string `json:"thumbnail"`
			Duration     int    `json:"duration"`
		} `json:"items"`
	}
	if err := y.getJSON(ctx, base+"/search?q="+url.QueryEscape(query)+"&filter=videos", &body); err != nil {
		return nil, err
	}

	items := body.Items
	if len(items) > y.limit {
		items = items[:y.limit]
	}
	songs := make([]models.Song, 0, len(items))
	for _, it := range items {
		id := it.URL
		if u, err := url.Parse(it.URL); err == nil && u.Query().Get("v") != "" {
			id = u.Query().Get("v")
		}
		songs = append(songs, models.Song{
			ID:       id,
			Title:    it.Title,
			Artist:   it.UploaderName,
			Album:    "YouTube",
			CoverURL: NormalizeCoverURL(it.Thumbnail),
			Source:   models.SourceYouTube,
			Duration: it.Duration,
		})
	}
	return songs, nil
}

func (y *YouTubeService) invidiousSearch(ctx context.Context, base, query string) ([]models.Song, error) {
	var videos []struct {
		VideoID         string `json:"videoId"`
		Title           string `json:"title"`
		Author          string `json:"author"`
		LengthSeconds   int    `json:"lengthSeconds"`
		VideoThumbnails []struct {
			URL string `json:"url"`
		} `json:"videoThumbnails"`
	}
	if err := y.getJSON(ctx, base+"/api/v1/search?q="+url.QueryEscape(query)+"&type=video", &videos); err != nil {
		return nil, err
	}

	if len(videos) > y.limit {
		videos = videos[:y.limit]
	}
	songs := make([]models.Song, 0, len(videos))
	for _, v := range videos {
		var cover string
		if len(v.VideoThumbnails) > 0 {
			cover = NormalizeCoverURL(v.VideoThumbnails[0].URL)
		}
		songs = append(songs, models.Song{
			ID:       v.VideoID,
			Title:    v.Title,
			Artist:   v.Author,
			Album:    "YouTube",
			CoverURL: cover,
			Source:   models.SourceYouTube,
			Duration: v.LengthSeconds,
		})
	}
	return songs, nil
}

// Resolve implements Provider with a layered fallback: the backend
// when configured, then each Piped candidate's pre-muxed audio stream,
// then a constructed Invidious itag-18 URL. The final step never
// verifies the URL, so a fully degraded mirror set still returns
// something playable most of the time.
func (y *YouTubeService) Resolve(ctx context.Context, song models.Song, _ models.Quality, _ string) (*models.PlayDetails, error) {
	var steps []fallbackStep

	if backend := y.backendClient(); backend != nil {
		steps = append(steps, fallbackStep{
			name: "backend",
			run: func(ctx context.Context) (string, error) {
				return backend.ResolveURL(ctx, song.ID, models.SourceYouTube)
			},
		})
	}

	for _, base := range y.piped.Candidates() {
		base := base
		steps = append(steps, fallbackStep{
			name: "piped " + base,
			run: func(ctx context.Context) (string, error) {
				u, err := y.pipedStream(ctx, base, song.ID)
				if err == nil {
					y.piped.Promote(base)
				}
				return u, err
			},
			onFailure: y.piped.Rotate,
		})
	}

	steps = append(steps, fallbackStep{
		name: "invidious constructed",
		run: func(ctx context.Context) (string, error) {
			base := y.invidious.Pick()
			if base == "" {
				return "", fmt.Errorf("%w: no invidious mirror", shared.ErrResolutionFailed)
			}
			return base + "/latest_version?id=" + url.QueryEscape(song.ID) + "&itag=18&local=true", nil
		},
	})

	u, _, err := runFallbackChain(ctx, steps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrResolutionFailed, err)
	}
	return &models.PlayDetails{URL: u}, nil
}

func (y *YouTubeService) pipedStream(ctx context.Context, base, id string) (string, error) {
	var body struct {
		AudioStreams []struct {
			URL string `json:"url"`
		} `json:"audioStreams"`
	}
	if err := y.getJSON(ctx, base+"/streams/"+url.PathEscape(id), &body); err != nil {
		return "", err
	}
	if len(body.AudioStreams) == 0 || body.AudioStreams[0].URL == "" {
		return "", fmt.Errorf("%w: no audio streams", shared.ErrResolutionFailed)
	}
	return body.AudioStreams[0].URL, nil
}
