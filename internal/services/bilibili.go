package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

const (
	bilibiliAPIBase = "https://api.bilibili.com"

	// BilibiliReferer must accompany every fetch of a Bilibili CDN URL,
	// including the media stream itself. Resolved URLs therefore always
	// travel through the relay.
	BilibiliReferer = "https://www.bilibili.com/"
)

// BilibiliService adapts Bilibili video search and stream extraction.
// Videos stand in for songs: the title is the track name and the
// uploader the artist.
type BilibiliService struct {
	baseURL    string
	httpClient *http.Client
	limit      int
}

// NewBilibiliService creates the Bilibili adapter.
func NewBilibiliService(client *http.Client, limit int) *BilibiliService {
	if client == nil {
		client = http.DefaultClient
	}
	if limit <= 0 {
		limit = 20
	}
	return &BilibiliService{
		baseURL:    bilibiliAPIBase,
		httpClient: client,
		limit:      limit,
	}
}

// Source implements Provider.
func (b *BilibiliService) Source() models.Source { return models.SourceBilibili }

// Name implements Provider.
func (b *BilibiliService) Name() string { return "bilibili" }

func (b *BilibiliService) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", shared.DesktopUserAgent)
	req.Header.Set("Referer", BilibiliReferer)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: bilibili status %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decode: %v", shared.ErrProviderUnavailable, err)
	}
	return nil
}

// Search implements Provider via the typed video search endpoint.
// Titles come back with highlight markup around the query, which is
// stripped on ingest.
func (b *BilibiliService) Search(ctx context.Context, query string, _ string) ([]models.Song, error) {
	var body struct {
		Code int `json:"code"`
		Data struct {
			Result []struct {
				BVID     string `json:"bvid"`
				Title    string `json:"title"`
				Author   string `json:"author"`
				MID      int64  `json:"mid"`
				Pic      string `json:"pic"`
				Duration string `json:"duration"`
			} `json:"result"`
		} `json:"data"`
	}
	path := "/x/web-interface/search/type?search_type=video&keyword=" + url.QueryEscape(query)
	if err := b.get(ctx, path, &body); err != nil {
		return nil, err
	}
	if body.Code != 0 {
		return nil, fmt.Errorf("%w: bilibili code %d", shared.ErrProviderUnavailable, body.Code)
	}

	results := body.Data.Result
	if len(results) > b.limit {
		results = results[:b.limit]
	}
	songs := make([]models.Song, 0, len(results))
	for _, v := range results {
		songs = append(songs, models.Song{
			ID:       v.BVID,
			Title:    StripTags(v.Title),
			Artist:   v.Author,
			ArtistID: fmt.Sprintf("%d", v.MID),
			Album:    "Bilibili",
			CoverURL: NormalizeCoverURL(v.Pic),
			Source:   models.SourceBilibili,
			Duration: ParseDuration(v.Duration),
		})
	}
	return songs, nil
}

// Resolve implements Provider. Extraction is two hops: the view
// endpoint maps a bvid to its first part's cid, then playurl yields the
// html5-profile stream. The returned URL carries a Referer requirement,
// so callers must relay it rather than hand it out directly.
func (b *BilibiliService) Resolve(ctx context.Context, song models.Song, _ models.Quality, _ string) (*models.PlayDetails, error) {
	cid, err := b.firstCid(ctx, song.ID)
	if err != nil {
		return nil, err
	}

	var body struct {
		Code int `json:"code"`
		Data struct {
			Durl []struct {
				URL string `json:"url"`
			} `json:"durl"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/x/player/playurl?bvid=%s&cid=%d&qn=64&fnval=1&platform=html5&high_quality=1", url.QueryEscape(song.ID), cid)
	if err := b.get(ctx, path, &body); err != nil {
		return nil, err
	}
	if body.Code != 0 || len(body.Data.Durl) == 0 || body.Data.Durl[0].URL == "" {
		return nil, fmt.Errorf("%w: no stream for %s", shared.ErrResolutionFailed, song.ID)
	}

	return &models.PlayDetails{
		URL:     body.Data.Durl[0].URL,
		Referer: BilibiliReferer,
	}, nil
}

func (b *BilibiliService) firstCid(ctx context.Context, bvid string) (int64, error) {
	var body struct {
		Code int `json:"code"`
		Data struct {
			Cid int64 `json:"cid"`
		} `json:"data"`
	}
	path := "/x/web-interface/view?bvid=" + url.QueryEscape(bvid)
	if err := b.get(ctx, path, &body); err != nil {
		return 0, err
	}
	if body.Code != 0 || body.Data.Cid == 0 {
		return 0, fmt.Errorf("%w: video %s has no cid", shared.ErrResolutionFailed, bvid)
	}
	return body.Data.Cid, nil
}
