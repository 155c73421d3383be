package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

const neteaseBaseURL = "https://music.163.com"

// bitrate and sound-level negotiation values per requested tier. The
// service may still downgrade based on account entitlements.
var neteaseBitrates = map[models.Quality]struct {
	br    string
	level string
}{
	models.QualityStandard: {"128000", "standard"},
	models.QualityHigh:     {"320000", "exhigh"},
	models.QualityLossless: {"999000", "lossless"},
}

// NeteaseService adapts the NetEase Cloud Music private API. Every
// request carries a desktop-client header identity; anonymous callers
// use a synthesized guest cookie.
type NeteaseService struct {
	baseURL    string
	creds      *shared.Credentials
	httpClient *http.Client
	limit      int
}

// NewNeteaseService creates the NetEase adapter. limit caps the number
// of songs per search page.
func NewNeteaseService(creds *shared.Credentials, client *http.Client, limit int) *NeteaseService {
	if client == nil {
		client = http.DefaultClient
	}
	if limit <= 0 {
		limit = 20
	}
	return &NeteaseService{
		baseURL:    neteaseBaseURL,
		creds:      creds,
		httpClient: client,
		limit:      limit,
	}
}

// Source implements Provider.
func (n *NeteaseService) Source() models.Source { return models.SourceNetease }

// Name implements Provider.
func (n *NeteaseService) Name() string { return "netease" }

func (n *NeteaseService) do(ctx context.Context, method, path string, form url.Values, cred string, result any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, n.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range n.creds.ResolveHeaders(cred) {
		req.Header.Set(k, v)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: netease status %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decode: %v", shared.ErrProviderUnavailable, err)
	}
	return nil
}

// neteaseSong covers both response shapes the API uses for track
// records: search results carry "ar"/"al", older detail endpoints carry
// "artists"/"album".
type neteaseSong struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Dt      int64  `json:"dt"`
	Dur     int64  `json:"duration"`
	Fee     int    `json:"fee"`
	Mv      int64  `json:"mv"`
	Ar      []neteaseArtist `json:"ar"`
	Artists []neteaseArtist `json:"artists"`
	Al      *neteaseAlbum   `json:"al"`
	Album   *neteaseAlbum   `json:"album"`
	Privilege *struct {
		St int `json:"st"`
	} `json:"privilege"`
}

type neteaseArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type neteaseAlbum struct {
	Name   string `json:"name"`
	PicURL string `json:"picUrl"`
}

func mapNeteaseSong(s neteaseSong) models.Song {
	artists := s.Ar
	if len(artists) == 0 {
		artists = s.Artists
	}
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	var artistID string
	if len(artists) > 0 && artists[0].ID > 0 {
		artistID = fmt.Sprintf("%d", artists[0].ID)
	}

	album := s.Al
	if album == nil {
		album = s.Album
	}
	var albumName, cover string
	if album != nil {
		albumName = album.Name
		cover = NormalizeCoverURL(album.PicURL)
	}

	dur := s.Dt
	if dur == 0 {
		dur = s.Dur
	}

	var fee models.FeeTier
	switch s.Fee {
	case 1:
		fee = models.FeeVIP
	case 4:
		fee = models.FeePremium
	}

	var mvID string
	if s.Mv > 0 {
		mvID = fmt.Sprintf("%d", s.Mv)
	}

	return models.Song{
		ID:         fmt.Sprintf("%d", s.ID),
		Title:      s.Name,
		Artist:     strings.Join(names, "/"),
		ArtistID:   artistID,
		Album:      albumName,
		CoverURL:   cover,
		Source:     models.SourceNetease,
		Duration:   MillisToSeconds(dur),
		MVID:       mvID,
		Restricted: s.Privilege != nil && s.Privilege.St < 0,
		Fee:        fee,
	}
}

// Search implements Provider via the desktop cloudsearch endpoint.
func (n *NeteaseService) Search(ctx context.Context, query string, cred string) ([]models.Song, error) {
	form := url.Values{
		"s":      {query},
		"type":   {"1"},
		"limit":  {fmt.Sprintf("%d", n.limit)},
		"offset": {"0"},
	}
	var body struct {
		Code   int `json:"code"`
		Result struct {
			Songs []neteaseSong `json:"songs"`
		} `json:"result"`
	}
	if err := n.do(ctx, http.MethodPost, "/api/cloudsearch/pc", form, cred, &body); err != nil {
		return nil, err
	}
	if body.Code != 200 {
		return nil, fmt.Errorf("%w: netease code %d", shared.ErrProviderUnavailable, body.Code)
	}

	songs := make([]models.Song, 0, len(body.Result.Songs))
	for _, s := range body.Result.Songs {
		songs = append(songs, mapNeteaseSong(s))
	}
	return songs, nil
}

// Resolve implements Provider. A trial-segment response or a missing
// URL on an access-gated song surfaces as a paywall fault; any other
// missing URL is a plain resolution failure. Lyrics are fetched best
// effort and never fail the resolve.
func (n *NeteaseService) Resolve(ctx context.Context, song models.Song, quality models.Quality, cred string) (*models.PlayDetails, error) {
	tier, ok := neteaseBitrates[quality]
	if !ok {
		tier = neteaseBitrates[models.QualityHigh]
	}
	form := url.Values{
		"ids":   {fmt.Sprintf("[%s]", song.ID)},
		"br":    {tier.br},
		"level": {tier.level},
	}
	var body struct {
		Code int `json:"code"`
		Data []struct {
			URL           string          `json:"url"`
			Code          int             `json:"code"`
			FreeTrialInfo json.RawMessage `json:"freeTrialInfo"`
		} `json:"data"`
	}
	if err := n.do(ctx, http.MethodPost, "/api/song/enhance/player/url", form, cred, &body); err != nil {
		return nil, err
	}
	if body.Code != 200 || len(body.Data) == 0 {
		return nil, fmt.Errorf("%w: netease code %d", shared.ErrResolutionFailed, body.Code)
	}

	d := body.Data[0]
	if len(d.FreeTrialInfo) > 0 && string(d.FreeTrialInfo) != "null" {
		return nil, fmt.Errorf("%w: trial segment only", shared.ErrPaywallRequired)
	}
	if d.URL == "" || d.Code != 200 {
		if song.Fee == models.FeeVIP || song.Fee == models.FeePremium {
			return nil, fmt.Errorf("%w: song %s requires membership", shared.ErrPaywallRequired, song.ID)
		}
		return nil, fmt.Errorf("%w: no url for song %s", shared.ErrResolutionFailed, song.ID)
	}

	details := &models.PlayDetails{URL: upgradeScheme(d.URL)}
	if lyric, err := n.Lyric(ctx, song.ID, cred); err == nil {
		details.Lyric = lyric
	}
	return details, nil
}

// Lyric fetches the LRC body for a song id.
func (n *NeteaseService) Lyric(ctx context.Context, id string, cred string) (string, error) {
	var body struct {
		Lrc struct {
			Lyric string `json:"lyric"`
		} `json:"lrc"`
	}
	path := "/api/song/lyric?id=" + url.QueryEscape(id) + "&lv=1&kv=1&tv=-1"
	if err := n.do(ctx, http.MethodGet, path, nil, cred, &body); err != nil {
		return "", err
	}
	return body.Lrc.Lyric, nil
}

// ArtistTopSongs returns an artist's hot tracks plus basic artist
// metadata.
func (n *NeteaseService) ArtistTopSongs(ctx context.Context, artistID string, cred string) (*models.Artist, []models.Song, error) {
	form := url.Values{"id": {artistID}}
	var body struct {
		Code   int `json:"code"`
		Artist struct {
			ID        int64  `json:"id"`
			Name      string `json:"name"`
			PicURL    string `json:"picUrl"`
			BriefDesc string `json:"briefDesc"`
			MusicSize int    `json:"musicSize"`
		} `json:"artist"`
		Songs []neteaseSong `json:"songs"`
	}
	if err := n.do(ctx, http.MethodPost, "/api/artist/top/song", form, cred, &body); err != nil {
		return nil, nil, err
	}
	if body.Code != 200 {
		return nil, nil, fmt.Errorf("%w: netease code %d", shared.ErrProviderUnavailable, body.Code)
	}

	artist := &models.Artist{
		ID:          fmt.Sprintf("%d", body.Artist.ID),
		Name:        body.Artist.Name,
		CoverURL:    NormalizeCoverURL(body.Artist.PicURL),
		Description: body.Artist.BriefDesc,
		SongCount:   body.Artist.MusicSize,
	}
	songs := make([]models.Song, 0, len(body.Songs))
	for _, s := range body.Songs {
		songs = append(songs, mapNeteaseSong(s))
	}
	return artist, songs, nil
}

// PlaylistDetail returns playlist metadata and its first 1000 tracks.
func (n *NeteaseService) PlaylistDetail(ctx context.Context, playlistID string, cred string) (*models.Playlist, []models.Song, error) {
	var body struct {
		Code     int `json:"code"`
		Playlist struct {
			ID          int64         `json:"id"`
			Name        string        `json:"name"`
			Description string        `json:"description"`
			CoverImgURL string        `json:"coverImgUrl"`
			TrackCount  int           `json:"trackCount"`
			Tracks      []neteaseSong `json:"tracks"`
		} `json:"playlist"`
	}
	path := "/api/v3/playlist/detail?id=" + url.QueryEscape(playlistID) + "&n=1000&s=8"
	if err := n.do(ctx, http.MethodGet, path, nil, cred, &body); err != nil {
		return nil, nil, err
	}
	if body.Code != 200 {
		return nil, nil, fmt.Errorf("%w: netease code %d", shared.ErrProviderUnavailable, body.Code)
	}

	p := body.Playlist
	playlist := &models.Playlist{
		ID:          fmt.Sprintf("%d", p.ID),
		Name:        p.Name,
		Description: p.Description,
		CoverURL:    NormalizeCoverURL(p.CoverImgURL),
		TrackCount:  p.TrackCount,
	}
	songs := make([]models.Song, 0, len(p.Tracks))
	for _, s := range p.Tracks {
		songs = append(songs, mapNeteaseSong(s))
	}
	return playlist, songs, nil
}

// DailyRecommendations returns the account's daily song feed. Requires
// a logged-in credential; guest identities get an error code back from
// the service.
func (n *NeteaseService) DailyRecommendations(ctx context.Context, cred string) ([]models.Song, error) {
	var body struct {
		Code int `json:"code"`
		Data struct {
			DailySongs []neteaseSong `json:"dailySongs"`
		} `json:"data"`
	}
	if err := n.do(ctx, http.MethodPost, "/api/v3/discovery/recommend/songs", url.Values{}, cred, &body); err != nil {
		return nil, err
	}
	if body.Code != 200 {
		return nil, fmt.Errorf("%w: netease code %d (login required?)", shared.ErrProviderUnavailable, body.Code)
	}
	songs := make([]models.Song, 0, len(body.Data.DailySongs))
	for _, s := range body.Data.DailySongs {
		songs = append(songs, mapNeteaseSong(s))
	}
	return songs, nil
}

// UserPlaylists lists the playlists owned or subscribed by a user id.
func (n *NeteaseService) UserPlaylists(ctx context.Context, uid string, cred string) ([]models.Playlist, error) {
	var body struct {
		Code     int `json:"code"`
		Playlist []struct {
			ID          int64  `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			CoverImgURL string `json:"coverImgUrl"`
			TrackCount  int    `json:"trackCount"`
			UserID      int64  `json:"userId"`
		} `json:"playlist"`
	}
	path := "/api/user/playlist?uid=" + url.QueryEscape(uid)
	if err := n.do(ctx, http.MethodGet, path, nil, cred, &body); err != nil {
		return nil, err
	}
	if body.Code != 200 {
		return nil, fmt.Errorf("%w: netease code %d", shared.ErrProviderUnavailable, body.Code)
	}

	lists := make([]models.Playlist, 0, len(body.Playlist))
	for _, p := range body.Playlist {
		lists = append(lists, models.Playlist{
			ID:          fmt.Sprintf("%d", p.ID),
			Name:        p.Name,
			Description: p.Description,
			CoverURL:    NormalizeCoverURL(p.CoverImgURL),
			CreatorID:   fmt.Sprintf("%d", p.UserID),
			TrackCount:  p.TrackCount,
		})
	}
	return lists, nil
}

// MVURL resolves a music-video id to the highest-bitrate mp4 variant.
func (n *NeteaseService) MVURL(ctx context.Context, mvID string, cred string) (string, error) {
	var body struct {
		Code int `json:"code"`
		Data struct {
			Brs map[string]string `json:"brs"`
		} `json:"data"`
	}
	path := "/api/mv/detail?id=" + url.QueryEscape(mvID) + "&type=mp4"
	if err := n.do(ctx, http.MethodGet, path, nil, cred, &body); err != nil {
		return "", err
	}
	if body.Code != 200 || len(body.Data.Brs) == 0 {
		return "", fmt.Errorf("%w: no mv variants for %s", shared.ErrResolutionFailed, mvID)
	}

	// brs keys are numeric bitrates; take the highest.
	best, bestKey := "", -1
	for k, u := range body.Data.Brs {
		var br int
		fmt.Sscanf(k, "%d", &br)
		if br > bestKey {
			bestKey, best = br, u
		}
	}
	return NormalizeCoverURL(best), nil
}

// CheckLogin validates pasted credential text against the account
// endpoint and returns the profile nickname and user id on success.
func (n *NeteaseService) CheckLogin(ctx context.Context, raw string) (nickname, uid string, err error) {
	token, ok := shared.ExtractSessionToken(raw)
	if !ok {
		return "", "", fmt.Errorf("%w: no session token in input", shared.ErrInvalidArgument)
	}
	cred := "MUSIC_U=" + token + ";"

	var body struct {
		Code    int `json:"code"`
		Profile *struct {
			UserID   int64  `json:"userId"`
			Nickname string `json:"nickname"`
		} `json:"profile"`
	}
	if err := n.do(ctx, http.MethodPost, "/api/w/nuser/account/get", url.Values{}, cred, &body); err != nil {
		return "", "", err
	}
	if body.Code != 200 || body.Profile == nil {
		return "", "", fmt.Errorf("%w: session token rejected", shared.ErrInvalidArgument)
	}
	return body.Profile.Nickname, fmt.Sprintf("%d", body.Profile.UserID), nil
}
