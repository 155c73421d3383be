package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pengyanjia146-a11y/wyy/internal/engine"
	"github.com/pengyanjia146-a11y/wyy/internal/library"
	"github.com/pengyanjia146-a11y/wyy/internal/mirrors"
	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/plugins"
	"github.com/pengyanjia146-a11y/wyy/internal/services"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// API bundles the aggregation engine behind the HTTP surface.
type API struct {
	Aggregator  *engine.Aggregator
	Resolver    *engine.Resolver
	Diagnostics *engine.Diagnostics
	Netease     *services.NeteaseService
	YouTube     *services.YouTubeService
	Registry    *plugins.Registry
	Library     *library.Library // nil when no library is configured
	Invidious   *mirrors.Pool
	Credential  string       // stored NetEase credential, may be empty
	HTTPClient  *http.Client // used for runtime-configured backends
	Logger      *log.Logger
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeResolveError maps resolution fault types onto distinct HTTP
// statuses so clients can message paywalls differently from dead
// upstreams.
func writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrPaywallRequired):
		writeJSON(w, http.StatusPaymentRequired, errorBody{Error: err.Error()})
	case errors.Is(err, shared.ErrResolutionFailed):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrMissingArgument):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
	}
}

// Register wires every API route into the router.
func (a *API) Register(r Router) {
	r.Handle("GET", "/api/search", http.HandlerFunc(a.handleSearch))
	r.Handle("GET", "/api/url", http.HandlerFunc(a.handleResolve))
	r.Handle("GET", "/api/artist", http.HandlerFunc(a.handleArtist))
	r.Handle("GET", "/api/playlist", http.HandlerFunc(a.handlePlaylist))
	r.Handle("GET", "/api/recommend/daily", http.HandlerFunc(a.handleDailyRecommend))
	r.Handle("GET", "/api/user/playlists", http.HandlerFunc(a.handleUserPlaylists))
	r.Handle("GET", "/api/mv", http.HandlerFunc(a.handleMV))
	r.Handle("GET,POST,DELETE", "/api/plugins", http.HandlerFunc(a.handlePlugins))
	r.Handle("GET", "/api/diagnostics", http.HandlerFunc(a.handleDiagnostics))
	r.Handle("POST", "/api/login/status", http.HandlerFunc(a.handleLoginStatus))
	r.Handle("GET", "/api/local", http.HandlerFunc(a.handleLocal))
	r.Handle("POST", "/api/config", http.HandlerFunc(a.handleConfig))
	r.Handle("GET", "/api/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
}

// handleSearch runs the aggregated search. With stream=1 each
// provider's batch flushes as one NDJSON line the moment it arrives;
// otherwise the full merged set returns as a single document.
func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing q parameter"})
		return
	}

	if r.URL.Query().Get("stream") == "1" {
		a.streamSearch(w, r, query)
		return
	}

	songs := a.Aggregator.SearchAll(r.Context(), query, a.Credential)
	if songs == nil {
		songs = []models.Song{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"songs": songs})
}

func (a *API) streamSearch(w http.ResponseWriter, r *http.Request, query string) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for res := range a.Aggregator.Search(r.Context(), query, a.Credential) {
		if res.Songs == nil {
			res.Songs = []models.Song{}
		}
		if err := enc.Encode(res); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// handleResolve turns (source, id) into a playable URL. URLs that only
// work with a pinned referer come back rewritten through the local
// relay so the player never sees the restriction.
func (a *API) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, source := q.Get("id"), models.Source(q.Get("source"))
	if id == "" || source == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing id or source parameter"})
		return
	}
	quality := models.Quality(q.Get("quality"))
	if quality == "" {
		quality = models.QualityHigh
	}

	song := models.Song{ID: id, Source: source, PluginID: q.Get("plugin")}
	details, err := a.Resolver.Resolve(r.Context(), song, quality, a.Credential)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	u := details.URL
	if details.Referer != "" {
		u = RelayURL(r.Host, details.URL, details.Referer)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":   u,
		"lyric": details.Lyric,
	})
}

func (a *API) handleArtist(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing id parameter"})
		return
	}
	artist, songs, err := a.Netease.ArtistTopSongs(r.Context(), id, a.Credential)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"artist": artist, "songs": songs})
}

func (a *API) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing id parameter"})
		return
	}
	playlist, songs, err := a.Netease.PlaylistDetail(r.Context(), id, a.Credential)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlist": playlist, "songs": songs})
}

func (a *API) handleDailyRecommend(w http.ResponseWriter, r *http.Request) {
	songs, err := a.Netease.DailyRecommendations(r.Context(), a.Credential)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"songs": songs})
}

func (a *API) handleUserPlaylists(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing uid parameter"})
		return
	}
	lists, err := a.Netease.UserPlaylists(r.Context(), uid, a.Credential)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": lists})
}

func (a *API) handleMV(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing id parameter"})
		return
	}
	u, err := a.Netease.MVURL(r.Context(), id, a.Credential)
	if err != nil {
		writeResolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": u})
}

// handlePlugins lists (GET), installs (POST body: raw manifest or
// {"url": "..."}) or removes (DELETE ?id=) plugins.
func (a *API) handlePlugins(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		manifests := []plugins.Manifest{}
		for _, p := range a.Registry.List() {
			manifests = append(manifests, p.Manifest)
		}
		writeJSON(w, http.StatusOK, map[string]any{"plugins": manifests})

	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "unreadable body"})
			return
		}
		var ref struct {
			URL string `json:"url"`
		}
		var p *plugins.Plugin
		if json.Unmarshal(body, &ref) == nil && ref.URL != "" {
			p, err = a.Registry.InstallFromURL(r.Context(), ref.URL)
		} else {
			p, err = a.Registry.Install(body)
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"plugin": p.Manifest})

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if !a.Registry.Remove(id) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("plugin %q not installed", id)})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *API) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	results := a.Diagnostics.Run(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleLoginStatus validates pasted credential text and reports the
// account it belongs to. The credential travels in the body, never the
// URL, to keep it out of access logs.
func (a *API) handleLoginStatus(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil || len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing credential body"})
		return
	}
	nickname, uid, err := a.Netease.CheckLogin(r.Context(), string(body))
	if err != nil {
		writeResolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"nickname": nickname, "uid": uid})
}

// handleLocal serves an indexed library track by id, with range
// support via http.ServeFile.
func (a *API) handleLocal(w http.ResponseWriter, r *http.Request) {
	if a.Library == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no library configured"})
		return
	}
	id := r.URL.Query().Get("id")
	track, err := a.Library.Get(r.Context(), id)
	if err != nil {
		writeResolveError(w, err)
		return
	}
	http.ServeFile(w, r, track.AudioURL)
}

// handleConfig applies runtime overrides: the operator backend, a
// custom Invidious mirror and per-source search deadlines. Changes
// live until process exit.
func (a *API) handleConfig(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BackendRelayURL *string        `json:"backendRelayUrl"`
		CustomMirrorURL *string        `json:"customMirrorUrl"`
		BudgetsMS       map[string]int `json:"budgetsMs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad config body"})
		return
	}
	if body.BackendRelayURL != nil {
		var backend *services.BackendClient
		if *body.BackendRelayURL != "" {
			backend = services.NewBackendClient(*body.BackendRelayURL, a.HTTPClient)
		}
		a.Resolver.SetBackend(backend)
		if a.YouTube != nil {
			a.YouTube.SetBackend(backend)
		}
		if a.Diagnostics != nil {
			a.Diagnostics.SetBackend(backend)
		}
	}
	if body.CustomMirrorURL != nil {
		a.Invidious.SetOverride(*body.CustomMirrorURL)
	}
	for src, ms := range body.BudgetsMS {
		a.Aggregator.SetBudget(models.Source(strings.ToUpper(src)), time.Duration(ms)*time.Millisecond)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
