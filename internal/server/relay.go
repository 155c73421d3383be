package server

import (
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"

	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// Headers mirrored verbatim from the upstream media response. The set
// is exactly what browser media elements need for seeking; everything
// else from the upstream is dropped.
var relayedHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
	"Last-Modified",
}

// RelayHandler streams upstream media through this process, attaching
// the referer and browser identity the upstream demands. It exists for
// sources whose CDNs refuse requests without them (Bilibili above all).
type RelayHandler struct {
	httpClient *http.Client
	logger     *log.Logger
}

// NewRelayHandler creates the media relay. The client should have no
// overall timeout: a relayed stream legitimately lasts the length of
// the song.
func NewRelayHandler(client *http.Client, logger *log.Logger) *RelayHandler {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &RelayHandler{httpClient: client, logger: logger}
}

// Routes implements Handler.
func (h *RelayHandler) Routes() []string {
	return []string{"/api/proxy"}
}

// ServeHTTP implements Handler. The Range header is forwarded so
// seeking works end to end; upstream errors map to 502.
func (h *RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}
	if _, err := url.ParseRequestURI(target); err != nil {
		http.Error(w, "invalid url parameter", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		http.Error(w, "invalid url parameter", http.StatusBadRequest)
		return
	}
	req.Header.Set("User-Agent", shared.DesktopUserAgent)
	if referer := r.URL.Query().Get("referer"); referer != "" {
		req.Header.Set("Referer", referer)
	}
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Warn("relay upstream unreachable", "err", err)
		http.Error(w, shared.ErrRelayUpstream.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		h.logger.Warn("relay upstream rejected", "status", resp.StatusCode)
		http.Error(w, shared.ErrRelayUpstream.Error(), http.StatusBadGateway)
		return
	}

	for _, k := range relayedHeaders {
		if v := resp.Header.Get(k); v != "" {
			w.Header().Set(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	// A copy error mid-stream means the client or upstream went away;
	// the status line is already out, so just stop.
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Debug("relay stream ended early", "err", err)
	}
}

// RelayURL builds a local relay URL for target, served from host.
func RelayURL(host, target, referer string) string {
	u := "http://" + host + "/api/proxy?url=" + url.QueryEscape(target)
	if referer != "" {
		u += "&referer=" + url.QueryEscape(referer)
	}
	return u
}
