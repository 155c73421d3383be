// package plugins extends the aggregation engine with operator-installed
// sources described by declarative manifests.
//
// A manifest is a small JSON document naming the platform it serves and
// URL templates for search and resolution. The engine treats every
// installed plugin as one extra provider; plugins that omit a template
// simply lack that capability.
package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// Manifest is the on-disk plugin description. SearchURL and ResolveURL
// are templates: {query} expands to the escaped query, {id} and
// {source} to the song's identity.
type Manifest struct {
	ID         string `json:"id"`
	Platform   string `json:"platform"`
	Name       string `json:"name"`
	Version    string `json:"version,omitempty"`
	Author     string `json:"author,omitempty"`
	SearchURL  string `json:"searchUrl,omitempty"`
	ResolveURL string `json:"resolveUrl,omitempty"`
}

// EffectiveID returns the registry key for this manifest. Platform
// wins over id wins over name; a manifest with none of them gets a
// generated key.
func (m Manifest) EffectiveID() string {
	switch {
	case m.Platform != "":
		return m.Platform
	case m.ID != "":
		return m.ID
	case m.Name != "":
		return m.Name
	default:
		return "plugin-" + shared.GenerateID()[:8]
	}
}

// Plugin is an installed manifest bound to an HTTP client.
type Plugin struct {
	Manifest   Manifest
	httpClient *http.Client
}

// CanSearch reports whether the manifest declares a search template.
func (p *Plugin) CanSearch() bool { return p.Manifest.SearchURL != "" }

// CanResolve reports whether the manifest declares a resolve template.
func (p *Plugin) CanResolve() bool { return p.Manifest.ResolveURL != "" }

func (p *Plugin) getJSON(ctx context.Context, rawURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPluginFault, err)
	}
	req.Header.Set("User-Agent", shared.DesktopUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPluginFault, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", shared.ErrPluginFault, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decode: %v", shared.ErrPluginFault, err)
	}
	return nil
}

// Search queries the plugin's search endpoint. Returned songs are
// stamped with the plugin source and id so resolution can route back to
// the same plugin.
func (p *Plugin) Search(ctx context.Context, query string) ([]models.Song, error) {
	if !p.CanSearch() {
		return nil, nil
	}
	u := strings.ReplaceAll(p.Manifest.SearchURL, "{query}", url.QueryEscape(query))

	var body struct {
		Songs []models.Song `json:"songs"`
	}
	if err := p.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	id := p.Manifest.EffectiveID()
	for i := range body.Songs {
		body.Songs[i].Source = models.SourcePlugin
		body.Songs[i].PluginID = id
	}
	return body.Songs, nil
}

// Resolve asks the plugin's resolve endpoint for a playable URL.
func (p *Plugin) Resolve(ctx context.Context, song models.Song) (string, error) {
	if !p.CanResolve() {
		return "", fmt.Errorf("%w: plugin %s cannot resolve", shared.ErrResolutionFailed, p.Manifest.EffectiveID())
	}
	u := strings.ReplaceAll(p.Manifest.ResolveURL, "{id}", url.QueryEscape(song.ID))
	u = strings.ReplaceAll(u, "{source}", url.QueryEscape(string(song.Source)))

	var body struct {
		URL string `json:"url"`
	}
	if err := p.getJSON(ctx, u, &body); err != nil {
		return "", err
	}
	if body.URL == "" {
		return "", fmt.Errorf("%w: plugin returned no url", shared.ErrResolutionFailed)
	}
	return body.URL, nil
}

// Registry holds installed plugins keyed by effective id. Installing a
// manifest with an id already present replaces the earlier plugin.
type Registry struct {
	mu         sync.RWMutex
	plugins    map[string]*Plugin
	order      []string
	httpClient *http.Client
}

// NewRegistry creates an empty registry.
func NewRegistry(client *http.Client) *Registry {
	if client == nil {
		client = http.DefaultClient
	}
	return &Registry{
		plugins:    make(map[string]*Plugin),
		httpClient: client,
	}
}

// Install parses and registers a manifest from raw JSON.
func (r *Registry) Install(source []byte) (*Plugin, error) {
	var m Manifest
	if err := json.Unmarshal(source, &m); err != nil {
		return nil, fmt.Errorf("%w: bad manifest: %v", shared.ErrPluginFault, err)
	}
	if m.SearchURL == "" && m.ResolveURL == "" {
		return nil, fmt.Errorf("%w: manifest declares no capability", shared.ErrPluginFault)
	}

	p := &Plugin{Manifest: m, httpClient: r.httpClient}
	id := m.EffectiveID()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[id]; !exists {
		r.order = append(r.order, id)
	}
	r.plugins[id] = p
	return p, nil
}

// InstallFromURL fetches a manifest over HTTP and installs it.
func (r *Registry) InstallFromURL(ctx context.Context, rawURL string) (*Plugin, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPluginFault, err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPluginFault, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch status %d", shared.ErrPluginFault, resp.StatusCode)
	}
	// 1 MiB is far beyond any sane manifest.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPluginFault, err)
	}
	return r.Install(raw)
}

// Get returns the plugin registered under id.
func (r *Registry) Get(id string) (*Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	return p, ok
}

// List returns installed plugins in install order.
func (r *Registry) List() []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Plugin, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.plugins[id])
	}
	return out
}

// Remove uninstalls the plugin registered under id.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[id]; !ok {
		return false
	}
	delete(r.plugins, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of installed plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}
