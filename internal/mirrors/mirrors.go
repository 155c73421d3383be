// package mirrors maintains pools of interchangeable public API
// deployments for the video-platform audio extraction.
//
// Instances die and resurrect without notice, so each pool tracks a
// "currently preferred" entry: a success promotes the instance that
// served it, a failure rotates to the next one. The pointer is a
// best-effort hint shared between concurrent searches; last write wins
// and a stale read costs at most one extra attempt.
package mirrors

import (
	"math/rand/v2"
	"strings"
	"sync/atomic"
)

// Pool is an ordered set of equivalent service mirrors for one
// capability, plus an optional operator override that always takes
// priority. State is in-memory only and resets each process start.
type Pool struct {
	name      string
	endpoints []string
	preferred atomic.Int32
	override  atomic.Value // string
}

// NewPool creates a pool over the given endpoints. The initial
// preferred entry is chosen uniformly at random to spread load across
// processes.
func NewPool(name string, endpoints []string) *Pool {
	p := &Pool{name: name, endpoints: endpoints}
	p.override.Store("")
	if len(endpoints) > 1 {
		p.preferred.Store(int32(rand.IntN(len(endpoints))))
	}
	return p
}

// Name returns the pool's capability name.
func (p *Pool) Name() string { return p.name }

// Len returns the number of pooled endpoints, excluding any override.
func (p *Pool) Len() int { return len(p.endpoints) }

// Pick returns the operator override if set, else the currently
// preferred endpoint.
func (p *Pool) Pick() string {
	if o := p.override.Load().(string); o != "" {
		return o
	}
	if len(p.endpoints) == 0 {
		return ""
	}
	return p.endpoints[p.preferred.Load()]
}

// Promote marks an endpoint as currently preferred after it served a
// request, so subsequent picks start from it instead of re-probing
// dead mirrors. Unknown endpoints are ignored.
func (p *Pool) Promote(endpoint string) {
	for i, e := range p.endpoints {
		if e == endpoint {
			p.preferred.Store(int32(i))
			return
		}
	}
}

// Rotate advances the preferred pointer to the next endpoint in
// round-robin order. Called after a failed attempt.
func (p *Pool) Rotate() {
	n := int32(len(p.endpoints))
	if n == 0 {
		return
	}
	p.preferred.Store((p.preferred.Load() + 1) % n)
}

// SetOverride installs an operator-configured endpoint that Pick and
// Candidates always return first. An empty string clears it.
func (p *Pool) SetOverride(url string) {
	p.override.Store(strings.TrimRight(url, "/"))
}

// Candidates returns endpoints in attempt order: the override first
// when set, then the pool starting at the preferred entry and wrapping.
func (p *Pool) Candidates() []string {
	var out []string
	if o := p.override.Load().(string); o != "" {
		out = append(out, o)
	}
	n := len(p.endpoints)
	start := int(p.preferred.Load())
	for i := 0; i < n; i++ {
		out = append(out, p.endpoints[(start+i)%n])
	}
	return out
}

// Public deployments bundled as defaults. Operators can front them
// with a custom instance via SetOverride.
var (
	defaultPiped = []string{
		"https://pipedapi.kavin.rocks",
		"https://api.piped.otter.sh",
		"https://pipedapi.drgns.space",
		"https://piped-api.lunar.icu",
	}

	defaultInvidious = []string{
		"https://inv.tux.pizza",
		"https://vid.uff.net",
		"https://inv.nadeko.net",
		"https://invidious.jing.rocks",
		"https://yt.artemislena.eu",
	}
)

// DefaultPiped returns a pool over the bundled Piped deployments,
// used for search and pre-muxed audio streams.
func DefaultPiped() *Pool {
	return NewPool("piped", defaultPiped)
}

// DefaultInvidious returns a pool over the bundled Invidious
// deployments, used as the lower-reliability fallback.
func DefaultInvidious() *Pool {
	return NewPool("invidious", defaultInvidious)
}
