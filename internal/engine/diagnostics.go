package engine

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pengyanjia146-a11y/wyy/internal/mirrors"
	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/services"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

const probeTimeout = 5 * time.Second

// Well-known video id used to probe stream extraction end to end.
const probeVideoID = "5qap5aO4i9A"

// Diagnostics probes each upstream dependency and reports reachability
// with latency. Purely informational; nothing acts on the outcome.
type Diagnostics struct {
	creds       *shared.Credentials
	piped       *mirrors.Pool
	invidious   *mirrors.Pool
	mu          sync.RWMutex
	backend     *services.BackendClient
	httpClient  *http.Client
	neteaseBase string
}

// NewDiagnostics creates a prober. backend may be nil; its probe is
// then reported as skipped.
func NewDiagnostics(creds *shared.Credentials, piped, invidious *mirrors.Pool, backend *services.BackendClient, client *http.Client) *Diagnostics {
	if client == nil {
		client = http.DefaultClient
	}
	return &Diagnostics{
		creds:       creds,
		piped:       piped,
		invidious:   invidious,
		backend:     backend,
		httpClient:  client,
		neteaseBase: "https://music.163.com",
	}
}

// SetBackend swaps the probed operator backend at runtime. A nil
// backend reports the probe as skipped.
func (d *Diagnostics) SetBackend(b *services.BackendClient) {
	d.mu.Lock()
	d.backend = b
	d.mu.Unlock()
}

func (d *Diagnostics) backendClient() *services.BackendClient {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.backend
}

// Run executes every probe sequentially and returns one result per
// upstream.
func (d *Diagnostics) Run(ctx context.Context) []models.DiagnosticResult {
	return []models.DiagnosticResult{
		d.probeNetease(ctx),
		d.probePiped(ctx),
		d.probeInvidious(ctx),
		d.probeBackend(ctx),
	}
}

func (d *Diagnostics) timed(ctx context.Context, name string, fn func(ctx context.Context) error) models.DiagnosticResult {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := fn(pctx)
	res := models.DiagnosticResult{
		Name:      name,
		Status:    models.DiagOK,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		res.Status = models.DiagError
		res.Message = err.Error()
	}
	return res
}

func (d *Diagnostics) fetch(ctx context.Context, rawURL string, headers shared.HeaderSet) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return shared.ErrProviderUnavailable
	}
	return nil
}

func (d *Diagnostics) probeNetease(ctx context.Context) models.DiagnosticResult {
	return d.timed(ctx, "netease", func(ctx context.Context) error {
		return d.fetch(ctx, d.neteaseBase+"/api/search/hot", d.creds.GuestHeaders())
	})
}

func (d *Diagnostics) probePiped(ctx context.Context) models.DiagnosticResult {
	// Pick once so the reported mirror is the one actually probed even
	// when the pool rotates concurrently.
	base := d.piped.Pick()
	return d.timed(ctx, "piped "+base, func(ctx context.Context) error {
		return d.fetch(ctx, base+"/streams/"+probeVideoID, nil)
	})
}

func (d *Diagnostics) probeInvidious(ctx context.Context) models.DiagnosticResult {
	base := d.invidious.Pick()
	return d.timed(ctx, "invidious "+base, func(ctx context.Context) error {
		return d.fetch(ctx, base+"/api/v1/stats", nil)
	})
}

func (d *Diagnostics) probeBackend(ctx context.Context) models.DiagnosticResult {
	backend := d.backendClient()
	if backend == nil {
		return models.DiagnosticResult{
			Name:    "backend",
			Status:  models.DiagSkipped,
			Message: "no backend configured",
		}
	}
	return d.timed(ctx, "backend "+backend.BaseURL(), func(ctx context.Context) error {
		return backend.Ping(ctx)
	})
}
