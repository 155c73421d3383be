package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/pengyanjia146-a11y/wyy/internal/engine"
	"github.com/pengyanjia146-a11y/wyy/internal/library"
	"github.com/pengyanjia146-a11y/wyy/internal/mirrors"
	"github.com/pengyanjia146-a11y/wyy/internal/plugins"
	"github.com/pengyanjia146-a11y/wyy/internal/services"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	creds       *shared.Credentials
	aggregator  *engine.Aggregator
	resolver    *engine.Resolver
	diagnostics *engine.Diagnostics
	netease     *services.NeteaseService
	youtube     *services.YouTubeService
	registry    *plugins.Registry
	lib         *library.Library // nil when the index could not be opened
	piped       *mirrors.Pool
	invidious   *mirrors.Pool
	backend     *services.BackendClient // nil when unconfigured
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	Creds       *shared.Credentials
	Aggregator  *engine.Aggregator
	Resolver    *engine.Resolver
	Diagnostics *engine.Diagnostics
	Netease     *services.NeteaseService
	YouTube     *services.YouTubeService
	Registry    *plugins.Registry
	Library     *library.Library
	Piped       *mirrors.Pool
	Invidious   *mirrors.Pool
	Backend     *services.BackendClient
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:      opts.Config,
		creds:       opts.Creds,
		aggregator:  opts.Aggregator,
		resolver:    opts.Resolver,
		diagnostics: opts.Diagnostics,
		netease:     opts.Netease,
		youtube:     opts.YouTube,
		registry:    opts.Registry,
		lib:         opts.Library,
		piped:       opts.Piped,
		invidious:   opts.Invidious,
		backend:     opts.Backend,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
	}
}

// SetLogger swaps the runner's logger, used by the TUI to move log
// output into a file.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, searchCommand, resolveCommand, pluginCommand, diagCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
