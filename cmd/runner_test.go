package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/pengyanjia146-a11y/wyy/internal/engine"
	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/services"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
	tu "github.com/pengyanjia146-a11y/wyy/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			aggregator := engine.NewAggregator(nil, logger)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Aggregator: aggregator,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.aggregator != aggregator {
				t.Error("expected aggregator to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("register returns all commands", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		expected := map[string]bool{
			"setup": false, "serve": false, "search": false,
			"resolve": false, "plugin": false, "diag": false, "tui": false,
		}
		for _, cmd := range commands {
			if _, ok := expected[cmd.Name]; ok {
				expected[cmd.Name] = true
			}
		}
		for name, found := range expected {
			if !found {
				t.Errorf("command %q not registered", name)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"k": "v"}, false); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if got := output.String(); got != "{\"k\":\"v\"}\n" {
				t.Errorf("unexpected output: %q", got)
			}
		})

		t.Run("pretty output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writeJSON(map[string]string{"k": "v"}, true)
			if !strings.Contains(output.String(), "  \"k\": \"v\"") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})

		t.Run("write failure surfaces", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON(map[string]string{"k": "v"}, false); err == nil {
				t.Error("expected error from failing writer")
			}
		})
	})
}

func TestRunnerSearch(t *testing.T) {
	newSearchRunner := func(output *bytes.Buffer) *Runner {
		aggregator := engine.NewAggregator([]services.Provider{
			&tu.MockProvider{ProviderSource: models.SourceNetease, Songs: []models.Song{
				{ID: "1", Title: "稻香", Artist: "周杰伦", Source: models.SourceNetease, Duration: 223},
			}},
		}, shared.NewLogger(&bytes.Buffer{}))
		return NewRunner(RunnerOpts{
			Aggregator: aggregator,
			Output:     output,
			Logger:     shared.NewLogger(&bytes.Buffer{}),
		})
	}

	t.Run("text output", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newSearchRunner(output)

		cmd := searchCommand(runner)
		if err := cmd.Run(context.Background(), []string{"search", "稻香"}); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(output.String(), "稻香") || !strings.Contains(output.String(), "SOURCE") {
			t.Errorf("unexpected output: %s", output.String())
		}
	})

	t.Run("csv output", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := newSearchRunner(output)

		cmd := searchCommand(runner)
		if err := cmd.Run(context.Background(), []string{"search", "--csv", "稻香"}); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(output.String(), "NETEASE,1,稻香") {
			t.Errorf("unexpected csv: %s", output.String())
		}
	})

	t.Run("missing query", func(t *testing.T) {
		runner := newSearchRunner(&bytes.Buffer{})
		cmd := searchCommand(runner)
		if err := cmd.Run(context.Background(), []string{"search"}); err == nil {
			t.Error("expected error for missing query")
		}
	})
}
