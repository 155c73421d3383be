package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/pengyanjia146-a11y/wyy/internal/plugins"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// PluginInstall installs a plugin manifest from a local file or URL.
func (r *Runner) PluginInstall(ctx context.Context, cmd *cli.Command) error {
	location := cmd.StringArg("location")
	if location == "" {
		return fmt.Errorf("%w: manifest file or URL", shared.ErrMissingArgument)
	}

	var p *plugins.Plugin
	var err error
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		p, err = r.registry.InstallFromURL(ctx, location)
	} else {
		var raw []byte
		if raw, err = os.ReadFile(location); err != nil {
			return fmt.Errorf("failed to read manifest: %w", err)
		}
		p, err = r.registry.Install(raw)
	}
	if err != nil {
		return err
	}

	caps := []string{}
	if p.CanSearch() {
		caps = append(caps, "search")
	}
	if p.CanResolve() {
		caps = append(caps, "resolve")
	}
	r.writePlain("✓ Installed plugin %s (%s)\n", p.Manifest.EffectiveID(), strings.Join(caps, ", "))
	return nil
}

// PluginList prints the installed plugins.
func (r *Runner) PluginList(ctx context.Context, cmd *cli.Command) error {
	installed := r.registry.List()

	if cmd.Bool("json") {
		manifests := make([]plugins.Manifest, 0, len(installed))
		for _, p := range installed {
			manifests = append(manifests, p.Manifest)
		}
		return r.writeJSON(map[string]any{"plugins": manifests}, true)
	}

	if len(installed) == 0 {
		return r.writePlain("No plugins installed\n")
	}
	for _, p := range installed {
		r.writePlain("%s\t%s\t%s\n", p.Manifest.EffectiveID(), p.Manifest.Name, p.Manifest.Version)
	}
	return nil
}
