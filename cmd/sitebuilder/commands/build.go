package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory (overrides config output)"`
	Report string `help:"Write a JSON build report to this path (overrides config build.report)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return b.run(ctx, g, root)
}

func (b *BuildCmd) run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output = b.Output
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if b.Report != "" {
		cfg.Build.Report = b.Report
	}

	report, err := buildSite(ctx, cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	fmt.Printf("Built %s -> %s: %s\n", cfg.Input, cfg.Output, report.Summary())
	return nil
}
