package commands

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/preview"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Host         string        `help:"Listen host (overrides config serve.host)"`
	Port         int           `short:"p" help:"Listen port (overrides config serve.port)"`
	RebuildEvery time.Duration `name:"rebuild-every" help:"Rebuild periodically, e.g. 1h (overrides config serve.rebuild_interval)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	srv, err := s.server(g, root)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// apply layers the command-line flags over cfg.
func (s *ServeCmd) apply(cfg *config.Config) {
	if s.Host != "" {
		cfg.Serve.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Serve.Port = s.Port
	}
	if s.RebuildEvery != 0 {
		cfg.Serve.RebuildInterval = s.RebuildEvery
	}
}

func (s *ServeCmd) server(g *Global, root *CLI) (*preview.Server, error) {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return nil, err
	}
	s.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		rec metrics.Recorder = metrics.NoopRecorder{}
		reg *prometheus.Registry
	)
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
	}

	configPath := ""
	if _, statErr := os.Stat(root.Config); statErr == nil {
		configPath = root.Config
	}

	current := cfg
	return preview.New(preview.Options{
		InputDir:     cfg.Input,
		OutputDir:    cfg.Output,
		ConfigPath:   configPath,
		Addr:         net.JoinHostPort(cfg.Serve.Host, strconv.Itoa(cfg.Serve.Port)),
		Debounce:     cfg.Serve.Debounce,
		RebuildEvery: cfg.Serve.RebuildInterval,
		Registry:     reg,
		MetricsPath:  cfg.Metrics.Path,
		Build: func(ctx context.Context) (*build.BuildReport, error) {
			// Reload so edits to the config file apply; a broken file keeps the last good one.
			if configPath != "" {
				if fresh, err := config.Load(configPath); err != nil {
					g.Logger.Warn("Config reload failed; using previous configuration", logfields.Error(err))
				} else {
					s.apply(fresh)
					fresh.Input, fresh.Output = cfg.Input, cfg.Output
					current = fresh
				}
			}
			return buildSite(ctx, current, rec)
		},
	})
}
