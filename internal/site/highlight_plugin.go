package site

import (
	"context"

	"git.home.luguber.info/inful/sitebuilder/internal/highlight"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
)

// HighlightPlugin initializes the syntax highlighter and routes fenced code
// blocks through it. The highlighter is ready before AddPlugin returns, so no
// page can be rendered against a half-initialized engine.
type HighlightPlugin struct {
	Options highlight.Options
}

func (HighlightPlugin) Name() string { return "highlight" }

func (p HighlightPlugin) Apply(ctx context.Context, cfg *Config) error {
	h, err := highlight.New(ctx, p.Options)
	if err != nil {
		return err
	}
	cfg.AmendMarkdown(func(o *markdown.Options) {
		o.Highlighter = h
	})
	return nil
}
