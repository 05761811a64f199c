package site

import (
	"context"
	"strconv"
	"time"

	"github.com/gosimple/slug"

	"git.home.luguber.info/inful/sitebuilder/internal/collection"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/dateformat"
	"git.home.luguber.info/inful/sitebuilder/internal/highlight"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/post"
	"git.home.luguber.info/inful/sitebuilder/internal/project"
)

// Configure builds the Config for one build of the site described by cfg.
// buildTime is the instant captured for this build; it feeds the build
// globals, the year shortcode and post dates without a file date.
// Configure returns after the highlighter is initialized.
func Configure(ctx context.Context, cfg *config.Config, buildTime time.Time) (*Config, error) {
	s := New()

	s.SetInputDirectory(cfg.Input)
	s.SetOutputDirectory(cfg.Output)
	for _, glob := range cfg.Passthrough {
		s.AddPassthroughCopy(glob)
	}

	local, err := dateformat.Detailed(cfg.Site.Timezone)
	if err != nil {
		return nil, err
	}
	s.AddFilter("formatBuildDate", dateformat.Filter(dateformat.BuildShort))
	s.AddFilter("formatPostDate", dateformat.Filter(dateformat.PostLong))
	s.AddFilter("formatLocalDate", dateformat.Filter(local))
	s.AddFilter("statusClass", project.StyleFor)
	s.AddFilter("slugify", slug.Make)

	policy, err := project.ParsePolicy(cfg.Collections.Projects.Sort)
	if err != nil {
		return nil, err
	}
	s.AddCollection("projects", ProjectsCollection(cfg.Collections.Projects.Tag, policy))

	buildDate, err := dateformat.Format(buildTime, local)
	if err != nil {
		return nil, err
	}
	s.AddGlobalData("build", buildTime)
	s.AddGlobalData("buildDate", buildDate)
	s.AddGlobalData("projectStatusStyles", project.Styles())
	s.AddGlobalData("site", map[string]any{
		"title":    cfg.Site.Title,
		"baseURL":  cfg.Site.BaseURL,
		"timezone": cfg.Site.Timezone,
	})

	year := strconv.Itoa(buildTime.In(local.Location).Year())
	s.AddShortcode("year", func() string { return year })

	s.AddComputedData(cfg.Posts.Tag, post.Deriver{BuildTime: buildTime}.Apply)

	s.AmendMarkdown(func(o *markdown.Options) {
		if cfg.Markdown.Extensions != nil {
			o.Extensions = cfg.Markdown.Extensions
		}
		o.UnsafeHTML = cfg.Markdown.AllowsRawHTML()
	})

	if err := s.AddPlugin(ctx, HighlightPlugin{Options: highlight.Options{
		Theme:           cfg.Highlight.Theme,
		Languages:       cfg.Highlight.Languages,
		Transformers:    cfg.Highlight.Transformers,
		IndentSize:      cfg.Highlight.IndentSize,
		StrictLanguages: cfg.Highlight.StrictLanguages,
	}}); err != nil {
		return nil, err
	}

	if err := s.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// ProjectsCollection orders the pages tagged tag with policy.
func ProjectsCollection(tag string, policy project.Policy) collection.Func {
	return func(idx *collection.Index) ([]*content.Page, error) {
		return project.Sort(idx.ByTag(tag), policy, func(p *content.Page) (project.Entry, error) {
			return project.EntryFromData(p.RelPath, p.Data, policy)
		})
	}
}
