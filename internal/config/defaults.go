package config

import (
	"runtime"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

var defaultAppliers = []DefaultApplier{
	sourceDefaults{},
	siteDefaults{},
	outputDefaults{},
	renderDefaults{},
	buildDefaults{},
	eventsDefaults{},
}

func applyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}

type sourceDefaults struct{}

func (sourceDefaults) Domain() string { return "source" }

func (sourceDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Source.Dir == "" {
		cfg.Source.Dir = "./public/posts"
	}
	if len(cfg.Source.Extensions) == 0 {
		cfg.Source.Extensions = []string{".md", ".markdown"}
	}
	if r := cfg.Source.Repository; r != nil {
		if r.Depth == 0 {
			r.Depth = 1
		}
		if r.MaxRetries == 0 {
			r.MaxRetries = 2
		}
		if r.RetryBackoff == "" {
			r.RetryBackoff = "linear"
		}
	}
}

type siteDefaults struct{}

func (siteDefaults) Domain() string { return "site" }

func (siteDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Site.BasePath == "" {
		cfg.Site.BasePath = "/"
	}
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Blog"
	}
	if cfg.Site.Language == "" {
		cfg.Site.Language = "en-us"
	}
	if cfg.Site.PostRoute == "" {
		cfg.Site.PostRoute = "/post/"
	}
}

type outputDefaults struct{}

func (outputDefaults) Domain() string { return "output" }

func (outputDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Output.IndexPath == "" {
		cfg.Output.IndexPath = "./public/posts/posts.json"
	}
	if cfg.Output.FeedPath == "" {
		cfg.Output.FeedPath = "./public/rss.xml"
	}
}

type renderDefaults struct{}

func (renderDefaults) Domain() string { return "render" }

func (renderDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Render.Highlight.Style == "" {
		cfg.Render.Highlight.Style = "github"
	}
	d := &cfg.Render.Diagram
	if d.Engine == "" {
		d.Engine = DiagramEngineClient
	}
	if len(d.Languages) == 0 {
		d.Languages = []string{"mermaid"}
	}
	if d.Command == "" {
		d.Command = "mmdc"
	}
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
	if d.MaxConcurrent <= 0 {
		d.MaxConcurrent = 2
	}
}

type buildDefaults struct{}

func (buildDefaults) Domain() string { return "build" }

func (buildDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = runtime.NumCPU()
	}
}

type eventsDefaults struct{}

func (eventsDefaults) Domain() string { return "events" }

func (eventsDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "postbuilder.index.built"
	}
}
