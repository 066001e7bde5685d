package config

import (
	"fmt"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/normalization"
)

var (
	authTypes = normalization.NewNormalizer(map[string]AuthType{
		"":     "",
		"none": AuthTypeNone, "ssh": AuthTypeSSH, "token": AuthTypeToken, "basic": AuthTypeBasic,
	}, "")
	diagramEngines = normalization.NewNormalizer(map[string]string{
		DiagramEngineClient: DiagramEngineClient, DiagramEngineCommand: DiagramEngineCommand, DiagramEngineNone: DiagramEngineNone,
	}, DiagramEngineClient)
	backoffModes = normalization.NewNormalizer(map[string]string{
		"fixed": "fixed", "linear": "linear", "exponential": "exponential",
	}, "linear")
)

// Validate checks the configuration after defaults were applied. Enum
// fields are rewritten to their canonical spelling.
func (c *Config) Validate() error {
	for _, ext := range c.Source.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return configErr("source.extensions", fmt.Sprintf("extension %q must start with '.'", ext))
		}
	}
	if c.Source.Repository != nil && strings.TrimSpace(c.Source.Repository.URL) == "" {
		return configErr("source.repository.url", "repository url cannot be empty")
	}
	if r := c.Source.Repository; r != nil {
		if r.RetryBackoff != "" {
			mode, err := backoffModes.Parse(r.RetryBackoff)
			if err != nil {
				return configErr("source.repository.retry_backoff", "unknown retry backoff: "+err.Error())
			}
			r.RetryBackoff = mode
		}
		if r.Auth != nil {
			kind, err := authTypes.Parse(string(r.Auth.Type))
			if err != nil {
				return configErr("source.repository.auth.type", "unknown auth type: "+err.Error())
			}
			r.Auth.Type = kind
		}
	}

	if err := validateBasePath(c.Site.BasePath); err != nil {
		return err
	}
	if c.Site.URL != "" {
		u, err := url.Parse(c.Site.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return configErr("site.url", fmt.Sprintf("site url %q must be absolute", c.Site.URL))
		}
	}
	if !strings.HasPrefix(c.Site.PostRoute, "/") {
		return configErr("site.post_route", "post route must start with '/'")
	}

	if c.Output.IndexPath == "" || c.Output.FeedPath == "" {
		return configErr("output", "index_path and feed_path are required")
	}

	engine, err := diagramEngines.Parse(c.Render.Diagram.Engine)
	if err != nil {
		return configErr("render.diagram.engine", "unknown diagram engine: "+err.Error())
	}
	c.Render.Diagram.Engine = engine
	if c.Build.Workers < 1 {
		return configErr("build.workers", "workers must be at least 1")
	}
	return nil
}

func validateBasePath(base string) error {
	if strings.HasPrefix(base, "/") {
		return nil
	}
	if u, err := url.Parse(base); err == nil && u.Scheme != "" && u.Host != "" {
		return nil
	}
	return configErr("site.base_path", fmt.Sprintf("base path %q must start with '/' or be an absolute URL", base))
}

func configErr(field, msg string) error {
	return errors.ConfigError(msg).WithContext("field", field).Build()
}
