package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).Build()
	}

	example := Config{
		Source: SourceConfig{
			Dir:        "./public/posts",
			Extensions: []string{".md", ".markdown"},
		},
		Site: SiteConfig{
			URL:         "https://example.com",
			Title:       "My Tech Blog",
			Description: "Notes on software and travel",
			Language:    "en-us",
			BasePath:    "${POSTBUILDER_BASE_PATH}",
			PostRoute:   "/post/",
		},
		Output: OutputConfig{
			IndexPath: "./public/posts/posts.json",
			FeedPath:  "./public/rss.xml",
		},
		Render: RenderConfig{
			Highlight: HighlightConfig{Style: "github"},
			Diagram: DiagramConfig{
				Engine:    DiagramEngineClient,
				Languages: []string{"mermaid"},
			},
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			Fatal().WithContext("path", configPath).Build()
	}
	return nil
}
