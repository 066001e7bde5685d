// Package auth turns repository credentials into go-git transport auth.
package auth

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

// Provider creates a transport.AuthMethod for one auth type.
type Provider func(cfg *config.AuthConfig) (transport.AuthMethod, error)

// Manager dispatches auth configs to the provider registered for their type.
type Manager struct {
	providers map[config.AuthType]Provider
}

// NewManager creates a manager with the none, ssh, token and basic providers.
func NewManager() *Manager {
	m := &Manager{providers: make(map[config.AuthType]Provider)}
	m.Register(config.AuthTypeNone, noneAuth)
	m.Register(config.AuthTypeSSH, sshAuth)
	m.Register(config.AuthTypeToken, tokenAuth)
	m.Register(config.AuthTypeBasic, basicAuth)
	return m
}

// Register installs or replaces the provider for a type.
func (m *Manager) Register(t config.AuthType, p Provider) {
	m.providers[t] = p
}

// CreateAuth creates authentication for the given configuration.
// A nil config or empty type means no authentication.
func (m *Manager) CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	if cfg == nil || cfg.Type == "" {
		return nil, nil
	}
	p, ok := m.providers[cfg.Type]
	if !ok {
		return nil, errors.ConfigError("unsupported authentication type").
			WithContext("type", string(cfg.Type)).
			Build()
	}
	return p(cfg)
}

// DefaultManager is a package-level instance for convenience.
var DefaultManager = NewManager()

// CreateAuth is a convenience function that uses the default manager.
func CreateAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	return DefaultManager.CreateAuth(cfg)
}

func noneAuth(*config.AuthConfig) (transport.AuthMethod, error) {
	return nil, nil
}

func sshAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	keyPath := cfg.KeyPath
	if keyPath == "" {
		keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
	}
	keys, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to load SSH key").
			WithContext("key_path", keyPath).
			Build()
	}
	return keys, nil
}

func tokenAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	if cfg.Token == "" {
		return nil, errors.ConfigError("token authentication requires a token").Build()
	}
	return &http.BasicAuth{Username: "token", Password: cfg.Token}, nil
}

func basicAuth(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.ConfigError("basic authentication requires username and password").Build()
	}
	return &http.BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil
}
