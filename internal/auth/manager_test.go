package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

func TestManager_CreateAuth(t *testing.T) {
	manager := NewManager()

	tests := []struct {
		name      string
		cfg       *config.AuthConfig
		want      transport.AuthMethod
		expectErr bool
	}{
		{name: "nil config", cfg: nil},
		{name: "empty type", cfg: &config.AuthConfig{}},
		{name: "none", cfg: &config.AuthConfig{Type: config.AuthTypeNone}},
		{
			name: "token",
			cfg:  &config.AuthConfig{Type: config.AuthTypeToken, Token: "t0k"},
			want: &http.BasicAuth{Username: "token", Password: "t0k"},
		},
		{name: "token missing", cfg: &config.AuthConfig{Type: config.AuthTypeToken}, expectErr: true},
		{
			name: "basic",
			cfg:  &config.AuthConfig{Type: config.AuthTypeBasic, Username: "u", Password: "p"},
			want: &http.BasicAuth{Username: "u", Password: "p"},
		},
		{name: "basic missing username", cfg: &config.AuthConfig{Type: config.AuthTypeBasic, Password: "p"}, expectErr: true},
		{name: "unsupported", cfg: &config.AuthConfig{Type: "kerberos"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := manager.CreateAuth(tt.cfg)
			if tt.expectErr {
				require.Error(t, err)
				require.True(t, errors.HasCategory(err, errors.CategoryConfig))
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				require.Nil(t, got)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSSHAuth_MissingKey(t *testing.T) {
	_, err := CreateAuth(&config.AuthConfig{
		Type:    config.AuthTypeSSH,
		KeyPath: filepath.Join(t.TempDir(), "absent"),
	})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestSSHAuth_InvalidKey(t *testing.T) {
	key := filepath.Join(t.TempDir(), "id")
	require.NoError(t, os.WriteFile(key, []byte("not a key"), 0o600))
	_, err := CreateAuth(&config.AuthConfig{Type: config.AuthTypeSSH, KeyPath: key})
	require.Error(t, err)
}

func TestManager_Register(t *testing.T) {
	m := NewManager()
	called := false
	m.Register("custom", func(*config.AuthConfig) (transport.AuthMethod, error) {
		called = true
		return &http.BasicAuth{Username: "x"}, nil
	})
	got, err := m.CreateAuth(&config.AuthConfig{Type: "custom"})
	require.NoError(t, err)
	require.True(t, called)
	require.NotNil(t, got)
}
