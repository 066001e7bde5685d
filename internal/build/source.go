package build

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/git"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/workspace"
)

// cloneSubdir holds the repository clone inside a workspace.
const cloneSubdir = "repo"

// NewWorkspace returns the workspace a repository is cloned into: the
// configured build.workspace, kept between runs, or a fresh temporary
// directory.
func NewWorkspace(cfg *config.Config) *workspace.Manager {
	if cfg.Build.Workspace != "" {
		return workspace.NewPersistentManager(cfg.Build.Workspace)
	}
	return workspace.NewManager("")
}

// CloneDir is where the repository clone lives inside workspaceDir.
func CloneDir(workspaceDir string) string {
	return filepath.Join(workspaceDir, cloneSubdir)
}

// PostsDir resolves source.dir against a clone root. Absolute directories
// are used as they are.
func PostsDir(cfg *config.Config, cloneRoot string) string {
	if filepath.IsAbs(cfg.Source.Dir) {
		return cfg.Source.Dir
	}
	return filepath.Join(cloneRoot, cfg.Source.Dir)
}

// Source is a resolved posts directory. Close releases any workspace
// created to hold it.
type Source struct {
	Dir    string
	Commit string

	cleanup func()
}

// Close removes a temporary clone. It is safe to call more than once.
func (s *Source) Close() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// OpenSource resolves where posts are read from outside a build.
//
// Without a repository this is source.dir. With a persistent workspace that
// already holds a clone, the clone is reused as it is. Otherwise the
// repository is cloned into a workspace, which Close removes unless it is
// persistent.
func OpenSource(ctx context.Context, cfg *config.Config, cloner Cloner) (*Source, error) {
	if cfg.Source.Repository == nil {
		return &Source{Dir: cfg.Source.Dir}, nil
	}
	if cfg.Build.Workspace != "" {
		clone := CloneDir(cfg.Build.Workspace)
		if info, err := os.Stat(filepath.Join(clone, ".git")); err == nil && info.IsDir() {
			return &Source{Dir: PostsDir(cfg, clone)}, nil
		}
	}
	if cloner == nil {
		cloner = git.NewClient()
	}

	ws := NewWorkspace(cfg)
	if err := ws.Create(); err != nil {
		return nil, err
	}
	cleanup := func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to clean up workspace", logfields.Error(err))
		}
	}
	dest, err := ws.CreateSubdir(cloneSubdir)
	if err != nil {
		cleanup()
		return nil, err
	}
	res, err := cloner.Clone(ctx, *cfg.Source.Repository, dest)
	if err != nil {
		cleanup()
		return nil, err
	}
	return &Source{Dir: PostsDir(cfg, res.Path), Commit: res.Commit, cleanup: cleanup}, nil
}
