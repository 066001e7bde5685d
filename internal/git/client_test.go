package git

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/metrics"
)

type cloneRecorder struct {
	metrics.NoopRecorder
	successes, failures int
}

func (r *cloneRecorder) ObserveCloneDuration(_ time.Duration, success bool) {
	if success {
		r.successes++
	} else {
		r.failures++
	}
}

// seedRemote creates a bare repository with one commit containing posts/hello.md.
func seedRemote(t *testing.T) (string, string) {
	t.Helper()
	tmp := t.TempDir()
	barePath := filepath.Join(tmp, "remote.git")
	_, err := git.PlainInit(barePath, true)
	require.NoError(t, err)

	workPath := filepath.Join(tmp, "seed")
	work, err := git.PlainInit(workPath, false)
	require.NoError(t, err)
	_, err = work.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{barePath}})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(workPath, "posts"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(workPath, "posts", "hello.md"), []byte("---\ntitle: Hello\n---\nHi\n"), 0o600))
	wt, err := work.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("posts/hello.md")
	require.NoError(t, err)
	hash, err := wt.Commit("add post", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, work.Push(&git.PushOptions{RemoteName: "origin"}))
	return barePath, hash.String()
}

func TestClone_LocalRepository(t *testing.T) {
	remote, commit := seedRemote(t)
	dest := filepath.Join(t.TempDir(), "clone")
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "stale"), 0o750))

	rec := &cloneRecorder{}
	res, err := NewClient().WithRecorder(rec).Clone(context.Background(),
		config.RepositoryConfig{URL: remote, Branch: "master"}, dest)
	require.NoError(t, err)
	require.Equal(t, dest, res.Path)
	require.Equal(t, commit, res.Commit)
	require.FileExists(t, filepath.Join(dest, "posts", "hello.md"))
	require.NoDirExists(t, filepath.Join(dest, "stale"))
	require.Equal(t, 1, rec.successes)
}

func TestClone_MissingBranch(t *testing.T) {
	remote, _ := seedRemote(t)
	rec := &cloneRecorder{}
	_, err := NewClient().WithRecorder(rec).WithRetryDelay(time.Millisecond).Clone(context.Background(),
		config.RepositoryConfig{URL: remote, Branch: "nope", MaxRetries: 2}, filepath.Join(t.TempDir(), "c"))
	require.Error(t, err)
	require.Equal(t, 1, rec.failures)
}

func TestClone_BadAuthConfig(t *testing.T) {
	_, err := NewClient().Clone(context.Background(), config.RepositoryConfig{
		URL:  "https://git.example.com/blog.git",
		Auth: &config.AuthConfig{Type: config.AuthTypeToken},
	}, t.TempDir())
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestClassifyGitError(t *testing.T) {
	cases := []struct {
		msg       string
		category  errors.ErrorCategory
		retryable bool
	}{
		{"authentication required", errors.CategoryConfig, false},
		{"repository not found", errors.CategoryNotFound, false},
		{"dial tcp: i/o timeout", errors.CategoryNetwork, true},
		{"unexpected EOF: remote hung up", errors.CategoryNetwork, true},
		{"something odd", errors.CategoryGit, false},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			err := ClassifyGitError(stderrors.New(tc.msg), "clone", "https://x")
			ce, ok := errors.AsClassified(err)
			require.True(t, ok)
			require.Equal(t, tc.category, ce.Category())
			require.Equal(t, tc.retryable, isRetryable(err))
		})
	}
	require.NoError(t, ClassifyGitError(nil, "clone", ""))
}
