package diagram

import (
	"bytes"
	"context"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

// Placeholders substituted in CommandEngine arguments.
const (
	InputPlaceholder  = "{input}"
	OutputPlaceholder = "{output}"
)

var defaultArgs = []string{"-i", InputPlaceholder, "-o", OutputPlaceholder}

// CommandEngine renders diagrams to inline SVG with an external program
// such as mermaid-cli (mmdc). Runs are capped globally by a semaphore and
// each run is bounded by Timeout.
type CommandEngine struct {
	Command string
	Args    []string
	Timeout time.Duration

	sem *semaphore.Weighted
}

// NewCommandEngine creates an engine from diagram configuration.
func NewCommandEngine(cfg config.DiagramConfig) *CommandEngine {
	limit := cfg.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	args := cfg.Args
	if len(args) == 0 {
		args = defaultArgs
	}
	return &CommandEngine{
		Command: cfg.Command,
		Args:    args,
		Timeout: cfg.Timeout,
		sem:     semaphore.NewWeighted(int64(limit)),
	}
}

func (e *CommandEngine) Render(ctx context.Context, lang string, source []byte) (string, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return "", errors.WrapError(err, errors.CategoryDiagram, "diagram render cancelled").
			WithContext("language", lang).
			Warning().
			Build()
	}
	defer e.sem.Release(1)

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "postbuilder-diagram-")
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryDiagram, "failed to create diagram workdir").Warning().Build()
	}
	defer func() { _ = os.RemoveAll(dir) }()

	in := filepath.Join(dir, "input."+lang)
	out := filepath.Join(dir, "output.svg")
	if err := os.WriteFile(in, source, 0o600); err != nil {
		return "", errors.WrapError(err, errors.CategoryDiagram, "failed to write diagram source").Warning().Build()
	}

	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		a = strings.ReplaceAll(a, InputPlaceholder, in)
		args[i] = strings.ReplaceAll(a, OutputPlaceholder, out)
	}

	// #nosec G204 -- command and args come from the operator's configuration file.
	cmd := exec.CommandContext(ctx, e.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	if err := cmd.Run(); err != nil {
		b := errors.WrapError(err, errors.CategoryDiagram, "diagram command failed").
			WithContext("command", e.Command).
			WithContext("language", lang).
			Warning()
		if ctx.Err() != nil {
			b = b.WithContext("timeout", e.Timeout.String())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			b = b.WithContext("stderr", msg)
		}
		return "", b.Build()
	}

	// #nosec G304 -- out is inside our own temp dir.
	svg, err := os.ReadFile(out)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryDiagram, "diagram command produced no output").
			WithContext("command", e.Command).
			Warning().
			Build()
	}
	return `<div class="diagram diagram-` + html.EscapeString(lang) + `">` + string(bytes.TrimSpace(svg)) + "</div>\n", nil
}
