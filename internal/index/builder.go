// Package index builds the content index: one Record per post source file.
package index

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/postbuilder/internal/docmodel"
	"git.home.luguber.info/inful/postbuilder/internal/excerpt"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/metrics"
	"git.home.luguber.info/inful/postbuilder/internal/observability"
	"git.home.luguber.info/inful/postbuilder/internal/util/sets"
)

// Per-document stage names, used in logs and failure reports.
const (
	StageRead        = "read"
	StageFrontmatter = "frontmatter"
	StageExcerpt     = "excerpt"
	StageAssemble    = "assemble"
)

// Options configures a Builder.
type Options struct {
	SourceDir  string
	Extensions []string
	BasePath   string
	// Workers caps concurrent document processing; <= 0 means NumCPU.
	Workers int
	// BuildID labels the build in logs and the result; empty generates one.
	BuildID string
}

// Builder turns a directory of post sources into index records.
type Builder struct {
	opts     Options
	excerpts *excerpt.Generator
	recorder metrics.Recorder
}

// NewBuilder creates a builder with a no-op metrics recorder.
func NewBuilder(opts Options) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Builder{
		opts:     opts,
		excerpts: excerpt.New(),
		recorder: metrics.NoopRecorder{},
	}
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// Failure describes a document left out of the index.
type Failure struct {
	Filename string
	Slug     string
	Stage    string
	Err      error
}

// Result is the outcome of one Build.
type Result struct {
	BuildID string
	// Records are ordered by source filename.
	Records  []Record
	Failures []Failure
	// Warnings counts documents indexed with degraded data (malformed front
	// matter or an excerpt that could not be rendered).
	Warnings int
	// Skipped is set when the source directory does not exist.
	Skipped  bool
	Duration time.Duration
}

// Eligible counts records a consumer would display.
func (r *Result) Eligible() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Eligible() {
			n++
		}
	}
	return n
}

type outcome struct {
	record  *Record
	failure *Failure
	warned  bool
}

// Build processes every source file. Documents are independent and are
// processed concurrently; a document failure is recorded in the result and
// never aborts the build. Only a missing source directory (Skipped) or an
// unreadable one (error) stop it.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{BuildID: b.opts.BuildID}
	if res.BuildID == "" {
		res.BuildID = uuid.NewString()
	}
	ctx = observability.WithBuildID(ctx, res.BuildID)

	entries, err := os.ReadDir(b.opts.SourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			observability.WarnContext(ctx, "No posts directory found, skipping index generation",
				logfields.Path(b.opts.SourceDir))
			res.Skipped = true
			res.Duration = time.Since(start)
			return res, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to list source directory").
			WithContext("path", b.opts.SourceDir).
			Fatal().
			Build()
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !docmodel.IsSource(e.Name(), b.opts.Extensions) {
			continue
		}
		files = append(files, e.Name())
	}

	outcomes := make([]outcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, name := range files {
		g.Go(func() error {
			outcomes[i] = b.process(gctx, name)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryIndex, "index build cancelled").Build()
	}

	seen := sets.New[string]()
	for _, o := range outcomes {
		switch {
		case o.failure != nil:
			res.Failures = append(res.Failures, *o.failure)
			b.recorder.IncDocumentResult(metrics.ResultFailed)
		case !seen.Add(o.record.Slug):
			f := Failure{
				Filename: o.record.Filename(),
				Slug:     o.record.Slug,
				Stage:    StageAssemble,
				Err: errors.IndexError("duplicate slug").
					WithSlug(o.record.Slug).
					WithStage(StageAssemble).
					WithContext("filename", o.record.Filename()).
					Warning().
					Build(),
			}
			observability.WarnContext(observability.WithSlug(ctx, f.Slug), "Duplicate slug, keeping first file",
				logfields.Stage(StageAssemble), logfields.Path(f.Filename))
			res.Failures = append(res.Failures, f)
			b.recorder.IncDocumentResult(metrics.ResultFailed)
		default:
			res.Records = append(res.Records, *o.record)
			if o.warned {
				res.Warnings++
				b.recorder.IncDocumentResult(metrics.ResultWarning)
			} else {
				b.recorder.IncDocumentResult(metrics.ResultSuccess)
			}
		}
	}

	res.Duration = time.Since(start)
	observability.InfoContext(ctx, "Indexed posts",
		logfields.Count(len(res.Records)),
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	return res, nil
}

// process builds the record for one source file. It never returns an error:
// failures are reported through the outcome.
func (b *Builder) process(ctx context.Context, name string) outcome {
	slug, _ := docmodel.SplitName(name)
	ctx = observability.WithSlug(ctx, slug)

	if err := ctx.Err(); err != nil {
		return outcome{failure: &Failure{Filename: name, Slug: slug, Stage: StageRead, Err: err}}
	}

	doc, err := docmodel.ParseFile(filepath.Join(b.opts.SourceDir, name))
	if err != nil {
		observability.WarnContext(ctx, "Skipping unreadable post", logfields.Stage(StageRead), logfields.Error(err))
		return outcome{failure: &Failure{Filename: name, Slug: slug, Stage: StageRead, Err: err}}
	}

	warned := false
	if w := doc.Warning(); w != nil {
		warned = true
		observability.WarnContext(ctx, "Malformed front matter, indexing with empty metadata",
			logfields.Stage(StageFrontmatter), logfields.Error(w))
	}

	ex, err := b.excerpts.Generate(ctx, doc.Body(), b.opts.BasePath)
	if err != nil {
		warned = true
		observability.WarnContext(ctx, "Excerpt rendering degraded", logfields.Stage(StageExcerpt), logfields.Error(err))
	}

	meta := doc.Metadata()
	return outcome{
		warned: warned,
		record: &Record{
			Slug:         doc.Slug(),
			Title:        meta.Title,
			Date:         meta.Date,
			Author:       meta.Author,
			Categories:   meta.Categories,
			Visible:      meta.Visible,
			ExcerptHTML:  ex.HTML,
			ExcerptPlain: ex.Plain,
			Extension:    doc.Extension(),
		},
	}
}
