package docmodel

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/frontmatter"
)

// ParsedDoc is a post source file split into front matter and Markdown body.
//
// Parsing never fails on malformed front matter; the problem is kept in
// Warning() and Metadata() falls back to frontmatter.Empty().
type ParsedDoc struct {
	filename string
	slug     string
	ext      string
	fmRaw    []byte
	body     []byte
	meta     frontmatter.Metadata
	warning  error
}

// Parse parses raw file content. filename is the base name, e.g. "hello.md".
func Parse(filename string, content []byte) *ParsedDoc {
	meta, body, warn := frontmatter.Extract(content)
	fmRaw, _, had, _, _ := frontmatter.Split(content)

	slug, ext := SplitName(filename)
	doc := &ParsedDoc{
		filename: filename,
		slug:     slug,
		ext:      ext,
		body:     append([]byte(nil), body...),
		meta:     meta,
		warning:  warn,
	}
	if had {
		doc.fmRaw = append([]byte{}, fmRaw...)
	}
	return doc
}

// ParseFile reads a file from disk and parses it.
func ParseFile(path string) (*ParsedDoc, error) {
	// #nosec G304 -- path comes from the configured source directory listing.
	content, err := os.ReadFile(path)
	if err != nil {
		b := errors.WrapError(err, errors.CategoryFileSystem, "failed to read document")
		if os.IsNotExist(err) {
			b = errors.WrapError(err, errors.CategoryNotFound, "document not found")
		}
		return nil, b.WithContext("path", path).WithStage("read").Build()
	}
	return Parse(filepath.Base(path), content), nil
}

// SplitName returns the slug (file stem) and extension of a source filename.
func SplitName(filename string) (slug, ext string) {
	ext = filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext), ext
}

// IsSource reports whether filename carries one of the given extensions.
func IsSource(filename string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(filename, ext) && len(filename) > len(ext) {
			return true
		}
	}
	return false
}

func (d *ParsedDoc) Filename() string               { return d.filename }
func (d *ParsedDoc) Slug() string                   { return d.slug }
func (d *ParsedDoc) Extension() string              { return d.ext }
func (d *ParsedDoc) Metadata() frontmatter.Metadata { return d.meta }

// Warning returns the recoverable front matter problem, if any.
func (d *ParsedDoc) Warning() error { return d.warning }

// Body returns a copy of the Markdown body (front matter removed).
func (d *ParsedDoc) Body() []byte {
	return append([]byte(nil), d.body...)
}

// Fingerprint identifies the document content; it changes whenever the front
// matter or body bytes change.
func (d *ParsedDoc) Fingerprint() string {
	return mdfp.CalculateFingerprintFromParts(string(d.fmRaw), string(d.body))
}
