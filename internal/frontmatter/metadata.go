package frontmatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

// Metadata is the normalized front matter of a post.
type Metadata struct {
	Title      string
	Date       *time.Time
	Author     string
	Categories []string
	Visible    bool
}

// Empty returns the metadata used when a document has no usable front matter.
func Empty() Metadata {
	return Metadata{Categories: []string{}, Visible: true}
}

// Extract splits raw document text into normalized metadata and body.
//
// A malformed block never fails the caller: the returned error is a
// warning-severity ClassifiedError and Metadata is Empty(). When the closing
// delimiter is missing the body is the whole input; when the YAML is invalid
// the body is the text after the block.
func Extract(raw []byte) (Metadata, []byte, error) {
	fm, body, had, _, err := Split(raw)
	if err != nil {
		return Empty(), raw, errors.WrapError(err, errors.CategoryFrontmatter, "malformed front matter block").
			Warning().WithStage("frontmatter").Build()
	}
	if !had {
		return Empty(), body, nil
	}

	fields, err := ParseYAML(fm)
	if err != nil {
		return Empty(), body, errors.WrapError(err, errors.CategoryFrontmatter, "invalid front matter yaml").
			Warning().WithStage("frontmatter").Build()
	}
	return FromFields(fields), body, nil
}

// FromFields normalizes a decoded front matter map.
func FromFields(fields map[string]any) Metadata {
	meta := Empty()
	meta.Title = strings.TrimSpace(scalarString(fields["title"]))
	meta.Author = strings.TrimSpace(scalarString(fields["author"]))
	meta.Date = ParseDate(fields["date"])
	meta.Categories = NormalizeCategories(fields["categories"])
	if v, ok := fields["visible"].(bool); ok && !v {
		meta.Visible = false
	}
	return meta
}

var categorySeparators = regexp.MustCompile(`[,\s]+`)

// NormalizeCategories turns a list or a comma/space delimited string into a
// sequence of trimmed, non-empty strings. Order is preserved.
func NormalizeCategories(v any) []string {
	out := []string{}
	switch vv := v.(type) {
	case nil:
	case []any:
		for _, item := range vv {
			if s := strings.TrimSpace(scalarString(item)); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, item := range vv {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		for _, part := range categorySeparators.Split(scalarString(vv), -1) {
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04 -0700",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"January 2, 2006",
}

// ParseDate accepts YAML timestamps and the common string layouts used in
// post front matter. Unparsable or absent values yield nil.
func ParseDate(v any) *time.Time {
	switch vv := v.(type) {
	case time.Time:
		if vv.IsZero() {
			return nil
		}
		return &vv
	case string:
		s := strings.TrimSpace(vv)
		if s == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
	}
	return nil
}

func scalarString(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(vv)
	}
}
