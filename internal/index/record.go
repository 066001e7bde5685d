package index

import (
	"bytes"
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

// Record is one entry of the content index, describing a single post.
//
// The persisted index is raw truth: every readable source file gets a
// record, including hidden posts and posts without a title or date.
// Filtering and ordering belong to the consumer (see internal/catalog).
type Record struct {
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Date         *time.Time `json:"date"`
	Author       string     `json:"author"`
	Categories   []string   `json:"categories"`
	Visible      bool       `json:"visible"`
	ExcerptHTML  string     `json:"excerptHtml"`
	ExcerptPlain string     `json:"excerptPlain"`
	Extension    string     `json:"extension"`
}

// UnmarshalJSON treats a missing "visible" field as true, so only an
// explicit false hides a post.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		*plain
		Visible *bool `json:"visible"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Visible = aux.Visible == nil || *aux.Visible
	return nil
}

// Filename is the source file name, slug plus extension.
func (r Record) Filename() string {
	return r.Slug + r.Extension
}

// Eligible reports whether the record may be shown to readers: it needs a
// title, a date and must not be hidden.
func (r Record) Eligible() bool {
	return r.Title != "" && r.Date != nil && !r.Date.IsZero() && r.Visible
}

// HasCategory reports whether the record carries tag exactly.
func (r Record) HasCategory(tag string) bool {
	for _, c := range r.Categories {
		if c == tag {
			return true
		}
	}
	return false
}

// Marshal encodes records as the index artifact (indented JSON array).
func Marshal(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, errors.WrapError(err, errors.CategoryIndex, "failed to encode content index").Build()
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an index artifact.
func Unmarshal(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.WrapError(err, errors.CategoryIndex, "invalid content index").Build()
	}
	for i := range records {
		if records[i].Categories == nil {
			records[i].Categories = []string{}
		}
	}
	return records, nil
}
