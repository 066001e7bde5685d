package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Style captures the newline and delimiter shape needed to reassemble a
// document.
type Style struct {
	Newline            string
	HasTrailingNewline bool
	BOM                bool

	// OpenDelimiter and CloseDelimiter are the delimiter lines as written,
	// without the line ending. Empty means "---".
	OpenDelimiter  string
	CloseDelimiter string
}

var bom = []byte("\ufeff")

// Split separates YAML frontmatter from the Markdown body.
//
// The block opens with a "---" line and closes with a "---" or "..." line;
// trailing spaces and tabs on either delimiter line are ignored. If the
// document does not start with an opening delimiter, had is false and body
// is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	rest := content
	if style.BOM {
		rest = content[len(bom):]
	}

	open, start, terminated := nextLine(rest, 0)
	if !terminated || !isDelimiter(open, false) {
		return nil, content, false, style, nil
	}
	style.OpenDelimiter = string(open)

	for pos := start; pos < len(rest); {
		line, after, _ := nextLine(rest, pos)
		if isDelimiter(line, true) {
			style.CloseDelimiter = string(line)
			return rest[start:pos], rest[after:], true, style, nil
		}
		pos = after
	}
	return nil, content, false, style, ErrMissingClosingDelimiter
}

// nextLine returns the line starting at pos without its line ending and the
// offset just past it. terminated is false for a final line with no newline.
func nextLine(b []byte, pos int) (line []byte, next int, terminated bool) {
	i := bytes.IndexByte(b[pos:], '\n')
	if i < 0 {
		return b[pos:], len(b), false
	}
	return bytes.TrimSuffix(b[pos:pos+i], []byte("\r")), pos + i + 1, true
}

func isDelimiter(line []byte, closing bool) bool {
	d := string(bytes.TrimRight(line, " \t"))
	return d == "---" || (closing && d == "...")
}

// Join reassembles a document from raw frontmatter and body.
//
// If had is false, Join returns body as-is.
func Join(frontmatter []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	open, closing := style.OpenDelimiter, style.CloseDelimiter
	if open == "" {
		open = "---"
	}
	if closing == "" {
		closing = "---"
	}

	out := make([]byte, 0, len(bom)+len(open)+len(closing)+2*len(nl)+len(frontmatter)+len(body))
	if style.BOM {
		out = append(out, bom...)
	}
	out = append(out, open+nl...)
	out = append(out, frontmatter...)
	out = append(out, closing+nl...)
	out = append(out, body...)
	return out
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

func detectStyle(content []byte) Style {
	style := Style{Newline: "\n", BOM: bytes.HasPrefix(content, bom)}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			if i > 0 && content[i-1] == '\r' {
				style.Newline = "\r\n"
			}
			break
		}
	}
	style.HasTrailingNewline = len(content) > 0 && content[len(content)-1] == '\n'
	return style
}
