package catalog

import (
	"slices"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/postbuilder/internal/index"
)

// DefaultThreshold accepts roughly one typo per three to four query
// characters.
const DefaultThreshold = 0.3

// Searcher scores records against a query over title, author and
// excerptPlain. A score is 0 for an exact (folded) substring hit and
// otherwise the best Levenshtein distance between the query and any
// equally long run of words in a field, divided by the query length.
// Records match when their score is at most Threshold.
type Searcher struct {
	Threshold float64
}

func NewSearcher(threshold float64) *Searcher {
	return &Searcher{Threshold: threshold}
}

type scored struct {
	record index.Record
	score  float64
}

// Search returns the matching records, best first. Ties keep input order.
func (s *Searcher) Search(records []index.Record, query string) []index.Record {
	q := fold(query)
	if q == "" {
		return slices.Clone(records)
	}
	var hits []scored
	for _, r := range records {
		best := -1.0
		for _, field := range []string{r.Title, r.Author, r.ExcerptPlain} {
			sc := Score(fold(field), q)
			if best < 0 || sc < best {
				best = sc
			}
		}
		if best >= 0 && best <= s.Threshold {
			hits = append(hits, scored{record: r, score: best})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int {
		switch {
		case a.score < b.score:
			return -1
		case a.score > b.score:
			return 1
		}
		return 0
	})
	out := make([]index.Record, len(hits))
	for i, h := range hits {
		out[i] = h.record
	}
	return out
}

// Score compares an already folded text and query. Lower is better; 0 is a
// substring match.
func Score(text, query string) float64 {
	qlen := len([]rune(query))
	if qlen == 0 {
		return 0
	}
	if text == "" {
		return 1
	}
	if strings.Contains(text, query) {
		return 0
	}

	words := strings.Fields(text)
	span := len(strings.Fields(query))
	if span == 0 {
		span = 1
	}
	best := qlen
	for i := 0; i < len(words); i++ {
		end := min(i+span, len(words))
		d := fuzzy.LevenshteinDistance(query, strings.Join(words[i:end], " "))
		if d < best {
			best = d
		}
		if end == len(words) {
			break
		}
	}
	return float64(best) / float64(qlen)
}

// fold lowercases s, strips diacritics and collapses whitespace, so "Café"
// and "cafe" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}
