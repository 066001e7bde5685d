// Package readtime estimates how long a post takes to read.
package readtime

import (
	"fmt"
	"strings"
)

const (
	// WordsPerMinute is the assumed reading speed.
	WordsPerMinute = 180
	// ShortThreshold is the word count below which every post reads in
	// "about 1 min".
	ShortThreshold = 360
)

// WordCount counts whitespace-separated words.
func WordCount(body string) int {
	return len(strings.Fields(body))
}

// Minutes returns the estimated minutes for body: 1 below ShortThreshold
// words, otherwise words/WordsPerMinute rounded up.
func Minutes(body string) int {
	words := WordCount(body)
	if words < ShortThreshold {
		return 1
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// Estimate returns the display label, e.g. "about 1 min" or "About 3 mins".
func Estimate(body string) string {
	words := WordCount(body)
	if words < ShortThreshold {
		return "about 1 min"
	}
	minutes := Minutes(body)
	unit := "min"
	if minutes > 1 {
		unit = "mins"
	}
	return fmt.Sprintf("About %d %s", minutes, unit)
}
