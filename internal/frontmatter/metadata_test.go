package frontmatter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

func TestExtract_FullMetadata(t *testing.T) {
	raw := []byte(`---
title: Crossing the Andes
date: 2021-11-26
author: Eugenio
categories: [travel, latin]
---
First paragraph.

Second paragraph.
`)
	meta, body, err := Extract(raw)
	require.NoError(t, err)
	require.Equal(t, "Crossing the Andes", meta.Title)
	require.Equal(t, "Eugenio", meta.Author)
	require.NotNil(t, meta.Date)
	require.Equal(t, time.Date(2021, 11, 26, 0, 0, 0, 0, time.UTC), *meta.Date)
	require.Equal(t, []string{"travel", "latin"}, meta.Categories)
	require.True(t, meta.Visible)
	require.Equal(t, "First paragraph.\n\nSecond paragraph.\n", string(body))
}

func TestExtract_NoFrontmatter(t *testing.T) {
	raw := []byte("Just a body.\n")
	meta, body, err := Extract(raw)
	require.NoError(t, err)
	require.Equal(t, Empty(), meta)
	require.Equal(t, raw, body)
}

func TestExtract_VisibleOnlyFalseSuppresses(t *testing.T) {
	cases := map[string]bool{
		"visible: false":     false,
		"visible: true":      true,
		"visible: \"false\"": true,
		"visible: no_bool":   true,
		"title: absent":      true,
	}
	for line, want := range cases {
		meta, _, err := Extract([]byte("---\n" + line + "\n---\nbody"))
		require.NoError(t, err)
		require.Equal(t, want, meta.Visible, line)
	}
}

func TestExtract_InvalidYAMLDegrades(t *testing.T) {
	raw := []byte("---\ntitle: [unclosed\n---\nBody stays.\n")
	meta, body, err := Extract(raw)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryFrontmatter))
	require.Equal(t, errors.SeverityWarning, errors.GetSeverity(err))
	require.Equal(t, Empty(), meta)
	require.Equal(t, "Body stays.\n", string(body))
}

func TestExtract_MissingDelimiterKeepsWholeText(t *testing.T) {
	raw := []byte("---\ntitle: x\nno closing\n")
	meta, body, err := Extract(raw)
	require.Error(t, err)
	require.Equal(t, Empty(), meta)
	require.Equal(t, raw, body)
}

func TestNormalizeCategories(t *testing.T) {
	require.Equal(t, []string{"go", "web", "tips"}, NormalizeCategories("go, web  tips"))
	require.Equal(t, []string{"go", "web"}, NormalizeCategories([]any{" go ", "", "web"}))
	require.Equal(t, []string{"2024"}, NormalizeCategories([]any{2024}))
	require.Equal(t, []string{}, NormalizeCategories(nil))
	require.Equal(t, []string{}, NormalizeCategories(" , "))
}

func TestNormalizeCategories_ListAndStringAgree_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tags := rapid.SliceOf(rapid.StringMatching(`[a-z0-9]{1,8}`)).Draw(t, "tags")
		sep := rapid.SampledFrom([]string{",", " ", ", ", " ,  ", "\t"}).Draw(t, "sep")

		items := make([]any, len(tags))
		for i, tag := range tags {
			items[i] = tag
		}
		fromList := NormalizeCategories(items)
		fromString := NormalizeCategories(strings.Join(tags, sep))

		if len(fromList) != len(fromString) {
			t.Fatalf("length mismatch %v vs %v", fromList, fromString)
		}
		for i := range fromList {
			if fromList[i] != fromString[i] || fromList[i] != strings.TrimSpace(fromList[i]) || fromList[i] == "" {
				t.Fatalf("mismatch at %d: %q vs %q", i, fromList[i], fromString[i])
			}
		}
	})
}

func TestParseDate(t *testing.T) {
	want := time.Date(2021, 11, 26, 9, 31, 0, 0, time.FixedZone("", -8*3600))

	got := ParseDate("2021-11-26 9:31 -0800")
	require.NotNil(t, got)
	require.True(t, want.Equal(*got))

	got = ParseDate("2021-11-26T09:31:00-08:00")
	require.NotNil(t, got)
	require.True(t, want.Equal(*got))

	ts := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	require.Equal(t, &ts, ParseDate(ts))

	require.Nil(t, ParseDate("not a date"))
	require.Nil(t, ParseDate(""))
	require.Nil(t, ParseDate(nil))
}
