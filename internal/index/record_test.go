package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarshal_Format(t *testing.T) {
	date := time.Date(2021, 11, 26, 0, 0, 0, 0, time.UTC)
	data, err := Marshal([]Record{{
		Slug:         "p",
		Title:        "T & <b>",
		Date:         &date,
		Categories:   []string{"go"},
		Visible:      true,
		ExcerptHTML:  "<p>x</p>\n",
		ExcerptPlain: "x",
		Extension:    ".md",
	}, {Slug: "nodate", Categories: []string{}, Extension: ".md"}})
	require.NoError(t, err)

	s := string(data)
	require.Contains(t, s, "[\n  {\n    \"slug\": \"p\",")
	require.Contains(t, s, `"date": "2021-11-26T00:00:00Z"`)
	require.Contains(t, s, `"title": "T & <b>"`)
	require.Contains(t, s, `"excerptHtml": "<p>x</p>\n"`)
	require.Contains(t, s, `"date": null`)
	require.Contains(t, s, `"visible": false`)
}

func TestMarshal_EmptyIsArray(t *testing.T) {
	data, err := Marshal(nil)
	require.NoError(t, err)
	require.Equal(t, "[]\n", string(data))
}

func TestUnmarshal_VisibleDefaultsTrue(t *testing.T) {
	recs, err := Unmarshal([]byte(`[
		{"slug":"a","title":"A","date":"2021-01-01T00:00:00Z"},
		{"slug":"b","visible":false},
		{"slug":"c","visible":true,"categories":["x"]}
	]`))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.True(t, recs[0].Visible)
	require.Equal(t, []string{}, recs[0].Categories)
	require.False(t, recs[1].Visible)
	require.True(t, recs[2].Visible)
	require.True(t, recs[0].Eligible())
	require.False(t, recs[1].Eligible())
}

func TestUnmarshal_Invalid(t *testing.T) {
	_, err := Unmarshal([]byte("{not json"))
	require.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	date := time.Date(2020, 2, 3, 4, 5, 6, 0, time.UTC)
	in := []Record{{Slug: "s", Title: "t", Date: &date, Categories: []string{"a"}, Visible: true, Extension: ".md"}}
	data, err := Marshal(in)
	require.NoError(t, err)
	out, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, in[0].Slug, out[0].Slug)
	require.True(t, out[0].Date.Equal(date))
	require.True(t, out[0].Visible)
}

func TestHasCategory(t *testing.T) {
	r := Record{Categories: []string{"Go", "web"}}
	require.True(t, r.HasCategory("Go"))
	require.False(t, r.HasCategory("go"))
}
