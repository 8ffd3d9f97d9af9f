package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"docfind/search"
)

func sampleOutcome(t *testing.T) *search.SearchOutcome {
	t.Helper()
	outcome, err := search.Search([]search.UploadedFile{
		{Name: "story.txt", Size: 2048, Text: "The cat sat. A category exists."},
		{Name: "scan.pdf", Size: 512, Kind: search.KindPartial, Text: "Cat food. More cat."},
		{Name: "other.txt", Text: "Nothing here."},
	}, "cat")
	require.NoError(t, err)
	return outcome
}

func TestParseFormat(t *testing.T) {
	f, err := parseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, formatJSON, f)

	_, err = parseFormat("xml")
	assert.Error(t, err)
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatText, sampleOutcome(t), false))

	want := `"cat": 3 occurrences in 2 of 3 files

story.txt (2.00 KB)
  1 occurrence • 2 matching sentences
  1. The cat sat
  2. A category exists

scan.pdf (0.50 KB, partial text)
  2 occurrences • 2 matching sentences
  1. Cat food
  2. More cat
`
	assert.Equal(t, want, buf.String())
}

func TestRenderTextHighlights(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderText(&buf, sampleOutcome(t), true))
	assert.Contains(t, buf.String(), "The \033[1;31mcat\033[0m sat")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatJSON, sampleOutcome(t), false))

	var got struct {
		Term    string `json:"term"`
		Results []struct {
			FileName string `json:"file_name"`
			Kind     string `json:"kind"`
		} `json:"results"`
		TotalOccurrences int `json:"total_occurrences"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "cat", got.Term)
	assert.Equal(t, 3, got.TotalOccurrences)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "partial", got.Results[1].Kind)
}

func TestRenderMsgpackUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatMsgpack, sampleOutcome(t), false))

	var got map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "cat", got["term"])
	assert.EqualValues(t, 3, got["files_searched"])
	assert.Len(t, got["results"], 2)
}
