package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"docfind/search"
)

type outputFormat string

const (
	formatText    outputFormat = "text"
	formatJSON    outputFormat = "json"
	formatMsgpack outputFormat = "msgpack"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case formatText, formatJSON, formatMsgpack:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or msgpack)", s)
	}
}

// render writes an outcome in the requested format
func render(w io.Writer, f outputFormat, o *search.SearchOutcome, color bool) error {
	switch f {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	case formatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(o)
	default:
		return renderText(w, o, color)
	}
}

// renderText prints a summary line, then each matching file with its
// sentences numbered in match order.
func renderText(w io.Writer, o *search.SearchOutcome, color bool) error {
	highlight := func(s string) string { return strings.TrimSpace(s) }
	if color {
		highlight = func(s string) string { return search.HighlightANSI(s, o.Term) }
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%q: %s in %d of %s\n",
		o.Term,
		search.FormatCount(o.TotalOccurrences, "occurrence"),
		len(o.Results),
		search.FormatCount(o.FilesSearched, "file"))

	for _, r := range o.Results {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s (%s", r.FileName, search.FormatKB(r.FileSize))
		if r.Kind != search.KindText {
			fmt.Fprintf(&b, ", %s text", r.Kind)
		}
		b.WriteString(")\n")
		fmt.Fprintf(&b, "  %s • %s\n",
			search.FormatCount(r.TotalOccurrences, "occurrence"),
			search.FormatCount(r.MatchingSentences, "matching sentence"))
		for _, s := range r.Sentences {
			fmt.Fprintf(&b, "  %d. %s\n", s.Number, highlight(s.Text))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
