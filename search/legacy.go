package search

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/richardlehane/mscfb"
	textunicode "golang.org/x/text/encoding/unicode"
)

// legacyDocBudget caps the bytes read across all salvaged streams.
const legacyDocBudget = 4 << 20

// minSalvageRun drops printable runs shorter than this; binary tables are full of them.
const minSalvageRun = 2

// Streams commonly carrying body text.
var legacyDocStreams = map[string]bool{
	"WordDocument": true,
	"1Table":       true,
	"0Table":       true,
}

// salvageLegacyDoc opens the OLE compound file and recovers readable text
// from the Word streams, decoding UTF-16 when plausible and ASCII otherwise.
func salvageLegacyDoc(data []byte, budget int64) (string, error) {
	cf, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open compound file: %w", err)
	}

	var parts []string
	var total int64
	for ent, err := cf.Next(); err == nil; ent, err = cf.Next() {
		if total >= budget {
			break
		}
		if !legacyDocStreams[ent.Name] {
			continue
		}

		raw, _ := io.ReadAll(io.LimitReader(ent, budget-total))
		total += int64(len(raw))
		if len(raw) == 0 {
			continue
		}

		text, ok := tryDecodeUTF16BestEffort(raw)
		if !ok {
			text = asciiSalvage(raw)
		}
		if text = keepReadableRuns(text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n"), nil
}

// tryDecodeUTF16BestEffort decodes little-endian UTF-16 and accepts the
// result only when most runes are ordinary Latin-range text.
func tryDecodeUTF16BestEffort(data []byte) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	if len(data)%2 == 1 {
		data = data[:len(data)-1]
	}

	out, err := textunicode.UTF16(textunicode.LittleEndian, textunicode.IgnoreBOM).NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}

	var b strings.Builder
	runes, good := 0, 0
	for _, r := range string(out) {
		runes++
		if r < 0x2000 && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r)) {
			good++
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	if runes == 0 || good*100/runes < 60 {
		return "", false
	}
	return b.String(), true
}

// asciiSalvage keeps printable ASCII and whitespace, blanking everything else.
func asciiSalvage(data []byte) string {
	buf := make([]byte, len(data))
	for i, c := range data {
		if c == 0x09 || c == 0x0a || c == 0x0d || (c >= 0x20 && c <= 0x7e) {
			buf[i] = c
		} else {
			buf[i] = ' '
		}
	}
	return string(buf)
}

// keepReadableRuns drops short fragments and collapses whitespace.
func keepReadableRuns(s string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minSalvageRun && strings.IndexFunc(f, isWordRune) >= 0 {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}
