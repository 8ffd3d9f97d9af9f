// Package pdf salvages text from PDF content streams when the regular page
// decoder cannot read a document.
package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Default caps for content-stream salvage.
const (
	DefaultPageCap    = 200        // maximum number of pages to process
	DefaultPerPageCap = 128 * 1024 // 128 KiB per-page text cap
)

var (
	configOnce   sync.Once
	pageNumRegex = regexp.MustCompile(`(\d+)\.txt$`)
)

// ExtractContentText dumps each page's content stream with pdfcpu and keeps
// the string literals, one line per page in page order.
// Non-positive caps select the defaults.
func ExtractContentText(data []byte, pageCap, perPageCap int) (out string, err error) {
	if pageCap <= 0 {
		pageCap = DefaultPageCap
	}
	if perPageCap <= 0 {
		perPageCap = DefaultPerPageCap
	}

	// pdfcpu otherwise creates a config dir under the user's home
	configOnce.Do(api.DisableConfigDir)

	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	tmpDir, err := os.MkdirTemp("", "docfind_pdfcpu_*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := api.ExtractContent(bytes.NewReader(data), tmpDir, "page", nil, nil); err != nil {
		return "", fmt.Errorf("pdfcpu extract content: %w", err)
	}

	ents, err := os.ReadDir(tmpDir)
	if err != nil {
		return "", fmt.Errorf("read dir: %w", err)
	}

	type pageFile struct {
		num  int
		path string
	}
	var pages []pageFile
	for _, de := range ents {
		if de.IsDir() {
			continue
		}
		num := 0
		if m := pageNumRegex.FindStringSubmatch(de.Name()); m != nil {
			num, _ = strconv.Atoi(m[1])
		}
		pages = append(pages, pageFile{num: num, path: filepath.Join(tmpDir, de.Name())})
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].num < pages[j].num })

	var b strings.Builder
	processed := 0
	for _, p := range pages {
		if processed >= pageCap {
			break
		}
		raw, _ := os.ReadFile(p.path)
		if len(raw) == 0 {
			continue
		}

		txt := truncateUTF8(normalizeSpace(parseStringLiterals(string(raw), perPageCap)), perPageCap)
		if txt == "" {
			continue
		}
		b.WriteString(txt)
		b.WriteByte('\n')
		processed++
	}

	return b.String(), nil
}

// parseStringLiterals collects text within balanced parentheses, honouring
// backslash escapes, up to maxOut bytes.
func parseStringLiterals(s string, maxOut int) string {
	var out strings.Builder
	depth := 0
	escape := false
	in := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !in {
			if c == '(' {
				in = true
				depth = 1
			}
			continue
		}
		if escape {
			out.WriteByte(unescape(c))
			escape = false
		} else {
			switch c {
			case '\\':
				escape = true
			case '(':
				depth++
				out.WriteByte(c)
			case ')':
				depth--
				if depth == 0 {
					in = false
					out.WriteByte(' ')
				} else {
					out.WriteByte(c)
				}
			default:
				out.WriteByte(c)
			}
		}
		if out.Len() >= maxOut {
			break
		}
	}
	return out.String()
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func unescape(c byte) byte {
	switch c {
	case 'n', 'r', 't', 'f', 'b':
		return ' '
	default:
		return c
	}
}

// normalizeSpace blanks non-printable or non-ASCII runes and collapses whitespace.
func normalizeSpace(s string) string {
	ascii := strings.Map(func(r rune) rune {
		if r > 127 || !unicode.IsPrint(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(ascii), " ")
}
