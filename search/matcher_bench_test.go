package search

import (
	"strings"
	"testing"
)

var (
	benchSummary MatchSummary
	benchCount   int
)

// benchText builds ~1MB of prose with the needle near the start.
func benchText(lead string) string {
	const targetSize = 1 << 20
	var sb strings.Builder
	sb.Grow(targetSize + 128)
	sb.WriteString(lead)
	fill := "Lorem ipsum dolor sit amet. Consectetur adipiscing elit! "
	for sb.Len() < targetSize {
		sb.WriteString(fill)
	}
	return sb.String()
}

func BenchmarkMatch_Hit(b *testing.B) {
	text := benchText("This benchmark file mentions the motor early. ")

	summary, err := Match(text, "motor")
	if err != nil || summary.TotalOccurrences != 1 {
		b.Fatalf("sanity check failed for hit case: %+v err=%v", summary.TotalOccurrences, err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchSummary, _ = Match(text, "motor")
	}
	_ = benchSummary
}

func BenchmarkCountWholeWord_Miss(b *testing.B) {
	// "dolo" occurs inside every "dolor" but never as a whole word
	text := benchText("Nothing to find here. ")

	if n := CountWholeWord(text, "dolo"); n != 0 {
		b.Fatalf("sanity check failed for miss case: count=%d", n)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchCount = CountWholeWord(text, "dolo")
	}
	_ = benchCount
}
