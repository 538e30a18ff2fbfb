package moderation

import (
	"sort"
	"strings"
)

type span struct{ start, end int }

// Redact masks every case-insensitive occurrence of the flagged substrings
// with equal-length '*' runs. Occurrences are resolved to non-overlapping
// spans first; sequential string replacement would corrupt text when flagged
// substrings overlap or contain one another.
func Redact(content string, flagged []string) string {
	if len(flagged) == 0 {
		return content
	}

	lower := strings.ToLower(content)
	var spans []span
	for _, item := range flagged {
		needle := strings.ToLower(item)
		if needle == "" {
			continue
		}
		for from := 0; ; {
			i := strings.Index(lower[from:], needle)
			if i < 0 {
				break
			}
			start := from + i
			spans = append(spans, span{start: start, end: start + len(needle)})
			from = start + 1
		}
	}
	if len(spans) == 0 {
		return content
	}

	spans = merge(spans)

	out := []byte(content)
	for _, s := range spans {
		for i := s.start; i < s.end; i++ {
			out[i] = '*'
		}
	}
	return string(out)
}

// merge sorts spans by start and coalesces any that overlap or touch.
func merge(spans []span) []span {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
