package extract

import "strings"

// Marker phrases bounding the legacy information table block. Matching is
// case-insensitive and the end marker stays inside the block.
const (
	blockStartMarker = "form 13f information table"
	blockEndMarker   = "grand total"
)

// infoTableBlock bounds the slice of submission text that holds the
// information table. When the start marker is absent the whole text is
// returned; when the end marker is absent the block runs to the end.
func infoTableBlock(text string) string {
	lower := strings.ToLower(text)
	i := strings.Index(lower, blockStartMarker)
	if i == -1 {
		return text
	}
	j := strings.Index(lower[i:], blockEndMarker)
	if j == -1 {
		return text[i:]
	}
	return text[i : i+j+len(blockEndMarker)]
}

// separatorChars are the characters ruling lines are drawn with.
const separatorChars = "-=<>_"

// isSeparatorLine reports whether a line is blank or consists only of
// ruling characters. Blank lines count.
func isSeparatorLine(line string) bool {
	for _, r := range strings.TrimSpace(line) {
		if !strings.ContainsRune(separatorChars, r) {
			return false
		}
	}
	return true
}

// dropSeparatorLines removes ruling and blank lines, preserving order.
// Trailing carriage returns are stripped from the kept lines.
func dropSeparatorLines(lines []string) []string {
	kept := make([]string, 0, len(lines))
	for _, ln := range lines {
		if isSeparatorLine(ln) {
			continue
		}
		kept = append(kept, strings.TrimRight(ln, "\r\n"))
	}
	return kept
}

// upperASCII uppercases ASCII letters only, leaving byte offsets intact.
// Header offsets are computed on the uppercased line and then used to
// slice the original, so length must not change.
func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
