package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Compute returns the added and removed lines turning oldContent into newContent.
func Compute(oldContent, newContent string) ([]LineChange, Stats) {
	a, b := splitLines(oldContent), splitLines(newContent)
	var changes []LineChange
	var stats Stats
	matcher := difflib.NewMatcher(a, b)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			continue
		case 'd', 'r':
			for i := op.I1; i < op.I2; i++ {
				changes = append(changes, LineChange{Type: LineRemoved, OldLine: i + 1, Content: strings.TrimSuffix(a[i], "\n")})
				stats.Removed++
			}
			if op.Tag == 'd' {
				continue
			}
			fallthrough
		case 'i':
			for j := op.J1; j < op.J2; j++ {
				changes = append(changes, LineChange{Type: LineAdded, NewLine: j + 1, Content: strings.TrimSuffix(b[j], "\n")})
				stats.Added++
			}
		}
	}
	return changes, stats
}

// Unified renders a GNU unified diff; identical content yields "".
func Unified(oldContent, newContent, filePath string, contextLines int) (string, error) {
	if oldContent == newContent {
		return "", nil
	}
	if contextLines <= 0 {
		contextLines = 3
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: "a/" + strings.TrimPrefix(filePath, "/"),
		ToFile:   "b/" + strings.TrimPrefix(filePath, "/"),
		Context:  contextLines,
	}
	return difflib.GetUnifiedDiffString(ud)
}
