package rules

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// TextDiff renders a character-level inline diff from base to text, with
// semantic cleanup merging fragments into readable runs. Deletions are
// marked [-old-] and insertions {+new+}.
func TextDiff(base, text string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(base, text, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		}
	}
	return b.String()
}
