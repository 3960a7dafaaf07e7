// Package render implements a trivial, test-only renderer: it replays a finalized
// []token.PreFormatToken's Before spacing back into text, the way a real renderer would.
// Production formatting never calls this package; it exists solely so
// tests can check a round-trip property (format, then render, then compare) without depending on a
// full-blown printer.
package render

import (
	"strings"

	"github.com/teleivo/svfmt/token"
)

// Render renders tokens left to right, honoring each token's Before.Decision: MustWrap starts a
// new line indented by SpacesRequired, Preserve copies the original source verbatim between the
// previous and current token, and every other decision appends SpacesRequired spaces on the
// current line. fullText is only consulted for Preserve tokens and may be empty otherwise.
func Render(tokens []token.PreFormatToken, fullText string) string {
	var b strings.Builder
	for i, t := range tokens {
		if i == 0 {
			writeSpaces(&b, t.Before.SpacesRequired)
			b.WriteString(t.Token.Text)
			continue
		}

		switch t.Before.Decision {
		case token.MustWrap:
			b.WriteByte('\n')
			writeSpaces(&b, t.Before.SpacesRequired)
		case token.Preserve:
			prevEnd := tokens[i-1].Token.End.Offset
			curStart := t.Token.Start.Offset
			if curStart > prevEnd && curStart <= len(fullText) {
				b.WriteString(fullText[prevEnd:curStart])
			}
		default: // MustAppend, AppendAligned, Undecided
			writeSpaces(&b, t.Before.SpacesRequired)
		}
		b.WriteString(t.Token.Text)
	}
	return b.String()
}

func writeSpaces(b *strings.Builder, n int) {
	for range n {
		b.WriteByte(' ')
	}
}
