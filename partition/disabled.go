package partition

import (
	"github.com/teleivo/svfmt/byteset"
	"github.com/teleivo/svfmt/token"
)

// AnySubrangeIsDisabled reports whether any token in rng has its source offset inside a disabled
// byte-offset interval.
func AnySubrangeIsDisabled(rng token.Range, tokens []token.PreFormatToken, disabled *byteset.Set) bool {
	if disabled.Empty() {
		return false
	}
	for i := rng.Begin; i < rng.End; i++ {
		if disabled.Contains(tokens[i].Token.Start.Offset) {
			return true
		}
	}
	return false
}

// IndentButPreserveOtherSpacing sets break_decision = preserve on every token except the first of
// each row in rows. The first token of each row is left alone so the formatter may still choose
// its indentation; every other token's original spacing is reproduced verbatim.
func (t *Tree) IndentButPreserveOtherSpacing(rows []NodeID) {
	for _, id := range rows {
		r := t.nodes[id].line.Range
		for i := r.Begin + 1; i < r.End; i++ {
			t.tokens[i].Before.Decision = token.Preserve
		}
	}
}
