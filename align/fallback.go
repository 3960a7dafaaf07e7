package align

import (
	"strings"

	"github.com/teleivo/svfmt/partition"
	"github.com/teleivo/svfmt/token"
)

// FormatUsingOriginalSpacing converts row, which must be a leaf tabular_alignment partition, into
// a partition structure that reproduces the original source spacing byte-for-byte instead of
// running the column algorithm:
//
//   - tokens separated by spaces only become a single already_formatted partition with one inline
//     child per token, each inline's indentation carrying the original space count;
//   - tokens separated by one or more newlines split the row into an always_expand partition of
//     per-line already_formatted children, each continuation line indented by the trailing space
//     count on its own source line.
//
// Token decisions are rewritten at the same time, so the result renders correctly whether or not
// the caller later runs apply_already_formatted_partition_to_tokens over it. [TabularAlignTokens]
// uses it for a group with fewer than [MinRowsToAlign] rows or one that overlaps a disabled byte
// range; a group that would exceed the column limit is left flush-left instead, and the [Preserve]
// policy marks tokens preserve without calling this.
func FormatUsingOriginalSpacing(t *partition.Tree, row partition.NodeID, fullText string) error {
	line := t.Line(row)
	rng := line.Range
	if rng.Empty() {
		line.Policy = partition.AlreadyFormatted
		t.SetLine(row, line)
		return nil
	}
	if !t.IsLeaf(row) {
		return partition.NewInvariantViolation("format_using_original_spacing: row %d is not a leaf", row)
	}

	// Split the range into source lines: a new segment starts at every token whose original gap
	// crossed at least one newline, and that segment's indentation is the trailing space count of
	// the gap (the continuation line's own indentation in the source).
	type sourceLine struct {
		rng    token.Range
		indent int
	}
	tokens := t.Tokens()
	segs := []sourceLine{{rng: token.Range{Begin: rng.Begin}, indent: line.IndentationSpaces}}
	for i := rng.Begin + 1; i < rng.End; i++ {
		if _, newlines := originalGap(tokens, i, fullText); newlines > 0 {
			segs[len(segs)-1].rng.End = i
			segs = append(segs, sourceLine{rng: token.Range{Begin: i}})
			spaces, _ := originalGap(tokens, i, fullText)
			segs[len(segs)-1].indent = spaces
		}
	}
	segs[len(segs)-1].rng.End = rng.End

	writeSourceLine := func(parent partition.NodeID, seg sourceLine) {
		for i := seg.rng.Begin; i < seg.rng.End; i++ {
			indent := 0
			if i > seg.rng.Begin {
				indent, _ = originalGap(tokens, i, fullText)
			}
			t.AppendChild(parent, partition.UnwrappedLine{
				Range:             token.Range{Begin: i, End: i + 1},
				IndentationSpaces: indent,
				Policy:            partition.Inline,
			})
		}
		t.Token(seg.rng.Begin).Before.Decision = token.MustWrap
		t.Token(seg.rng.Begin).Before.SpacesRequired = seg.indent
		for i := seg.rng.Begin + 1; i < seg.rng.End; i++ {
			spaces, _ := originalGap(tokens, i, fullText)
			t.Token(i).Before.Decision = token.AppendAligned
			t.Token(i).Before.SpacesRequired = spaces
		}
	}

	if len(segs) == 1 {
		line.Policy = partition.AlreadyFormatted
		t.SetLine(row, line)
		writeSourceLine(row, segs[0])
		return nil
	}

	line.Policy = partition.AlwaysExpand
	t.SetLine(row, line)
	for _, seg := range segs {
		child := t.AppendChild(row, partition.UnwrappedLine{
			Range:             seg.rng,
			IndentationSpaces: seg.indent,
			Policy:            partition.AlreadyFormatted,
		})
		writeSourceLine(child, seg)
	}
	return nil
}

// originalGap reports the spacing between tokens[i-1] and tokens[i] as it appeared in fullText:
// the number of newlines crossed, and either the space count before token i (no newline) or the
// count of trailing spaces on token i's own line (one or more newlines), which doubles as that
// continuation line's indentation.
func originalGap(tokens []token.PreFormatToken, i int, fullText string) (spaces, newlines int) {
	prevEnd := tokens[i-1].Token.End.Offset
	curStart := tokens[i].Token.Start.Offset
	if curStart <= prevEnd || curStart > len(fullText) {
		return 0, 0
	}
	between := fullText[prevEnd:curStart]
	newlines = strings.Count(between, "\n")
	if newlines == 0 {
		return len(between), 0
	}
	lastNL := strings.LastIndexByte(between, '\n')
	return len(between) - lastNL - 1, newlines
}
