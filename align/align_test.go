package align_test

import (
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/svfmt/align"
	"github.com/teleivo/svfmt/byteset"
	"github.com/teleivo/svfmt/internal/render"
	"github.com/teleivo/svfmt/partition"
	"github.com/teleivo/svfmt/token"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// plainToken builds a token with the given text and a uniform required spacing (no real offsets:
// used by scenarios that never fall back to reading original source spacing).
func plainToken(text string, spacesRequired int) token.PreFormatToken {
	return token.PreFormatToken{
		Token:  token.Token{Text: text},
		Before: token.Spacing{SpacesRequired: spacesRequired},
	}
}

// finalize runs the already_formatted finalization every row needs before rendering: align itself
// only rewrites inter-token spacing and encodes the cells as inline children, it does not set
// must_wrap on a row's own first token (that is the apply step's job).
func finalize(t *testing.T, tree *partition.Tree, rows []partition.NodeID) {
	t.Helper()
	for _, r := range rows {
		err := tree.ApplyAlreadyFormattedPartitionToTokens(r)
		assert.True(t, err == nil, "unexpected error finalizing row: %v", err)
	}
}

// TestTabularAlignDenseSparseGrid aligns three rows bidding on three
// columns in a diagonal sparse pattern, spaces_required = 1 uniformly, align policy.
func TestTabularAlignDenseSparseGrid(t *testing.T) {
	tokens := []token.PreFormatToken{
		plainToken("one", 1), plainToken("two", 1), // row 0: cols 1, 2
		plainToken("three", 1), plainToken("four", 1), // row 1: cols 0, 2
		plainToken("five", 1), plainToken("six", 1), // row 2: cols 0, 1
	}
	tree := partition.NewTree(tokens, partition.UnwrappedLine{
		Range: token.Range{Begin: 0, End: 6}, Policy: partition.TabularAlignment,
	})
	root := tree.Root()
	row0 := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 0, End: 2}, Policy: partition.TabularAlignment})
	row1 := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 2, End: 4}, Policy: partition.TabularAlignment})
	row2 := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 4, End: 6}, Policy: partition.TabularAlignment})
	rows := []partition.NodeID{row0, row1, row2}

	colsByRow := map[partition.NodeID][2]int{
		row0: {1, 2},
		row1: {0, 2},
		row2: {0, 1},
	}
	scanner := func(tr *partition.Tree, row partition.NodeID) *align.ColumnPositionTree {
		ct := align.NewColumnPositionTree()
		cols := colsByRow[row]
		rng := tr.Line(row).Range
		ct.Column(align.Root, rng.Begin, align.AlignmentColumnProperties{}, []int{cols[0]}, nil)
		ct.Column(align.Root, rng.Begin+1, align.AlignmentColumnProperties{}, []int{cols[1]}, nil)
		return ct
	}

	extract := func(tr *partition.Tree, parent partition.NodeID) []align.AlignablePartitionGroup {
		return []align.AlignablePartitionGroup{{Rows: rows, Scanner: scanner, Policy: align.Align}}
	}

	err := align.TabularAlignTokens(tree, root, 80, "", nil, extract, nil)
	assert.True(t, err == nil, "unexpected error: %v", err)

	finalize(t, tree, rows)

	got := render.Render(tree.Tokens(), "")
	want := "      one two\nthree     four\nfive  six"
	assert.Equals(t, got, want, "dense sparse alignment")
}

func buildTwoRowGroup(t *testing.T, row0Toks, row1Toks [2]token.PreFormatToken) (*partition.Tree, partition.NodeID, []partition.NodeID) {
	t.Helper()
	tokens := []token.PreFormatToken{row0Toks[0], row0Toks[1], row1Toks[0], row1Toks[1]}
	tree := partition.NewTree(tokens, partition.UnwrappedLine{Range: token.Range{Begin: 0, End: 4}, Policy: partition.TabularAlignment})
	root := tree.Root()
	row0 := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 0, End: 2}, Policy: partition.TabularAlignment})
	row1 := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 2, End: 4}, Policy: partition.TabularAlignment})
	return tree, root, []partition.NodeID{row0, row1}
}

func twoColumnScanner(tr *partition.Tree, row partition.NodeID) *align.ColumnPositionTree {
	ct := align.NewColumnPositionTree()
	rng := tr.Line(row).Range
	ct.Column(align.Root, rng.Begin, align.AlignmentColumnProperties{}, []int{0}, nil)
	ct.Column(align.Root, rng.Begin+1, align.AlignmentColumnProperties{}, []int{1}, nil)
	return ct
}

// TestTabularAlignInferUserIntentSmallDeviation checks that infer_user_intent chooses
// align because the align-vs-flush-left divergence (2) dominates a small original-vs-flush-left
// divergence (0).
func TestTabularAlignInferUserIntentSmallDeviation(t *testing.T) {
	tree, root, rows := buildTwoRowGroup(t,
		[2]token.PreFormatToken{plainToken("one", 0), plainToken("two", 1)},
		[2]token.PreFormatToken{plainToken("three", 0), plainToken("four", 1)},
	)
	fullText := "one two\nthree four"
	// one is [0,3), space, two is [4,7); three is [8,13), space, four is [14,18).
	tree.Tokens()[0].Token.Start.Offset, tree.Tokens()[0].Token.End.Offset = 0, 3
	tree.Tokens()[1].Token.Start.Offset, tree.Tokens()[1].Token.End.Offset = 4, 7
	tree.Tokens()[2].Token.Start.Offset, tree.Tokens()[2].Token.End.Offset = 8, 13
	tree.Tokens()[3].Token.Start.Offset, tree.Tokens()[3].Token.End.Offset = 14, 18

	extract := func(tr *partition.Tree, parent partition.NodeID) []align.AlignablePartitionGroup {
		return []align.AlignablePartitionGroup{{Rows: rows, Scanner: twoColumnScanner, Policy: align.InferUserIntent}}
	}

	err := align.TabularAlignTokens(tree, root, 80, fullText, nil, extract, nil)
	assert.True(t, err == nil, "unexpected error: %v", err)
	finalize(t, tree, rows)

	got := render.Render(tree.Tokens(), fullText)
	want := "one   two\nthree four"
	assert.Equals(t, got, want, "infer_user_intent should choose align for a small deviation")
}

// TestTabularAlignInferUserIntentAmbiguous checks that a 3-extra-space deviation is
// ambiguous and falls back to preserving the original spacing. Unlike the Align outcome above,
// a Preserve outcome leaves each row's own tokens carrying token.Preserve directly (see
// [partition.Tree.IndentButPreserveOtherSpacing]); finalizing through
// [partition.Tree.ApplyAlreadyFormattedPartitionToTokens] is only correct for rows the Align path
// produced, so this test checks the token decisions Preserve leaves behind instead of rendering.
func TestTabularAlignInferUserIntentAmbiguous(t *testing.T) {
	tree, root, rows := buildTwoRowGroup(t,
		[2]token.PreFormatToken{plainToken("one", 0), plainToken("two", 1)},
		[2]token.PreFormatToken{plainToken("threeeee", 0), plainToken("four", 1)},
	)
	fullText := "one two\nthreeeee    four"
	// one [0,3) sp two [4,7); threeeee [8,16) then 4 spaces then four [20,24).
	tree.Tokens()[0].Token.Start.Offset, tree.Tokens()[0].Token.End.Offset = 0, 3
	tree.Tokens()[1].Token.Start.Offset, tree.Tokens()[1].Token.End.Offset = 4, 7
	tree.Tokens()[2].Token.Start.Offset, tree.Tokens()[2].Token.End.Offset = 8, 16
	tree.Tokens()[3].Token.Start.Offset, tree.Tokens()[3].Token.End.Offset = 20, 24

	extract := func(tr *partition.Tree, parent partition.NodeID) []align.AlignablePartitionGroup {
		return []align.AlignablePartitionGroup{{Rows: rows, Scanner: twoColumnScanner, Policy: align.InferUserIntent}}
	}

	err := align.TabularAlignTokens(tree, root, 80, fullText, nil, extract, nil)
	assert.True(t, err == nil, "unexpected error: %v", err)

	for _, r := range rows {
		assert.Equals(t, tree.Line(r).Policy, partition.AlreadyFormatted, "row should resolve to already_formatted")
	}
	got := tree.Tokens()
	assert.Equals(t, got[1].Before.Decision, token.Preserve, "the ambiguous deviation should preserve rather than align")
	assert.Equals(t, got[3].Before.Decision, token.Preserve, "the ambiguous deviation should preserve rather than align")
}

// TestTabularAlignIsIdempotent checks that aligning an already-aligned group is
// a no-op, because rows finalized to already_formatted are never re-measured.
func TestTabularAlignIsIdempotent(t *testing.T) {
	tokens := []token.PreFormatToken{
		plainToken("one", 1), plainToken("two", 1),
		plainToken("three", 1), plainToken("four", 1),
		plainToken("five", 1), plainToken("six", 1),
	}
	tree := partition.NewTree(tokens, partition.UnwrappedLine{
		Range: token.Range{Begin: 0, End: 6}, Policy: partition.TabularAlignment,
	})
	root := tree.Root()
	row0 := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 0, End: 2}, Policy: partition.TabularAlignment})
	row1 := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 2, End: 4}, Policy: partition.TabularAlignment})
	row2 := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 4, End: 6}, Policy: partition.TabularAlignment})
	rows := []partition.NodeID{row0, row1, row2}

	colsByRow := map[partition.NodeID][2]int{
		row0: {1, 2},
		row1: {0, 2},
		row2: {0, 1},
	}
	scanner := func(tr *partition.Tree, row partition.NodeID) *align.ColumnPositionTree {
		ct := align.NewColumnPositionTree()
		cols := colsByRow[row]
		rng := tr.Line(row).Range
		ct.Column(align.Root, rng.Begin, align.AlignmentColumnProperties{}, []int{cols[0]}, nil)
		ct.Column(align.Root, rng.Begin+1, align.AlignmentColumnProperties{}, []int{cols[1]}, nil)
		return ct
	}
	extract := func(tr *partition.Tree, parent partition.NodeID) []align.AlignablePartitionGroup {
		return []align.AlignablePartitionGroup{{Rows: rows, Scanner: scanner, Policy: align.Align}}
	}

	err := align.TabularAlignTokens(tree, root, 80, "", nil, extract, nil)
	assert.True(t, err == nil, "unexpected error on first run: %v", err)
	err = align.TabularAlignTokens(tree, root, 80, "", nil, extract, nil)
	assert.True(t, err == nil, "unexpected error on second run: %v", err)

	finalize(t, tree, rows)

	got := render.Render(tree.Tokens(), "")
	want := "      one two\nthree     four\nfive  six"
	assert.Equals(t, got, want, "a second alignment pass should change nothing")
}

// TestTabularAlignEncodesInlineCells checks the aligned-row encoding: each row whose cells got a
// computed gap becomes an already_formatted partition with one inline child per cell, carrying the
// gap in the non-initial children's indentation.
func TestTabularAlignEncodesInlineCells(t *testing.T) {
	tree, root, rows := buildTwoRowGroup(t,
		[2]token.PreFormatToken{plainToken("one", 0), plainToken("two", 1)},
		[2]token.PreFormatToken{plainToken("three", 0), plainToken("four", 1)},
	)
	extract := func(tr *partition.Tree, parent partition.NodeID) []align.AlignablePartitionGroup {
		return []align.AlignablePartitionGroup{{Rows: rows, Scanner: twoColumnScanner, Policy: align.Align}}
	}

	err := align.TabularAlignTokens(tree, root, 80, "", nil, extract, nil)
	assert.True(t, err == nil, "unexpected error: %v", err)

	for _, r := range rows {
		assert.Equals(t, tree.Line(r).Policy, partition.AlreadyFormatted, "aligned row policy")
		children := tree.Children(r)
		assert.Equals(t, len(children), 2, "one inline child per cell")
		for _, c := range children {
			assert.Equals(t, tree.Line(c).Policy, partition.Inline, "cell policy")
		}
		err := tree.VerifyNodeRanges(r)
		assert.True(t, err == nil, "inline cells should tile the row range: %v", err)
	}
	// Row "one" pads 3 columns to reach the "three" column's width of 6.
	secondCell := tree.Children(rows[0])[1]
	assert.Equals(t, tree.Line(secondCell).IndentationSpaces, 3, "the gap is carried in the inline child's indentation")
}

// TestTabularAlignDelimiterColumn checks delimiter-aware trimming: a trailing comma present on one
// row but not the other glues to its cell text with no gap, while still counting toward the
// column's width.
func TestTabularAlignDelimiterColumn(t *testing.T) {
	tokens := []token.PreFormatToken{
		plainToken("One", 0), plainToken("Two", 1), plainToken(",", 1),
		plainToken("Three", 0), plainToken("Four", 1),
	}
	tree := partition.NewTree(tokens, partition.UnwrappedLine{
		Range: token.Range{Begin: 0, End: 5}, Policy: partition.TabularAlignment,
	})
	root := tree.Root()
	row0 := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 0, End: 3}, Policy: partition.TabularAlignment})
	row1 := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 3, End: 5}, Policy: partition.TabularAlignment})
	rows := []partition.NodeID{row0, row1}

	scanner := func(tr *partition.Tree, row partition.NodeID) *align.ColumnPositionTree {
		ct := align.NewColumnPositionTree()
		rng := tr.Line(row).Range
		ct.Column(align.Root, rng.Begin, align.AlignmentColumnProperties{}, []int{0}, nil)
		ct.Column(align.Root, rng.Begin+1, align.AlignmentColumnProperties{ContainsDelimiter: true}, []int{1}, nil)
		return ct
	}
	extract := func(tr *partition.Tree, parent partition.NodeID) []align.AlignablePartitionGroup {
		return []align.AlignablePartitionGroup{{Rows: rows, Scanner: scanner, Policy: align.Align}}
	}

	err := align.TabularAlignTokens(tree, root, 80, "", nil, extract, nil)
	assert.True(t, err == nil, "unexpected error: %v", err)
	finalize(t, tree, rows)

	got := render.Render(tree.Tokens(), "")
	want := "One  Two,\nThreeFour"
	assert.Equals(t, got, want, "the delimiter should glue to its cell without shifting the column")
}

// TestTabularAlignAbortsPastColumnLimit checks the abort path: when the computed alignment would
// overflow the column limit for some row, the group reverts to flush-left (natural spacing) and
// the fallback reason is logged.
func TestTabularAlignAbortsPastColumnLimit(t *testing.T) {
	tree, root, rows := buildTwoRowGroup(t,
		[2]token.PreFormatToken{plainToken("one", 0), plainToken("two", 1)},
		[2]token.PreFormatToken{plainToken("three", 0), plainToken("four", 1)},
	)
	extract := func(tr *partition.Tree, parent partition.NodeID) []align.AlignablePartitionGroup {
		return []align.AlignablePartitionGroup{{Rows: rows, Scanner: twoColumnScanner, Policy: align.Align}}
	}

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	err := align.TabularAlignTokens(tree, root, 5, "", nil, extract, logger)
	assert.True(t, err == nil, "unexpected error: %v", err)

	for _, r := range rows {
		assert.Equals(t, tree.Line(r).Policy, partition.AlreadyFormatted, "an aborted group still resolves to already_formatted")
		assert.True(t, tree.IsLeaf(r), "flush-left rows carry no inline cells")
	}
	assert.Equals(t, tree.Tokens()[1].Before.SpacesRequired, 1, "flush-left keeps the natural gap")

	assert.True(t, logs.Len() == 1, "expected one fallback log entry, got %d", logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.True(t, fields["reason"] == "column_limit_exceeded", "logged fallback reason, got %v", fields["reason"])
}

// TestTabularAlignDisabledRangePreservesOriginalText checks that a group fully
// covered by disabled byte ranges renders byte-for-byte as the original source.
func TestTabularAlignDisabledRangePreservesOriginalText(t *testing.T) {
	fullText := "aa   bb\ncc"
	tokens := []token.PreFormatToken{plainToken("aa", 0), plainToken("bb", 1), plainToken("cc", 0)}
	tokens[0].Token.Start.Offset, tokens[0].Token.End.Offset = 0, 2
	tokens[1].Token.Start.Offset, tokens[1].Token.End.Offset = 5, 7
	tokens[2].Token.Start.Offset, tokens[2].Token.End.Offset = 8, 10

	tree := partition.NewTree(tokens, partition.UnwrappedLine{
		Range: token.Range{Begin: 0, End: 3}, Policy: partition.TabularAlignment,
	})
	root := tree.Root()
	row0 := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 0, End: 2}, Policy: partition.TabularAlignment})
	row1 := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 2, End: 3}, Policy: partition.TabularAlignment})
	rows := []partition.NodeID{row0, row1}

	disabled := byteset.New(byteset.Interval{Begin: 0, End: len(fullText)})
	extract := func(tr *partition.Tree, parent partition.NodeID) []align.AlignablePartitionGroup {
		return []align.AlignablePartitionGroup{{Rows: rows, Scanner: twoColumnScanner, Policy: align.Align}}
	}

	err := align.TabularAlignTokens(tree, root, 80, fullText, disabled, extract, nil)
	assert.True(t, err == nil, "unexpected error: %v", err)

	got := render.Render(tree.Tokens(), fullText)
	assert.Equals(t, got, "aa   bb\ncc", "a fully disabled group should render as the original source")
}

// TestFormatUsingOriginalSpacingSplitsAtNewlines checks the fallback's partition structure for a
// range whose original spacing crossed a line: the row becomes an always_expand partition of
// per-line already_formatted children, the continuation line indented by its own trailing spaces.
func TestFormatUsingOriginalSpacingSplitsAtNewlines(t *testing.T) {
	fullText := "x\n  y"
	tokens := []token.PreFormatToken{plainToken("x", 0), plainToken("y", 1)}
	tokens[0].Token.Start.Offset, tokens[0].Token.End.Offset = 0, 1
	tokens[1].Token.Start.Offset, tokens[1].Token.End.Offset = 4, 5

	tree := partition.NewTree(tokens, partition.UnwrappedLine{
		Range: token.Range{Begin: 0, End: 2}, Policy: partition.TabularAlignment,
	})
	root := tree.Root()
	row := tree.AppendChild(root, partition.UnwrappedLine{
		Range: token.Range{Begin: 0, End: 2}, IndentationSpaces: 3, Policy: partition.TabularAlignment,
	})

	err := align.FormatUsingOriginalSpacing(tree, row, fullText)
	assert.True(t, err == nil, "unexpected error: %v", err)

	assert.Equals(t, tree.Line(row).Policy, partition.AlwaysExpand, "a range spanning lines becomes always_expand")
	children := tree.Children(row)
	assert.Equals(t, len(children), 2, "one child per source line")
	assert.Equals(t, tree.Line(children[0]).Policy, partition.AlreadyFormatted, "first line policy")
	assert.Equals(t, tree.Line(children[0]).IndentationSpaces, 3, "first line keeps the row's indentation")
	assert.Equals(t, tree.Line(children[1]).Policy, partition.AlreadyFormatted, "continuation line policy")
	assert.Equals(t, tree.Line(children[1]).IndentationSpaces, 2, "continuation line indents by its trailing spaces")
	err = tree.VerifyFullTreeRanges(row)
	assert.True(t, err == nil, "fallback structure should keep range invariants: %v", err)

	got := render.Render(tree.Tokens(), fullText)
	assert.Equals(t, got, "   x\n  y", "rendering should reproduce the original line structure")
}

// TestTabularAlignFewerThanMinRowsFallsBackToOriginalSpacing checks the MinRowsToAlign threshold:
// a single-row group is never aligned, it falls back to reproducing original spacing verbatim.
func TestTabularAlignFewerThanMinRowsFallsBackToOriginalSpacing(t *testing.T) {
	tokens := []token.PreFormatToken{plainToken("one", 0), plainToken("two", 1)}
	tokens[0].Token.Start.Offset, tokens[0].Token.End.Offset = 0, 3
	tokens[1].Token.Start.Offset, tokens[1].Token.End.Offset = 5, 8
	fullText := "one  two"
	tree := partition.NewTree(tokens, partition.UnwrappedLine{Range: token.Range{Begin: 0, End: 2}, Policy: partition.TabularAlignment})
	root := tree.Root()
	row := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 0, End: 2}, Policy: partition.TabularAlignment})

	extract := func(tr *partition.Tree, parent partition.NodeID) []align.AlignablePartitionGroup {
		return []align.AlignablePartitionGroup{{Rows: []partition.NodeID{row}, Scanner: twoColumnScanner, Policy: align.Align}}
	}

	err := align.TabularAlignTokens(tree, root, 80, fullText, nil, extract, nil)
	assert.True(t, err == nil, "unexpected error: %v", err)

	assert.Equals(t, tree.Line(row).Policy, partition.AlreadyFormatted, "a too-small group still resolves to already_formatted")
	assert.Equals(t, tree.Tokens()[1].Before.SpacesRequired, 2, "fallback should reproduce the original 2-space gap verbatim")
}
