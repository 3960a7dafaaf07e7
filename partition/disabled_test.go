package partition_test

import (
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/svfmt/byteset"
	"github.com/teleivo/svfmt/partition"
	"github.com/teleivo/svfmt/token"
)

func TestAnySubrangeIsDisabled(t *testing.T) {
	tokens := []token.PreFormatToken{
		tokenAt("a", 0, 1),
		tokenAt("b", 10, 11),
		tokenAt("c", 20, 21),
	}
	disabled := byteset.New(byteset.Interval{Begin: 9, End: 12})

	assert.True(t, partition.AnySubrangeIsDisabled(token.Range{Begin: 0, End: 2}, tokens, disabled),
		"range containing b's offset should be disabled")
	assert.True(t, !partition.AnySubrangeIsDisabled(token.Range{Begin: 0, End: 1}, tokens, disabled),
		"range containing only a's offset should not be disabled")
	assert.True(t, !partition.AnySubrangeIsDisabled(token.Range{Begin: 0, End: 3}, tokens, nil),
		"a nil disabled set disables nothing")
}

func TestIndentButPreserveOtherSpacing(t *testing.T) {
	tokens := toks("a", "b", "c", "d")
	tree := partition.NewTree(tokens, partition.UnwrappedLine{Range: token.Range{Begin: 0, End: 4}})
	root := tree.Root()
	row := tree.AppendChild(root, partition.UnwrappedLine{Range: token.Range{Begin: 0, End: 4}})

	tree.IndentButPreserveOtherSpacing([]partition.NodeID{row})

	got := tree.Tokens()
	assert.Equals(t, got[0].Before.Decision, token.Undecided, "the row's first token is left alone")
	for i := 1; i < 4; i++ {
		assert.Equals(t, got[i].Before.Decision, token.Preserve, "token %d should be marked preserve", i)
	}
}
