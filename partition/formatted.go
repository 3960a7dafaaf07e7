package partition

import "github.com/teleivo/svfmt/token"

// ApplyAlreadyFormattedPartitionToTokens rewrites the spacing of every token under id, which must
// carry the AlreadyFormatted policy, so that a trivial left-to-right renderer reproduces the
// partition's fixed layout:
//
//   - the first token of the node gets break_decision = must_wrap and spaces_required equal to
//     the node's indentation;
//   - subsequent tokens inside the same Inline child get break_decision = must_append;
//   - the first token of each non-initial Inline sibling gets break_decision = append_aligned and
//     spaces_required equal to that sibling's indentation.
//
// After applying, id's children are cleared: the AlreadyFormatted node becomes a leaf whose fixed
// text is fully captured by the rewritten token spacing.
func (t *Tree) ApplyAlreadyFormattedPartitionToTokens(id NodeID) error {
	n := t.nodes[id].line
	if n.Policy != AlreadyFormatted {
		return newInvariantViolation("apply_already_formatted_partition_to_tokens: node %d has policy %v, want already_formatted", id, n.Policy)
	}

	children := t.nodes[id].children
	if len(children) == 0 {
		if n.Range.Empty() {
			return nil
		}
		first := n.Range.Begin
		t.tokens[first].Before.Decision = token.MustWrap
		t.tokens[first].Before.SpacesRequired = n.IndentationSpaces
		for i := first + 1; i < n.Range.End; i++ {
			t.tokens[i].Before.Decision = token.MustAppend
		}
		return nil
	}

	for _, c := range children {
		if t.nodes[c].line.Policy != Inline {
			return newInvariantViolation("apply_already_formatted_partition_to_tokens: child %d of %d has policy %v, want inline", c, id, t.nodes[c].line.Policy)
		}
		if !t.IsLeaf(c) {
			return newInvariantViolation("apply_already_formatted_partition_to_tokens: inline child %d is not a leaf", c)
		}
	}

	for _, c := range children {
		r := t.nodes[c].line.Range
		for i := r.Begin + 1; i < r.End; i++ {
			t.tokens[i].Before.Decision = token.MustAppend
		}
	}

	first := children[0]
	firstRange := t.nodes[first].line.Range
	t.tokens[firstRange.Begin].Before.Decision = token.MustWrap
	t.tokens[firstRange.Begin].Before.SpacesRequired = n.IndentationSpaces

	for _, c := range children[1:] {
		r := t.nodes[c].line.Range
		t.tokens[r.Begin].Before.Decision = token.AppendAligned
		t.tokens[r.Begin].Before.SpacesRequired = t.nodes[c].line.IndentationSpaces
	}

	t.nodes[id].children = nil
	return nil
}
