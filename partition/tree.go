// Package partition implements the token-partition tree: a hierarchical slicing of a
// process-wide pre-format token array into units of formatting work, with invariants tying a
// parent's token range to its children's.
//
// Nodes live in an arena (a single growable slice) and refer to each other by index rather than
// by pointer: this makes sibling mutation (grouping, merging) explicit and keeps every operation
// checkable against the invariants in one place instead of scattered across pointer-chasing code.
package partition

import (
	"github.com/teleivo/svfmt/token"
)

// NodeID identifies a node within a [Tree]. The zero value is the tree's root.
type NodeID int

const noParent NodeID = -1

type node struct {
	line     UnwrappedLine
	parent   NodeID
	children []NodeID
}

// Tree is an arena of [UnwrappedLine] nodes sharing one underlying pre-format token array.
type Tree struct {
	tokens []token.PreFormatToken
	nodes  []node
}

// NewTree creates a tree with a single root node spanning root's range.
func NewTree(tokens []token.PreFormatToken, root UnwrappedLine) *Tree {
	return &Tree{
		tokens: tokens,
		nodes:  []node{{line: root, parent: noParent}},
	}
}

// Root returns the tree's root node.
func (t *Tree) Root() NodeID { return 0 }

// Tokens returns the pre-format token array backing this tree. Every range stored in the tree is
// a half-open index range into this slice.
func (t *Tree) Tokens() []token.PreFormatToken { return t.tokens }

// Token returns a pointer to the i-th pre-format token, for in-place spacing rewrites.
func (t *Tree) Token(i int) *token.PreFormatToken { return &t.tokens[i] }

// Line returns the UnwrappedLine carried by id.
func (t *Tree) Line(id NodeID) UnwrappedLine { return t.nodes[id].line }

// SetLine replaces the UnwrappedLine carried by id.
func (t *Tree) SetLine(id NodeID, line UnwrappedLine) { t.nodes[id].line = line }

// Children returns id's children in source order. The returned slice must not be mutated by
// callers; use the tree's own operations to change structure.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].children }

// Parent returns id's parent, and false if id is the root or has been detached by a merge.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	p := t.nodes[id].parent
	return p, p != noParent
}

// IsLeaf reports whether id has no children.
func (t *Tree) IsLeaf(id NodeID) bool { return len(t.nodes[id].children) == 0 }

// AppendChild creates a new leaf node carrying line and appends it to parent's children,
// returning the new node's id.
func (t *Tree) AppendChild(parent NodeID, line UnwrappedLine) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{line: line, parent: parent})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

// VerifyNodeRanges fails with an [InvariantViolation] if id's own parent-child range equality and
// sibling-continuity invariants are broken. It does not recurse into id's children; use
// [Tree.VerifyFullTreeRanges] for that.
func (t *Tree) VerifyNodeRanges(id NodeID) error {
	children := t.nodes[id].children
	if len(children) == 0 {
		return nil
	}

	parentRange := t.nodes[id].line.Range
	firstRange := t.nodes[children[0]].line.Range
	lastRange := t.nodes[children[len(children)-1]].line.Range

	if parentRange.Begin != firstRange.Begin {
		return newInvariantViolation(
			"parent range begins at %d but first child begins at %d", parentRange.Begin, firstRange.Begin)
	}
	if parentRange.End != lastRange.End {
		return newInvariantViolation(
			"parent range ends at %d but last child ends at %d", parentRange.End, lastRange.End)
	}

	for i := 0; i+1 < len(children); i++ {
		left := t.nodes[children[i]].line.Range
		right := t.nodes[children[i+1]].line.Range
		if left.End != right.Begin {
			return newInvariantViolation(
				"sibling %d ends at %d but sibling %d begins at %d", i, left.End, i+1, right.Begin)
		}
	}

	for _, c := range children {
		if t.nodes[c].line.Policy == Inline && t.nodes[id].line.Policy != AlreadyFormatted {
			return newInvariantViolation("inline node %d has non-already_formatted parent %v", c, t.nodes[id].line.Policy)
		}
	}
	if t.nodes[id].line.Policy == AlreadyFormatted {
		for _, c := range children {
			if t.nodes[c].line.Policy != Inline {
				return newInvariantViolation("already_formatted node %d has non-inline child %d (%v)", id, c, t.nodes[c].line.Policy)
			}
			if !t.IsLeaf(c) {
				return newInvariantViolation("inline node %d is not a leaf", c)
			}
		}
	}

	return nil
}

// VerifyFullTreeRanges recursively verifies id and every descendant.
func (t *Tree) VerifyFullTreeRanges(id NodeID) error {
	if err := t.VerifyNodeRanges(id); err != nil {
		return err
	}
	for _, c := range t.nodes[id].children {
		if err := t.VerifyFullTreeRanges(c); err != nil {
			return err
		}
	}
	return nil
}

// AdjustIndentRelative applies delta to the indentation of id and every descendant, clamped to
// >= 0.
func (t *Tree) AdjustIndentRelative(id NodeID, delta int) {
	ind := t.nodes[id].line.IndentationSpaces + delta
	if ind < 0 {
		ind = 0
	}
	t.nodes[id].line.IndentationSpaces = ind
	for _, c := range t.nodes[id].children {
		t.AdjustIndentRelative(c, delta)
	}
}

// AdjustIndentAbsolute shifts id and its whole subtree so that id's indentation becomes target.
func (t *Tree) AdjustIndentAbsolute(id NodeID, target int) {
	delta := target - t.nodes[id].line.IndentationSpaces
	t.AdjustIndentRelative(id, delta)
}

// MergeConsecutiveSiblings concatenates children i and i+1 of parent into a single node occupying
// slot i. The resulting node's token range is the union of the two, its policy and origin are
// taken from the left sibling (children[i]), and its children are the concatenation of both
// siblings' children. Requires parent to have at least two children and 0 <= i < i+1 <
// len(children).
func (t *Tree) MergeConsecutiveSiblings(parent NodeID, i int) error {
	children := t.nodes[parent].children
	if len(children) < 2 {
		return newInvariantViolation("merge_consecutive_siblings: parent %d has fewer than 2 children", parent)
	}
	if i < 0 || i+1 >= len(children) {
		return newInvariantViolation("merge_consecutive_siblings: index %d out of range for %d children", i, len(children))
	}

	left := children[i]
	right := children[i+1]
	leftLine := t.nodes[left].line
	rightLine := t.nodes[right].line

	merged := leftLine
	merged.Range = token.Range{Begin: leftLine.Range.Begin, End: rightLine.Range.End}
	t.nodes[left].line = merged

	mergedChildren := append(append([]NodeID{}, t.nodes[left].children...), t.nodes[right].children...)
	t.nodes[left].children = mergedChildren
	for _, c := range t.nodes[right].children {
		t.nodes[c].parent = left
	}

	newChildren := make([]NodeID, 0, len(children)-1)
	newChildren = append(newChildren, children[:i+1]...)
	newChildren = append(newChildren, children[i+2:]...)
	t.nodes[parent].children = newChildren

	t.nodes[right].parent = noParent
	t.nodes[right].children = nil

	return nil
}

// leaves returns every leaf descendant of from, in source (pre-order) order.
func (t *Tree) leaves(from NodeID) []NodeID {
	var result []NodeID
	var walk func(NodeID)
	walk = func(id NodeID) {
		children := t.nodes[id].children
		if len(children) == 0 {
			result = append(result, id)
			return
		}
		for _, c := range children {
			walk(c)
		}
	}
	walk(from)
	return result
}

// GroupLeafWithPreviousLeaf creates a new parent partition grouping leaf with the closest earlier
// leaf under root, taking indentation and policy from the earlier leaf. It returns the new
// grouping node, or false if there is no earlier leaf under root or that leaf is not leaf's
// immediately preceding sibling.
//
// This supports the common case where the earlier leaf is an immediate sibling of leaf (the
// overwhelmingly common caller pattern: grouping a trailing token, e.g. a comment, with the line
// that precedes it). Grouping across a more distant cousin would require splicing new
// intermediate nodes along the path between two different parents; svfmt does not need that case
// and callers should use [Tree.MergeConsecutiveSiblings] with a restructuring of their own
// subtree first if they do (see DESIGN.md, "Tree splicing scope" entry).
func (t *Tree) GroupLeafWithPreviousLeaf(root, leaf NodeID) (NodeID, bool) {
	leaves := t.leaves(root)
	idx := -1
	for i, l := range leaves {
		if l == leaf {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return 0, false
	}
	prev := leaves[idx-1]

	parent, ok := t.Parent(leaf)
	prevParent, prevOK := t.Parent(prev)
	if !ok || !prevOK || parent != prevParent {
		return 0, false
	}
	siblings := t.nodes[parent].children
	prevIdx := -1
	for i, s := range siblings {
		if s == prev {
			prevIdx = i
			break
		}
	}
	if prevIdx < 0 || prevIdx+1 >= len(siblings) || siblings[prevIdx+1] != leaf {
		return 0, false
	}

	prevLine := t.nodes[prev].line
	leafLine := t.nodes[leaf].line
	grouped := UnwrappedLine{
		Range:             token.Range{Begin: prevLine.Range.Begin, End: leafLine.Range.End},
		IndentationSpaces: prevLine.IndentationSpaces,
		Policy:            prevLine.Policy,
		Origin:            prevLine.Origin,
	}

	groupID := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{line: grouped, parent: parent, children: []NodeID{prev, leaf}})
	t.nodes[prev].parent = groupID
	t.nodes[leaf].parent = groupID

	newSiblings := make([]NodeID, 0, len(siblings)-1)
	newSiblings = append(newSiblings, siblings[:prevIdx]...)
	newSiblings = append(newSiblings, groupID)
	newSiblings = append(newSiblings, siblings[prevIdx+2:]...)
	t.nodes[parent].children = newSiblings

	return groupID, true
}

// MergeLeafIntoPreviousLeaf destroys leaf and extends its immediately preceding sibling leaf's
// token range to cover it. Returns false if leaf has no preceding sibling under the same parent.
func (t *Tree) MergeLeafIntoPreviousLeaf(leaf NodeID) bool {
	parent, ok := t.Parent(leaf)
	if !ok {
		return false
	}
	siblings := t.nodes[parent].children
	pos := -1
	for i, s := range siblings {
		if s == leaf {
			pos = i
			break
		}
	}
	if pos <= 0 {
		return false
	}
	prev := siblings[pos-1]
	if !t.IsLeaf(prev) || !t.IsLeaf(leaf) {
		return false
	}

	t.nodes[prev].line.Range.End = t.nodes[leaf].line.Range.End

	newSiblings := make([]NodeID, 0, len(siblings)-1)
	newSiblings = append(newSiblings, siblings[:pos]...)
	newSiblings = append(newSiblings, siblings[pos+1:]...)
	t.nodes[parent].children = newSiblings

	t.nodes[leaf].parent = noParent
	return true
}

// MergeLeafIntoNextLeaf destroys leaf and extends its immediately following sibling leaf's token
// range to also cover it. Returns false if leaf has no following sibling under the same parent.
func (t *Tree) MergeLeafIntoNextLeaf(leaf NodeID) bool {
	parent, ok := t.Parent(leaf)
	if !ok {
		return false
	}
	siblings := t.nodes[parent].children
	pos := -1
	for i, s := range siblings {
		if s == leaf {
			pos = i
			break
		}
	}
	if pos < 0 || pos+1 >= len(siblings) {
		return false
	}
	next := siblings[pos+1]
	if !t.IsLeaf(next) || !t.IsLeaf(leaf) {
		return false
	}

	t.nodes[next].line.Range.Begin = t.nodes[leaf].line.Range.Begin

	newSiblings := make([]NodeID, 0, len(siblings)-1)
	newSiblings = append(newSiblings, siblings[:pos]...)
	newSiblings = append(newSiblings, siblings[pos+1:]...)
	t.nodes[parent].children = newSiblings

	t.nodes[leaf].parent = noParent
	return true
}

// ReplaceSubtree discards id's entire subtree and turns id into a leaf carrying line. Used by the
// layout optimizer's tree reconstructor to splice a freshly chosen layout back onto the node it was
// computed for; callers append fresh children with [Tree.AppendChild] afterward if line is meant to
// carry structure rather than stay a leaf.
func (t *Tree) ReplaceSubtree(id NodeID, line UnwrappedLine) {
	for _, c := range t.nodes[id].children {
		t.nodes[c].parent = noParent
	}
	t.nodes[id].children = nil
	t.nodes[id].line = line
}

// PruneEmptyLeaves removes every leaf descendant of id whose range is empty. Empty leaves are
// permitted temporarily during construction and must be removed when a subtree is finalized.
func (t *Tree) PruneEmptyLeaves(id NodeID) {
	children := t.nodes[id].children
	if len(children) == 0 {
		return
	}
	kept := children[:0:0]
	for _, c := range children {
		t.PruneEmptyLeaves(c)
		if t.IsLeaf(c) && t.nodes[c].line.Range.Empty() {
			t.nodes[c].parent = noParent
			continue
		}
		kept = append(kept, c)
	}
	t.nodes[id].children = kept
}
