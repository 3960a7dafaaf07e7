package optimizer

import (
	"github.com/teleivo/svfmt/internal/layout"
	"github.com/teleivo/svfmt/partition"
	"github.com/teleivo/svfmt/token"
)

// cell is one already-rendered run of tokens inside a line being reconstructed: a leaf line starts
// as a single cell, and gains more only when a later leaf's declared spacing doesn't match what
// its first token already carries (see reconciler.appendLeaf).
type cell struct {
	rng            token.Range
	spacesRequired int
}

// pendingLine accumulates cells for one output line while reconstruct walks a winning layout.Tree.
type pendingLine struct {
	indentation int
	cells       []cell
}

func (p *pendingLine) width(tokens []token.PreFormatToken) int {
	w := p.indentation
	for i, c := range p.cells {
		if i > 0 {
			w += c.spacesRequired
		}
		r := partition.UnwrappedLine{Range: c.rng}
		w += r.Width(tokens)
	}
	return w
}

func (p *pendingLine) span() token.Range {
	return token.Range{Begin: p.cells[0].rng.Begin, End: p.cells[len(p.cells)-1].rng.End}
}

// reconciler walks a layout.Tree pre-order and produces the sequence of reconstructed lines:
// a line leaf opens or extends the current line (splitting into cells when
// declared spacing disagrees with the token's own), a juxtaposition composite feeds every child
// into the same line, and a stack composite closes the current line after its first child and
// reopens each subsequent one indented under the line built so far.
type reconciler struct {
	tokens  []token.PreFormatToken
	current *pendingLine
	lines   []pendingLine
}

func (r *reconciler) finishCurrent() {
	if r.current == nil {
		return
	}
	r.lines = append(r.lines, *r.current)
	r.current = nil
}

func (r *reconciler) appendLeaf(item layout.Item, indent int) {
	if item.Range.Empty() {
		return
	}
	if r.current == nil {
		r.current = &pendingLine{indentation: indent, cells: []cell{{rng: item.Range, spacesRequired: 0}}}
		return
	}
	last := &r.current.cells[len(r.current.cells)-1]
	natural := r.tokens[item.Range.Begin].Before.SpacesRequired
	if last.rng.End == item.Range.Begin && item.SpacesBefore == natural {
		last.rng.End = item.Range.End
		return
	}
	r.current.cells = append(r.current.cells, cell{rng: item.Range, spacesRequired: item.SpacesBefore})
}

func (r *reconciler) walk(t layout.Tree, indent int) {
	// A node's own indentation (accumulated by Indent calls during optimization) shifts it and
	// everything below it; the running indent threads that shift through the walk.
	indent += t.Item.IndentationSpaces

	switch t.Item.Type {
	case layout.LineKind:
		r.appendLeaf(t.Item, indent)
	case layout.JuxtapositionKind:
		for _, c := range t.Children {
			r.walk(c, indent)
		}
	case layout.StackKind:
		if len(t.Children) == 0 {
			return
		}
		if len(t.Children) == 1 {
			r.walk(t.Children[0], indent)
			return
		}
		// Continuation lines share the column the stack itself starts at: the width of the line in
		// progress plus the stack's own leading gap, or the running indent on a fresh line. This is
		// fixed before the first child renders, so later children are unaffected by how wide the
		// first line grows.
		lineIndent := indent
		if r.current != nil {
			lineIndent = r.current.width(r.tokens) + t.Item.SpacesBefore
		}
		r.walk(t.Children[0], indent)
		for _, c := range t.Children[1:] {
			r.finishCurrent()
			r.walk(c, lineIndent)
		}
	}
}

// reconstruct replaces id's subtree with a fresh [partition.Tree] fragment built from winner, the
// layout.Tree the optimizer picked for id. Exactly one reconstructed line replaces id directly;
// two or more are wrapped under a new always_expand parent spanning their union range.
func reconstruct(tree *partition.Tree, id partition.NodeID, winner layout.Tree, tokens []token.PreFormatToken) error {
	rc := &reconciler{tokens: tokens}
	rc.walk(winner, tree.Line(id).IndentationSpaces)
	rc.finishCurrent()

	if len(rc.lines) == 0 {
		return partition.NewInvariantViolation("tree reconstructor produced no lines for node %d", id)
	}

	if len(rc.lines) == 1 {
		writeLine(tree, id, rc.lines[0], true)
		return nil
	}

	union := token.Range{Begin: rc.lines[0].span().Begin, End: rc.lines[len(rc.lines)-1].span().End}
	tree.ReplaceSubtree(id, partition.UnwrappedLine{
		Range:             union,
		IndentationSpaces: tree.Line(id).IndentationSpaces,
		Policy:            partition.AlwaysExpand,
		Origin:            tree.Line(id).Origin,
	})
	for _, ln := range rc.lines {
		writeLine(tree, id, ln, false)
	}
	return nil
}

// writeLine materializes one reconstructed line as a partition node: either id itself (asRoot, the
// single-line case) or a fresh child appended under id (the multi-line, always_expand case). A
// line with more than one cell becomes an already_formatted node with Inline children; a
// single-cell line stays a plain leaf. Either way, the line's tokens are immediately finalized via
// ApplyAlreadyFormattedPartitionToTokens so the reconstructed tree never carries stale spacing.
func writeLine(tree *partition.Tree, id partition.NodeID, ln pendingLine, asRoot bool) partition.NodeID {
	line := partition.UnwrappedLine{
		Range:             ln.span(),
		IndentationSpaces: ln.indentation,
		Policy:            partition.AlreadyFormatted,
	}

	var target partition.NodeID
	if asRoot {
		tree.ReplaceSubtree(id, line)
		target = id
	} else {
		target = tree.AppendChild(id, line)
	}

	if len(ln.cells) > 1 {
		for _, c := range ln.cells {
			tree.AppendChild(target, partition.UnwrappedLine{
				Range:             c.rng,
				IndentationSpaces: c.spacesRequired,
				Policy:            partition.Inline,
			})
		}
	}

	// Best-effort: a malformed upstream tree would have already failed VerifyFullTreeRanges before
	// reaching the optimizer, so an error here would indicate a bug in this package itself.
	_ = tree.ApplyAlreadyFormattedPartitionToTokens(target)
	return target
}
