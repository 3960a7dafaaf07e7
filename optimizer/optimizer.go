// Package optimizer implements the layout optimizer's partition-policy dispatcher: it walks a
// [partition.Tree], asks [layout.Factory] for the cost function of every node according to its
// policy, reads off the cheapest layout at the node's own indentation, and splices the result back
// onto the tree via the reconstructor in reconstruct.go.
package optimizer

import (
	"github.com/teleivo/svfmt/internal/layout"
	"github.com/teleivo/svfmt/partition"
	"github.com/teleivo/svfmt/style"
	"github.com/teleivo/svfmt/token"
	"go.uber.org/zap"
)

// wrappedLineTokenLimit bounds how many tokens a leaf's own Wrap policy may distribute across
// lines before wrapped_line's per-token-boundary scan becomes quadratically expensive; beyond it,
// Optimizer falls back to rendering the leaf as one plain line.
const wrappedLineTokenLimit = 25

// Optimizer computes and applies optimal layouts for a style.BasicFormatStyle. Logger receives
// UnsupportedPartitionPolicy fallbacks; it may be nil.
type Optimizer struct {
	Style  style.BasicFormatStyle
	Logger *zap.Logger
}

// New returns an Optimizer for st, logging recoverable fallbacks to logger (which may be nil).
func New(st style.BasicFormatStyle, logger *zap.Logger) *Optimizer {
	return &Optimizer{Style: st, Logger: logger}
}

// OptimizeTokenPartitionTree runs the optimizer over id's subtree and splices the chosen layout
// back in place, but only if id's own policy is one the optimizer understands
// ([partition.Policy.IsOptimizerPolicy]); otherwise it leaves the tree untouched, exactly as
// optimize_token_partition_tree does for a policy an external driver did not intend to optimize.
func (o *Optimizer) OptimizeTokenPartitionTree(tree *partition.Tree, id partition.NodeID) error {
	line := tree.Line(id)
	if !line.Policy.IsOptimizerPolicy() {
		return nil
	}

	fac := layout.NewFactory(o.Style, tree.Tokens())
	fn, err := o.functionFor(tree, id, fac)
	if err != nil {
		return err
	}
	if len(fn) == 0 {
		return nil
	}

	winner := fn.At(line.IndentationSpaces).Layout
	return reconstruct(tree, id, winner, tree.Tokens())
}

// functionFor computes the layout function for id, recursing into its children. Leaves build
// directly from their own token range; internal nodes combine their children's functions
// according to their own policy.
func (o *Optimizer) functionFor(tree *partition.Tree, id partition.NodeID, fac layout.Factory) (layout.Function, error) {
	if tree.IsLeaf(id) {
		return o.leafFunction(tree, id, fac), nil
	}

	line := tree.Line(id)
	children := tree.Children(id)
	childFns := make([]layout.Function, len(children))
	for i, c := range children {
		fn, err := o.functionFor(tree, c, fac)
		if err != nil {
			return nil, err
		}
		childFns[i] = fn
	}

	switch line.Policy {
	case partition.Stack, partition.AlwaysExpand, partition.TabularAlignment:
		for i, c := range children {
			childFns[i] = fac.Indent(childFns[i], indentDelta(tree, c, id))
		}
		return fac.Stack(childFns...), nil

	case partition.Juxtaposition:
		return fac.Juxtaposition(childFns...), nil

	case partition.Wrap:
		if len(childFns) == 1 {
			return childFns[0], nil
		}
		hang := 0
		if len(children) > 1 {
			hang = indentDelta(tree, children[1], id)
		}
		return fac.Wrap(childFns, hang), nil

	case partition.FitOnLineElseExpand, partition.AppendFittingSubPartitions:
		// Reshaped subgroups carry their own indentation already, so the wrap itself hangs nothing.
		return fac.Wrap(childFns, 0), nil

	case partition.JuxtapositionOrIndentedStack:
		stacked := make([]layout.Function, len(children))
		dropJuxtaposition := false
		for i, c := range children {
			stacked[i] = fac.Indent(childFns[i], indentDelta(tree, c, id))
			if i > 0 && childFns[i].MustWrap() {
				dropJuxtaposition = true
			}
		}
		if dropJuxtaposition {
			return fac.Stack(stacked...), nil
		}
		return fac.Choice(fac.Juxtaposition(childFns...), fac.Stack(stacked...)), nil

	case partition.AlreadyFormatted:
		for _, c := range children {
			if tree.Line(c).Policy != partition.Inline {
				return nil, partition.NewInvariantViolation("already_formatted node %d has non-inline child %d", id, c)
			}
		}
		forced := append([]layout.Function(nil), childFns...)
		if len(forced) > 0 {
			// The first cell's leading gap lives in its inline partition's indentation, not in
			// spaces_before, so it must be folded in as an indent here.
			forced[0] = fac.Indent(forceMustWrap(forced[0]), tree.Line(children[0]).IndentationSpaces)
		}
		return fac.Juxtaposition(forced...), nil

	default:
		if o.Logger != nil {
			o.Logger.Warn("unsupported partition policy, falling back to stack",
				zap.Int("node", int(id)), zap.String("policy", line.Policy.String()))
		}
		return fac.Stack(childFns...), nil
	}
}

// leafFunction builds the layout function for a leaf partition: wrapped_line when its own policy
// asks for Wrap and its token count is in the sweet spot wrapped_line is affordable for, plain
// line() otherwise.
func (o *Optimizer) leafFunction(tree *partition.Tree, id partition.NodeID, fac layout.Factory) layout.Function {
	line := tree.Line(id)
	mustWrap := false
	spacesBefore := 0
	if !line.Range.Empty() {
		mustWrap = tree.Tokens()[line.Range.Begin].Before.Decision == token.MustWrap
		spacesBefore = tree.Tokens()[line.Range.Begin].Before.SpacesRequired
	}

	if line.Policy == partition.Wrap && line.Range.Len() >= 2 && line.Range.Len() < wrappedLineTokenLimit {
		return fac.WrappedLine(line.Range, spacesBefore, mustWrap, o.Style.WrapSpaces)
	}
	return fac.Line(line.Range, spacesBefore, mustWrap, 0)
}

// indentDelta is child's indentation relative to parent's, clamped to 0: the amount a stacked or
// indented-choice child must be shifted before it is combined with its siblings.
func indentDelta(tree *partition.Tree, child, parent partition.NodeID) int {
	delta := tree.Line(child).IndentationSpaces - tree.Line(parent).IndentationSpaces
	if delta < 0 {
		return 0
	}
	return delta
}

// forceMustWrap returns fn with every segment's layout marked MustWrap, used to force the first
// child of an already_formatted node to start a fresh line regardless of what its own layout
// decided.
func forceMustWrap(fn layout.Function) layout.Function {
	out := make(layout.Function, len(fn))
	for i, seg := range fn {
		seg.Layout.Item.MustWrap = true
		out[i] = seg
	}
	return out
}
