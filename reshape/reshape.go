// Package reshape implements the "header + argument list + optional trailer" greedy regrouping
// that backs append_fitting_sub_partitions policies: split a flat run of sibling partitions into
// line-sized subgroups instead of leaving every argument on its own line or all of them crammed
// onto one.
//
// Implemented directly against partition.Tree's own merge primitive: each argument that fits is
// folded into the running group with one MergeConsecutiveSiblings call, and continuation groups
// are shifted under the header's end column afterward.
package reshape

import (
	"github.com/teleivo/svfmt/partition"
)

// FittingSubpartitions groups parent's children — a header followed by one argument per child,
// optionally ending in a trailer if hasTrailer is set — into subgroups whose end column, counted
// from column 0 with parent's indentation included, stays within columnLimit. Arguments that
// don't fit become their own groups; continuation groups are indented to line up under the header's end. The
// trailer, if present, always joins whatever group ends up last.
func FittingSubpartitions(tree *partition.Tree, parent partition.NodeID, columnLimit int, hasTrailer bool) error {
	children := tree.Children(parent)
	if len(children) < 2 {
		return nil
	}

	baseIndent := tree.Line(parent).IndentationSpaces
	headerWidth := tree.Line(children[0]).Width(tree.Tokens())
	contIndent := baseIndent + headerWidth

	argEnd := len(children)
	if hasTrailer {
		argEnd--
	}

	groupWidth := baseIndent + headerWidth
	i := 0
	for i+1 < argEnd {
		cur := tree.Children(parent)
		next := cur[i+1]
		nextLine := tree.Line(next)
		gap := tree.Tokens()[nextLine.Range.Begin].Before.SpacesRequired
		nextWidth := nextLine.Width(tree.Tokens())
		candidate := groupWidth + gap + nextWidth

		if candidate <= columnLimit {
			if err := tree.MergeConsecutiveSiblings(parent, i); err != nil {
				return err
			}
			argEnd--
			groupWidth = candidate
			continue
		}
		i++
		groupWidth = contIndent + nextWidth
	}

	if hasTrailer {
		cur := tree.Children(parent)
		if len(cur) >= 2 {
			if err := tree.MergeConsecutiveSiblings(parent, len(cur)-2); err != nil {
				return err
			}
		}
	}

	cur := tree.Children(parent)
	for idx := 1; idx < len(cur); idx++ {
		tree.AdjustIndentAbsolute(cur[idx], contIndent)
	}
	return nil
}
