package partition

// Policy selects how a partition's token range should be rendered: left untouched for the
// optimizer, expanded onto its own lines, aligned in columns with its siblings, and so on.
type Policy int

const (
	// Uninitialized marks a node that has not yet been assigned a policy.
	Uninitialized Policy = iota
	// AlwaysExpand forces every child onto its own line.
	AlwaysExpand
	// FitOnLineElseExpand keeps the partition on one line if it fits, else expands it.
	FitOnLineElseExpand
	// TabularAlignment marks rows that the alignment engine should scan for columns.
	TabularAlignment
	// AlreadyFormatted marks a subtree whose spacing is fixed; a renderer must reproduce it
	// verbatim using the rewritten Spacing fields on its tokens.
	AlreadyFormatted
	// Inline marks a leaf cell inside an AlreadyFormatted partition. Inline nodes may only appear
	// as children of an AlreadyFormatted parent, and all their siblings must also be Inline.
	Inline
	// AppendFittingSubPartitions greedily packs as many sub-partitions as fit per line.
	AppendFittingSubPartitions
	// Juxtaposition places children side by side on one line.
	Juxtaposition
	// Stack places each child on its own line, sharing an indentation origin.
	Stack
	// Wrap chooses between Juxtaposition and an indented Stack, whichever costs less.
	Wrap
	// JuxtapositionOrIndentedStack is like Wrap, but the stacked alternative indents every child
	// including the first (used for constructs where even the first child may need to move).
	JuxtapositionOrIndentedStack
)

// String returns a short, lowercase name for the policy, suitable for debug output.
func (p Policy) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case AlwaysExpand:
		return "always_expand"
	case FitOnLineElseExpand:
		return "fit_on_line_else_expand"
	case TabularAlignment:
		return "tabular_alignment"
	case AlreadyFormatted:
		return "already_formatted"
	case Inline:
		return "inline"
	case AppendFittingSubPartitions:
		return "append_fitting_sub_partitions"
	case Juxtaposition:
		return "juxtaposition"
	case Stack:
		return "stack"
	case Wrap:
		return "wrap"
	case JuxtapositionOrIndentedStack:
		return "juxtaposition_or_indented_stack"
	default:
		return "unknown"
	}
}

// IsOptimizerPolicy reports whether the optimizer knows how to combine a node carrying this
// policy. optimizer.OptimizeTokenPartitionTree only descends into a tree whose root carries one
// of these.
func (p Policy) IsOptimizerPolicy() bool {
	switch p {
	case Juxtaposition, Stack, Wrap, AlwaysExpand, TabularAlignment,
		AppendFittingSubPartitions, FitOnLineElseExpand, JuxtapositionOrIndentedStack,
		AlreadyFormatted:
		return true
	default:
		return false
	}
}
