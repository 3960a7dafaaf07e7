package align

import "github.com/teleivo/svfmt/partition"

// MinRowsToAlign is the default threshold below which a group falls back to preserve-spacing
// rather than aligning: aligning a single row is meaningless, and two is the smallest group
// where columns convey anything.
const MinRowsToAlign = 2

// CellScanner visits the syntax subtree that produced row and reserves the columns found in it.
type CellScanner func(tree *partition.Tree, row partition.NodeID) *ColumnPositionTree

// AlignablePartitionGroup is a candidate set of rows the alignment engine should consider
// together, along with the policy to resolve and the scanner that finds their columns.
type AlignablePartitionGroup struct {
	Rows    []partition.NodeID
	Scanner CellScanner
	Policy  Policy
	// Ignore, if set, excludes a row (e.g. a comment-only line) from column scanning; ignored
	// rows are left untouched.
	Ignore func(tree *partition.Tree, row partition.NodeID) bool
}

// GroupExtractor is the caller-supplied policy that partitions a parent's children into
// alignable groups of rows.
type GroupExtractor func(tree *partition.Tree, parent partition.NodeID) []AlignablePartitionGroup

func (g AlignablePartitionGroup) filteredRows(tree *partition.Tree) []partition.NodeID {
	if g.Ignore == nil {
		return g.Rows
	}
	rows := make([]partition.NodeID, 0, len(g.Rows))
	for _, r := range g.Rows {
		if !g.Ignore(tree, r) {
			rows = append(rows, r)
		}
	}
	return rows
}
