// Package align implements the tabular alignment engine: given a group of rows that share
// related syntax (e.g. a port list or a block of assignments), it lines up semantically
// equivalent tokens into columns by adjusting inter-token spacing, never by reordering tokens.
package align

// AlignmentColumnProperties configures how a single reserved column behaves.
type AlignmentColumnProperties struct {
	// LeftBorderOverride, if non-nil, replaces the cell's first token's spaces-required value
	// when computing the column's left border.
	LeftBorderOverride *int
	// ContainsDelimiter marks a column whose cell sometimes ends in a trailing delimiter (a
	// comma or semicolon) present on some rows but not others; the delimiter is kept glued to
	// the preceding token rather than padded.
	ContainsDelimiter bool
}

// ColumnPositionEntry is one reserved column position within a row's scan.
type ColumnPositionEntry struct {
	// Path is the sequence of child indices from the scanned subtree's root. Two entries across
	// different rows with equal Path are the same column.
	Path []int
	// StartingToken is the index, into the shared pre-format token array, of the cell's first
	// token.
	StartingToken int
	Properties    AlignmentColumnProperties
}

// ColumnHandle identifies an entry within a [ColumnPositionTree]. The special handle [Root] (-1)
// denotes "no parent".
type ColumnHandle int

// Root is the handle passed to [ColumnPositionTree.Column] to reserve a top-level column.
const Root ColumnHandle = -1

type columnEntry struct {
	entry ColumnPositionEntry
	// len counts this entry's descendant entries (its nested subcolumns and their descendants),
	// so the tree can be stored as one flat, append-only slice in depth-first order instead of a
	// graph of pointers: a subtree spans entries[i : i+1+len].
	len int
}

// ColumnPositionTree records one row's column bids, built by a cell scanner as it walks the
// syntax subtree that produced the row. Entries are stored in a single slice in the order
// reserved, each carrying the count of its descendants, rather than as parent/child pointers:
// like the token-partition tree's index-based arena it avoids pointers, and it lets the alignment
// engine walk or merge several rows' trees without chasing them.
type ColumnPositionTree struct {
	entries []columnEntry
}

// NewColumnPositionTree returns an empty tree, ready to have columns reserved into it.
func NewColumnPositionTree() *ColumnPositionTree {
	return &ColumnPositionTree{}
}

// Column reserves a new column position entry, running body (if non-nil) to reserve any
// subcolumns nested within this cell before the entry's descendant count is finalized. parent is
// unused beyond documenting intent (nesting is expressed purely by when body runs); pass [Root]
// for a top-level column or the handle of an enclosing cell for a subcolumn.
func (c *ColumnPositionTree) Column(parent ColumnHandle, tok int, props AlignmentColumnProperties, path []int, body func()) ColumnHandle {
	i := len(c.entries)
	p := append([]int(nil), path...)
	c.entries = append(c.entries, columnEntry{entry: ColumnPositionEntry{Path: p, StartingToken: tok, Properties: props}})
	if body != nil {
		body()
	}
	c.entries[i].len = len(c.entries) - i - 1
	return ColumnHandle(i)
}

// Entry returns the column position entry for h.
func (c *ColumnPositionTree) Entry(h ColumnHandle) ColumnPositionEntry {
	return c.entries[h].entry
}

// Empty reports whether no columns were reserved.
func (c *ColumnPositionTree) Empty() bool {
	return len(c.entries) == 0
}

// columnIterator yields sibling handles over a contiguous span of the tree's entries, in order;
// yield's second argument iterates that handle's own children.
type columnIterator func(yield func(ColumnHandle, columnIterator) bool)

// Top iterates the tree's top-level columns, in reservation order.
func (c *ColumnPositionTree) Top() columnIterator {
	return c.newIterator(0, len(c.entries))
}

func (c *ColumnPositionTree) newIterator(i, j int) columnIterator {
	return func(yield func(ColumnHandle, columnIterator) bool) {
		for i < j {
			childEnd := i + 1 + c.entries[i].len
			if !yield(ColumnHandle(i), c.newIterator(i+1, childEnd)) {
				return
			}
			i = childEnd
		}
	}
}

// columnNode is an in-memory, pointer-based expansion of a [ColumnPositionTree], used by the
// alignment algorithm to recurse into subcolumns without re-walking the flat slice by hand.
type columnNode struct {
	entry    ColumnPositionEntry
	children []*columnNode
}

// expand converts the flat, DFS-encoded storage into a tree of [columnNode] for recursive width
// computation.
func expand(t *ColumnPositionTree) []*columnNode {
	if t == nil {
		return nil
	}
	var build func(it columnIterator) []*columnNode
	build = func(it columnIterator) []*columnNode {
		var nodes []*columnNode
		it(func(h ColumnHandle, children columnIterator) bool {
			nodes = append(nodes, &columnNode{entry: t.Entry(h), children: build(children)})
			return true
		})
		return nodes
	}
	return build(t.Top())
}
