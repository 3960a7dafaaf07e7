package align

import (
	"sort"
	"strconv"
	"strings"

	"github.com/teleivo/svfmt/byteset"
	"github.com/teleivo/svfmt/partition"
	"github.com/teleivo/svfmt/token"
	"go.uber.org/zap"
)

// mergedColumn is one column shared across a group's rows: the same [ColumnPositionEntry.Path]
// reserved by potentially every row, carrying whichever row actually bid on it.
type mergedColumn struct {
	path     []int
	props    AlignmentColumnProperties
	perRow   map[int]*columnNode
	children []*mergedColumn
	width    int
}

func comparePaths(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] - b[i]
		}
	}
	return len(a) - len(b)
}

func pathKey(path []int) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(p))
	}
	return b.String()
}

// mergeLevel merges one level of column bids across rows, keyed by path, preserving the order
// the paths define, then recurses into each column's subcolumns.
func mergeLevel(rowNodes map[int][]*columnNode) []*mergedColumn {
	seen := map[string]*mergedColumn{}
	var order []*mergedColumn
	for row, nodes := range rowNodes {
		for _, n := range nodes {
			key := pathKey(n.entry.Path)
			mc, ok := seen[key]
			if !ok {
				mc = &mergedColumn{path: n.entry.Path, props: n.entry.Properties, perRow: map[int]*columnNode{}}
				seen[key] = mc
				order = append(order, mc)
			}
			mc.perRow[row] = n
		}
	}
	sort.Slice(order, func(i, j int) bool { return comparePaths(order[i].path, order[j].path) < 0 })
	for _, mc := range order {
		childRowNodes := map[int][]*columnNode{}
		for row, n := range mc.perRow {
			if len(n.children) > 0 {
				childRowNodes[row] = n.children
			}
		}
		mc.children = mergeLevel(childRowNodes)
	}
	return order
}

func leftBorder(tokens []token.PreFormatToken, entry ColumnPositionEntry) int {
	if entry.Properties.LeftBorderOverride != nil {
		return *entry.Properties.LeftBorderOverride
	}
	return tokens[entry.StartingToken].Before.SpacesRequired
}

// splitDelimiter reports the end of a cell's core text, carving a trailing delimiter token off
// the cell [begin, end) when props marks it as delimiter-bearing and the last token looks like
// one, so the delimiter glues to the text instead of being padded.
func splitDelimiter(tokens []token.PreFormatToken, begin, end int, props AlignmentColumnProperties) (coreEnd int, hasDelimiter bool) {
	if !props.ContainsDelimiter || end-begin < 2 {
		return end, false
	}
	switch tokens[end-1].Token.Text {
	case ",", ";":
		return end - 1, true
	default:
		return end, false
	}
}

func cellSpan(tokens []token.PreFormatToken, begin, end int) int {
	total := 0
	for i := begin; i < end; i++ {
		total += tokens[i].Token.Length()
		if i > begin {
			total += tokens[i].Before.SpacesRequired
		}
	}
	return total
}

func columnIndex(cols []*mergedColumn, col *mergedColumn) int {
	for i, c := range cols {
		if c == col {
			return i
		}
	}
	return -1
}

// cellEnd is the exclusive end, in shared token indices, of row rowIdx's cell at col: the next
// column at this level that row rowIdx also bid on, or the row's own range end.
func cellEnd(tree *partition.Tree, rowID partition.NodeID, cols []*mergedColumn, col *mergedColumn, rowIdx int) int {
	idx := columnIndex(cols, col)
	for k := idx + 1; k < len(cols); k++ {
		if n, ok := cols[k].perRow[rowIdx]; ok {
			return n.entry.StartingToken
		}
	}
	return tree.Line(rowID).Range.End
}

func cellTextLength(tree *partition.Tree, rowID partition.NodeID, cols []*mergedColumn, col *mergedColumn, rowIdx int, node *columnNode) int {
	if len(col.children) > 0 {
		total := 0
		for _, child := range col.children {
			total += child.width
		}
		return total
	}
	end := cellEnd(tree, rowID, cols, col, rowIdx)
	coreEnd, hasDelim := splitDelimiter(tree.Tokens(), node.entry.StartingToken, end, node.entry.Properties)
	text := cellSpan(tree.Tokens(), node.entry.StartingToken, coreEnd)
	if hasDelim {
		// The delimiter glues to the cell text with no gap, so it counts toward the cell's width
		// but its original before-spacing does not.
		text += tree.Tokens()[coreEnd].Token.Length()
	}
	return text
}

// computeWidths fills in col.width for every column in cols (and, recursively, their
// subcolumns): the widest any row needs, per step 3 of the tabular alignment algorithm.
func computeWidths(tree *partition.Tree, rows []partition.NodeID, cols []*mergedColumn) {
	for _, col := range cols {
		if len(col.children) > 0 {
			computeWidths(tree, rows, col.children)
		}
	}
	for _, col := range cols {
		maxW := 0
		for rowIdx, node := range col.perRow {
			if rowIdx >= len(rows) {
				continue
			}
			lb := leftBorder(tree.Tokens(), node.entry)
			text := cellTextLength(tree, rows[rowIdx], cols, col, rowIdx, node)
			if w := lb + text; w > maxW {
				maxW = w
			}
		}
		col.width = maxW
	}
}

// cellSplit records where one rendered cell of an aligned row starts and the gap that lands it in
// its column, feeding the inline-partition encoding of the finished row.
type cellSplit struct {
	tok int
	gap int
}

// applyAlignRow rewrites rowID's token spacing to realize the columns computed in cols, using an
// accumulating "slack" that absorbs both an absent column's full width and a present column's
// leftover padding, so it comes due as the gap before whichever cell renders next. It returns the
// row's cell splits, in column order, for encodeInlineCells.
func applyAlignRow(tree *partition.Tree, rowID partition.NodeID, cols []*mergedColumn, rowIdx int) []cellSplit {
	line := tree.Line(rowID)
	cursor := 0
	first := true
	var splits []cellSplit
	for _, col := range cols {
		node, present := col.perRow[rowIdx]
		if !present {
			cursor += col.width
			continue
		}
		tok := node.entry.StartingToken
		end := cellEnd(tree, rowID, cols, col, rowIdx)
		coreEnd, hasDelim := splitDelimiter(tree.Tokens(), tok, end, node.entry.Properties)
		text := cellTextLength(tree, rowID, cols, col, rowIdx, node)

		if first {
			line.IndentationSpaces += cursor
			first = false
			splits = append(splits, cellSplit{tok: tok, gap: 0})
		} else {
			tree.Token(tok).Before.Decision = token.AppendAligned
			tree.Token(tok).Before.SpacesRequired = cursor
			splits = append(splits, cellSplit{tok: tok, gap: cursor})
		}
		for i := tok + 1; i < coreEnd; i++ {
			tree.Token(i).Before.Decision = token.MustAppend
		}
		if hasDelim {
			tree.Token(coreEnd).Before.Decision = token.MustAppend
			tree.Token(coreEnd).Before.SpacesRequired = 0
		}
		cursor = col.width - text
	}
	tree.SetLine(rowID, line)
	return splits
}

// encodeInlineCells converts an aligned row into an already_formatted partition whose children are
// inline sub-partitions, one per cell (the first at indentation 0, every later one carrying its
// computed gap as indentation), so a later consumer (the layout
// optimizer, or apply_already_formatted_partition_to_tokens) can reproduce the alignment from the
// partition structure alone. A row with fewer than two cells stays a plain leaf: there is no
// inter-cell spacing to encode.
func encodeInlineCells(tree *partition.Tree, rowID partition.NodeID, splits []cellSplit) {
	if len(splits) < 2 || !tree.IsLeaf(rowID) {
		return
	}
	rng := tree.Line(rowID).Range
	for i, s := range splits {
		begin := s.tok
		if i == 0 {
			begin = rng.Begin
		}
		end := rng.End
		if i+1 < len(splits) {
			end = splits[i+1].tok
		}
		indent := 0
		if i > 0 {
			indent = s.gap
		}
		tree.AppendChild(rowID, partition.UnwrappedLine{
			Range:             token.Range{Begin: begin, End: end},
			IndentationSpaces: indent,
			Policy:            partition.Inline,
		})
	}
}

// rowWidth reports the rendered column width of rowID if it were aligned per cols, without
// mutating any token: used for the column-limit abort check.
func rowWidth(tree *partition.Tree, rowID partition.NodeID, cols []*mergedColumn, rowIdx int) int {
	line := tree.Line(rowID)
	total := line.IndentationSpaces
	cursor := 0
	first := true
	for _, col := range cols {
		node, present := col.perRow[rowIdx]
		if !present {
			cursor += col.width
			continue
		}
		text := cellTextLength(tree, rowID, cols, col, rowIdx, node)
		if first {
			total += cursor
			first = false
		} else {
			total += cursor
		}
		total += text
		cursor = col.width - text
	}
	return total
}

func widthsExceedLimit(tree *partition.Tree, rows []partition.NodeID, cols []*mergedColumn, limit int) bool {
	for i, r := range rows {
		if rowWidth(tree, r, cols, i) > limit {
			return true
		}
	}
	return false
}

func markAlreadyFormatted(tree *partition.Tree, rows []partition.NodeID) {
	for _, r := range rows {
		line := tree.Line(r)
		line.Policy = partition.AlreadyFormatted
		tree.SetLine(r, line)
	}
}

func anyRowDisabled(tree *partition.Tree, rows []partition.NodeID, disabled *byteset.Set) bool {
	for _, r := range rows {
		if partition.AnySubrangeIsDisabled(tree.Line(r).Range, tree.Tokens(), disabled) {
			return true
		}
	}
	return false
}

func formatGroupOriginal(tree *partition.Tree, rows []partition.NodeID, fullText string) error {
	for _, r := range rows {
		if err := FormatUsingOriginalSpacing(tree, r, fullText); err != nil {
			return err
		}
	}
	return nil
}

func scanRows(tree *partition.Tree, group AlignablePartitionGroup, rows []partition.NodeID) map[int][]*columnNode {
	m := map[int][]*columnNode{}
	for i, r := range rows {
		ct := group.Scanner(tree, r)
		if nodes := expand(ct); len(nodes) > 0 {
			m[i] = nodes
		}
	}
	return m
}

// inferPolicy implements the infer_user_intent decision: compare the aligned and flush-left
// renderings against the original source spacing and pick whichever the author most likely
// intended.
//
// The deviation thresholds below read the boundary inclusively on the align-vs-flush-left side
// (>= 2, not > 2): the worked example of a small, exactly-2-space divergence is meant to choose
// align, and a strict ">" would instead fall through to "ambiguous".
func inferPolicy(tree *partition.Tree, rows []partition.NodeID, cols []*mergedColumn, fullText string) Policy {
	devOriginalFlush := 0
	devAlignFlush := 0
	for rowIdx, rowID := range rows {
		tokens := tree.Tokens()
		cursor := 0
		first := true
		for _, col := range cols {
			node, present := col.perRow[rowIdx]
			if !present {
				cursor += col.width
				continue
			}
			tok := node.entry.StartingToken
			text := cellTextLength(tree, rowID, cols, col, rowIdx, node)
			flushGap := leftBorder(tokens, node.entry)
			alignGap := cursor
			if first {
				first = false
			} else {
				if d := alignGap - flushGap; d > devAlignFlush {
					devAlignFlush = d
				}
				origSpaces, origNewlines := originalGap(tokens, tok, fullText)
				if origNewlines == 0 {
					if d := origSpaces - flushGap; d > devOriginalFlush {
						devOriginalFlush = d
					}
				}
			}
			cursor = col.width - text
		}
	}

	switch {
	case devOriginalFlush <= 2 && devAlignFlush >= 2:
		return Align
	case devOriginalFlush >= 4:
		return Align
	case devOriginalFlush <= 2:
		return FlushLeft
	default:
		return Preserve
	}
}

// TabularAlignTokens is the entry point for the alignment engine: it asks extract for the
// alignable row groups under parent and aligns each one in place.
func TabularAlignTokens(tree *partition.Tree, parent partition.NodeID, columnLimit int, fullText string, disabled *byteset.Set, extract GroupExtractor, logger *zap.Logger) error {
	groups := extract(tree, parent)
	for _, g := range groups {
		reason, err := alignGroup(tree, g, columnLimit, fullText, disabled)
		if err != nil {
			return err
		}
		if reason != NoFallback && logger != nil {
			logger.Info("tabular alignment group fell back",
				zap.Stringer("reason", reason), zap.Stringer("policy", g.Policy))
		}
	}
	return nil
}

func alignGroup(tree *partition.Tree, group AlignablePartitionGroup, columnLimit int, fullText string, disabled *byteset.Set) (FallbackReason, error) {
	rows := pendingRows(tree, group.filteredRows(tree))
	if len(rows) == 0 {
		return NoFallback, nil
	}
	if len(rows) < MinRowsToAlign {
		return TooFewRows, formatGroupOriginal(tree, rows, fullText)
	}
	if anyRowDisabled(tree, rows, disabled) {
		return DisabledRange, formatGroupOriginal(tree, rows, fullText)
	}

	policy := group.Policy
	var cols []*mergedColumn
	if policy == Align || policy == InferUserIntent {
		cols = mergeLevel(scanRows(tree, group, rows))
		computeWidths(tree, rows, cols)
	}
	if policy == InferUserIntent {
		policy = inferPolicy(tree, rows, cols, fullText)
	}

	switch policy {
	case Preserve:
		tree.IndentButPreserveOtherSpacing(rows)
		markAlreadyFormatted(tree, rows)
	case FlushLeft:
		markAlreadyFormatted(tree, rows)
	case Align:
		if widthsExceedLimit(tree, rows, cols, columnLimit) {
			markAlreadyFormatted(tree, rows)
			return ColumnLimitExceeded, nil
		}
		for i, r := range rows {
			splits := applyAlignRow(tree, r, cols, i)
			markAlreadyFormatted(tree, rows[i:i+1])
			encodeInlineCells(tree, r, splits)
		}
	}
	return NoFallback, nil
}

// pendingRows drops rows a previous pass has finalized: already_formatted rows, and the
// always_expand partitions the original-spacing fallback leaves behind for multi-line ranges.
// Their spacing is fixed, and re-measuring it as if it were fresh source would shift columns on
// every run instead of reaching a fixed point after the first.
func pendingRows(tree *partition.Tree, rows []partition.NodeID) []partition.NodeID {
	kept := make([]partition.NodeID, 0, len(rows))
	for _, r := range rows {
		switch tree.Line(r).Policy {
		case partition.AlreadyFormatted, partition.AlwaysExpand:
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
