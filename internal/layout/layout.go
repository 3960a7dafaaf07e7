// Package layout implements Phillip Yelland's "A New Approach to Optimal Code Formatting": each
// candidate way of rendering a chunk of tokens is represented not by a single number but by a
// piecewise-linear function of the column it starts at, and combinators (Line, Juxtaposition,
// Stack, Choice, Wrap) build bigger functions out of smaller ones by combining those functions
// directly, never by picking a layout up front and rendering it to see if it fits.
//
// A [Function] is kept as a sorted list of breakpoints ("knots"); the cost at any column is the
// governing knot's intercept plus its gradient times the distance from that knot. [Factory] ties
// the combinators to one [style.BasicFormatStyle] and one shared token array.
package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/teleivo/svfmt/internal/assert"
	"github.com/teleivo/svfmt/style"
	"github.com/teleivo/svfmt/token"
)

// Type distinguishes the three shapes a layout can take.
type Type int

const (
	// LineKind is an unbroken run of tokens rendered on a single line.
	LineKind Type = iota
	// JuxtapositionKind places its children side by side on the line the first one occupies.
	JuxtapositionKind
	// StackKind places each child on its own line.
	StackKind
)

func (t Type) String() string {
	switch t {
	case LineKind:
		return "line"
	case JuxtapositionKind:
		return "juxtaposition"
	case StackKind:
		return "stack"
	default:
		return "unknown"
	}
}

// Item describes one node of a [Tree]: for a line, which tokens it spans; for any node, where it
// sits relative to its siblings.
type Item struct {
	Type Type
	// Range is only meaningful for LineKind nodes: the tokens the line renders.
	Range token.Range
	// IndentationSpaces is this node's own indentation, added on top of whatever its parent
	// already contributes. Non-zero only on nodes an [Factory.Indent] call has touched.
	IndentationSpaces int
	// SpacesBefore is the gap rendered before this node when it is appended to a line in
	// progress, rather than started fresh.
	SpacesBefore int
	// MustWrap marks a node whose first token cannot be appended to a preceding line: it must
	// start a new one.
	MustWrap bool
}

// Tree is a realized layout: a concrete choice of how a chunk of tokens renders, with Juxtaposition
// and Stack nodes grouping Line leaves. Unlike [partition.Tree], a layout Tree is an ordinary,
// immutable Go value: it is the output of a pure function, never mutated in place.
type Tree struct {
	Item     Item
	Children []Tree
}

func leaf(item Item) Tree { return Tree{Item: item} }

// Segment is one knot of a [Function]: the cost of the layout it carries is Intercept +
// Gradient*(column-Column) for any column from here up to (but not including) the next segment.
type Segment struct {
	Column    int
	Layout    Tree
	Span      int
	Intercept float64
	Gradient  int
}

// CostAt returns this segment's cost if its layout started at column, extrapolating the segment's
// line formula outside its own knot range (callers are expected to pick the governing segment
// first via [Function.At]).
func (s Segment) CostAt(column int) float64 {
	return s.Intercept + float64(s.Gradient)*float64(column-s.Column)
}

// Function is a layout's cost as a function of the column it starts at: a sorted list of knots,
// the first always at column 0.
type Function []Segment

// Empty reports whether the function carries no layout at all.
func (f Function) Empty() bool { return len(f) == 0 }

// MustWrap reports whether the layout at column 0 (and, since MustWrap is a property of the whole
// line regardless of its start column, at any column) forces a line break before it.
func (f Function) MustWrap() bool {
	if len(f) == 0 {
		return false
	}
	return f[0].Layout.Item.MustWrap
}

// At returns the segment governing column: the rightmost knot at or to the left of it.
func (f Function) At(column int) Segment {
	return f[f.indexAtOrLeftOf(column)]
}

func (f Function) indexAtOrLeftOf(column int) int {
	lo, hi := 0, len(f)
	for lo < hi {
		mid := (lo + hi) / 2
		if f[mid].Column <= column {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1
}

// String renders fn as a column/cost table, for debugging why the optimizer chose what it did.
func (f Function) String() string {
	if len(f) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, s := range f {
		fmt.Fprintf(&b, "  [%3d] (%.1f + %d*x), span: %d, type: %s\n",
			s.Column, s.Intercept, s.Gradient, s.Span, s.Layout.Item.Type)
	}
	b.WriteString("}")
	return b.String()
}

const infinity = math.MaxInt

// Factory builds [Function]s against one style and one shared pre-format token array. It carries
// no other state: every method is a pure combinator over the Functions passed to it.
type Factory struct {
	Style  style.BasicFormatStyle
	Tokens []token.PreFormatToken
}

// NewFactory returns a Factory producing layout functions for tokens, measured against st.
func NewFactory(st style.BasicFormatStyle, tokens []token.PreFormatToken) Factory {
	return Factory{Style: st, Tokens: tokens}
}

func (f Factory) rangeWidth(rng token.Range) int {
	if rng.Empty() {
		return 0
	}
	w := 0
	for i := rng.Begin; i < rng.End; i++ {
		if i > rng.Begin {
			w += f.Tokens[i].Before.SpacesRequired
		}
		w += f.Tokens[i].Length()
	}
	return w
}

// Line returns the layout function for rendering rng as a single, unbroken line: flat at cost 0
// up to the column where it would cross the style's column limit, then rising at
// OverColumnLimitPenalty per column past it.
func (f Factory) Line(rng token.Range, spacesBefore int, mustWrap bool, indentation int) Function {
	span := f.rangeWidth(rng)
	item := Item{Type: LineKind, Range: rng, IndentationSpaces: indentation, SpacesBefore: spacesBefore, MustWrap: mustWrap}
	tree := leaf(item)
	limit := f.Style.ColumnLimit
	penalty := f.Style.OverColumnLimitPenalty

	if span < limit {
		return Function{
			{Column: 0, Layout: tree, Span: span, Intercept: 0, Gradient: 0},
			{Column: limit - span, Layout: tree, Span: span, Intercept: 0, Gradient: penalty},
		}
	}
	return Function{
		{Column: 0, Layout: tree, Span: span, Intercept: float64((span - limit) * penalty), Gradient: penalty},
	}
}

// WrappedLine returns the layout function for optimally distributing rng's tokens across however
// many lines minimizes cost, continuation lines indented by hang. It treats every token boundary
// as a candidate break, so its cost is quadratic in the number of tokens; callers with a large
// token count should fall back to [Factory.Line] instead (optimizer enforces this cutoff, not
// this function).
func (f Factory) WrappedLine(rng token.Range, spacesBefore int, mustWrap bool, hang int) Function {
	n := rng.Len()
	if n == 0 {
		return f.Line(rng, spacesBefore, mustWrap, 0)
	}
	items := make([]Function, n)
	for i := 0; i < n; i++ {
		tok := token.Range{Begin: rng.Begin + i, End: rng.Begin + i + 1}
		sb, mw := spacesBefore, mustWrap
		if i > 0 {
			sb = f.Tokens[rng.Begin+i].Before.SpacesRequired
			mw = false
		}
		items[i] = f.Line(tok, sb, mw, 0)
	}
	return f.Wrap(items, hang)
}

// Indent returns a layout function for fn, but shifted so that it is rendered indent columns
// further right of whatever column it is asked to start at.
func (f Factory) Indent(fn Function, indent int) Function {
	assert.That(!fn.Empty(), "cannot indent an empty layout function")
	assert.That(indent >= 0, "indent must be non-negative, got %d", indent)

	var result Function
	column := indent
	indentColumn := 0
	idx := fn.indexAtOrLeftOf(column)

	for {
		seg := fn[idx]
		columnsOverLimit := column - f.Style.ColumnLimit
		if columnsOverLimit < 0 {
			columnsOverLimit = 0
		}
		newIntercept := seg.CostAt(column) - float64(f.Style.OverColumnLimitPenalty*columnsOverLimit)

		newLayout := seg.Layout
		newLayout.Item.IndentationSpaces += indent
		newSpan := indent + seg.Span

		result = append(result, Segment{
			Column: indentColumn, Layout: newLayout, Span: newSpan,
			Intercept: newIntercept, Gradient: seg.Gradient,
		})

		idx++
		if idx >= len(fn) {
			break
		}
		column = fn[idx].Column
		indentColumn = column - indent
	}
	return result
}

// adoptFlatten appends source as a child of dest, merging source's own children directly into
// dest instead whenever source already carries dest's own type and no indentation of its own:
// this is what keeps a fold of N juxtapositions (or N stacks) from turning into a deeply nested
// binary tree.
func adoptFlatten(dest *Tree, source Tree, destType Type) {
	if len(source.Children) > 0 && source.Item.Type == destType && source.Item.IndentationSpaces == 0 {
		dest.Children = append(dest.Children, source.Children...)
		return
	}
	dest.Children = append(dest.Children, source)
}

// Juxtaposition returns the layout function for placing fns side by side on one line, left to
// right. If any but the first must wrap, juxtaposing them is nonsensical: this falls back to
// [Factory.Stack] with a heavy penalty, so [Factory.Choice] will only ever pick it as a last
// resort.
func (f Factory) Juxtaposition(fns ...Function) Function {
	if len(fns) == 0 {
		return nil
	}
	result := fns[0]
	for _, next := range fns[1:] {
		result = f.juxtapose2(result, next)
	}
	return result
}

func (f Factory) juxtapose2(left, right Function) Function {
	assert.That(!left.Empty() && !right.Empty(), "cannot juxtapose an empty layout function")

	if right.MustWrap() {
		result := f.Stack(left, right)
		for i := range result {
			result[i].Intercept += 2e6
		}
		return result
	}

	var result Function
	li, ri := 0, 0
	columnL := 0
	columnR := left[li].Span + right[ri].Layout.Item.SpacesBefore
	ri = right.indexAtOrLeftOf(columnR)

	for {
		segL := left[li]
		segR := right[ri]

		columnsOverLimit := columnR - f.Style.ColumnLimit
		overflow := columnsOverLimit
		if overflow < 0 {
			overflow = 0
		}
		newIntercept := segL.CostAt(columnL) + segR.CostAt(columnR) - float64(f.Style.OverColumnLimitPenalty*overflow)
		newGradient := segL.Gradient + segR.Gradient
		if columnsOverLimit >= 0 {
			newGradient -= f.Style.OverColumnLimitPenalty
		}

		newLayout := Tree{Item: Item{
			Type: JuxtapositionKind, SpacesBefore: segL.Layout.Item.SpacesBefore, MustWrap: segL.Layout.Item.MustWrap,
		}}
		adoptFlatten(&newLayout, segL.Layout, JuxtapositionKind)
		adoptFlatten(&newLayout, segR.Layout, JuxtapositionKind)

		newSpan := segL.Span + segR.Span + segR.Layout.Item.SpacesBefore

		result = append(result, Segment{Column: columnL, Layout: newLayout, Span: newSpan, Intercept: newIntercept, Gradient: newGradient})

		nextLi := li + 1
		nextColumnL := infinity
		if nextLi < len(left) {
			nextColumnL = left[nextLi].Column
		}
		nextRi := ri + 1
		nextColumnR := infinity
		if nextRi < len(right) {
			nextColumnR = right[nextRi].Column
		}

		if nextLi >= len(left) && nextRi >= len(right) {
			break
		}

		if nextRi >= len(right) || (nextColumnL-columnL) <= (nextColumnR-columnR) {
			columnL = nextColumnL
			columnR = nextColumnL + left[nextLi].Span + right[ri].Layout.Item.SpacesBefore
			li = nextLi
			ri = right.indexAtOrLeftOf(columnR)
		} else {
			columnR = nextColumnR
			columnL = nextColumnR - segL.Span - right[ri].Layout.Item.SpacesBefore
			ri = nextRi
		}
	}
	return result
}

// Stack returns the layout function for placing every one of fns on its own line, adding
// LineBreakPenalty for each of the len(fns)-1 breaks it introduces.
func (f Factory) Stack(fns ...Function) Function {
	if len(fns) == 0 {
		return nil
	}
	if len(fns) == 1 {
		return fns[0]
	}

	lineBreaksPenalty := float64(len(fns)-1) * float64(f.Style.LineBreakPenalty)
	idx := make([]int, len(fns))
	var result Function
	currentColumn := 0

	for {
		for k := range fns {
			idx[k] = fns[k].indexAtOrLeftOf(currentColumn)
		}

		first := fns[0][idx[0]].Layout.Item
		last := fns[len(fns)-1][idx[len(fns)-1]]

		newLayout := Tree{Item: Item{Type: StackKind, SpacesBefore: first.SpacesBefore, MustWrap: first.MustWrap}}
		intercept := lineBreaksPenalty
		gradient := 0
		for k := range fns {
			seg := fns[k][idx[k]]
			intercept += seg.CostAt(currentColumn)
			gradient += seg.Gradient
			adoptFlatten(&newLayout, seg.Layout, StackKind)
		}

		result = append(result, Segment{Column: currentColumn, Layout: newLayout, Span: last.Span, Intercept: intercept, Gradient: gradient})

		nextColumn := infinity
		for k := range fns {
			if idx[k]+1 >= len(fns[k]) {
				continue
			}
			if c := fns[k][idx[k]+1].Column; c < nextColumn {
				nextColumn = c
			}
		}
		if nextColumn == infinity {
			break
		}
		currentColumn = nextColumn
	}
	return result
}

// Choice returns the pointwise-cheapest of fns at every column: at a column where two disagree,
// the one with the lower cost wins, breaking ties toward the lower gradient (and, failing that,
// toward whichever was passed first).
func (f Factory) Choice(fns ...Function) Function {
	if len(fns) == 0 {
		return nil
	}
	if len(fns) == 1 {
		return fns[0]
	}

	var result Function
	idx := make([]int, len(fns))
	lastFn, lastIdx := -1, -1
	currentColumn := 0

	for {
		nextKnot := infinity
		for k := range fns {
			idx[k] = fns[k].indexAtOrLeftOf(currentColumn)
			if idx[k]+1 < len(fns[k]) {
				if c := fns[k][idx[k]+1].Column; c < nextKnot {
					nextKnot = c
				}
			}
		}

		for {
			minK := 0
			for k := 1; k < len(fns); k++ {
				a, b := fns[k][idx[k]], fns[minK][idx[minK]]
				ca, cb := a.CostAt(currentColumn), b.CostAt(currentColumn)
				if ca < cb || (ca == cb && a.Gradient < b.Gradient) {
					minK = k
				}
			}
			minSeg := fns[minK][idx[minK]]
			minCost := minSeg.CostAt(currentColumn)

			if minK != lastFn || idx[minK] != lastIdx {
				result = append(result, Segment{
					Column: currentColumn, Layout: minSeg.Layout, Span: minSeg.Span,
					Intercept: minCost, Gradient: minSeg.Gradient,
				})
				lastFn, lastIdx = minK, idx[minK]
			}

			nextColumn := nextKnot
			for k := range fns {
				seg := fns[k][idx[k]]
				if seg.Gradient >= minSeg.Gradient {
					continue
				}
				gamma := (seg.CostAt(currentColumn) - minCost) / float64(minSeg.Gradient-seg.Gradient)
				column := currentColumn + int(math.Ceil(gamma))
				if column > currentColumn && column < nextColumn {
					nextColumn = column
				}
			}
			currentColumn = nextColumn
			if currentColumn >= nextKnot {
				break
			}
		}
		if currentColumn >= infinity {
			break
		}
	}
	return result
}

// Wrap returns the cheapest way to render items in sequence, trying every split between
// juxtaposing an item onto the line in progress and stacking it (and everything after it,
// indented by hang) onto new lines. It folds from the right so that each step's choice is between
// exactly two alternatives; [Factory.Choice]'s pointwise minimum over the whole fold is what
// produces layouts that are horizontal for a while and then break, rather than all-or-nothing.
func (f Factory) Wrap(items []Function, hang int) Function {
	if len(items) == 0 {
		return nil
	}
	acc := items[len(items)-1]
	for i := len(items) - 2; i >= 0; i-- {
		acc = f.Choice(
			f.Juxtaposition(items[i], acc),
			f.Stack(items[i], f.Indent(acc, hang)),
		)
	}
	return acc
}
