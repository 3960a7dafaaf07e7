package partition

import "github.com/teleivo/svfmt/token"

// UnwrappedLine is a contiguous range of pre-format tokens representing one formatter decision
// unit: an indentation, a partitioning policy, and an optional back-reference to the syntax-tree
// symbol that produced it.
//
// Origin is deliberately typed as `any`: constructing a concrete syntax tree is an external
// collaborator's job (the tree unwrapper), so this package only needs to carry whatever reference
// that collaborator attaches, not interpret it. The alignment engine's cell scanner is the one
// piece of this module that does interpret Origin, via the caller-supplied
// extract_alignment_groups/cell-scanner contract in package align.
type UnwrappedLine struct {
	Range             token.Range
	IndentationSpaces int
	Policy            Policy
	Origin            any
}

// Text returns the concatenation of the line's tokens as they would render flush against each
// other with their required spacing, ignoring indentation. [UnwrappedLine.Width] measures the
// same text without building it.
func (l UnwrappedLine) Text(tokens []token.PreFormatToken) string {
	if l.Range.Empty() {
		return ""
	}
	var width int
	for i := l.Range.Begin; i < l.Range.End; i++ {
		if i > l.Range.Begin {
			width += tokens[i].Before.SpacesRequired
		}
		width += tokens[i].Length()
	}
	buf := make([]byte, 0, width)
	for i := l.Range.Begin; i < l.Range.End; i++ {
		if i > l.Range.Begin {
			for range tokens[i].Before.SpacesRequired {
				buf = append(buf, ' ')
			}
		}
		buf = append(buf, tokens[i].Token.Text...)
	}
	return string(buf)
}

// Width returns the rendered width of the line (see Text), without allocating the text itself.
func (l UnwrappedLine) Width(tokens []token.PreFormatToken) int {
	if l.Range.Empty() {
		return 0
	}
	width := 0
	for i := l.Range.Begin; i < l.Range.End; i++ {
		if i > l.Range.Begin {
			width += tokens[i].Before.SpacesRequired
		}
		width += tokens[i].Length()
	}
	return width
}
