package partition

import "strings"

// SubpartitionsBetweenBlankLines splits siblings (in source order, typically t.Children(parent))
// into groups wherever the source text between two adjacent siblings contains a blank line (two
// or more newlines). fullText is the original source the tokens were lexed from.
//
// Groups are returned in source order, each a contiguous run of the input siblings.
func (t *Tree) SubpartitionsBetweenBlankLines(siblings []NodeID, fullText string) [][]NodeID {
	if len(siblings) == 0 {
		return nil
	}

	var groups [][]NodeID
	current := []NodeID{siblings[0]}
	for i := 1; i < len(siblings); i++ {
		prev := siblings[i-1]
		next := siblings[i]
		if t.hasBlankLineBetween(prev, next, fullText) {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, next)
	}
	groups = append(groups, current)
	return groups
}

func (t *Tree) hasBlankLineBetween(prev, next NodeID, fullText string) bool {
	prevRange := t.nodes[prev].line.Range
	nextRange := t.nodes[next].line.Range
	if prevRange.End == 0 || nextRange.Begin == 0 || prevRange.Empty() || nextRange.Empty() {
		return false
	}
	prevEnd := t.tokens[prevRange.End-1].Token.End.Offset
	nextBegin := t.tokens[nextRange.Begin].Token.Start.Offset
	if nextBegin <= prevEnd || nextBegin > len(fullText) {
		return false
	}
	between := fullText[prevEnd:nextBegin]
	return strings.Count(between, "\n") >= 2
}
