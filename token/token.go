package token

// BreakDecision records how the formatter has decided (or not yet decided) to handle the
// whitespace immediately before a token.
type BreakDecision int

const (
	// Undecided means no component has yet committed to a spacing decision for this token; the
	// layout optimizer is free to choose.
	Undecided BreakDecision = iota
	// MustAppend forces the token to be appended to the current line with Spacing.SpacesRequired
	// spaces before it.
	MustAppend
	// MustWrap forces the token to start a new line.
	MustWrap
	// AppendAligned is like MustAppend, but the space count was computed by the tabular alignment
	// engine to land the token in a specific column.
	AppendAligned
	// Preserve means the original source spacing (including newlines) must be reproduced
	// verbatim; Spacing.PreservedSpaceStart identifies where in the source to copy from.
	Preserve
)

// String returns a short, lowercase name for the decision, useful in debug output and error
// messages.
func (d BreakDecision) String() string {
	switch d {
	case Undecided:
		return "undecided"
	case MustAppend:
		return "must_append"
	case MustWrap:
		return "must_wrap"
	case AppendAligned:
		return "append_aligned"
	case Preserve:
		return "preserve"
	default:
		return "unknown"
	}
}

// Spacing is the "before" spacing record attached to every [PreFormatToken].
type Spacing struct {
	// SpacesRequired is the number of spaces to insert before the token if it is appended to the
	// current line.
	SpacesRequired int
	// Decision is the current break decision for this token.
	Decision BreakDecision
	// BreakPenalty is the cost of breaking before this token, used by layout cost functions that
	// consult it (most of the core works in terms of line_break_penalty from the style instead;
	// BreakPenalty is carried for collaborators that want finer-grained control).
	BreakPenalty int
	// PreservedSpaceStart is a byte offset into the original source, used when Decision is
	// Preserve to recover the exact original spacing (including any newlines) before this token.
	PreservedSpaceStart int
}

// Token is a single significant source token: a text slice plus its source span.
type Token struct {
	Text       string
	Start, End Position
}

// Length returns the textual length of the token in bytes of Text.
func (t Token) Length() int { return len(t.Text) }

// PreFormatToken is one entry in the process-wide pre-format token array. All ranges used
// downstream by the partition tree, alignment engine, and layout optimizer are half-open index
// ranges into that array; PreFormatToken itself never stores a range into anything but the
// original source.
type PreFormatToken struct {
	Token  Token
	Before Spacing
}

// Length returns the textual length of the underlying token.
func (t PreFormatToken) Length() int { return t.Token.Length() }

// Range is a half-open range [Begin, End) of indices into a []PreFormatToken array.
type Range struct {
	Begin, End int
}

// Len returns the number of tokens spanned by the range.
func (r Range) Len() int { return r.End - r.Begin }

// Empty reports whether the range spans zero tokens.
func (r Range) Empty() bool { return r.Begin == r.End }

// Slice returns the tokens spanned by r.
func (r Range) Slice(tokens []PreFormatToken) []PreFormatToken { return tokens[r.Begin:r.End] }
