package align

// Policy selects how a group of rows is spaced.
type Policy int

const (
	// Preserve leaves every non-first token's spacing exactly as the source had it.
	Preserve Policy = iota
	// FlushLeft uses each cell's own minimum required spacing; rows are never padded to match a
	// wider sibling.
	FlushLeft
	// Align runs the full column-width algorithm, padding cells so columns line up across rows.
	Align
	// InferUserIntent compares the aligned and flush-left renderings against the original
	// spacing and picks whichever the author most likely intended.
	InferUserIntent
)

func (p Policy) String() string {
	switch p {
	case Preserve:
		return "preserve"
	case FlushLeft:
		return "flush_left"
	case Align:
		return "align"
	case InferUserIntent:
		return "infer_user_intent"
	default:
		return "unknown"
	}
}

// FallbackReason records why a group was not aligned the way its policy asked for. It is logged
// per group by [TabularAlignTokens], so a driver can tell a deliberate preserve from a forced
// retreat.
type FallbackReason int

const (
	// NoFallback means the group's policy was applied as requested.
	NoFallback FallbackReason = iota
	// TooFewRows means fewer rows than MinRowsToAlign survived filtering; the group reproduces its
	// original spacing instead.
	TooFewRows
	// DisabledRange means a token of the group falls inside a formatting-disabled byte range; the
	// whole group reproduces its original spacing.
	DisabledRange
	// ColumnLimitExceeded means the computed alignment would push some row past the column limit;
	// the group reverts to flush-left.
	ColumnLimitExceeded
)

func (r FallbackReason) String() string {
	switch r {
	case NoFallback:
		return "none"
	case TooFewRows:
		return "too_few_rows"
	case DisabledRange:
		return "disabled_range"
	case ColumnLimitExceeded:
		return "column_limit_exceeded"
	default:
		return "unknown"
	}
}
