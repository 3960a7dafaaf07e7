// Package style defines the formatting knobs shared by the alignment engine and the layout
// optimizer. It is a plain data struct: loading it from a config file or flags is a driver's
// concern, so there is no parsing logic here.
package style

// BasicFormatStyle collects the read-only parameters the formatting core is configured with.
type BasicFormatStyle struct {
	// IndentationSpaces is the number of columns one level of indentation occupies.
	IndentationSpaces int
	// WrapSpaces is the continuation indent used when a line is wrapped, e.g. 4.
	WrapSpaces int
	// ColumnLimit is the maximum desired line width, typically 80-100.
	ColumnLimit int
	// OverColumnLimitPenalty is the cost charged per column past ColumnLimit, typically 100.
	OverColumnLimitPenalty int
	// LineBreakPenalty is the cost charged per line break introduced by a stack layout, typically
	// 2.
	LineBreakPenalty int
}

// Default returns a BasicFormatStyle with reasonable out-of-the-box values.
func Default() BasicFormatStyle {
	return BasicFormatStyle{
		IndentationSpaces:      2,
		WrapSpaces:             4,
		ColumnLimit:            100,
		OverColumnLimitPenalty: 100,
		LineBreakPenalty:       2,
	}
}
