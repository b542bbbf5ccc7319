package params

// Field identifies one numeric field of the packed layout for grouped
// aggregation.
type Field string

const (
	FieldMode     Field = "mode"
	FieldFontSize Field = "font_size"
	FieldColor    Field = "color"
)

// SplitIndex returns the 1-based position of the field in the packed layout,
// the index SQL-side string splitting uses. The second return is false for
// fields that cannot be grouped.
func (f Field) SplitIndex() (int, bool) {
	switch f {
	case FieldMode:
		return 2, true
	case FieldFontSize:
		return 3, true
	case FieldColor:
		return 4, true
	default:
		return 0, false
	}
}
