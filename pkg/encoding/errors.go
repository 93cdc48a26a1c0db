package encoding

import "fmt"

// OverlapError reports two fields of one format that claim the same bit.
type OverlapError struct {
	Format string
	A, B   string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("format %s: %s overlaps with %s", e.Format, e.A, e.B)
}

// GapError reports a bit of the encoding that no opcode or operand covers.
type GapError struct {
	Format string
	Bit    uint32
}

func (e *GapError) Error() string {
	return fmt.Sprintf("format %s: there is no opcode or operand at bit %d", e.Format, e.Bit)
}

// SizeError reports fields whose sizes do not add up to the format width,
// or a field that extends beyond it.
type SizeError struct {
	Format string
	Got    uint32
	Want   uint32
	Field  string // set when a single field extends beyond the width
}

func (e *SizeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("format %s: %s extends beyond the %d-bit encoding", e.Format, e.Field, e.Want)
	}
	return fmt.Sprintf("format %s: size of opcodes and operands (%d) does not add to format size (%d)",
		e.Format, e.Got, e.Want)
}

// OpcodeOverflowError reports an opcode value too wide for its field.
type OpcodeOverflowError struct {
	Format string
	Opcode string
	Value  uint64
	Size   uint32
}

func (e *OpcodeOverflowError) Error() string {
	return fmt.Sprintf("format %s: opcode %s value %d does not fit in %d bits",
		e.Format, e.Opcode, e.Value, e.Size)
}

// MatchFormatError reports a malformed match string.
type MatchFormatError struct {
	Match  string
	Reason string
}

func (e *MatchFormatError) Error() string {
	return fmt.Sprintf("bad match string %q: %s", e.Match, e.Reason)
}
