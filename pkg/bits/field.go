package bits

import (
	"fmt"
	"regexp"
	"strconv"
)

// Field is one contiguous, inclusive range of bit positions [Lsb, Msb]
// within an instruction word.
type Field struct {
	Lsb uint32
	Msb uint32
}

var (
	singleBitRe = regexp.MustCompile(`^([0-9]+)$`)
	bitRangeRe  = regexp.MustCompile(`^([0-9]+)-([0-9]+)$`)
)

// NewField returns the field covering bits msb down to lsb.
func NewField(msb, lsb uint32) (Field, error) {
	if msb < lsb {
		return Field{}, &LocationFormatError{
			Location: fmt.Sprintf("%d-%d", msb, lsb),
			Reason:   "range must be specified 'msb-lsb'",
		}
	}
	return Field{Lsb: lsb, Msb: msb}, nil
}

// FieldAt returns the single-bit field at the given position.
func FieldAt(bit int) (Field, error) {
	if bit < 0 {
		return Field{}, &LocationFormatError{
			Location: strconv.Itoa(bit),
			Reason:   "bit index must be non-negative",
		}
	}
	return Field{Lsb: uint32(bit), Msb: uint32(bit)}, nil
}

// ParseField parses either a single bit index ("7") or an inclusive
// "msb-lsb" range ("31-25").
func ParseField(s string) (Field, error) {
	if m := singleBitRe.FindStringSubmatch(s); m != nil {
		bit, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return Field{}, &LocationFormatError{Location: s, Reason: err.Error()}
		}
		return Field{Lsb: uint32(bit), Msb: uint32(bit)}, nil
	}
	if m := bitRangeRe.FindStringSubmatch(s); m != nil {
		msb, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return Field{}, &LocationFormatError{Location: s, Reason: err.Error()}
		}
		lsb, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			return Field{}, &LocationFormatError{Location: s, Reason: err.Error()}
		}
		if msb < lsb {
			return Field{}, &LocationFormatError{Location: s, Reason: "range must be specified 'msb-lsb'"}
		}
		return Field{Lsb: uint32(lsb), Msb: uint32(msb)}, nil
	}
	return Field{}, &LocationFormatError{Location: s, Reason: "expected a bit index or 'msb-lsb'"}
}

// Size returns the number of bits in the field.
func (f Field) Size() uint32 {
	return f.Msb - f.Lsb + 1
}

// Covers reports whether bit i lies inside the field.
func (f Field) Covers(i uint32) bool {
	return i >= f.Lsb && i <= f.Msb
}

// Intersects reports whether f and g share at least one bit.
func (f Field) Intersects(g Field) bool {
	return f.Lsb <= g.Msb && g.Lsb <= f.Msb
}

// Fields lets a single Field act as a Span.
func (f Field) Fields() []Field {
	return []Field{f}
}

// Mask returns the word mask selecting the field's bits.
// Only meaningful for fields below bit 64.
func (f Field) Mask() uint64 {
	if f.Size() >= 64 {
		return ^uint64(0)
	}
	return ((uint64(1) << f.Size()) - 1) << f.Lsb
}

func (f Field) String() string {
	if f.Msb == f.Lsb {
		return strconv.FormatUint(uint64(f.Msb), 10)
	}
	return fmt.Sprintf("%d-%d", f.Msb, f.Lsb)
}
