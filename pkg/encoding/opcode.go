package encoding

import (
	"fmt"
	mbits "math/bits"
	"strconv"
	"strings"

	"github.com/oisee/encdb/pkg/bits"
)

// Opcode is a field with a fixed required value.
type Opcode struct {
	Name     string
	Location bits.Location
	Value    uint64

	pos []position
}

// NewOpcode creates an opcode. Whether value fits is checked by Build.
func NewOpcode(name string, loc bits.Location, value uint64) *Opcode {
	return &Opcode{
		Name:     name,
		Location: loc,
		Value:    value,
		pos:      mapPositions(loc, loc.Size()),
	}
}

// ParseOpcodeValue parses an opcode value written as a binary digit string
// ("0110011"), with an optional 0b/0x prefix, or as a decimal number.
func ParseOpcodeValue(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0x"):
		return strconv.ParseUint(s, 0, 64)
	case s != "" && strings.Trim(s, "01") == "":
		return strconv.ParseUint(s, 2, 64)
	default:
		return strconv.ParseUint(s, 10, 64)
	}
}

// Fields implements bits.Span.
func (o *Opcode) Fields() []bits.Field {
	return o.Location.Fields()
}

// Size returns the width of the opcode field.
func (o *Opcode) Size() uint32 {
	return o.Location.Size()
}

// Fits reports whether the value's bit length is within the field size.
func (o *Opcode) Fits() bool {
	return uint32(mbits.Len64(o.Value)) <= o.Size()
}

func (o *Opcode) positions() []position {
	if o.pos != nil {
		return o.pos
	}
	return mapPositions(o.Location, o.Size())
}

// Replace writes value into a match string at the opcode's positions.
func (o *Opcode) Replace(match string, value uint64) string {
	return replaceBits(match, o.positions(), value)
}

// Bits returns the value as a zero-padded binary string of the field's
// width.
func (o *Opcode) Bits() string {
	return fmt.Sprintf("%0*b", int(o.Size()), o.Value)
}

// Extract reads the opcode field out of a word.
func (o *Opcode) Extract(word uint64) uint64 {
	var v uint64
	for _, p := range o.positions() {
		if p.word < 64 && (word>>p.word)&1 == 1 {
			v |= 1 << p.logical
		}
	}
	return v
}

// Segments returns one display segment per field, labelled with the
// value bits that field carries.
func (o *Opcode) Segments() []Segment {
	digits := o.Bits()
	out := make([]Segment, 0, len(o.Location.Fields()))
	off := uint32(0)
	for _, f := range o.Location.Fields() {
		out = append(out, Segment{
			Name:   digits[off : off+f.Size()],
			Field:  f,
			Opcode: true,
		})
		off += f.Size()
	}
	return out
}

func (o *Opcode) String() string {
	return fmt.Sprintf("%s[%s]", o.Name, o.Location)
}
