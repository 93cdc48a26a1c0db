package bits

import (
	"sort"
	"strings"
)

// Span is anything that occupies a set of bit positions in an instruction
// word. Locations, opcodes and operands all implement it, so the overlap
// and coverage helpers below work on any of them.
type Span interface {
	Fields() []Field
}

// Location is where one logical value lives in the instruction word,
// possibly scattered over several disjoint fields. The declaration order of
// the fields is significant: the first field holds the most significant
// bits of the value.
type Location struct {
	fields []Field
	sorted []Field // ascending by Msb
}

// NewLocation builds a location from fields given in declaration order.
func NewLocation(fields ...Field) (Location, error) {
	loc := Location{fields: append([]Field(nil), fields...)}
	if len(loc.fields) == 0 {
		return Location{}, &LocationFormatError{Reason: "empty location"}
	}
	for i := range loc.fields {
		for j := i + 1; j < len(loc.fields); j++ {
			if loc.fields[i].Intersects(loc.fields[j]) {
				return Location{}, &OverlapError{A: loc.fields[i].String(), B: loc.fields[j].String()}
			}
		}
		// "12|11-7" must be written "12-7"
		if i > 0 && loc.fields[i-1].Lsb == loc.fields[i].Msb+1 {
			return Location{}, &LocationFormatError{
				Location: loc.String(),
				Reason:   "consecutive bits separated by '|', use a single range",
			}
		}
	}
	loc.sorted = append([]Field(nil), loc.fields...)
	sort.Slice(loc.sorted, func(i, j int) bool {
		return loc.sorted[i].Msb < loc.sorted[j].Msb
	})
	return loc, nil
}

// ParseLocation parses a location string: one or more "n" or "msb-lsb"
// tokens joined by '|'.
func ParseLocation(s string) (Location, error) {
	parts := strings.Split(strings.TrimSpace(s), "|")
	fields := make([]Field, 0, len(parts))
	for _, part := range parts {
		f, err := ParseField(strings.TrimSpace(part))
		if err != nil {
			if lfe, ok := err.(*LocationFormatError); ok {
				lfe.Location = s
			}
			return Location{}, err
		}
		fields = append(fields, f)
	}
	return NewLocation(fields...)
}

// LocationAt returns a single-bit location.
func LocationAt(bit int) (Location, error) {
	f, err := FieldAt(bit)
	if err != nil {
		return Location{}, err
	}
	return NewLocation(f)
}

// MustParseLocation is like ParseLocation but panics on error.
// Intended for tables and tests.
func MustParseLocation(s string) Location {
	loc, err := ParseLocation(s)
	if err != nil {
		panic(err)
	}
	return loc
}

// Fields returns the fields in declaration order.
func (l Location) Fields() []Field {
	return l.fields
}

// Sorted returns the fields ordered by ascending upper bound.
func (l Location) Sorted() []Field {
	return l.sorted
}

// Size returns the total number of bits in the location.
func (l Location) Size() uint32 {
	var n uint32
	for _, f := range l.fields {
		n += f.Size()
	}
	return n
}

// Contiguous reports whether the location is a single field.
func (l Location) Contiguous() bool {
	return len(l.fields) == 1
}

// Covers reports whether bit i belongs to the location.
func (l Location) Covers(i uint32) bool {
	return Covers(l, i)
}

// Overlaps reports whether the location shares a bit with s.
func (l Location) Overlaps(s Span) bool {
	return Overlaps(l, s)
}

// Top returns the highest bit position in the location.
func (l Location) Top() uint32 {
	if len(l.sorted) == 0 {
		return 0
	}
	return l.sorted[len(l.sorted)-1].Msb
}

// Bits lists every word bit of the location, in declaration order and
// most-significant first within each field.
func (l Location) Bits() []uint32 {
	out := make([]uint32, 0, l.Size())
	for _, f := range l.fields {
		for b := int64(f.Msb); b >= int64(f.Lsb); b-- {
			out = append(out, uint32(b))
		}
	}
	return out
}

// IsZero reports whether the location has no fields.
func (l Location) IsZero() bool {
	return len(l.fields) == 0
}

func (l Location) String() string {
	parts := make([]string, len(l.fields))
	for i, f := range l.fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, "|")
}

// Covers reports whether bit i is inside any field of s.
func Covers(s Span, i uint32) bool {
	for _, f := range s.Fields() {
		if f.Covers(i) {
			return true
		}
	}
	return false
}

// Overlaps reports whether a and b share at least one bit. This is a true
// intersection test: partial overlaps count, containment is not required.
func Overlaps(a, b Span) bool {
	for _, fa := range a.Fields() {
		for _, fb := range b.Fields() {
			if fa.Intersects(fb) {
				return true
			}
		}
	}
	return false
}

// Size returns the number of bits covered by s.
func Size(s Span) uint32 {
	var n uint32
	for _, f := range s.Fields() {
		n += f.Size()
	}
	return n
}
