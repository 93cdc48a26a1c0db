package encoding

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oisee/encdb/pkg/bits"
)

// Format is one concrete encoding of an instruction: opcodes and operands
// that together cover a word of Width bits exactly once.
type Format struct {
	Name     string
	Width    uint32
	Opcodes  []*Opcode
	Operands []*Operand

	match string
}

type namedSpan struct {
	name string
	span bits.Span
	size uint32
	top  uint32
}

// Build assembles and validates a format. Every field needs a location;
// after that checks run in order: overlap, gaps, total size, opcode
// overflow.
func Build(name string, width uint32, opcodes []*Opcode, operands []*Operand) (*Format, error) {
	spans := make([]namedSpan, 0, len(opcodes)+len(operands))
	for _, o := range opcodes {
		if o.Location.IsZero() {
			return nil, emptyLocation(name, "opcode", o.Name)
		}
		spans = append(spans, namedSpan{name: o.String(), span: o, size: o.Size(), top: o.Location.Top()})
	}
	for _, o := range operands {
		if o.Location.IsZero() {
			return nil, emptyLocation(name, "operand", o.Name)
		}
		spans = append(spans, namedSpan{name: o.String(), span: o, size: o.SizeInEncoding(), top: o.Location.Top()})
	}

	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			if bits.Overlaps(spans[i].span, spans[j].span) {
				return nil, &OverlapError{Format: name, A: spans[i].name, B: spans[j].name}
			}
		}
	}

	for i := uint32(0); i < width; i++ {
		covered := false
		for _, s := range spans {
			if bits.Covers(s.span, i) {
				covered = true
				break
			}
		}
		if !covered {
			return nil, &GapError{Format: name, Bit: i}
		}
	}

	var total uint32
	for _, s := range spans {
		if s.top >= width {
			return nil, &SizeError{Format: name, Got: s.top + 1, Want: width, Field: s.name}
		}
		total += s.size
	}
	if total != width {
		return nil, &SizeError{Format: name, Got: total, Want: width}
	}

	for _, o := range opcodes {
		if !o.Fits() {
			return nil, &OpcodeOverflowError{Format: name, Opcode: o.Name, Value: o.Value, Size: o.Size()}
		}
	}

	f := &Format{
		Name:     name,
		Width:    width,
		Opcodes:  opcodes,
		Operands: operands,
	}
	f.match = f.computeMatch()
	return f, nil
}

func emptyLocation(format, kind, field string) error {
	return &bits.LocationFormatError{Reason: fmt.Sprintf("%s %s of %s has no bits", kind, field, format)}
}

// FromMatch builds a format from a literal match string: every run of 0/1
// characters becomes an opcode, and the dashes must be covered by the
// given operands.
func FromMatch(name, match string, operands []*Operand) (*Format, error) {
	width := uint32(len(match))
	if width == 0 {
		return nil, &MatchFormatError{Match: match, Reason: "empty"}
	}
	var opcodes []*Opcode
	flush := func(run []byte, lsb uint32) error {
		if len(run) == 0 {
			return nil
		}
		fld, err := bits.NewField(lsb+uint32(len(run))-1, lsb)
		if err != nil {
			return err
		}
		loc, err := bits.NewLocation(fld)
		if err != nil {
			return err
		}
		v, err := ParseOpcodeValue(string(run))
		if err != nil {
			return &MatchFormatError{Match: match, Reason: err.Error()}
		}
		opcodes = append(opcodes, NewOpcode(string(run), loc, v))
		return nil
	}

	var run []byte
	for idx := 0; idx < len(match); idx++ {
		c := match[idx]
		bit := width - 1 - uint32(idx)
		switch c {
		case '0', '1':
			run = append(run, c)
		case '-':
			if err := flush(run, bit+1); err != nil {
				return nil, err
			}
			run = nil
		default:
			return nil, &MatchFormatError{Match: match, Reason: "characters must be 0, 1 or -"}
		}
	}
	if err := flush(run, 0); err != nil {
		return nil, err
	}

	f, err := Build(name, width, opcodes, operands)
	if err != nil {
		return nil, err
	}
	if f.match != match {
		// Build only derives the string from the opcodes; a mismatch means
		// the derivation above is wrong, not the input.
		return nil, &MatchFormatError{Match: match, Reason: "round trip produced " + f.match}
	}
	return f, nil
}

func (f *Format) computeMatch() string {
	s := strings.Repeat("-", int(f.Width))
	for _, o := range f.Opcodes {
		s = o.Replace(s, o.Value)
	}
	return s
}

// MatchString returns the format as a string of 0, 1 and -, most
// significant bit first.
func (f *Format) MatchString() string {
	if f.match == "" && f.Width > 0 {
		return f.computeMatch()
	}
	return f.match
}

// Operand returns the operand with the given name or alias.
func (f *Format) Operand(name string) *Operand {
	for _, o := range f.Operands {
		if o.Name == name || (o.Alias != "" && o.Alias == name) {
			return o
		}
	}
	return nil
}

// Mask returns the fixed-bit mask and the value those bits must have.
// Only valid for widths up to 64.
func (f *Format) Mask() (mask, value uint64) {
	for _, o := range f.Opcodes {
		for _, fld := range o.Location.Fields() {
			mask |= fld.Mask()
		}
		for _, p := range o.positions() {
			if (o.Value>>p.logical)&1 == 1 {
				value |= 1 << p.word
			}
		}
	}
	return mask, value
}

// Matches reports whether word decodes as this format: every opcode has
// its value and no operand holds an excluded value.
func (f *Format) Matches(word uint64) bool {
	if f.Width < 64 && word>>f.Width != 0 {
		return false
	}
	mask, value := f.Mask()
	if word&mask != value {
		return false
	}
	for _, o := range f.Operands {
		if len(o.Excludes) > 0 && o.IsExcluded(o.Extract(word)) {
			return false
		}
	}
	return true
}

// Segments lists every opcode field and grouped operand field, highest
// bits first.
func (f *Format) Segments() []Segment {
	var segs []Segment
	for _, o := range f.Opcodes {
		segs = append(segs, o.Segments()...)
	}
	for _, o := range f.Operands {
		segs = append(segs, o.GroupedFields()...)
	}
	sort.Slice(segs, func(i, j int) bool {
		return segs[i].Field.Msb > segs[j].Field.Msb
	})
	return segs
}

// WavedromField is one entry of a wavedrom "reg" diagram.
type WavedromField struct {
	Bits uint32 `json:"bits"`
	Name string `json:"name"`
	Type int    `json:"type"`
}

// WavedromDesc is a wavedrom register description.
type WavedromDesc struct {
	Reg []WavedromField `json:"reg"`
}

// Wavedrom describes the format for a wavedrom register diagram, listed
// from bit 0 upward as wavedrom expects.
func (f *Format) Wavedrom() WavedromDesc {
	segs := f.Segments()
	desc := WavedromDesc{Reg: make([]WavedromField, 0, len(segs))}
	for i := len(segs) - 1; i >= 0; i-- {
		typ := 4
		if segs[i].Opcode {
			typ = 2
		}
		desc.Reg = append(desc.Reg, WavedromField{
			Bits: segs[i].Field.Size(),
			Name: segs[i].Name,
			Type: typ,
		})
	}
	return desc
}

func (f *Format) String() string {
	return f.Name + " " + f.MatchString()
}
