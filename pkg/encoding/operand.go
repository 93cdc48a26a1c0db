package encoding

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oisee/encdb/pkg/bits"
)

// position pairs a bit of the instruction word with the bit of the
// logical value stored there.
type position struct {
	word    uint32
	logical uint32
}

// mapPositions walks the location in declaration order, handing out
// logical indices from size-1 downward, most significant bit of each field
// first. Logical bits below size-loc.Size() are never assigned.
func mapPositions(loc bits.Location, size uint32) []position {
	out := make([]position, 0, loc.Size())
	next := size
	for _, w := range loc.Bits() {
		next--
		out = append(out, position{word: w, logical: next})
	}
	return out
}

// Operand is a decode variable: a value read from the instruction word
// rather than fixed by it.
type Operand struct {
	Name       string
	Alias      string
	Location   bits.Location
	LeftShift  uint32
	SignExtend bool
	Excludes   []uint64

	pos []position
}

// OperandOption configures an Operand.
type OperandOption func(*Operand)

// WithLeftShift sets the number of implicit zero bits below the encoded
// value.
func WithLeftShift(n uint32) OperandOption {
	return func(o *Operand) { o.LeftShift = n }
}

// WithSignExtend marks the operand as sign extended after decode.
func WithSignExtend(sext bool) OperandOption {
	return func(o *Operand) { o.SignExtend = sext }
}

// WithAlias records a second name for the operand (e.g. rs1/rd for
// destructive forms).
func WithAlias(alias string) OperandOption {
	return func(o *Operand) { o.Alias = alias }
}

// WithExcludes lists values the operand may never take.
func WithExcludes(values ...uint64) OperandOption {
	return func(o *Operand) { o.Excludes = append(o.Excludes, values...) }
}

// NewOperand creates an operand at loc. The position map is computed
// here, once.
func NewOperand(name string, loc bits.Location, opts ...OperandOption) *Operand {
	o := &Operand{Name: name, Location: loc}
	for _, opt := range opts {
		opt(o)
	}
	o.pos = mapPositions(o.Location, o.Size())
	return o
}

// Fields implements bits.Span.
func (o *Operand) Fields() []bits.Field {
	return o.Location.Fields()
}

// SizeInEncoding is the number of bits stored in the instruction word.
func (o *Operand) SizeInEncoding() uint32 {
	return o.Location.Size()
}

// Size is the width of the logical value, including the implicit
// left-shifted zeros.
func (o *Operand) Size() uint32 {
	return o.SizeInEncoding() + o.LeftShift
}

func (o *Operand) positions() []position {
	if o.pos != nil {
		return o.pos
	}
	return mapPositions(o.Location, o.Size())
}

// PositionMap returns, for each word bit below width, the logical bit of
// the operand stored there, or -1.
func (o *Operand) PositionMap(width uint32) []int {
	m := make([]int, width)
	for i := range m {
		m[i] = -1
	}
	for _, p := range o.positions() {
		if p.word < width {
			m[p.word] = int(p.logical)
		}
	}
	return m
}

// IsExcluded reports whether v is one of the forbidden values.
func (o *Operand) IsExcluded(v uint64) bool {
	for _, x := range o.Excludes {
		if x == v {
			return true
		}
	}
	return false
}

// Replace substitutes value into a match string (MSB at index 0) at the
// operand's positions and returns the new string.
func (o *Operand) Replace(match string, value uint64) string {
	return replaceBits(match, o.positions(), value)
}

func replaceBits(match string, pos []position, value uint64) string {
	b := []byte(match)
	n := uint32(len(b))
	for _, p := range pos {
		if p.word >= n {
			continue
		}
		if p.logical < 64 && (value>>p.logical)&1 == 1 {
			b[n-1-p.word] = '1'
		} else {
			b[n-1-p.word] = '0'
		}
	}
	return string(b)
}

// DecodeStep is one mask-then-shift step of operand extraction. The
// results of all steps ORed together form the unsigned logical value.
type DecodeStep struct {
	Mask       uint64
	RightShift int // negative means shift left
}

func (s DecodeStep) Apply(word uint64) uint64 {
	v := word & s.Mask
	if s.RightShift < 0 {
		return v << uint(-s.RightShift)
	}
	return v >> uint(s.RightShift)
}

func (s DecodeStep) String() string {
	switch {
	case s.RightShift == 0:
		return fmt.Sprintf("(inst & %#x)", s.Mask)
	case s.RightShift < 0:
		return fmt.Sprintf("(inst & %#x) << %d", s.Mask, -s.RightShift)
	default:
		return fmt.Sprintf("(inst & %#x) >> %d", s.Mask, s.RightShift)
	}
}

// DecodeSteps returns one step per field, in declaration order.
func (o *Operand) DecodeSteps() []DecodeStep {
	steps := make([]DecodeStep, 0, len(o.Location.Fields()))
	next := o.Size()
	for _, f := range o.Location.Fields() {
		next -= f.Size()
		steps = append(steps, DecodeStep{
			Mask:       f.Mask(),
			RightShift: int(f.Lsb) - int(next),
		})
	}
	return steps
}

// Extract reads the operand's unsigned logical value out of an
// instruction word.
func (o *Operand) Extract(word uint64) uint64 {
	var v uint64
	for _, s := range o.DecodeSteps() {
		v |= s.Apply(word)
	}
	return v
}

// ExtractSigned is Extract followed by sign extension when the operand is
// sign extended.
func (o *Operand) ExtractSigned(word uint64) int64 {
	v := o.Extract(word)
	size := o.Size()
	if !o.SignExtend || size == 0 || size >= 64 {
		return int64(v)
	}
	shift := 64 - size
	return int64(v<<shift) >> shift
}

// DecodeExpr renders the extraction as an expression over $encoding, e.g.
// "{$encoding[12], $encoding[6:2], 1'd0}".
func (o *Operand) DecodeExpr() string {
	var ops []string
	for _, f := range o.Location.Fields() {
		if f.Size() == 1 {
			ops = append(ops, fmt.Sprintf("$encoding[%d]", f.Msb))
		} else {
			ops = append(ops, fmt.Sprintf("$encoding[%d:%d]", f.Msb, f.Lsb))
		}
	}
	if o.LeftShift != 0 {
		ops = append(ops, fmt.Sprintf("%d'd0", o.LeftShift))
	}
	expr := ops[0]
	if len(ops) > 1 {
		expr = "{" + strings.Join(ops, ", ") + "}"
	}
	if o.SignExtend {
		expr = "sext(" + expr + ")"
	}
	return expr
}

// PrettyName returns the name with any exclusions, e.g. "rd != {0,2}".
func (o *Operand) PrettyName() string {
	switch len(o.Excludes) {
	case 0:
		return o.Name
	case 1:
		return fmt.Sprintf("%s != %d", o.Name, o.Excludes[0])
	default:
		vals := make([]string, len(o.Excludes))
		for i, v := range o.Excludes {
			vals[i] = strconv.FormatUint(v, 10)
		}
		return fmt.Sprintf("%s != {%s}", o.Name, strings.Join(vals, ","))
	}
}

// Segment is a contiguous run of word bits with a display name.
type Segment struct {
	Name   string
	Field  bits.Field
	Opcode bool
}

// GroupedFields merges word-adjacent fields (ordered MSB to LSB) and names
// each group after the logical bits it carries, e.g. "imm[5|4:3]".
func (o *Operand) GroupedFields() []Segment {
	sorted := append([]bits.Field(nil), o.Location.Fields()...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Msb > sorted[j].Msb })

	groups := []bits.Field{sorted[0]}
	for _, f := range sorted[1:] {
		last := &groups[len(groups)-1]
		if f.Msb+1 == last.Lsb {
			last.Lsb = f.Lsb
		} else {
			groups = append(groups, f)
		}
	}

	if len(groups) == 1 && groups[0].Size() == o.Size() {
		return []Segment{{Name: o.PrettyName(), Field: groups[0]}}
	}
	m := o.PositionMap(o.Location.Top() + 1)
	out := make([]Segment, len(groups))
	for i, g := range groups {
		out[i] = Segment{
			Name:  fmt.Sprintf("%s[%s]", o.PrettyName(), logicalRange(m, g)),
			Field: g,
		}
	}
	return out
}

// logicalRange describes which logical bits a word range holds, merging
// runs of consecutive indices.
func logicalRange(m []int, f bits.Field) string {
	type run struct{ hi, lo int }
	var runs []run
	for w := int(f.Msb); w >= int(f.Lsb); w-- {
		v := m[w]
		if n := len(runs); n > 0 && runs[n-1].lo-1 == v {
			runs[n-1].lo = v
			continue
		}
		runs = append(runs, run{hi: v, lo: v})
	}
	parts := make([]string, len(runs))
	for i, r := range runs {
		if r.hi == r.lo {
			parts[i] = strconv.Itoa(r.hi)
		} else {
			parts[i] = fmt.Sprintf("%d:%d", r.hi, r.lo)
		}
	}
	return strings.Join(parts, "|")
}

func (o *Operand) String() string {
	return fmt.Sprintf("%s[%s]", o.Name, o.Location)
}
