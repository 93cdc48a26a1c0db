// Package isa holds the loaded instruction set as an arena of instructions
// addressed by ID.
package isa

import (
	"github.com/oisee/encdb/pkg/cond"
	"github.com/oisee/encdb/pkg/encoding"
)

// ID indexes an instruction within its Set.
type ID int

// CondFormat is a format that applies when Cond holds. An instruction's
// formats are tried in order.
type CondFormat struct {
	Cond   cond.Condition
	Format *encoding.Format
}

// Instruction is one entry of the database.
type Instruction struct {
	ID        ID
	Name      string
	DefinedBy cond.Condition
	Base      uint32 // 0 when defined for every XLEN
	Formats   []CondFormat
	Hints     []ID // instructions allowed to share this encoding
}

// DefinedAt reports whether the instruction exists at the given XLEN.
func (i *Instruction) DefinedAt(width uint32) bool {
	return i.Base == 0 || i.Base == width
}

// FormatFor returns the first format whose condition is guaranteed to hold
// whenever the instruction is defined at the given XLEN. It fails with
// *NotDefinedError outside the instruction's base and with *NoFormatError
// when no format applies.
func (i *Instruction) FormatFor(width uint32, o cond.Oracle) (*encoding.Format, error) {
	if !i.DefinedAt(width) {
		return nil, &NotDefinedError{Inst: i.Name, XLen: width}
	}
	ctx := o.Conjunction(cond.XLen{Width: width}, i.DefinedBy)
	for _, cf := range i.Formats {
		if _, always := cf.Cond.(cond.True); always || cf.Cond == nil {
			return cf.Format, nil
		}
		if cond.Implies(o, ctx, cf.Cond) {
			return cf.Format, nil
		}
	}
	return nil, &NoFormatError{Inst: i.Name, XLen: width, DefinedBy: i.DefinedBy.String()}
}

// HasHint reports whether id is listed as a hint of i.
func (i *Instruction) HasHint(id ID) bool {
	for _, h := range i.Hints {
		if h == id {
			return true
		}
	}
	return false
}

func (i *Instruction) String() string {
	return i.Name
}
