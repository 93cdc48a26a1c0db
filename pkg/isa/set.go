package isa

import (
	"errors"
	"fmt"
	"sort"

	"github.com/oisee/encdb/pkg/cond"
)

// Def describes an instruction before it is placed in a Set. Hints are
// given by name and resolved to IDs by NewSet.
type Def struct {
	Name      string
	DefinedBy cond.Condition
	Base      uint32
	Formats   []CondFormat
	Hints     []string
}

// Set is an immutable arena of instructions.
type Set struct {
	insts  []*Instruction
	byName map[string]ID
}

// NewSet assigns IDs in the order given and resolves hints. All problems
// are reported together.
func NewSet(defs []Def) (*Set, error) {
	s := &Set{
		insts:  make([]*Instruction, 0, len(defs)),
		byName: make(map[string]ID, len(defs)),
	}
	var errs []error
	hints := make(map[ID][]string)
	for _, d := range defs {
		if _, dup := s.byName[d.Name]; dup {
			errs = append(errs, fmt.Errorf("instruction %s: defined twice", d.Name))
			continue
		}
		if d.Base != 0 && d.Base != 32 && d.Base != 64 {
			errs = append(errs, fmt.Errorf("instruction %s: base must be 32 or 64, got %d", d.Name, d.Base))
			continue
		}
		if len(d.Formats) == 0 {
			errs = append(errs, fmt.Errorf("instruction %s: no encoding", d.Name))
			continue
		}
		definedBy := d.DefinedBy
		if definedBy == nil {
			definedBy = cond.True{}
		}
		id := ID(len(s.insts))
		s.byName[d.Name] = id
		s.insts = append(s.insts, &Instruction{
			ID:        id,
			Name:      d.Name,
			DefinedBy: definedBy,
			Base:      d.Base,
			Formats:   d.Formats,
		})
		hints[id] = d.Hints
	}

	for _, inst := range s.insts {
		for _, h := range hints[inst.ID] {
			hid, ok := s.byName[h]
			if !ok {
				errs = append(errs, fmt.Errorf("instruction %s: unknown hint %q", inst.Name, h))
				continue
			}
			inst.Hints = append(inst.Hints, hid)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of instructions.
func (s *Set) Len() int { return len(s.insts) }

// Get returns the instruction with the given ID. It panics on an ID from
// another set.
func (s *Set) Get(id ID) *Instruction { return s.insts[id] }

// Lookup finds an instruction by name.
func (s *Set) Lookup(name string) (*Instruction, bool) {
	id, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.insts[id], true
}

// All returns every instruction in ID order.
func (s *Set) All() []*Instruction { return s.insts }

// DefinedAt returns the instructions that exist at the given XLEN.
func (s *Set) DefinedAt(width uint32) []*Instruction {
	var out []*Instruction
	for _, inst := range s.insts {
		if inst.DefinedAt(width) {
			out = append(out, inst)
		}
	}
	return out
}

// Names returns instruction names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.byName))
	for n := range s.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
