package isa

import "fmt"

// NotDefinedError reports a format lookup for an instruction at an XLEN
// it does not exist at.
type NotDefinedError struct {
	Inst string
	XLen uint32
}

func (e *NotDefinedError) Error() string {
	return fmt.Sprintf("%s is not defined at RV%d", e.Inst, e.XLen)
}

// NoFormatError reports an instruction that exists at an XLEN but has no
// format whose condition is guaranteed to hold there. The database is
// incomplete.
type NoFormatError struct {
	Inst      string
	XLen      uint32
	DefinedBy string
}

func (e *NoFormatError) Error() string {
	return fmt.Sprintf("no format for %s is satisfied by xlen(%d) && %s", e.Inst, e.XLen, e.DefinedBy)
}
