package conflict

import "fmt"

// ConflictError reports two instructions defined by the same condition
// whose encodings cannot be told apart. The database is inconsistent.
type ConflictError struct {
	Inst      string
	Other     string
	DefinedBy string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("instructions %s and %s are both defined by %s and have indistinguishable encodings",
		e.Inst, e.Other, e.DefinedBy)
}

// WidthError reports an XLEN other than 32 or 64.
type WidthError struct {
	Width uint32
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("xlen must be 32 or 64, got %d", e.Width)
}
