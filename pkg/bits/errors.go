package bits

import "fmt"

// LocationFormatError reports a malformed location string.
type LocationFormatError struct {
	Location string
	Reason   string
}

func (e *LocationFormatError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("location format error: %s", e.Reason)
	}
	return fmt.Sprintf("location format error in %q: %s", e.Location, e.Reason)
}

// OverlapError reports two fields of one location that share a bit.
type OverlapError struct {
	A, B string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("location has overlapping fields (%s and %s)", e.A, e.B)
}
