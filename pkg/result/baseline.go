package result

import (
	"encoding/gob"
	"os"
)

// Baseline is the set of findings accepted by an earlier run. Scans
// compare against it to report only new conflicts.
type Baseline struct {
	RunID    string
	XLen     uint32
	Findings []Finding
}

// BaselineOf captures a report as a baseline.
func BaselineOf(r *Report) *Baseline {
	return &Baseline{RunID: r.RunID, XLen: r.XLen, Findings: r.Findings}
}

// SaveBaseline writes a baseline to a file.
func SaveBaseline(path string, b *Baseline) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(b)
}

// LoadBaseline loads a baseline from a file.
func LoadBaseline(path string) (*Baseline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var b Baseline
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// NewSince returns the findings of r that b does not contain.
func (r *Report) NewSince(b *Baseline) []Finding {
	if b == nil {
		return r.Findings
	}
	seen := make(map[string]bool, len(b.Findings))
	for _, f := range b.Findings {
		seen[f.key()] = true
	}
	var out []Finding
	for _, f := range r.Findings {
		if !seen[f.key()] {
			out = append(out, f)
		}
	}
	return out
}
