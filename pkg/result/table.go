package result

import (
	"sort"
	"sync"
)

// Finding is one genuine encoding conflict: Inst and Other can coexist in
// some configuration and some word decodes as both.
type Finding struct {
	Inst       string `json:"inst"`
	Other      string `json:"other"`
	XLen       uint32 `json:"xlen"`
	InstMatch  string `json:"inst_match"`
	OtherMatch string `json:"other_match"`
}

func (f Finding) key() string {
	return f.Inst + "\x00" + f.Other
}

// Table collects findings from concurrent workers.
type Table struct {
	mu       sync.Mutex
	findings []Finding
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add inserts a finding into the table.
func (t *Table) Add(f Finding) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.findings = append(t.findings, f)
}

// Findings returns a copy of all findings, sorted by instruction then by
// the conflicting instruction.
func (t *Table) Findings() []Finding {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Finding, len(t.findings))
	copy(out, t.findings)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Inst != out[j].Inst {
			return out[i].Inst < out[j].Inst
		}
		return out[i].Other < out[j].Other
	})
	return out
}

// Len returns the number of findings.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.findings)
}
