package result

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/xid"
)

// Report is the outcome of one conflict scan.
type Report struct {
	RunID     string    `json:"run_id"`
	Database  string    `json:"database,omitempty"`
	XLen      uint32    `json:"xlen"`
	Checked   int64     `json:"checked"`
	Generated time.Time `json:"generated"`
	Findings  []Finding `json:"findings"`
}

// NewReport stamps a report with a fresh run ID.
func NewReport(db string, xlen uint32, checked int64, findings []Finding) *Report {
	if findings == nil {
		findings = []Finding{}
	}
	return &Report{
		RunID:     xid.New().String(),
		Database:  db,
		XLen:      xlen,
		Checked:   checked,
		Generated: time.Now().UTC(),
		Findings:  findings,
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ReadJSON reads a report written by WriteJSON.
func ReadJSON(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// WriteTable renders findings as a text table.
func WriteTable(w io.Writer, findings []Finding) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Instruction", "Conflicts with", "XLEN", "Match", "Other match"})
	table.SetAutoWrapText(false)
	for _, f := range findings {
		table.Append([]string{f.Inst, f.Other, fmt.Sprint(f.XLen), f.InstMatch, f.OtherMatch})
	}
	table.Render()
}
