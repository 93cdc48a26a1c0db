// Package conflict finds pairs of instructions whose encodings overlap and
// that can be implemented together.
package conflict

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oisee/encdb/internal/memo"
	"github.com/oisee/encdb/pkg/cond"
	"github.com/oisee/encdb/pkg/encoding"
	"github.com/oisee/encdb/pkg/isa"
	"github.com/oisee/encdb/pkg/result"
)

// Config holds scan configuration.
type Config struct {
	Width      uint32 // XLEN to scan at (32 or 64)
	NumWorkers int    // Number of parallel workers (defaults to NumCPU)
	Verbose    bool   // Log progress at info level
}

type key struct {
	id    isa.ID
	width uint32
}

// Detector answers conflict queries over one instruction set. It is safe
// for concurrent use; every per-instruction result is computed once.
type Detector struct {
	set    *isa.Set
	oracle cond.Oracle
	log    logrus.FieldLogger

	formats   *memo.Cache[key, *encoding.Format]
	conflicts *memo.Cache[key, []isa.ID]
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Detector) { d.log = l }
}

// NewDetector creates a detector for set, using oracle to decide whether
// two instructions can coexist.
func NewDetector(set *isa.Set, oracle cond.Oracle, opts ...Option) *Detector {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	d := &Detector{
		set:       set,
		oracle:    oracle,
		log:       quiet,
		formats:   memo.New[key, *encoding.Format](),
		conflicts: memo.New[key, []isa.ID](),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Format returns the format instruction id uses at width. See
// isa.Instruction.FormatFor for the errors.
func (d *Detector) Format(id isa.ID, width uint32) (*encoding.Format, error) {
	return d.formats.Get(key{id, width}, func() (*encoding.Format, error) {
		return d.set.Get(id).FormatFor(width, d.oracle)
	})
}

// Conflicts returns the instructions that genuinely conflict with id at
// width: defined there, indistinguishable, able to coexist and not
// exempted as hints. A conflict between two instructions with the same
// defining condition is returned as a *ConflictError, and an instruction on
// either side that is defined at width without a format there fails with
// *isa.NoFormatError. An instruction not defined at width has no conflicts.
func (d *Detector) Conflicts(id isa.ID, width uint32) ([]isa.ID, error) {
	if err := checkWidth(width); err != nil {
		return nil, err
	}
	return d.conflicts.Get(key{id, width}, func() ([]isa.ID, error) {
		return d.conflictsOf(id, width)
	})
}

func (d *Detector) conflictsOf(id isa.ID, width uint32) ([]isa.ID, error) {
	x := d.set.Get(id)
	if !x.DefinedAt(width) {
		return nil, nil
	}
	fx, err := d.Format(id, width)
	if err != nil {
		return nil, err
	}

	var out []isa.ID
	for _, y := range d.set.All() {
		if y.ID == id || !y.DefinedAt(width) {
			continue
		}
		fy, err := d.Format(y.ID, width)
		if err != nil {
			return nil, err
		}
		if !fx.Indistinguishable(fy, true) {
			continue
		}
		if !cond.Compatible(d.oracle, x.DefinedBy, y.DefinedBy) {
			continue
		}
		if x.HasHint(y.ID) || y.HasHint(x.ID) {
			continue
		}
		if x.DefinedBy.String() == y.DefinedBy.String() {
			return nil, &ConflictError{Inst: x.Name, Other: y.Name, DefinedBy: x.DefinedBy.String()}
		}
		d.log.WithFields(logrus.Fields{
			"inst":  x.Name,
			"other": y.Name,
			"xlen":  width,
		}).Debug("encoding conflict")
		out = append(out, y.ID)
	}
	return out, nil
}

// Scan checks every instruction defined at cfg.Width and reports all
// conflicts, one finding per directed pair.
func (d *Detector) Scan(ctx context.Context, cfg Config) (*result.Report, error) {
	if err := checkWidth(cfg.Width); err != nil {
		return nil, err
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = runtime.NumCPU()
	}
	start := time.Now()

	var ids []isa.ID
	for _, inst := range d.set.DefinedAt(cfg.Width) {
		ids = append(ids, inst.ID)
	}
	if cfg.Verbose {
		d.log.WithFields(logrus.Fields{
			"xlen":         cfg.Width,
			"instructions": len(ids),
			"workers":      cfg.NumWorkers,
		}).Info("scanning")
	}

	pool := NewWorkerPool(cfg.NumWorkers)
	err := pool.Run(ctx, ids, func(id isa.ID) ([]result.Finding, error) {
		others, err := d.Conflicts(id, cfg.Width)
		if err != nil {
			return nil, err
		}
		x := d.set.Get(id)
		fx, _ := d.Format(id, cfg.Width)
		findings := make([]result.Finding, 0, len(others))
		for _, o := range others {
			fy, _ := d.Format(o, cfg.Width)
			findings = append(findings, result.Finding{
				Inst:       x.Name,
				Other:      d.set.Get(o).Name,
				XLen:       cfg.Width,
				InstMatch:  fx.MatchString(),
				OtherMatch: fy.MatchString(),
			})
		}
		return findings, nil
	})
	if err != nil {
		return nil, err
	}

	checked, found := pool.Stats()
	if cfg.Verbose {
		d.log.WithFields(logrus.Fields{
			"checked": checked,
			"found":   found,
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Info("scan finished")
	}
	return result.NewReport("", cfg.Width, checked, pool.Results.Findings()), nil
}

func checkWidth(w uint32) error {
	if w != 32 && w != 64 {
		return &WidthError{Width: w}
	}
	return nil
}
