package cond

import (
	"sync/atomic"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/oisee/encdb/internal/memo"
)

// Oracle answers whether a condition can hold in some valid configuration.
// Implementations must be safe for concurrent use.
type Oracle interface {
	Satisfiable(c Condition) bool
	Conjunction(cs ...Condition) Condition
}

// Compatible reports whether a and b can hold at the same time.
func Compatible(o Oracle, a, b Condition) bool {
	return o.Satisfiable(o.Conjunction(a, b))
}

// Implies reports whether every configuration satisfying a also satisfies b.
func Implies(o Oracle, a, b Condition) bool {
	return !o.Satisfiable(o.Conjunction(a, Not{C: b}))
}

// SATOracle decides conditions with a SAT solver over the extension
// catalog. Each query gets its own circuit and solver. Answers are cached
// by condition string and each distinct condition is solved at most once.
type SATOracle struct {
	cat    *Catalog
	cache  *memo.Cache[string, bool]
	solves atomic.Int64
}

// NewSATOracle returns an oracle for configurations drawn from cat. A nil
// catalog treats every extension as a free variable.
func NewSATOracle(cat *Catalog) *SATOracle {
	return &SATOracle{cat: cat, cache: memo.New[string, bool]()}
}

// Conjunction implements Oracle.
func (o *SATOracle) Conjunction(cs ...Condition) Condition {
	return And(cs...)
}

// Satisfiable implements Oracle.
func (o *SATOracle) Satisfiable(c Condition) bool {
	v, _ := o.cache.Get(c.String(), func() (bool, error) {
		return o.solve(c), nil
	})
	return v
}

// Solved returns how many times the solver has run.
func (o *SATOracle) Solved() int64 {
	return o.solves.Load()
}

func (o *SATOracle) solve(c Condition) bool {
	o.solves.Add(1)
	b := newBuilder(o.cat)
	root := b.c.And(b.rules(), c.compile(b))
	switch root {
	case b.c.F:
		return false
	case b.c.T:
		return true
	}
	g := gini.New()
	b.c.ToCnf(g)
	g.Assume(root)
	return g.Solve() == 1
}

// builder holds the circuit for one query.
type builder struct {
	c   *logic.C
	cat *Catalog
	x64 z.Lit

	versions map[string][]z.Lit // parallel to ExtensionDef.Versions
	free     map[string]z.Lit   // extensions missing from the catalog
}

func newBuilder(cat *Catalog) *builder {
	c := logic.NewC()
	b := &builder{
		c:        c,
		cat:      cat,
		x64:      c.Lit(),
		versions: make(map[string][]z.Lit),
		free:     make(map[string]z.Lit),
	}
	for _, name := range cat.Names() {
		d, _ := cat.Lookup(name)
		lits := make([]z.Lit, len(d.Versions))
		for i := range lits {
			lits[i] = c.Lit()
		}
		b.versions[name] = lits
	}
	return b
}

// rules encodes the catalog: at most one version per extension, and every
// implemented version brings its requirements and excludes its conflicts.
func (b *builder) rules() z.Lit {
	out := b.c.T
	for _, name := range b.cat.Names() {
		d, _ := b.cat.Lookup(name)
		lits := b.versions[name]
		for i := range lits {
			for j := i + 1; j < len(lits); j++ {
				out = b.c.And(out, b.c.Or(lits[i].Not(), lits[j].Not()))
			}
		}
		present := b.c.Ors(lits...)
		if d.Requires != nil {
			out = b.c.And(out, b.c.Or(present.Not(), d.Requires.compile(b)))
		}
		for _, x := range d.Conflicts {
			out = b.c.And(out, b.c.Or(present.Not(), x.compile(b).Not()))
		}
	}
	return out
}

func (b *builder) extension(e Extension) z.Lit {
	d, ok := b.cat.Lookup(e.Name)
	if !ok {
		lit, seen := b.free[e.Name]
		if !seen {
			lit = b.c.Lit()
			b.free[e.Name] = lit
		}
		return lit
	}
	lits := b.versions[e.Name]
	var match []z.Lit
	for i, v := range d.Versions {
		if e.Req == nil || e.Req.Check(v) {
			match = append(match, lits[i])
		}
	}
	if len(match) == 0 {
		return b.c.F
	}
	return b.c.Ors(match...)
}
