// Package cond models the conditions under which an instruction or format
// exists (extension versions, XLEN) and answers satisfiability questions
// about them.
package cond

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-air/gini/z"
)

// Condition is a boolean requirement on the build configuration.
//
// String must be canonical: two conditions with the same String are the
// same requirement. Oracles and the conflict scan rely on it.
type Condition interface {
	String() string
	compile(b *builder) z.Lit
}

// True holds in every configuration.
type True struct{}

func (True) String() string { return "true" }

func (True) compile(b *builder) z.Lit { return b.c.T }

// XLen holds when the integer register width is Width.
type XLen struct {
	Width uint32
}

func (x XLen) String() string { return fmt.Sprintf("xlen(%d)", x.Width) }

func (x XLen) compile(b *builder) z.Lit {
	switch x.Width {
	case 64:
		return b.x64
	case 32:
		return b.x64.Not()
	default:
		return b.c.F
	}
}

// Extension holds when the named extension is implemented at a version
// accepted by Req. A nil Req accepts any version.
type Extension struct {
	Name string
	Req  *semver.Constraints

	req string
}

// Ext builds an extension requirement. An empty req accepts any version.
func Ext(name, req string) (Extension, error) {
	e := Extension{Name: name, req: strings.TrimSpace(req)}
	if e.req == "" {
		return e, nil
	}
	c, err := semver.NewConstraint(e.req)
	if err != nil {
		return Extension{}, fmt.Errorf("extension %s: bad version requirement %q: %w", name, req, err)
	}
	e.Req = c
	return e, nil
}

// MustExt is Ext that panics on a malformed requirement.
func MustExt(name, req string) Extension {
	e, err := Ext(name, req)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Extension) String() string {
	if e.req == "" {
		return "ext(" + e.Name + ")"
	}
	return "ext(" + e.Name + " " + e.req + ")"
}

func (e Extension) compile(b *builder) z.Lit {
	return b.extension(e)
}

// AllOf holds when every member holds. An empty AllOf is true.
type AllOf []Condition

func (a AllOf) String() string { return join("&&", a) }

func (a AllOf) compile(b *builder) z.Lit {
	if len(a) == 0 {
		return b.c.T
	}
	lits := make([]z.Lit, len(a))
	for i, c := range a {
		lits[i] = c.compile(b)
	}
	return b.c.Ands(lits...)
}

// AnyOf holds when at least one member holds. An empty AnyOf is false.
type AnyOf []Condition

func (a AnyOf) String() string { return join("||", a) }

func (a AnyOf) compile(b *builder) z.Lit {
	if len(a) == 0 {
		return b.c.F
	}
	lits := make([]z.Lit, len(a))
	for i, c := range a {
		lits[i] = c.compile(b)
	}
	return b.c.Ors(lits...)
}

// Not negates a condition.
type Not struct {
	C Condition
}

func (n Not) String() string { return "!" + n.C.String() }

func (n Not) compile(b *builder) z.Lit { return n.C.compile(b).Not() }

// And conjoins conditions, flattening nested AllOf and dropping True.
func And(cs ...Condition) Condition {
	var out AllOf
	for _, c := range cs {
		switch v := c.(type) {
		case nil, True:
		case AllOf:
			out = append(out, v...)
		default:
			out = append(out, c)
		}
	}
	switch len(out) {
	case 0:
		return True{}
	case 1:
		return out[0]
	}
	return out
}

func join(op string, cs []Condition) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}
