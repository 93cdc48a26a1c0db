package cond

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// ExtensionDef describes one extension of the database: the versions it is
// published at and what implementing it implies.
type ExtensionDef struct {
	Name      string
	Versions  []*semver.Version
	Requires  Condition   // must hold whenever any version is implemented
	Conflicts []Condition // must not hold whenever any version is implemented
}

// Catalog is the set of known extensions.
type Catalog struct {
	defs  map[string]*ExtensionDef
	names []string
}

// NewCatalog indexes extension definitions. Names must be unique and every
// extension needs at least one version.
func NewCatalog(defs ...ExtensionDef) (*Catalog, error) {
	cat := &Catalog{defs: make(map[string]*ExtensionDef, len(defs))}
	for i := range defs {
		d := defs[i]
		if _, dup := cat.defs[d.Name]; dup {
			return nil, fmt.Errorf("extension %s: defined twice", d.Name)
		}
		if len(d.Versions) == 0 {
			return nil, fmt.Errorf("extension %s: no versions", d.Name)
		}
		sort.Sort(semver.Collection(d.Versions))
		cat.defs[d.Name] = &d
		cat.names = append(cat.names, d.Name)
	}
	sort.Strings(cat.names)
	return cat, nil
}

// Lookup returns the named extension.
func (c *Catalog) Lookup(name string) (*ExtensionDef, bool) {
	if c == nil {
		return nil, false
	}
	d, ok := c.defs[name]
	return d, ok
}

// Names returns extension names in sorted order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	return c.names
}

// Len returns the number of extensions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}
