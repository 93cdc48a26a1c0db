// Package schema loads an instruction database from YAML.
//
// A document has two top-level lists, extensions and instructions. Each
// instruction carries either a format (a single layout, or a list of
// {if, then} layouts) or a legacy encoding given as a match string plus
// variables, optionally split into RV32 and RV64 variants.
package schema

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"

	"github.com/oisee/encdb/pkg/cond"
	"github.com/oisee/encdb/pkg/isa"
)

// Database is a loaded and validated instruction database.
type Database struct {
	Catalog *cond.Catalog
	Set     *isa.Set
}

// Oracle returns a satisfiability oracle over the database's extensions.
func (db *Database) Oracle() *cond.SATOracle {
	return cond.NewSATOracle(db.Catalog)
}

type document struct {
	Extensions   []extensionDoc   `yaml:"extensions"`
	Instructions []instructionDoc `yaml:"instructions"`
}

type extensionDoc struct {
	Name      string      `yaml:"name"`
	Versions  []string    `yaml:"versions"`
	Requires  yaml.Node   `yaml:"requires"`
	Conflicts []yaml.Node `yaml:"conflicts"`
}

type instructionDoc struct {
	Name      string    `yaml:"name"`
	DefinedBy yaml.Node `yaml:"definedBy"`
	Base      uint32    `yaml:"base"`
	Hints     []string  `yaml:"hints"`
	Format    yaml.Node `yaml:"format"`
	Encoding  yaml.Node `yaml:"encoding"`
}

// Load reads a database file.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	db, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// Parse loads a database from YAML bytes.
func Parse(data []byte) (*Database, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return build(&doc)
}

// Decode loads a database from r.
func Decode(r io.Reader) (*Database, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return build(&doc)
}

func build(doc *document) (*Database, error) {
	var errs []error

	defs := make([]cond.ExtensionDef, 0, len(doc.Extensions))
	for _, e := range doc.Extensions {
		d, err := extensionDef(e)
		if err != nil {
			errs = append(errs, fmt.Errorf("extension %s: %w", e.Name, err))
			continue
		}
		defs = append(defs, d)
	}
	cat, err := cond.NewCatalog(defs...)
	if err != nil {
		errs = append(errs, err)
	}

	instDefs := make([]isa.Def, 0, len(doc.Instructions))
	for _, in := range doc.Instructions {
		d, err := instructionDef(in)
		if err != nil {
			errs = append(errs, fmt.Errorf("instruction %s: %w", in.Name, err))
			continue
		}
		instDefs = append(instDefs, d)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	set, err := isa.NewSet(instDefs)
	if err != nil {
		return nil, err
	}
	return &Database{Catalog: cat, Set: set}, nil
}

func extensionDef(e extensionDoc) (cond.ExtensionDef, error) {
	d := cond.ExtensionDef{Name: e.Name}
	if e.Name == "" {
		return d, errors.New("missing name")
	}
	for _, v := range e.Versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			return d, fmt.Errorf("version %q: %w", v, err)
		}
		d.Versions = append(d.Versions, sv)
	}
	req, err := parseCondition(&e.Requires)
	if err != nil {
		return d, fmt.Errorf("requires: %w", err)
	}
	d.Requires = req
	for i := range e.Conflicts {
		c, err := parseCondition(&e.Conflicts[i])
		if err != nil {
			return d, fmt.Errorf("conflicts: %w", err)
		}
		if c != nil {
			d.Conflicts = append(d.Conflicts, c)
		}
	}
	return d, nil
}

func instructionDef(in instructionDoc) (isa.Def, error) {
	d := isa.Def{Name: in.Name, Base: in.Base, Hints: in.Hints}
	if in.Name == "" {
		return d, errors.New("missing name")
	}
	definedBy, err := parseCondition(&in.DefinedBy)
	if err != nil {
		return d, fmt.Errorf("definedBy: %w", err)
	}
	d.DefinedBy = definedBy

	switch {
	case in.Format.Kind != 0 && in.Encoding.Kind != 0:
		return d, errors.New("both format and encoding given")
	case in.Format.Kind != 0:
		d.Formats, err = parseFormats(in.Name, &in.Format)
	case in.Encoding.Kind != 0:
		d.Formats, err = parseLegacyEncoding(in.Name, &in.Encoding)
	default:
		return d, errors.New("no format or encoding")
	}
	return d, err
}
