package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/oisee/encdb/pkg/bits"
	"github.com/oisee/encdb/pkg/cond"
	"github.com/oisee/encdb/pkg/encoding"
	"github.com/oisee/encdb/pkg/isa"
)

type formatDoc struct {
	Size     uint32       `yaml:"size"`
	Opcodes  []opcodeDoc  `yaml:"opcodes"`
	Operands []operandDoc `yaml:"operands"`
}

type opcodeDoc struct {
	Name     string    `yaml:"name"`
	Location yaml.Node `yaml:"location"`
	Value    yaml.Node `yaml:"value"`
}

type operandDoc struct {
	Name       string    `yaml:"name"`
	Location   yaml.Node `yaml:"location"`
	LeftShift  uint32    `yaml:"left_shift"`
	SignExtend bool      `yaml:"sign_extend"`
	Not        yaml.Node `yaml:"not"`
	Alias      string    `yaml:"alias"`
}

type conditionalFormatDoc struct {
	If   yaml.Node `yaml:"if"`
	Then formatDoc `yaml:"then"`
}

type legacyDoc struct {
	Match     string       `yaml:"match"`
	Variables []operandDoc `yaml:"variables"`
}

// parseFormats handles both a single format mapping and a list of
// {if, then} entries.
func parseFormats(name string, n *yaml.Node) ([]isa.CondFormat, error) {
	if n.Kind == yaml.MappingNode {
		var fd formatDoc
		if err := n.Decode(&fd); err != nil {
			return nil, err
		}
		f, err := fd.build(name)
		if err != nil {
			return nil, err
		}
		return []isa.CondFormat{{Cond: cond.True{}, Format: f}}, nil
	}

	var list []conditionalFormatDoc
	if err := n.Decode(&list); err != nil {
		return nil, err
	}
	out := make([]isa.CondFormat, 0, len(list))
	for i := range list {
		c, err := parseCondition(&list[i].If)
		if err != nil {
			return nil, fmt.Errorf("format %d: %w", i, err)
		}
		if c == nil {
			c = cond.True{}
		}
		f, err := list[i].Then.build(name)
		if err != nil {
			return nil, err
		}
		out = append(out, isa.CondFormat{Cond: c, Format: f})
	}
	return out, nil
}

func (fd formatDoc) build(name string) (*encoding.Format, error) {
	if fd.Size == 0 {
		return nil, errors.New("format without size")
	}
	opcodes := make([]*encoding.Opcode, 0, len(fd.Opcodes))
	for _, od := range fd.Opcodes {
		loc, err := parseLocation(&od.Location)
		if err != nil {
			return nil, fmt.Errorf("opcode %s: %w", od.Name, err)
		}
		v, err := parseValue(&od.Value)
		if err != nil {
			return nil, fmt.Errorf("opcode %s: %w", od.Name, err)
		}
		opcodes = append(opcodes, encoding.NewOpcode(od.Name, loc, v))
	}
	operands, err := buildOperands(fd.Operands)
	if err != nil {
		return nil, err
	}
	return encoding.Build(name, fd.Size, opcodes, operands)
}

// parseLegacyEncoding handles {match, variables}, optionally split into
// RV32 and RV64 variants.
func parseLegacyEncoding(name string, n *yaml.Node) ([]isa.CondFormat, error) {
	var split struct {
		RV32 *legacyDoc `yaml:"RV32"`
		RV64 *legacyDoc `yaml:"RV64"`
	}
	if err := n.Decode(&split); err != nil {
		return nil, err
	}
	if split.RV32 == nil && split.RV64 == nil {
		var ld legacyDoc
		if err := n.Decode(&ld); err != nil {
			return nil, err
		}
		f, err := ld.build(name)
		if err != nil {
			return nil, err
		}
		return []isa.CondFormat{{Cond: cond.True{}, Format: f}}, nil
	}

	var out []isa.CondFormat
	for _, v := range []struct {
		width uint32
		doc   *legacyDoc
	}{{32, split.RV32}, {64, split.RV64}} {
		if v.doc == nil {
			continue
		}
		f, err := v.doc.build(name)
		if err != nil {
			return nil, fmt.Errorf("RV%d: %w", v.width, err)
		}
		out = append(out, isa.CondFormat{Cond: cond.XLen{Width: v.width}, Format: f})
	}
	return out, nil
}

func (ld legacyDoc) build(name string) (*encoding.Format, error) {
	operands, err := buildOperands(ld.Variables)
	if err != nil {
		return nil, err
	}
	return encoding.FromMatch(name, ld.Match, operands)
}

func buildOperands(docs []operandDoc) ([]*encoding.Operand, error) {
	out := make([]*encoding.Operand, 0, len(docs))
	for _, od := range docs {
		loc, err := parseLocation(&od.Location)
		if err != nil {
			return nil, fmt.Errorf("operand %s: %w", od.Name, err)
		}
		excl, err := parseExcludes(&od.Not)
		if err != nil {
			return nil, fmt.Errorf("operand %s: %w", od.Name, err)
		}
		out = append(out, encoding.NewOperand(od.Name, loc,
			encoding.WithLeftShift(od.LeftShift),
			encoding.WithSignExtend(od.SignExtend),
			encoding.WithAlias(od.Alias),
			encoding.WithExcludes(excl...),
		))
	}
	return out, nil
}

// parseLocation accepts a bare bit index or a location string.
func parseLocation(n *yaml.Node) (bits.Location, error) {
	if n.Kind != yaml.ScalarNode {
		return bits.Location{}, errors.New("missing location")
	}
	if n.Tag == "!!int" {
		i, err := strconv.Atoi(n.Value)
		if err != nil {
			return bits.Location{}, err
		}
		return bits.LocationAt(i)
	}
	return bits.ParseLocation(n.Value)
}

// parseValue reads an opcode value. Quoted strings are digit strings as
// ParseOpcodeValue understands them ("0110011" is binary); unquoted numbers
// are decimal unless they carry a 0b, 0o or 0x prefix.
func parseValue(n *yaml.Node) (uint64, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, errors.New("missing value")
	}
	if n.Tag == "!!int" {
		return parseNumber(n.Value)
	}
	return encoding.ParseOpcodeValue(n.Value)
}

func parseNumber(s string) (uint64, error) {
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0b") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0x") {
		return strconv.ParseUint(lower, 0, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// parseExcludes accepts a single value or a list.
func parseExcludes(n *yaml.Node) ([]uint64, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		v, err := parseNumber(n.Value)
		if err != nil {
			return nil, err
		}
		return []uint64{v}, nil
	case yaml.SequenceNode:
		out := make([]uint64, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := parseNumber(item.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("line %d: not must be a value or a list", n.Line)
}
