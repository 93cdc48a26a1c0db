package schema

import (
	"fmt"
	"strconv"

	"go.yaml.in/yaml/v3"

	"github.com/oisee/encdb/pkg/cond"
)

// parseCondition decodes a condition node. An absent node yields nil.
//
//	true
//	{xlen: 64}
//	{extension: {name: Zca, version: ">= 1.0"}}
//	{allOf: [...]} / {anyOf: [...]}
//	{not: <condition>}
func parseCondition(n *yaml.Node) (cond.Condition, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.AliasNode:
		return parseCondition(n.Alias)
	case yaml.ScalarNode:
		if n.Tag == "!!bool" && n.Value == "true" {
			return cond.True{}, nil
		}
		return nil, fmt.Errorf("line %d: unexpected scalar %q in condition", n.Line, n.Value)
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("line %d: condition must be a mapping", n.Line)
	}

	if len(n.Content) != 2 {
		return nil, fmt.Errorf("line %d: condition must have exactly one key", n.Line)
	}
	key, val := n.Content[0].Value, n.Content[1]
	switch key {
	case "xlen":
		w, err := strconv.ParseUint(val.Value, 10, 32)
		if err != nil || (w != 32 && w != 64) {
			return nil, fmt.Errorf("line %d: xlen must be 32 or 64, got %q", val.Line, val.Value)
		}
		return cond.XLen{Width: uint32(w)}, nil

	case "extension":
		var ext struct {
			Name    string `yaml:"name"`
			Version string `yaml:"version"`
		}
		if err := val.Decode(&ext); err != nil {
			return nil, err
		}
		if ext.Name == "" {
			return nil, fmt.Errorf("line %d: extension requirement without a name", val.Line)
		}
		return cond.Ext(ext.Name, ext.Version)

	case "allOf", "anyOf":
		if val.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: %s must be a list", val.Line, key)
		}
		cs := make([]cond.Condition, 0, len(val.Content))
		for _, item := range val.Content {
			c, err := parseCondition(item)
			if err != nil {
				return nil, err
			}
			if c == nil {
				return nil, fmt.Errorf("line %d: empty condition in %s", item.Line, key)
			}
			cs = append(cs, c)
		}
		if key == "allOf" {
			return cond.AllOf(cs), nil
		}
		return cond.AnyOf(cs), nil

	case "not":
		c, err := parseCondition(val)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("line %d: empty condition in not", val.Line)
		}
		return cond.Not{C: c}, nil
	}
	return nil, fmt.Errorf("line %d: unknown condition %q", n.Line, key)
}
