package yaml

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	jsoncodec "github.com/reoring/typedstruct/codec/json"
	"github.com/reoring/typedstruct/tree"
)

// toNode builds a yaml.Node for a tree value. Mappings keep their key order;
// empty containers are written in flow style.
func toNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(t)), nil
	case int64:
		return scalar("!!int", strconv.FormatInt(t, 10)), nil
	case float64:
		return scalar("!!float", formatFloat(t)), nil
	case string:
		return scalar("!!str", t), nil
	case tree.Symbol:
		return scalar("!!str", string(t)), nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if len(t) == 0 {
			n.Style = yaml.FlowStyle
		}
		for _, e := range t {
			c, err := toNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case *tree.Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if t.Len() == 0 {
			n.Style = yaml.FlowStyle
		}
		var err error
		t.Range(func(k string, e any) bool {
			var c *yaml.Node
			if c, err = toNode(e); err != nil {
				return false
			}
			n.Content = append(n.Content, scalar("!!str", k), c)
			return true
		})
		if err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: %T", tree.ErrUnsupportedValue, v)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// formatFloat keeps a fraction digit like the JSON adapter and spells the
// non-finite values the YAML way.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s, _ := jsoncodec.FormatFloat(f)
	return s
}
