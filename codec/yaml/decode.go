package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/typedstruct"
	"github.com/reoring/typedstruct/tree"
)

// maxAliasExpansions bounds the number of nodes materialized through aliases.
const maxAliasExpansions = 1 << 16

// Decode parses a single YAML document into an ordered generic tree. Input
// holding more than one document is rejected; use DecodeStream for streams.
func Decode(data []byte, opts ...typedstruct.UnmarshalOpt) (any, error) {
	docs, err := DecodeStream(data, opts...)
	if err != nil {
		return nil, err
	}
	switch len(docs) {
	case 0:
		return nil, &typedstruct.ParseError{Kind: typedstruct.CodeTruncated, Message: "empty input", Offset: -1}
	case 1:
		return docs[0], nil
	}
	return nil, &typedstruct.ParseError{Kind: typedstruct.CodeParseError,
		Message: fmt.Sprintf("expected one document, found %d", len(docs)), Offset: -1}
}

// DecodeStream parses every document of a YAML stream. Mappings become
// *tree.Map in input order, integers int64 and floats float64. Duplicate keys
// are reported with the position of the second occurrence unless the options
// ask to ignore them.
func DecodeStream(data []byte, opts ...typedstruct.UnmarshalOpt) ([]any, error) {
	opt := typedstruct.UnmarshalOpt{}
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []any
	for {
		var root yaml.Node
		if err := dec.Decode(&root); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, syntaxError(err)
		}
		c := converter{opt: opt}
		v, err := c.node(&root, "", 0)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

type converter struct {
	opt     typedstruct.UnmarshalOpt
	aliases int
}

func (c *converter) node(n *yaml.Node, path string, depth int) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.node(n.Content[0], path, depth)
	case yaml.AliasNode:
		c.aliases++
		if c.aliases > maxAliasExpansions {
			return nil, c.fail(typedstruct.CodeParseError, n, path, "too many alias expansions")
		}
		return c.node(n.Alias, path, depth)
	case yaml.MappingNode:
		if err := c.enter(n, path, depth); err != nil {
			return nil, err
		}
		m := tree.NewMap(len(n.Content) / 2)
		first := make(map[string]*yaml.Node, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind == yaml.AliasNode {
				k = k.Alias
			}
			if k.ShortTag() == "!!merge" {
				return nil, c.fail(typedstruct.CodeParseError, k, path, "merge keys are not supported")
			}
			if k.Kind != yaml.ScalarNode || k.ShortTag() != "!!str" {
				return nil, c.fail(typedstruct.CodeParseError, k, path, fmt.Sprintf("mapping key %q is not a string", k.Value))
			}
			kp := pointerAt(path, k.Value)
			if prev, dup := first[k.Value]; dup && c.opt.Duplicate == typedstruct.DuplicateError {
				return nil, c.fail(typedstruct.CodeDuplicateKey, k, kp,
					fmt.Sprintf("key %q duplicated (first at %d:%d)", k.Value, prev.Line, prev.Column))
			}
			first[k.Value] = k
			v, err := c.node(n.Content[i+1], kp, depth+1)
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		if err := c.enter(n, path, depth); err != nil {
			return nil, err
		}
		arr := make([]any, 0, len(n.Content))
		for i, e := range n.Content {
			v, err := c.node(e, pointerAt(path, strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		return c.scalar(n, path)
	}
	return nil, nil
}

func (c *converter) enter(n *yaml.Node, path string, depth int) error {
	if c.opt.MaxDepth > 0 && depth+1 > c.opt.MaxDepth {
		return c.fail(typedstruct.CodeParseError, n, path, "max depth exceeded")
	}
	return nil
}

func (c *converter) scalar(n *yaml.Node, path string) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, c.fail(typedstruct.CodeParseError, n, path, err.Error())
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, c.fail(typedstruct.CodeParseError, n, path, "integer "+n.Value+" overflows int64")
		}
		return i, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, c.fail(typedstruct.CodeParseError, n, path, err.Error())
		}
		return f, nil
	}
	return n.Value, nil
}

func (c *converter) fail(code string, n *yaml.Node, path, msg string) error {
	if path == "" {
		path = "/"
	}
	return &typedstruct.ParseError{Kind: code, Path: path, Message: msg, Line: n.Line, Column: n.Column, Offset: -1}
}

var lineRe = regexp.MustCompile(`line (\d+)`)

// syntaxError wraps a yaml.v3 decoder failure, lifting the line number out of
// its message when present.
func syntaxError(err error) error {
	pe := &typedstruct.ParseError{Kind: typedstruct.CodeParseError, Message: err.Error(), Offset: -1, Cause: err}
	if m := lineRe.FindStringSubmatch(err.Error()); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
	}
	return pe
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func pointerAt(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}
