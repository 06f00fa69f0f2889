package criteria

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// rawEntry is one top-level "name: {...}" pair, kept in document order.
type rawEntry struct {
	Name string
	Node *yaml.Node
}

func parseDocument(data []byte) ([]rawEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrBlankDocument
	}
	var doc yaml.Node
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrBlankDocument
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	var extra yaml.Node
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, fmt.Errorf("%w: multiple documents are not supported", ErrMalformedDocument)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	root := resolve(&doc)
	if root != nil && root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, ErrBlankDocument
		}
		root = resolve(root.Content[0])
	}
	if root == nil || root.Kind != yaml.MappingNode || len(root.Content) == 0 {
		return nil, ErrBlankDocument
	}

	out := make([]rawEntry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := resolve(root.Content[i])
		name := ""
		if key != nil && key.Kind == yaml.ScalarNode && key.Tag != "!!null" {
			name = strings.TrimSpace(key.Value)
		}
		out = append(out, rawEntry{Name: name, Node: resolve(root.Content[i+1])})
	}
	return out, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// fields is a mapping node flattened to key -> value; keys are compared exactly.
type fields map[string]*yaml.Node

func mappingFields(n *yaml.Node) (fields, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, errors.New("expected a mapping")
	}
	out := make(fields, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := resolve(n.Content[i])
		if k == nil || k.Kind != yaml.ScalarNode {
			return nil, errors.New("mapping keys must be scalars")
		}
		if _, dup := out[k.Value]; dup {
			return nil, fmt.Errorf("duplicate key %q", k.Value)
		}
		out[k.Value] = resolve(n.Content[i+1])
	}
	return out, nil
}

func (f fields) has(key string) bool {
	_, ok := f[key]
	return ok
}

// checkKeys fails on any key outside allowed and on any missing required key.
func (f fields) checkKeys(allowed, required []string) error {
	for k := range f {
		if !slices.Contains(allowed, k) {
			return fmt.Errorf("unexpected key %q", k)
		}
	}
	for _, k := range required {
		if !f.has(k) {
			return fmt.Errorf("missing key %q", k)
		}
	}
	return nil
}


func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// scalarString accepts any scalar; null reads as "".
func scalarString(n *yaml.Node) (string, error) {
	if isNull(n) {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", errors.New("expected a scalar")
	}
	return n.Value, nil
}

// scalarNumber accepts ints, floats and numeric strings. NaN and infinities are rejected.
func scalarNumber(n *yaml.Node) (float64, error) {
	if isNull(n) || n.Kind != yaml.ScalarNode {
		return 0, errors.New("expected a number")
	}
	var v float64
	switch n.Tag {
	case "!!int", "!!float":
		if err := n.Decode(&v); err != nil {
			return 0, err
		}
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(n.Value), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n.Value)
		}
		v = f
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", n.Value)
	}
	return v, nil
}

// scalarBool coerces the usual truthy/falsy spellings.
func scalarBool(n *yaml.Node) (bool, error) {
	if isNull(n) || n.Kind != yaml.ScalarNode {
		return false, errors.New("expected a boolean")
	}
	switch strings.ToLower(strings.TrimSpace(n.Value)) {
	case "true", "t", "yes", "y", "on", "1":
		return true, nil
	case "false", "f", "no", "n", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", n.Value)
}

func roundMark(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
