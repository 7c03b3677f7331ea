package main

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"strings"

	"gopkg.in/yaml.v3"

	cbor "github.com/synadia-labs/cborobject/runtime"
)

// fromYAML converts a YAML document to an Object. Mapping order is kept and
// a repeated key is an error. !!binary scalars become byte strings; floats
// keep the decimal value written; integers outside the uint64 range become
// big integers.
func fromYAML(data []byte) (*cbor.Object, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, fmt.Errorf("yaml: empty document")
	}
	return yamlNode(&doc, 0)
}

const maxYAMLDepth = 500

func yamlNode(n *yaml.Node, depth int) (*cbor.Object, error) {
	if depth > maxYAMLDepth {
		return nil, cbor.ErrRecursion
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return cbor.Null, nil
		}
		return yamlNode(n.Content[0], depth+1)
	case yaml.AliasNode:
		return yamlNode(n.Alias, depth+1)
	case yaml.SequenceNode:
		arr := cbor.NewArray()
		for i, c := range n.Content {
			v, err := yamlNode(c, depth+1)
			if err != nil {
				return nil, cbor.WrapError(err, i)
			}
			if err := arr.Add(v); err != nil {
				return nil, err
			}
		}
		return arr, nil
	case yaml.MappingNode:
		m := cbor.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, err := yamlNode(n.Content[i], depth+1)
			if err != nil {
				return nil, err
			}
			v, err := yamlNode(n.Content[i+1], depth+1)
			if err != nil {
				return nil, cbor.WrapError(err, n.Content[i].Value)
			}
			if err := m.Put(k, v); err != nil {
				return nil, fmt.Errorf("yaml: line %d: %w", n.Content[i].Line, err)
			}
		}
		return m, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return nil, fmt.Errorf("yaml: unsupported node kind %d at line %d", n.Kind, n.Line)
}

func yamlScalar(n *yaml.Node) (*cbor.Object, error) {
	switch n.ShortTag() {
	case "!!null":
		return cbor.Null, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return cbor.FromBool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return cbor.FromInt64(i), nil
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return cbor.FromUint64(u), nil
		}
		// Plain decimal integers beyond 64 bits.
		bi, ok := new(big.Int).SetString(strings.ReplaceAll(n.Value, "_", ""), 0)
		if !ok {
			return nil, fmt.Errorf("yaml: invalid integer %q at line %d", n.Value, n.Line)
		}
		return cbor.FromBigInt(bi), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return cbor.FromFloat64(f), nil
		}
		// Keep the exact decimal value the document wrote.
		if o, err := cbor.ParseJSONNumber(n.Value); err == nil {
			return o, nil
		}
		return cbor.FromFloat64(f), nil
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return nil, fmt.Errorf("yaml: invalid binary at line %d: %w", n.Line, err)
		}
		return cbor.FromBytes(b), nil
	}
	return cbor.FromString(n.Value)
}
