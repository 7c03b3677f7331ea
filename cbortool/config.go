package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// yamlResolver loads flag values from a YAML document. Keys are flag names;
// a nested mapping named after a command scopes values to that command:
//
//	log-level: info
//	decode:
//	  indent: true
func yamlResolver(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return kong.ResolverFunc(func(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if parent != nil && parent.Command != nil {
			if sub, ok := lookup(values, parent.Command.Name).(map[string]any); ok {
				if v := lookup(sub, flag.Name); v != nil {
					return v, nil
				}
			}
		}
		return lookup(values, flag.Name), nil
	}), nil
}

// lookup finds name in m, accepting snake_case for kebab-case names.
func lookup(m map[string]any, name string) any {
	if v, ok := m[name]; ok {
		return v
	}
	if v, ok := m[strings.ReplaceAll(name, "-", "_")]; ok {
		return v
	}
	return nil
}
