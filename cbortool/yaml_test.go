package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromYAML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		diag string
	}{
		{"scalars", "[1, -2, true, null, ~, x, '3']", `[1, -2, true, null, null, "x", "3"]`},
		{"decimal", "1.25", "4([-2, 125])"},
		{"integral float", "2.0", "4([-1, 20])"},
		{"exponent", "1e3", "4([3, 1])"},
		{"infinity", ".inf", "Infinity"},
		{"nan", ".nan", "NaN"},
		{"hex int", "0x10", "16"},
		{"uint64", "18446744073709551615", "18446744073709551615"},
		{"bignum", "123456789012345678901234567890", "123456789012345678901234567890"},
		{"binary", "!!binary AQID", "h'010203'"},
		{"order", "b: 1\na: 2\n", `{"b": 1, "a": 2}`},
		{"int keys", "1: one\n2: two\n", `{1: "one", 2: "two"}`},
		{"nested", "a:\n  - {x: 1}\n", `{"a": [{"x": 1}]}`},
		{"alias", "a: &v [1]\nb: *v\n", `{"a": [1], "b": [1]}`},
		{"empty doc", "---\n", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := fromYAML([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.diag, o.String())
		})
	}
}

func TestFromYAMLErrors(t *testing.T) {
	for name, in := range map[string]string{
		"empty":       "",
		"bad yaml":    "a: [1",
		"bad binary":  "!!binary '***'",
		"duplicates":  "a: 1\na: 2\n",
		"bad integer": "!!int abc",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := fromYAML([]byte(in))
			assert.Error(t, err)
		})
	}
}
