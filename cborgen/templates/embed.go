package templates

import "embed"

// FS holds the source templates cborgen executes for every input file.
//
//go:embed *.go.tpl
var FS embed.FS
