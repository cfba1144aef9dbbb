package api

// Parameters describes one translation run.
// The same shape is filled from command-line flags, an HCL parameter file
// or a tool call.
type Parameters struct {
	// Document is the structured document to translate (JSON or YAML).
	Document string `json:"document" hcl:"document,optional"`
	// Translation is the flat old→new table.
	Translation string `json:"translation" hcl:"translation,optional"`
	// Keys lists the addresses eligible for substitution (e.g. ".canvas.name").
	Keys []string `json:"keys,omitempty" hcl:"keys,optional"`
	// Output overrides the derived output path.
	Output string `json:"output,omitempty" hcl:"output,optional"`
	// MaxDepth bounds document nesting (0 = default).
	MaxDepth int `json:"max_depth,omitempty" hcl:"max_depth,optional"`
}
