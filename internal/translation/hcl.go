package translation

import (
	"fmt"
	"math/big"

	"github.com/agentic-research/relabel/internal/substitute"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// entry is the block form for keys that are not valid HCL identifiers:
//
//	entry {
//	  from = "Main Canvas"
//	  to   = "Hauptleinwand"
//	}
type entry struct {
	From string    `hcl:"from"`
	To   cty.Value `hcl:"to"`
}

// ParseHCL reads top-level attributes (Old = "New") and entry blocks.
// Expressions are evaluated without variables or functions.
func ParseHCL(data []byte, filename string) (substitute.Mapping, error) {
	f, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected body type %T", filename, f.Body)
	}

	m := make(substitute.Mapping, len(body.Attributes)+len(body.Blocks))
	for name, attr := range body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		v, err := fromCty(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		m[name] = v
	}

	for _, block := range body.Blocks {
		if block.Type != "entry" || len(block.Labels) > 0 {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Unexpected block",
				Detail:   fmt.Sprintf("Only unlabeled entry blocks are allowed, got %q.", block.Type),
				Subject:  block.TypeRange.Ptr(),
			}}
		}
		var e entry
		if diags := gohcl.DecodeBody(block.Body, nil, &e); diags.HasErrors() {
			return nil, diags
		}
		v, err := fromCty(e.To)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.From, err)
		}
		m[e.From] = v
	}
	return m, nil
}

func fromCty(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	ty := v.Type()
	switch {
	case ty.Equals(cty.String):
		return v.AsString(), nil
	case ty.Equals(cty.Bool):
		return v.True(), nil
	case ty.Equals(cty.Number):
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
