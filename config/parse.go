package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/turbot/pipe-fittings/error_helpers"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// ParseConfig decodes HCL source into target
func ParseConfig[T any](configString []byte, filename string, target *T) error {
	file, diags := hclsyntax.ParseConfig(configString, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return error_helpers.HclDiagsToError("failed to parse config", diags)
	}

	moreDiags := gohcl.DecodeBody(file.Body, evalContext(), target)
	diags = append(diags, moreDiags...)
	if diags.HasErrors() {
		return error_helpers.HclDiagsToError("failed to parse config", diags)
	}
	return nil
}

// evalContext exposes env() so secrets need not be written into the file
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: make(map[string]cty.Value),
		Functions: map[string]function.Function{
			"env":   envFunc,
			"upper": stdlib.UpperFunc,
			"lower": stdlib.LowerFunc,
		},
	}
}
