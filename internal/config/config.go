// Package config loads and resolves run parameters.
//
// Parameters can come from an HCL file:
//
//	document    = "project.json"
//	translation = "de.json"
//	keys        = [".canvas.name", ".items.label"]
//	output      = "out/project-de.json"
//
// Relative paths in the file are taken relative to the file itself.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentic-research/relabel/api"
	"github.com/agentic-research/relabel/internal/substitute"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

var (
	ErrNoDocument    = errors.New("no document given")
	ErrNoTranslation = errors.New("no translation table given")
)

// LoadFile decodes an HCL (or HCL-JSON) parameter file.
func LoadFile(path string) (*api.Parameters, error) {
	var p api.Parameters
	if err := hclsimple.DecodeFile(path, nil, &p); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	p.Document = relativeTo(base, p.Document)
	p.Translation = relativeTo(base, p.Translation)
	p.Output = relativeTo(base, p.Output)
	return &p, nil
}

func relativeTo(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Merge overlays the non-zero fields of override onto base.
func Merge(base, override api.Parameters) api.Parameters {
	out := base
	if override.Document != "" {
		out.Document = override.Document
	}
	if override.Translation != "" {
		out.Translation = override.Translation
	}
	if len(override.Keys) > 0 {
		out.Keys = override.Keys
	}
	if override.Output != "" {
		out.Output = override.Output
	}
	if override.MaxDepth != 0 {
		out.MaxDepth = override.MaxDepth
	}
	return out
}

// Resolve validates p, normalizes its key list and fills defaults.
// Entries of Keys may themselves be comma-separated lists.
func Resolve(p *api.Parameters) error {
	if p.Document == "" {
		return ErrNoDocument
	}
	if p.Translation == "" {
		return ErrNoTranslation
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", p.MaxDepth)
	}

	keys := substitute.ParsePatterns(strings.Join(p.Keys, ",")).Sorted()
	if len(keys) == 0 {
		keys = []string{substitute.DefaultPattern}
	}
	p.Keys = keys

	if p.Output == "" {
		p.Output = OutputPath(p.Document, p.Translation)
	}
	return nil
}

// Patterns returns the resolved key list as a PatternSet.
func Patterns(p api.Parameters) substitute.PatternSet {
	return substitute.NewPatternSet(p.Keys...)
}

// OutputPath derives <dir of document>/<document base>-<translation base><document ext>.
// Documents without an extension are written as .json.
func OutputPath(document, translation string) string {
	ext := filepath.Ext(document)
	docName := strings.TrimSuffix(filepath.Base(document), ext)
	trName := strings.TrimSuffix(filepath.Base(translation), filepath.Ext(translation))
	if ext == "" {
		ext = ".json"
	}
	return filepath.Join(filepath.Dir(document), docName+"-"+trName+ext)
}
