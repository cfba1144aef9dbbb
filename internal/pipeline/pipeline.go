// Package pipeline runs one translation: load the table and the document,
// substitute, save the result.
package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/agentic-research/relabel/api"
	"github.com/agentic-research/relabel/internal/config"
	"github.com/agentic-research/relabel/internal/store"
	"github.com/agentic-research/relabel/internal/substitute"
	"github.com/agentic-research/relabel/internal/translation"
	billy "github.com/go-git/go-billy/v5"
	"github.com/sirupsen/logrus"
)

// Summary describes a finished run.
type Summary struct {
	Output     string                  `json:"output"`
	Replaced   int                     `json:"replaced"`
	Unresolved []substitute.Unresolved `json:"unresolved"`
}

// Runner wires the collaborators around the substitution core.
type Runner struct {
	FS  billy.Filesystem
	Log logrus.FieldLogger
}

func New(fs billy.Filesystem, log logrus.FieldLogger) *Runner {
	return &Runner{FS: fs, Log: log}
}

// Run resolves p, translates the document and writes the output file.
// Missing inputs are reported and treated as empty; unresolved fields are
// reported one by one. Only malformed input, a too-deep document or a failed
// save abort the run.
func (r *Runner) Run(p api.Parameters) (*Summary, error) {
	if err := config.Resolve(&p); err != nil {
		return nil, err
	}

	r.Log.WithFields(logrus.Fields{
		"document":    p.Document,
		"translation": p.Translation,
		"output":      p.Output,
		"keys":        p.Keys,
	}).Debug("resolved parameters")

	mapping, err := r.loadMapping(p.Translation)
	if err != nil {
		return nil, err
	}
	r.Log.Infof("load mapping %s with %d entries", p.Translation, len(mapping))
	r.Log.Infof("key list contains %d entries", len(p.Keys))

	st := store.New(r.FS, r.Log)
	doc, err := st.Load(p.Document)
	if err != nil {
		return nil, err
	}

	sub := &substitute.Substituter{
		Mapping:  mapping,
		Patterns: config.Patterns(p),
		MaxDepth: p.MaxDepth,
	}
	res, err := sub.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("substitute %s: %w", p.Document, err)
	}
	for _, u := range res.Unresolved {
		r.Log.WithFields(logrus.Fields{
			"value":   u.Value,
			"address": u.Address,
		}).Warn("no mapping found")
	}

	if err := st.Save(p.Output, doc); err != nil {
		return nil, fmt.Errorf("save %s: %w", p.Output, err)
	}
	r.Log.WithFields(logrus.Fields{
		"replaced":   res.Replaced,
		"unresolved": len(res.Unresolved),
	}).Infof("wrote %s", p.Output)

	return &Summary{
		Output:     p.Output,
		Replaced:   res.Replaced,
		Unresolved: res.Unresolved,
	}, nil
}

func (r *Runner) loadMapping(path string) (substitute.Mapping, error) {
	m, err := translation.Load(r.FS, path)
	if errors.Is(err, os.ErrNotExist) {
		shown := store.AbsPath(path)
		r.Log.WithField("path", shown).Warnf("file %s not found", shown)
		return substitute.Mapping{}, nil
	}
	return m, err
}
