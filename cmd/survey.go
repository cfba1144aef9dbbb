package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/agentic-research/relabel/internal/store"
	"github.com/agentic-research/relabel/internal/substitute"
	"github.com/agentic-research/relabel/internal/survey"
	"github.com/agentic-research/relabel/internal/translation"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

var (
	surveyKeys        string
	surveyTranslation string
)

func init() {
	surveyCmd.Flags().StringVarP(&surveyKeys, "key-list", "k", "", "Comma separated addresses to check for coverage")
	surveyCmd.Flags().StringVarP(&surveyTranslation, "translation", "t", "", "Translation table to check the addresses against")
	rootCmd.AddCommand(surveyCmd)
}

var surveyCmd = &cobra.Command{
	Use:   "survey [document]",
	Short: "List the addresses of a document and report untranslated values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docPath, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		fs := osfs.New("/")
		log := newLogger(cmd.ErrOrStderr())
		doc, err := store.New(fs, log).Load(docPath)
		if err != nil {
			return err
		}
		report := survey.Analyze(doc)

		out := cmd.OutOrStdout()
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ADDRESS\tCOUNT\tDISTINCT")
		for _, st := range report.Addresses() {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\n", st.Address, st.Count(), st.Cardinality())
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if surveyKeys == "" && surveyTranslation == "" {
			return nil
		}

		keys := surveyKeys
		if keys == "" {
			keys = substitute.DefaultPattern
		}
		mapping := substitute.Mapping{}
		if surveyTranslation != "" {
			trPath, err := filepath.Abs(surveyTranslation)
			if err != nil {
				return err
			}
			if mapping, err = translation.Load(fs, trPath); err != nil {
				return err
			}
		}

		cov := report.Cover(substitute.ParsePatterns(keys), mapping)
		_, _ = fmt.Fprintf(out, "\n%d of %d eligible fields translated\n", cov.Translated, cov.Eligible)
		for _, addr := range cov.Absent {
			_, _ = fmt.Fprintf(out, "absent: %s\n", addr)
		}
		for _, g := range cov.Gaps {
			_, _ = fmt.Fprintf(out, "missing: %s\n", g)
		}
		return nil
	},
}
