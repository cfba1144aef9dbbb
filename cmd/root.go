package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/agentic-research/relabel/api"
	"github.com/agentic-research/relabel/internal/config"
	"github.com/agentic-research/relabel/internal/pipeline"
	"github.com/agentic-research/relabel/internal/substitute"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	projectPath     string
	translationPath string
	keyList         string
	outputPath      string
	configPath      string
	maxDepth        int
	verbose         bool
)

func init() {
	rootCmd.Flags().StringVarP(&projectPath, "project", "p", "", "Project document (JSON or YAML) holding the values to translate")
	rootCmd.Flags().StringVarP(&translationPath, "translation", "t", "", "Translation table (JSON, YAML, HCL or SQLite with key/value pairs)")
	rootCmd.Flags().StringVarP(&keyList, "key-list", "k", substitute.DefaultPattern, "Comma separated list of addresses which can be translated")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path (default <project dir>/<project>-<translation>.<ext>)")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "HCL parameter file; flags override its values")
	rootCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Reject documents nested deeper than this (0 = default)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")
}

var rootCmd = &cobra.Command{
	Use:     "relabel",
	Short:   "Replace all values from a translation table found at the given document addresses",
	Version: version,
	Args:    cobra.NoArgs,

	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := paramsFromFlags(cmd)
		if err != nil {
			return err
		}

		log := newLogger(cmd.ErrOrStderr())
		_, err = pipeline.New(osfs.New("/"), log).Run(params)
		return err
	},
}

// paramsFromFlags merges the optional config file with the flags that were
// set explicitly and makes every path absolute.
func paramsFromFlags(cmd *cobra.Command) (api.Parameters, error) {
	var base api.Parameters
	if configPath != "" {
		p, err := config.LoadFile(configPath)
		if err != nil {
			return api.Parameters{}, err
		}
		base = *p
	}

	override := api.Parameters{
		Document:    projectPath,
		Translation: translationPath,
		Output:      outputPath,
		MaxDepth:    maxDepth,
	}
	if cmd.Flags().Changed("key-list") || len(base.Keys) == 0 {
		override.Keys = []string{keyList}
	}
	p := config.Merge(base, override)

	if p.Document == "" {
		return p, fmt.Errorf("%w (use --project or a config file)", config.ErrNoDocument)
	}
	if p.Translation == "" {
		return p, fmt.Errorf("%w (use --translation or a config file)", config.ErrNoTranslation)
	}

	for _, path := range []*string{&p.Document, &p.Translation, &p.Output} {
		if *path == "" {
			continue
		}
		abs, err := filepath.Abs(*path)
		if err != nil {
			return p, fmt.Errorf("resolve %s: %w", *path, err)
		}
		*path = abs
	}
	return p, nil
}

func newLogger(w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
