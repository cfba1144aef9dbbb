package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/agentic-research/relabel/api"
	"github.com/agentic-research/relabel/internal/pipeline"
	"github.com/agentic-research/relabel/internal/store"
	"github.com/agentic-research/relabel/internal/substitute"
	"github.com/agentic-research/relabel/internal/translation"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the substitution as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol; diagnostics go to stderr.
		s := newToolServer(newLogger(cmd.ErrOrStderr()))
		return server.ServeStdio(s)
	},
}

var substituteTool = mcp.NewTool("substitute",
	mcp.WithDescription("Replace values of a JSON document at the given addresses using a translation table. "+
		"Addresses are dotted field paths with a leading dot (.canvas.name); array elements share the address of their array."),
	mcp.WithString("document", mcp.Required(), mcp.Description("JSON document text")),
	mcp.WithString("translation", mcp.Required(), mcp.Description("JSON object mapping old values to new values")),
	mcp.WithString("keys", mcp.Description("Comma separated addresses eligible for translation"), mcp.DefaultString(substitute.DefaultPattern)),
)

var substituteFileTool = mcp.NewTool("substitute_file",
	mcp.WithDescription("Translate a document file with a translation table file and write the result next to it."),
	mcp.WithString("project", mcp.Required(), mcp.Description("Path of the JSON or YAML document")),
	mcp.WithString("translation", mcp.Required(), mcp.Description("Path of the translation table (JSON, YAML, HCL, SQLite)")),
	mcp.WithString("keys", mcp.Description("Comma separated addresses eligible for translation"), mcp.DefaultString(substitute.DefaultPattern)),
	mcp.WithString("output", mcp.Description("Output path; derived from the input names when empty")),
)

func newToolServer(log logrus.FieldLogger) *server.MCPServer {
	s := server.NewMCPServer("relabel", version, server.WithToolCapabilities(false))
	s.AddTool(substituteTool, handleSubstitute)
	s.AddTool(substituteFileTool, fileHandler(log))
	return s
}

func handleSubstitute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docText, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	trText, err := req.RequireString("translation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := store.JSONCodec{}.Decode([]byte(docText))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse document: %v", err)), nil
	}
	if doc == nil {
		doc = map[string]any{}
	}
	mapping, err := translation.Decode(".json", []byte(trText), "translation")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse translation: %v", err)), nil
	}
	patterns := substitute.ParsePatterns(req.GetString("keys", substitute.DefaultPattern))
	if patterns.Len() == 0 {
		patterns = substitute.NewPatternSet(substitute.DefaultPattern)
	}

	res, err := substitute.Substitute(doc, mapping, patterns)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := store.Plain(doc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(oj.JSON(map[string]any{
		"document":   out,
		"replaced":   res.Replaced,
		"unresolved": unresolvedList(res.Unresolved),
	}, &ojg.Options{Indent: 2, Sort: true, HTMLUnsafe: true})), nil
}

func fileHandler(log logrus.FieldLogger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		project, err := req.RequireString("project")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		tr, err := req.RequireString("translation")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		p := api.Parameters{
			Document:    project,
			Translation: tr,
			Keys:        []string{req.GetString("keys", substitute.DefaultPattern)},
			Output:      req.GetString("output", ""),
		}
		for _, path := range []*string{&p.Document, &p.Translation, &p.Output} {
			if *path == "" {
				continue
			}
			if *path, err = filepath.Abs(*path); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}

		sum, err := pipeline.New(osfs.New("/"), log).Run(p)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(oj.JSON(map[string]any{
			"output":     sum.Output,
			"replaced":   sum.Replaced,
			"unresolved": unresolvedList(sum.Unresolved),
		}, &ojg.Options{Indent: 2, Sort: true, HTMLUnsafe: true})), nil
	}
}

func unresolvedList(us []substitute.Unresolved) []any {
	out := make([]any, 0, len(us))
	for _, u := range us {
		v, err := store.Plain(u.Value)
		if err != nil {
			v = fmt.Sprint(u.Value)
		}
		out = append(out, map[string]any{"value": v, "address": u.Address})
	}
	return out
}
