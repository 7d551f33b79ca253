package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/docspace/internal/models"
	"github.com/xhad/docspace/pkg/engine"
)

func newSearchCmd(flags *globalFlags) *cobra.Command {
	var (
		keyword  bool
		limit    int
		minScore float64
		scope    string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search documents by meaning or by keyword",
		Example: `  docspace search "how are deploys rolled back"
  docspace search --scope documents --limit 3 "pricing"
  docspace search --keyword "TODO"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("limit must not be negative, got %d", limit)
			}

			eng, _, err := flags.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			query := strings.Join(args, " ")
			var results []models.SearchResult
			if keyword {
				results, err = eng.LexicalSearch(cmd.Context(), query, limit)
			} else {
				req := engine.SearchRequest{
					Query: query,
					Limit: limit,
					Scope: models.ParseScope(scope),
				}
				if cmd.Flags().Changed("min-score") {
					req.MinScore = &minScore
				}
				results, err = eng.SemanticSearch(cmd.Context(), req)
			}
			if err != nil {
				return err
			}

			if asJSON {
				if results == nil {
					results = []models.SearchResult{}
				}
				data, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling JSON: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
				return nil
			}
			writeResults(cmd.OutOrStdout(), query, results, keyword)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&keyword, "keyword", "k", false, "Keyword search instead of semantic search")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (default from config, capped at the max limit)")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Minimum similarity for semantic results")
	cmd.Flags().StringVar(&scope, "scope", string(models.ScopeChunks), "Rank chunks or documents")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func writeResults(out io.Writer, query string, results []models.SearchResult, keyword bool) {
	if len(results) == 0 {
		fmt.Fprintf(out, "No documents found for query: %s\n", query)
		return
	}

	title := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	for i, r := range results {
		title.Fprintf(out, "%d. %s", i+1, r.FileName)
		if keyword {
			fmt.Fprintf(out, "  (score %d)\n", int(r.Score))
		} else {
			fmt.Fprintf(out, "  (%.3f, chunk %d)\n", r.Score, r.ChunkIndex)
		}
		dim.Fprintf(out, "   %s\n", r.DocumentID)
		fmt.Fprintf(out, "   %s\n\n", strings.ReplaceAll(r.Snippet, "\n", " "))
	}
}
