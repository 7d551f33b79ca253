package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/docspace/internal/models"
	"github.com/xhad/docspace/pkg/engine"
)

func newAddCmd(flags *globalFlags) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add <file>... | -",
		Short: "Add documents from files or stdin",
		Example: `  docspace add notes.md design.txt
  cat meeting.txt | docspace add - --name meeting.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := flags.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()
			out := cmd.OutOrStdout()

			if len(args) == 1 && args[0] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				doc, err := eng.CreateDocument(cmd.Context(), name, string(data))
				if err != nil {
					return err
				}
				printAdded(out, doc)
				return nil
			}

			if len(args) == 1 {
				doc, err := addFile(cmd, eng, args[0])
				if err != nil {
					return err
				}
				printAdded(out, doc)
				return nil
			}

			bar := getProgressBar(len(args), " Adding documents")
			var failed int
			for _, path := range args {
				_, err := addFile(cmd, eng, path)
				bar.Add(1)
				if err != nil {
					failed++
					color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "\n✗ %s: %v\n", path, err)
				}
			}
			bar.Finish()
			fmt.Fprintln(out)
			color.New(color.FgGreen).Fprintf(out, "✓ Added %d of %d documents\n", len(args)-failed, len(args))
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "File name for text read from stdin")
	return cmd
}

func addFile(cmd *cobra.Command, eng *engine.Engine, path string) (*models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return eng.UploadDocument(cmd.Context(), filepath.Base(path), f)
}

func printAdded(w io.Writer, doc *models.Document) {
	s := doc.Summary()
	color.New(color.FgGreen).Fprintf(w, "✓ %s", s.FileName)
	fmt.Fprintf(w, " %s (%d chars, %d chunks)\n", s.ID, s.CharCount, s.ChunkCount)
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <url>",
		Short: "Crawl a site and add each page as a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := flags.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			spinner := getSpinner(" Importing pages...")
			var pages int32
			start := time.Now()
			docs, err := eng.ImportURL(cmd.Context(), args[0], func(url string) {
				n := atomic.AddInt32(&pages, 1)
				rate := float64(n) / time.Since(start).Seconds()
				spinner.Describe(color.CyanString(" Importing pages (%d, %.1f pages/sec)", n, rate))
				spinner.Add(1)
			})
			spinner.Finish()
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			for _, doc := range docs {
				printAdded(cmd.OutOrStdout(), doc)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Imported %d pages\n", len(docs))
			return nil
		},
	}
}

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List documents, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := flags.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			docs, err := eng.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			writeDocumentTable(cmd.OutOrStdout(), docs, time.Now())
			return nil
		},
	}
}

func writeDocumentTable(out io.Writer, docs []models.DocumentSummary, now time.Time) {
	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUPLOADED\tCHARS\tCHUNKS")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			d.ID, truncate(d.FileName, 40), formatTime(d.UploadedAt, now), d.CharCount, d.ChunkCount)
	}
	w.Flush()
}

func newShowCmd(flags *globalFlags) *cobra.Command {
	var showChunks bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := flags.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			doc, err := eng.GetDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			color.New(color.FgCyan, color.Bold).Fprintln(out, doc.FileName)
			fmt.Fprintf(out, "%s  %s  %d chunks\n\n", doc.ID, doc.UploadedAt.Local().Format(time.DateTime), len(doc.Chunks))

			if !showChunks {
				fmt.Fprintln(out, doc.Content)
				return nil
			}
			for _, c := range doc.Chunks {
				color.New(color.FgYellow).Fprintf(out, "── chunk %d ──\n", c.ChunkIndex)
				fmt.Fprintln(out, c.Content)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showChunks, "chunks", false, "Print the chunk set instead of the full text")
	return cmd
}

func newRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete documents and their chunks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := flags.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			var failed []string
			for _, id := range args {
				if err := eng.DeleteDocument(cmd.Context(), id); err != nil {
					color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", id, err)
					failed = append(failed, id)
					continue
				}
				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ deleted %s\n", id)
			}
			if len(failed) > 0 {
				return fmt.Errorf("could not delete %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
}

func newRechunkCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rechunk <id>",
		Short: "Rebuild a document's chunk set from its stored text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := flags.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			spinner := getSpinner(" Rechunking...")
			res, err := eng.Rechunk(cmd.Context(), args[0])
			spinner.Finish()
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
				"✓ %d sentences, split at %v, %d chunks\n", res.Sentences, res.SplitPoints, len(res.Chunks))
			if res.Fallback {
				color.Yellow("  document was embedded as a single chunk")
			}
			if res.Degenerate > 0 {
				color.Yellow("  %d chunks have a zero mean vector", res.Degenerate)
			}
			return nil
		},
	}
}
