package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fyrsmithlabs/rerankd/internal/compressor"
	"github.com/fyrsmithlabs/rerankd/internal/config"
	"github.com/fyrsmithlabs/rerankd/internal/pinecone"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// previewLen caps the text column of the table output.
const previewLen = 60

type rerankOptions struct {
	query      string
	topN       int
	model      string
	truncation string
	json       bool
}

func newRerankCmd(global *globalOptions) *cobra.Command {
	opts := &rerankOptions{}

	cmd := &cobra.Command{
		Use:   "rerank [file]",
		Short: "Rerank documents from a file or stdin",
		Long: `Rerank documents against a query and print the most relevant ones.

Input is either a JSON array of {"page_content", "metadata"} objects or plain
text with one document per line. The Pinecone API key is read from
pinecone.api_key or PINECONE_API_KEY.

Examples:
  # Rerank lines from a file
  rerankd rerank --query "capital of france" docs.txt

  # Rerank JSON documents from stdin, keeping 3
  cat docs.json | rerankd rerank -q "capital of france" --top-n 3 -

  # Machine-readable output
  rerankd rerank -q "capital of france" --json docs.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRerank(cmd, global, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "query to rank documents against (required)")
	cmd.Flags().IntVarP(&opts.topN, "top-n", "n", 0, "number of documents to keep; negative lets the service decide (default rerank.top_n)")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "rerank model (default rerank.model)")
	cmd.Flags().StringVar(&opts.truncation, "truncation", "", "truncation strategy, END or NONE (default rerank.truncation)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

// rankedOutput is the JSON output form of one result.
type rankedOutput struct {
	ID             any            `json:"id"`
	PageContent    string         `json:"page_content"`
	RelevanceScore any            `json:"relevance_score"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

func runRerank(cmd *cobra.Command, global *globalOptions, opts *rerankOptions, args []string) error {
	if strings.TrimSpace(opts.query) == "" {
		return errors.New("query cannot be empty")
	}

	cfg, logger, err := global.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zl := logger.Underlying()

	in, err := openInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	defer in.Close()

	docs, err := readDocuments(in)
	if err != nil {
		return err
	}

	client, err := pinecone.NewClient(pinecone.FromSettings(cfg.Pinecone), zl)
	if err != nil {
		return err
	}

	c, err := compressor.New(client, compressorOptions(cmd, cfg.Rerank, opts, zl)...)
	if err != nil {
		return err
	}

	ranked, err := c.CompressDocuments(cmd.Context(), docs, opts.query)
	if err != nil {
		return fmt.Errorf("rerank failed: %w", err)
	}

	if opts.json {
		return writeJSON(cmd.OutOrStdout(), ranked)
	}
	return writeTable(cmd.OutOrStdout(), ranked)
}

// compressorOptions layers flag overrides over the rerank config section.
func compressorOptions(cmd *cobra.Command, settings config.RerankConfig, opts *rerankOptions, logger *zap.Logger) []compressor.Option {
	if opts.model != "" {
		settings.Model = opts.model
	}
	if opts.truncation != "" {
		settings.Truncation = strings.ToUpper(opts.truncation)
	}
	if cmd.Flags().Changed("top-n") && opts.topN != 0 {
		settings.TopN = opts.topN
	}
	return append(compressor.FromSettings(settings), compressor.WithLogger(logger))
}

func writeJSON(w io.Writer, docs []schema.Document) error {
	out := make([]rankedOutput, len(docs))
	for i, d := range docs {
		out[i] = rankedOutput{
			ID:             d.Metadata[idKey],
			PageContent:    d.PageContent,
			RelevanceScore: d.Metadata[compressor.RelevanceScoreKey],
			Metadata:       d.Metadata,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeTable(w io.Writer, docs []schema.Document) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tID\tTEXT")
	for i, d := range docs {
		fmt.Fprintf(tw, "%d\t%.4f\t%v\t%s\n", i+1, d.Metadata[compressor.RelevanceScoreKey], d.Metadata[idKey], preview(d.PageContent))
	}
	return tw.Flush()
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}
	return string(r[:previewLen-3]) + "..."
}
