package main

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/rerankd/internal/vectorstore"
	"github.com/spf13/cobra"
)

func newIndexCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index [file]",
		Short: "Add documents to the configured vector store",
		Long: `Embed documents and add them to the Qdrant collection used by
POST /api/v1/search. Requires vectorstore.url.

Input uses the same formats as rerank.

Examples:
  rerankd index -c rerankd.yaml corpus.json
  cat notes.txt | VECTORSTORE_URL=http://localhost:6333 rerankd index -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if !cfg.VectorStore.Enabled() {
				return errors.New("vectorstore.url is not configured")
			}

			in, err := openInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			defer in.Close()

			docs, err := readDocuments(in)
			if err != nil {
				return err
			}

			vs, err := vectorstore.FromSettings(cfg.VectorStore, logger.Underlying())
			if err != nil {
				return fmt.Errorf("failed to create vector store: %w", err)
			}

			ids, err := vs.AddDocuments(cmd.Context(), docs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "[rerankd] indexed %d document(s) into %s\n", len(ids), cfg.VectorStore.Collection)
			return nil
		},
	}
}
