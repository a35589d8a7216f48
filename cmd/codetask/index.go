// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/codetask/internal/retrieve"
	"github.com/pdiddy/codetask/internal/secrets"
)

var indexCmd = &cobra.Command{
	Use:   "index [text-dir]",
	Short: "Embed full paper text into the retrieval index",
	Long: `Index reads extracted paper text files ([paper-id].txt) from a
directory, splits them into overlapping chunks, and embeds them into a
persistent local vector index. "codetask run" then retrieves methodology
excerpts from the index into its extraction prompts.

Papers already present in the index are skipped; use --force to re-embed.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	textDir := args[0]

	cfg := retrievalConfigFromFlags(cmd)
	if cmd.Flags().Changed("chunk-size") {
		cfg.ChunkSize, _ = cmd.Flags().GetInt("chunk-size")
	}
	if cmd.Flags().Changed("chunk-overlap") {
		cfg.ChunkOverlap, _ = cmd.Flags().GetInt("chunk-overlap")
	}

	apiKey := secretDefault(secrets.OpenAIAPIKey, viper.GetString("llm.api_key"))
	if apiKey == "" {
		return fmt.Errorf("no API key configured: add .secrets/%s or set llm.api_key", secrets.OpenAIAPIKey)
	}

	index, err := retrieve.NewIndex(cfg, retrieve.OpenAIEmbedding(apiKey, cfg.EmbeddingModel))
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(textDir)
	if err != nil {
		return fmt.Errorf("reading text directory %s: %w", textDir, err)
	}

	force, _ := cmd.Flags().GetBool("force")

	var indexed, skipped, failed int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		paperID := strings.TrimSuffix(entry.Name(), ".txt")

		if !force && index.HasPaper(paperID) {
			fmt.Fprintf(os.Stdout, "skipped %s\n", paperID)
			skipped++
			continue
		}

		data, err := os.ReadFile(filepath.Join(textDir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", paperID, err)
			failed++
			continue
		}

		if err := index.IndexPaper(ctx, paperID, string(data)); err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", paperID, err)
			failed++
			continue
		}

		fmt.Fprintf(os.Stdout, "indexed %s\n", paperID)
		indexed++
	}

	fmt.Fprintf(os.Stdout, "\nindexed: %d, skipped: %d, failed: %d\n", indexed, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d paper(s) failed indexing", failed)
	}
	return nil
}

func init() {
	indexCmd.Flags().String("index-dir", "", "directory for the persistent vector index (default: index)")
	indexCmd.Flags().Int("chunk-size", retrieve.DefaultChunkSize, "chunk window size in characters")
	indexCmd.Flags().Int("chunk-overlap", retrieve.DefaultChunkOverlap, "overlap between consecutive chunks")
	indexCmd.Flags().Bool("force", false, "re-embed papers already in the index")

	rootCmd.AddCommand(indexCmd)
}
