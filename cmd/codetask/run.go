// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/codetask/internal/extract"
	"github.com/pdiddy/codetask/internal/papers"
	"github.com/pdiddy/codetask/internal/pipeline"
	"github.com/pdiddy/codetask/internal/report"
	"github.com/pdiddy/codetask/internal/results"
	"github.com/pdiddy/codetask/internal/retrieve"
	"github.com/pdiddy/codetask/internal/secrets"
	"github.com/pdiddy/codetask/internal/validate"
	"github.com/pdiddy/codetask/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [papers.csv]",
	Short: "Run the full extraction pipeline over a paper corpus",
	Long: `Run loads a paper corpus from CSV, routes each paper through the
keyword filter and the LLM cascade, scores extraction quality, and writes
results as CSV reports, a SQLite database, and export files.

Papers below the low filter threshold never reach the model; papers above
the high threshold skip binary classification. When an index directory
from a previous "codetask index" run exists, full-text excerpts are
retrieved into the extraction prompts.`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	corpus, loadSummary, err := papers.LoadCSV(args[0], corpusOptionsFromFlags(cmd))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "loaded %d papers (%d missing abstracts, %d skipped)\n",
		loadSummary.Loaded, loadSummary.MissingAbstracts, loadSummary.Skipped)

	llmCfg, err := llmConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	backend, err := extract.NewOpenAIBackend(llmCfg)
	if err != nil {
		return err
	}
	extractor := extract.New(backend, backend, llmCfg.RequestInterval)

	validator := validate.New(types.QualityConfig{
		RetryThreshold:  viper.GetFloat64("quality.retry_threshold"),
		ReviewThreshold: viper.GetFloat64("quality.review_threshold"),
	})

	filterCfg := types.FilterConfig{
		ThresholdLow:  flagOrConfigFloat(cmd, "threshold-low", "filter.threshold_low"),
		ThresholdHigh: flagOrConfigFloat(cmd, "threshold-high", "filter.threshold_high"),
	}

	opts := []pipeline.Option{pipeline.WithProgress(os.Stderr)}
	if builder, err := contextBuilderFromFlags(cmd, llmCfg.APIKey); err != nil {
		return err
	} else if builder != nil {
		opts = append(opts, pipeline.WithRetriever(builder))
	}

	p := pipeline.New(extractor, validator, filterCfg, opts...)
	batch := p.ProcessBatch(ctx, corpus)
	p.WriteSummary(os.Stdout, batch)

	return writeOutputs(ctx, cmd, batch)
}

// contextBuilderFromFlags opens the retrieval index when one exists.
// Retrieval is optional: without an index the prompts run abstract-only.
func contextBuilderFromFlags(cmd *cobra.Command, apiKey string) (pipeline.ContextProvider, error) {
	cfg := retrievalConfigFromFlags(cmd)
	if _, err := os.Stat(cfg.IndexDir); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "no retrieval index at %s, extracting from abstracts only\n", cfg.IndexDir)
		return nil, nil
	}

	index, err := retrieve.NewIndex(cfg, retrieve.OpenAIEmbedding(apiKey, cfg.EmbeddingModel))
	if err != nil {
		return nil, err
	}
	return retrieve.NewBuilder(index, cfg), nil
}

func writeOutputs(ctx context.Context, cmd *cobra.Command, batch []types.PipelineResult) error {
	resultsDir, _ := cmd.Flags().GetString("results-dir")
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}

	resultsPath := filepath.Join(resultsDir, "results.csv")
	f, err := os.Create(resultsPath)
	if err != nil {
		return err
	}
	if err := report.WriteResults(f, batch); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	tasksPath := filepath.Join(resultsDir, "tasks.csv")
	tf, err := os.Create(tasksPath)
	if err != nil {
		return err
	}
	if err := report.WriteTasks(tf, batch); err != nil {
		tf.Close()
		return err
	}
	if err := tf.Close(); err != nil {
		return err
	}

	store, err := results.NewStore(types.ResultsConfig{Dir: resultsDir})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(ctx, batch); err != nil {
		return err
	}
	if err := store.ExportYAML(ctx, results.QueryOptions{}); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "results written to %s and %s\n", resultsPath, tasksPath)
	return nil
}

// --- shared config helpers ---

func corpusOptionsFromFlags(cmd *cobra.Command) papers.LoadOptions {
	limit, _ := cmd.Flags().GetInt("max-papers")
	skip, _ := cmd.Flags().GetBool("skip-missing-abstracts")
	return papers.LoadOptions{Limit: limit, SkipMissingAbstracts: skip}
}

func llmConfigFromFlags(cmd *cobra.Command) (types.LLMConfig, error) {
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("llm.model")
	}
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	if !cmd.Flags().Changed("temperature") && viper.IsSet("llm.temperature") {
		temperature = viper.GetFloat64("llm.temperature")
	}

	interval, _ := cmd.Flags().GetDuration("request-interval")
	if !cmd.Flags().Changed("request-interval") && viper.IsSet("llm.request_interval") {
		interval = viper.GetDuration("llm.request_interval")
	}

	apiKey := secretDefault(secrets.OpenAIAPIKey, viper.GetString("llm.api_key"))

	return types.LLMConfig{
		Model:           model,
		Temperature:     temperature,
		APIKey:          apiKey,
		MaxRetries:      viper.GetInt("llm.max_retries"),
		RequestInterval: interval,
	}, nil
}

func retrievalConfigFromFlags(cmd *cobra.Command) types.RetrievalConfig {
	indexDir, _ := cmd.Flags().GetString("index-dir")
	if indexDir == "" {
		indexDir = viper.GetString("retrieval.index_dir")
	}
	if indexDir == "" {
		indexDir = "index"
	}
	return types.RetrievalConfig{
		IndexDir:         indexDir,
		EmbeddingModel:   viper.GetString("retrieval.embedding_model"),
		ChunkSize:        viper.GetInt("retrieval.chunk_size"),
		ChunkOverlap:     viper.GetInt("retrieval.chunk_overlap"),
		TopK:             viper.GetInt("retrieval.top_k"),
		MaxContextChunks: viper.GetInt("retrieval.max_context_chunks"),
	}
}

func flagOrConfigFloat(cmd *cobra.Command, flag, configKey string) float64 {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetFloat64(flag)
		return v
	}
	return viper.GetFloat64(configKey)
}

func init() {
	runCmd.Flags().String("model", "", "LLM model identifier (default: gpt-4o-mini)")
	runCmd.Flags().Float64("temperature", 0.2, "LLM sampling temperature")
	runCmd.Flags().Duration("request-interval", 500*time.Millisecond, "minimum spacing between LLM calls")
	runCmd.Flags().Float64("threshold-low", 0, "filter score below which papers are skipped (default 0.3)")
	runCmd.Flags().Float64("threshold-high", 0, "filter score above which binary classification is skipped (default 0.6)")
	runCmd.Flags().Int("max-papers", 0, "process at most this many papers (0 = all)")
	runCmd.Flags().Bool("skip-missing-abstracts", false, "drop papers without an abstract instead of classifying from the title")
	runCmd.Flags().String("index-dir", "", "retrieval index directory from a previous \"codetask index\" run")
	runCmd.Flags().String("results-dir", "results", "output directory for CSV reports and the results database")

	rootCmd.AddCommand(runCmd)
}
