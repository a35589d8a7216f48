package types

import "time"

// FilterConfig holds the orchestrator's gating thresholds over the relevance
// filter's score. The score normalization itself lives in the filter and is
// calibrated together with these defaults; tune them as one unit.
type FilterConfig struct {
	// ThresholdLow skips a paper entirely when its score is strictly below
	// this value, saving all three potential LLM calls (default 0.3).
	ThresholdLow float64 `json:"threshold_low" yaml:"threshold_low"`

	// ThresholdHigh auto-accepts a paper when its score is strictly above
	// this value, skipping the binary classification call (default 0.6).
	ThresholdHigh float64 `json:"threshold_high" yaml:"threshold_high"`
}

// LLMConfig holds shared settings for the stages that call the language model.
type LLMConfig struct {
	// Model is the chat model identifier (default "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// Temperature is passed through to the completion API (default 0.2).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// APIKey authenticates against the completion API. Usually supplied via
	// .secrets/openai-api-key rather than config.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the retry budget for rate-limited HTTP calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RequestInterval is the minimum spacing between LLM calls, enforced by
	// a token bucket shared across all stages (default 500ms).
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval"`
}

// RetrievalConfig holds settings for the per-paper vector index used to
// ground detail extraction in full-paper text.
type RetrievalConfig struct {
	// IndexDir is the directory holding the persistent vector index.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// TextDir is the directory of converted paper texts ([paper_id].txt or .md).
	TextDir string `json:"text_dir" yaml:"text_dir"`

	// EmbeddingModel is the embedding model identifier
	// (default "text-embedding-3-small").
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`

	// ChunkSize is the chunk window in characters (default 1000).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// ChunkOverlap is the window overlap in characters (default 200).
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	// TopK is the number of chunks retrieved per query (default 2).
	TopK int `json:"top_k" yaml:"top_k"`

	// MaxContextChunks caps the deduplicated context size (default 6).
	MaxContextChunks int `json:"max_context_chunks" yaml:"max_context_chunks"`
}

// QualityConfig holds the validator's decision thresholds. Retry must stay
// strictly below review: very low quality is redone, moderately low quality
// is kept but flagged.
type QualityConfig struct {
	// RetryThreshold marks results for reprocessing (default 0.3).
	RetryThreshold float64 `json:"retry_threshold" yaml:"retry_threshold"`

	// ReviewThreshold marks results for manual review (default 0.6).
	ReviewThreshold float64 `json:"review_threshold" yaml:"review_threshold"`
}

// CorpusConfig holds settings for loading the paper corpus.
type CorpusConfig struct {
	// MaxPapers limits how many rows are loaded. Zero loads everything.
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// SkipMissingAbstracts drops papers without an abstract instead of
	// falling back to the title.
	SkipMissingAbstracts bool `json:"skip_missing_abstracts" yaml:"skip_missing_abstracts"`
}

// ResultsConfig holds settings for the results store and reports.
type ResultsConfig struct {
	// Dir is the base directory for the SQLite store and exports
	// (default "results").
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Filter    FilterConfig    `json:"filter" yaml:"filter"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`
	Quality   QualityConfig   `json:"quality" yaml:"quality"`
	Corpus    CorpusConfig    `json:"corpus" yaml:"corpus"`
	Results   ResultsConfig   `json:"results" yaml:"results"`
}
