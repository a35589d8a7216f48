// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates the extraction stages: keyword filter,
// binary classification, detail extraction, categorization, and quality
// validation. The filter score routes each paper down the cheapest path
// that can settle it.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/codetask/internal/filter"
	"github.com/pdiddy/codetask/internal/validate"
	"github.com/pdiddy/codetask/pkg/types"
)

const (
	// DefaultThresholdLow is the filter score below which a paper skips the
	// cascade entirely.
	DefaultThresholdLow = 0.3
	// DefaultThresholdHigh is the filter score above which a paper skips
	// binary classification and goes straight to detail extraction.
	DefaultThresholdHigh = 0.6

	// llmCallsPerPaper is the ceiling of model calls a paper can consume,
	// used to express saved calls as an efficiency fraction.
	llmCallsPerPaper = 3
)

// Extraction is the cascade capability the orchestrator drives; tests
// supply a mock instead of a live model.
type Extraction interface {
	ClassifyBinary(ctx context.Context, paper types.Paper) types.TaskExtractionResult
	ExtractDetails(ctx context.Context, paper types.Paper, retrievedContext string) types.TaskExtractionResult
	Categorize(ctx context.Context, taskDetails string) (*types.TaskCategories, error)
}

// ContextProvider supplies retrieved full-text excerpts for a paper. A nil
// provider or an unindexed paper means prompts run abstract-only.
type ContextProvider interface {
	Context(ctx context.Context, paperID string) (string, error)
}

// Stats are the raw counters accumulated while processing a batch.
type Stats struct {
	TotalPapers           int `json:"total_papers" yaml:"total_papers"`
	FilteredOut           int `json:"filtered_out" yaml:"filtered_out"`
	BinaryClassifications int `json:"binary_classifications" yaml:"binary_classifications"`
	AutomaticAccepts      int `json:"automatic_accepts" yaml:"automatic_accepts"`
	SuccessfulExtractions int `json:"successful_extractions" yaml:"successful_extractions"`
	APICallsSaved         int `json:"api_calls_saved" yaml:"api_calls_saved"`
	ProcessingErrors      int `json:"processing_errors" yaml:"processing_errors"`
}

// FilterRate is the fraction of papers the keyword filter rejected outright.
func (s Stats) FilterRate() float64 {
	if s.TotalPapers == 0 {
		return 0
	}
	return float64(s.FilteredOut) / float64(s.TotalPapers)
}

// SuccessRate is the fraction of papers that produced a categorized task.
func (s Stats) SuccessRate() float64 {
	if s.TotalPapers == 0 {
		return 0
	}
	return float64(s.SuccessfulExtractions) / float64(s.TotalPapers)
}

// APIEfficiency is the fraction of the maximum possible model calls that
// the filter routing avoided.
func (s Stats) APIEfficiency() float64 {
	if s.TotalPapers == 0 {
		return 0
	}
	return float64(s.APICallsSaved) / float64(s.TotalPapers*llmCallsPerPaper)
}

// Pipeline runs papers through the staged extraction cascade.
type Pipeline struct {
	filter    *filter.Filter
	extractor Extraction
	retriever ContextProvider
	validator *validate.Validator

	thresholdLow  float64
	thresholdHigh float64

	progress io.Writer
	stats    Stats
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRetriever attaches a full-text context provider.
func WithRetriever(r ContextProvider) Option {
	return func(p *Pipeline) { p.retriever = r }
}

// WithProgress directs per-paper progress lines to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) { p.progress = w }
}

// New builds a Pipeline. Zero thresholds use the defaults (0.3 and 0.6).
func New(extractor Extraction, validator *validate.Validator, cfg types.FilterConfig, opts ...Option) *Pipeline {
	p := &Pipeline{
		filter:        filter.New(),
		extractor:     extractor,
		validator:     validator,
		thresholdLow:  cfg.ThresholdLow,
		thresholdHigh: cfg.ThresholdHigh,
		progress:      io.Discard,
	}
	if p.thresholdLow <= 0 {
		p.thresholdLow = DefaultThresholdLow
	}
	if p.thresholdHigh <= 0 {
		p.thresholdHigh = DefaultThresholdHigh
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stats returns the counters accumulated so far.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// ProcessPaper runs one paper through the cascade. The filter score picks
// the route: strictly below the low threshold skips all model calls,
// strictly above the high threshold skips binary classification, and the
// band between runs the full cascade. A score equal to either threshold
// takes the binary path.
func (p *Pipeline) ProcessPaper(ctx context.Context, paper types.Paper) types.PipelineResult {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return p.errorResult(paper, err, start)
	}

	filterResult := p.filter.Score(paper)

	var extraction types.TaskExtractionResult
	switch {
	case filterResult.RelevanceScore < p.thresholdLow:
		p.stats.FilteredOut++
		p.stats.APICallsSaved += llmCallsPerPaper
		return types.PipelineResult{
			Paper:          paper,
			FilterResult:   filterResult,
			ProcessingTime: time.Since(start),
		}

	case filterResult.RelevanceScore > p.thresholdHigh:
		p.stats.AutomaticAccepts++
		p.stats.APICallsSaved++
		retrieved, err := p.retrievedContext(ctx, paper.PaperID)
		if err != nil {
			return p.errorResult(paper, err, start)
		}
		extraction = p.extractor.ExtractDetails(ctx, paper, retrieved)

	default:
		p.stats.BinaryClassifications++
		binary := p.extractor.ClassifyBinary(ctx, paper)
		if !binary.HasCodingTask {
			return types.PipelineResult{
				Paper:          paper,
				FilterResult:   filterResult,
				Extraction:     &binary,
				ProcessingTime: time.Since(start),
			}
		}
		retrieved, err := p.retrievedContext(ctx, paper.PaperID)
		if err != nil {
			return p.errorResult(paper, err, start)
		}
		extraction = p.extractor.ExtractDetails(ctx, paper, retrieved)
	}

	var categories *types.TaskCategories
	if extraction.HasCodingTask && extraction.RawTaskDescription != "" {
		p.stats.SuccessfulExtractions++
		// A categorization failure is not fatal: the extraction survives
		// and the missing categories show up as a low quality score.
		categories, _ = p.extractor.Categorize(ctx, extraction.RawTaskDescription)
	}

	result := types.PipelineResult{
		Paper:          paper,
		FilterResult:   filterResult,
		Extraction:     &extraction,
		Categories:     categories,
		ProcessingTime: time.Since(start),
	}
	p.validator.Validate(&result)
	return result
}

func (p *Pipeline) retrievedContext(ctx context.Context, paperID string) (string, error) {
	if p.retriever == nil {
		return "", nil
	}
	return p.retriever.Context(ctx, paperID)
}

func (p *Pipeline) errorResult(paper types.Paper, err error, start time.Time) types.PipelineResult {
	p.stats.ProcessingErrors++
	return types.PipelineResult{
		Paper: paper,
		FilterResult: types.FilterResult{
			PaperID:        paper.PaperID,
			IsRelevant:     false,
			RelevanceScore: 0.0,
			Reason:         "processing error",
		},
		ErrorMessage:   err.Error(),
		ProcessingTime: time.Since(start),
	}
}

// ProcessBatch runs papers in order and returns one result per paper, in
// the same order. A progress line is written every tenth paper.
func (p *Pipeline) ProcessBatch(ctx context.Context, papers []types.Paper) []types.PipelineResult {
	p.stats.TotalPapers += len(papers)

	results := make([]types.PipelineResult, 0, len(papers))
	for i, paper := range papers {
		if (i+1)%10 == 0 {
			fmt.Fprintf(p.progress, "processing paper %d/%d (%.1f%%)\n",
				i+1, len(papers), 100*float64(i+1)/float64(len(papers)))
		}
		results = append(results, p.ProcessPaper(ctx, paper))
	}
	return results
}

// WriteSummary writes the batch statistics and quality summary in a
// human-readable block.
func (p *Pipeline) WriteSummary(w io.Writer, results []types.PipelineResult) {
	stats := p.stats
	fmt.Fprintf(w, "pipeline summary\n")
	fmt.Fprintf(w, "  total papers:           %d\n", stats.TotalPapers)
	fmt.Fprintf(w, "  filtered out:           %d (%.1f%%)\n", stats.FilteredOut, 100*stats.FilterRate())
	fmt.Fprintf(w, "  binary classifications: %d\n", stats.BinaryClassifications)
	fmt.Fprintf(w, "  automatic accepts:      %d\n", stats.AutomaticAccepts)
	fmt.Fprintf(w, "  successful extractions: %d (%.1f%%)\n", stats.SuccessfulExtractions, 100*stats.SuccessRate())
	fmt.Fprintf(w, "  processing errors:      %d\n", stats.ProcessingErrors)
	fmt.Fprintf(w, "  api calls saved:        %d (%.1f%% of maximum)\n", stats.APICallsSaved, 100*stats.APIEfficiency())

	summary := validate.Summarize(results)
	if summary.TotalResults == 0 {
		return
	}
	fmt.Fprintf(w, "quality\n")
	fmt.Fprintf(w, "  avg confidence:   %.2f\n", summary.AvgConfidence)
	fmt.Fprintf(w, "  avg completeness: %.2f\n", summary.AvgCompleteness)
	fmt.Fprintf(w, "  avg consistency:  %.2f\n", summary.AvgConsistency)
	fmt.Fprintf(w, "  avg overall:      %.2f\n", summary.AvgOverall)
	fmt.Fprintf(w, "  high quality (>=0.7):     %d\n", summary.HighQuality)
	fmt.Fprintf(w, "  medium quality (0.4-0.7): %d\n", summary.MediumQuality)
	fmt.Fprintf(w, "  low quality (<0.4):       %d\n", summary.LowQuality)
}
