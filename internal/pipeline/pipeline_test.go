// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/pdiddy/codetask/internal/validate"
	"github.com/pdiddy/codetask/pkg/types"
)

// Papers engineered to land in each filter band.
var (
	highScorePaper = types.Paper{
		PaperID:  "high",
		Title:    "Debugging Study",
		Abstract: "We conducted a study where 20 developers used VS Code to debug Python applications.",
	}
	lowScorePaper = types.Paper{
		PaperID:  "low",
		Title:    "A Systematic Review of Gesture Interfaces",
		Abstract: "This systematic review surveys literature on gesture interaction.",
	}
	borderlinePaper = types.Paper{
		PaperID:  "borderline",
		Title:    "Reading Habits",
		Abstract: "Reading habits of children in rural classrooms.",
	}
)

// mockExtraction scripts the cascade stages and records which ran.
type mockExtraction struct {
	binaryResult  types.TaskExtractionResult
	detailsResult types.TaskExtractionResult
	categories    *types.TaskCategories
	categorizeErr error

	binaryCalls     int
	detailsCalls    int
	categorizeCalls int
	lastContext     string
}

func (m *mockExtraction) ClassifyBinary(_ context.Context, paper types.Paper) types.TaskExtractionResult {
	m.binaryCalls++
	r := m.binaryResult
	r.PaperID = paper.PaperID
	return r
}

func (m *mockExtraction) ExtractDetails(_ context.Context, paper types.Paper, retrievedContext string) types.TaskExtractionResult {
	m.detailsCalls++
	m.lastContext = retrievedContext
	r := m.detailsResult
	r.PaperID = paper.PaperID
	return r
}

func (m *mockExtraction) Categorize(context.Context, string) (*types.TaskCategories, error) {
	m.categorizeCalls++
	return m.categories, m.categorizeErr
}

type staticRetriever struct {
	context string
	err     error
}

func (s staticRetriever) Context(context.Context, string) (string, error) {
	return s.context, s.err
}

func positiveDetails() types.TaskExtractionResult {
	return types.TaskExtractionResult{
		HasCodingTask:      true,
		Confidence:         0.8,
		RawTaskDescription: "Task Description: debug a Python script",
		ExtractionReason:   "debug a Python script",
	}
}

func newTestPipeline(m *mockExtraction, opts ...Option) *Pipeline {
	return New(m, validate.New(types.QualityConfig{}), types.FilterConfig{}, opts...)
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProcessPaperLowScoreSkipsModel(t *testing.T) {
	m := &mockExtraction{}
	p := newTestPipeline(m)

	result := p.ProcessPaper(context.Background(), lowScorePaper)

	if result.Extraction != nil || result.Categories != nil || result.Quality != nil {
		t.Errorf("skipped paper carries cascade output: %+v", result)
	}
	if result.FilterResult.IsRelevant {
		t.Error("IsRelevant = true for a filtered-out paper")
	}
	if calls := m.binaryCalls + m.detailsCalls + m.categorizeCalls; calls != 0 {
		t.Errorf("model calls = %d, want 0", calls)
	}

	stats := p.Stats()
	if stats.FilteredOut != 1 {
		t.Errorf("FilteredOut = %d, want 1", stats.FilteredOut)
	}
	if stats.APICallsSaved != 3 {
		t.Errorf("APICallsSaved = %d, want 3", stats.APICallsSaved)
	}
}

func TestProcessPaperHighScoreSkipsBinary(t *testing.T) {
	m := &mockExtraction{
		detailsResult: positiveDetails(),
		categories:    &types.TaskCategories{TaskSummary: "debugging"},
	}
	p := newTestPipeline(m)

	result := p.ProcessPaper(context.Background(), highScorePaper)

	if m.binaryCalls != 0 {
		t.Errorf("binaryCalls = %d, want 0", m.binaryCalls)
	}
	if m.detailsCalls != 1 {
		t.Errorf("detailsCalls = %d, want 1", m.detailsCalls)
	}
	if m.categorizeCalls != 1 {
		t.Errorf("categorizeCalls = %d, want 1", m.categorizeCalls)
	}

	if result.Extraction == nil || !result.Extraction.HasCodingTask {
		t.Fatalf("Extraction = %+v, want positive", result.Extraction)
	}
	if result.Categories == nil {
		t.Error("Categories = nil, want populated")
	}
	if result.Quality == nil {
		t.Fatal("Quality = nil, want scored")
	}
	if !closeTo(result.Quality.Confidence, 0.8) {
		t.Errorf("Quality.Confidence = %v, want 0.8", result.Quality.Confidence)
	}

	stats := p.Stats()
	if stats.AutomaticAccepts != 1 {
		t.Errorf("AutomaticAccepts = %d, want 1", stats.AutomaticAccepts)
	}
	if stats.APICallsSaved != 1 {
		t.Errorf("APICallsSaved = %d, want 1", stats.APICallsSaved)
	}
	if stats.SuccessfulExtractions != 1 {
		t.Errorf("SuccessfulExtractions = %d, want 1", stats.SuccessfulExtractions)
	}
}

func TestProcessPaperBorderlineBinaryNo(t *testing.T) {
	m := &mockExtraction{
		binaryResult: types.TaskExtractionResult{HasCodingTask: false, Confidence: 0.9, ExtractionReason: "survey research"},
	}
	p := newTestPipeline(m)

	result := p.ProcessPaper(context.Background(), borderlinePaper)

	if m.binaryCalls != 1 {
		t.Errorf("binaryCalls = %d, want 1", m.binaryCalls)
	}
	if m.detailsCalls != 0 || m.categorizeCalls != 0 {
		t.Errorf("details/categorize calls = %d/%d, want 0/0", m.detailsCalls, m.categorizeCalls)
	}

	if result.Extraction == nil {
		t.Fatal("Extraction = nil, want the negative verdict")
	}
	if result.Extraction.HasCodingTask {
		t.Error("HasCodingTask = true, want false")
	}
	if result.Categories != nil || result.Quality != nil {
		t.Errorf("NO verdict carries categories/quality: %+v / %+v", result.Categories, result.Quality)
	}

	if p.Stats().BinaryClassifications != 1 {
		t.Errorf("BinaryClassifications = %d, want 1", p.Stats().BinaryClassifications)
	}
	if p.Stats().APICallsSaved != 0 {
		t.Errorf("APICallsSaved = %d, want 0", p.Stats().APICallsSaved)
	}
}

func TestProcessPaperBorderlineBinaryYesRunsFullCascade(t *testing.T) {
	m := &mockExtraction{
		binaryResult:  types.TaskExtractionResult{HasCodingTask: true, Confidence: 0.7, RawTaskDescription: "Decision: YES"},
		detailsResult: positiveDetails(),
		categories:    &types.TaskCategories{TaskSummary: "debugging"},
	}
	p := newTestPipeline(m)

	result := p.ProcessPaper(context.Background(), borderlinePaper)

	if m.binaryCalls != 1 || m.detailsCalls != 1 || m.categorizeCalls != 1 {
		t.Errorf("calls = %d/%d/%d, want 1/1/1", m.binaryCalls, m.detailsCalls, m.categorizeCalls)
	}
	if result.Categories == nil {
		t.Error("Categories = nil, want populated")
	}
	if p.Stats().SuccessfulExtractions != 1 {
		t.Errorf("SuccessfulExtractions = %d, want 1", p.Stats().SuccessfulExtractions)
	}
}

// A score exactly equal to a threshold is neither filtered out (low) nor
// auto-accepted (high); both boundaries route to binary classification.
// A paper without any keyword hits normalizes to exactly (0+0.5)/1.5.
func TestProcessPaperScoreAtThresholdTakesBinaryPath(t *testing.T) {
	boundary := (0.0 + 0.5) / 1.5

	tests := []struct {
		name string
		cfg  types.FilterConfig
	}{
		{"equal to low threshold", types.FilterConfig{ThresholdLow: boundary}},
		{"equal to high threshold", types.FilterConfig{ThresholdHigh: boundary}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockExtraction{
				binaryResult: types.TaskExtractionResult{HasCodingTask: false, ExtractionReason: "no coding task"},
			}
			p := New(m, validate.New(types.QualityConfig{}), tt.cfg)

			result := p.ProcessPaper(context.Background(), borderlinePaper)

			if !closeTo(result.FilterResult.RelevanceScore, boundary) {
				t.Fatalf("RelevanceScore = %v, want exactly %v", result.FilterResult.RelevanceScore, boundary)
			}
			if m.binaryCalls != 1 {
				t.Errorf("binaryCalls = %d, want 1 (boundary score must classify)", m.binaryCalls)
			}
			stats := p.Stats()
			if stats.FilteredOut != 0 {
				t.Errorf("FilteredOut = %d, want 0", stats.FilteredOut)
			}
			if stats.AutomaticAccepts != 0 {
				t.Errorf("AutomaticAccepts = %d, want 0", stats.AutomaticAccepts)
			}
			if stats.BinaryClassifications != 1 {
				t.Errorf("BinaryClassifications = %d, want 1", stats.BinaryClassifications)
			}
		})
	}
}

func TestProcessPaperCategorizationFailureKeepsExtraction(t *testing.T) {
	m := &mockExtraction{
		detailsResult: positiveDetails(),
		categorizeErr: fmt.Errorf("malformed JSON"),
	}
	p := newTestPipeline(m)

	result := p.ProcessPaper(context.Background(), highScorePaper)

	if !result.Success() {
		t.Errorf("Success() = false: %+v", result)
	}
	if result.Extraction == nil || !result.Extraction.HasCodingTask {
		t.Fatalf("Extraction = %+v, want positive", result.Extraction)
	}
	if result.Categories != nil {
		t.Errorf("Categories = %+v, want nil after failure", result.Categories)
	}
	if result.Quality == nil {
		t.Fatal("Quality = nil, want scored")
	}
	if result.Quality.Completeness != 0 {
		t.Errorf("Completeness = %v, want 0 without categories", result.Quality.Completeness)
	}
	if p.Stats().SuccessfulExtractions != 1 {
		t.Errorf("SuccessfulExtractions = %d, want 1", p.Stats().SuccessfulExtractions)
	}
}

func TestProcessPaperNegativeDetailsSkipCategorization(t *testing.T) {
	m := &mockExtraction{
		detailsResult: types.TaskExtractionResult{HasCodingTask: false, ExtractionReason: "task extraction failed: timeout"},
	}
	p := newTestPipeline(m)

	result := p.ProcessPaper(context.Background(), highScorePaper)

	if m.categorizeCalls != 0 {
		t.Errorf("categorizeCalls = %d, want 0", m.categorizeCalls)
	}
	if result.Categories != nil {
		t.Errorf("Categories = %+v, want nil", result.Categories)
	}
	if p.Stats().SuccessfulExtractions != 0 {
		t.Errorf("SuccessfulExtractions = %d, want 0", p.Stats().SuccessfulExtractions)
	}
	if !result.Success() {
		t.Error("Success() = false, want true for a clean negative result")
	}
}

func TestProcessPaperRetrievedContextReachesExtraction(t *testing.T) {
	m := &mockExtraction{detailsResult: positiveDetails(), categories: &types.TaskCategories{}}
	excerpt := "Participants completed three debugging rounds."
	p := newTestPipeline(m, WithRetriever(staticRetriever{context: excerpt}))

	p.ProcessPaper(context.Background(), highScorePaper)

	if m.lastContext != excerpt {
		t.Errorf("retrieved context = %q, want %q", m.lastContext, excerpt)
	}
}

func TestProcessPaperRetrieverErrorIsProcessingError(t *testing.T) {
	m := &mockExtraction{}
	p := newTestPipeline(m, WithRetriever(staticRetriever{err: fmt.Errorf("index corrupted")}))

	result := p.ProcessPaper(context.Background(), highScorePaper)

	if result.Success() {
		t.Error("Success() = true, want false")
	}
	if !strings.Contains(result.ErrorMessage, "index corrupted") {
		t.Errorf("ErrorMessage = %q, want the retriever error", result.ErrorMessage)
	}
	if result.FilterResult.Reason != "processing error" {
		t.Errorf("Reason = %q, want %q", result.FilterResult.Reason, "processing error")
	}
	if result.FilterResult.IsRelevant || result.FilterResult.RelevanceScore != 0 {
		t.Errorf("error verdict = %+v, want not relevant with zero score", result.FilterResult)
	}
	if p.Stats().ProcessingErrors != 1 {
		t.Errorf("ProcessingErrors = %d, want 1", p.Stats().ProcessingErrors)
	}
}

func TestProcessPaperCancelledContext(t *testing.T) {
	m := &mockExtraction{}
	p := newTestPipeline(m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := p.ProcessPaper(ctx, highScorePaper)

	if result.Success() {
		t.Error("Success() = true, want false")
	}
	if result.FilterResult.Reason != "processing error" {
		t.Errorf("Reason = %q, want %q", result.FilterResult.Reason, "processing error")
	}
	if m.detailsCalls != 0 {
		t.Errorf("detailsCalls = %d, want 0", m.detailsCalls)
	}
}

func TestProcessBatchPreservesOrderAndCounts(t *testing.T) {
	m := &mockExtraction{
		binaryResult:  types.TaskExtractionResult{HasCodingTask: false},
		detailsResult: positiveDetails(),
		categories:    &types.TaskCategories{},
	}
	p := newTestPipeline(m)

	papers := []types.Paper{lowScorePaper, highScorePaper, borderlinePaper}
	results := p.ProcessBatch(context.Background(), papers)

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, r := range results {
		if r.Paper.PaperID != papers[i].PaperID {
			t.Errorf("results[%d] = %s, want %s", i, r.Paper.PaperID, papers[i].PaperID)
		}
	}

	stats := p.Stats()
	if stats.TotalPapers != 3 {
		t.Errorf("TotalPapers = %d, want 3", stats.TotalPapers)
	}
	if stats.FilteredOut != 1 || stats.AutomaticAccepts != 1 || stats.BinaryClassifications != 1 {
		t.Errorf("route counts = %d/%d/%d, want 1/1/1",
			stats.FilteredOut, stats.AutomaticAccepts, stats.BinaryClassifications)
	}
	// 3 saved by the skip plus 1 saved by the auto-accept, out of 9 possible.
	if stats.APICallsSaved != 4 {
		t.Errorf("APICallsSaved = %d, want 4", stats.APICallsSaved)
	}
	if !closeTo(stats.APIEfficiency(), 4.0/9.0) {
		t.Errorf("APIEfficiency = %v, want %v", stats.APIEfficiency(), 4.0/9.0)
	}
}

func TestProcessBatchProgressEveryTenth(t *testing.T) {
	m := &mockExtraction{}
	var buf bytes.Buffer
	p := newTestPipeline(m, WithProgress(&buf))

	papers := make([]types.Paper, 25)
	for i := range papers {
		paper := lowScorePaper
		paper.PaperID = fmt.Sprintf("p%d", i)
		papers[i] = paper
	}
	p.ProcessBatch(context.Background(), papers)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("progress lines = %d, want 2: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "10/25") {
		t.Errorf("first line = %q, want 10/25", lines[0])
	}
	if !strings.Contains(lines[1], "20/25") {
		t.Errorf("second line = %q, want 20/25", lines[1])
	}
}

func TestWriteSummary(t *testing.T) {
	m := &mockExtraction{detailsResult: positiveDetails(), categories: &types.TaskCategories{TaskSummary: "debugging"}}
	p := newTestPipeline(m)

	results := p.ProcessBatch(context.Background(), []types.Paper{highScorePaper, lowScorePaper})

	var buf bytes.Buffer
	p.WriteSummary(&buf, results)

	out := buf.String()
	for _, want := range []string{
		"total papers:           2",
		"filtered out:           1",
		"successful extractions: 1",
		"avg confidence",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestStatsZeroTotals(t *testing.T) {
	var s Stats
	if s.FilterRate() != 0 || s.SuccessRate() != 0 || s.APIEfficiency() != 0 {
		t.Errorf("zero-total rates = %v/%v/%v, want all 0",
			s.FilterRate(), s.SuccessRate(), s.APIEfficiency())
	}
}
