// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract runs the three-stage LLM cascade that turns a candidate
// paper into an extraction verdict: binary classification, detail
// extraction, and structured categorization. Each stage is one model
// round-trip; the orchestrator decides which stages a paper visits.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/codetask/pkg/types"
)

// Completer abstracts the text-completion capability so tests can supply a
// mock.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Categorizer abstracts the structured-completion capability: the response
// is parsed into the TaskCategories schema by the implementation.
type Categorizer interface {
	CompleteCategories(ctx context.Context, system, user string) (*types.TaskCategories, error)
}

const defaultRequestInterval = 500 * time.Millisecond

// Extractor runs the cascade stages against injected model capabilities.
// A shared token bucket paces every call to respect provider rate limits;
// the stages themselves are otherwise stateless.
type Extractor struct {
	completer   Completer
	categorizer Categorizer
	limiter     *rate.Limiter
}

// New builds an Extractor. requestInterval is the minimum spacing between
// model calls; zero or negative uses the 500ms default.
func New(completer Completer, categorizer Categorizer, requestInterval time.Duration) *Extractor {
	if requestInterval <= 0 {
		requestInterval = defaultRequestInterval
	}
	return &Extractor{
		completer:   completer,
		categorizer: categorizer,
		limiter:     rate.NewLimiter(rate.Every(requestInterval), 1),
	}
}

// ClassifyBinary asks the model for a strict YES/NO verdict on whether the
// paper describes a programming user study. Call and parse failures both
// resolve to a NO verdict rather than an error: ambiguity must never count
// as a positive.
func (e *Extractor) ClassifyBinary(ctx context.Context, paper types.Paper) types.TaskExtractionResult {
	if err := e.limiter.Wait(ctx); err != nil {
		return classifyFailure(paper.PaperID, err)
	}

	user, err := renderTemplate(binaryUserTmpl, newPromptData(paper, ""))
	if err != nil {
		return classifyFailure(paper.PaperID, err)
	}

	response, err := e.completer.Complete(ctx, binarySystemPrompt, user)
	if err != nil {
		return classifyFailure(paper.PaperID, err)
	}

	v := parseBinaryResponse(response)
	result := types.TaskExtractionResult{
		PaperID:          paper.PaperID,
		HasCodingTask:    v.hasCodingTask,
		Confidence:       v.confidence,
		ExtractionReason: v.reason,
	}
	if v.hasCodingTask {
		result.RawTaskDescription = response
	}
	return result
}

func classifyFailure(paperID string, err error) types.TaskExtractionResult {
	return types.TaskExtractionResult{
		PaperID:          paperID,
		HasCodingTask:    false,
		Confidence:       0.0,
		ExtractionReason: fmt.Sprintf("classification failed: %v", err),
	}
}

// ExtractDetails asks the model for the structured free-text task block.
// It is only invoked for papers already judged positive, so HasCodingTask
// is true by contract; only a failed call produces a negative result.
// retrievedContext, when non-empty, is full-paper excerpts appended to the
// prompt.
func (e *Extractor) ExtractDetails(ctx context.Context, paper types.Paper, retrievedContext string) types.TaskExtractionResult {
	fail := func(err error) types.TaskExtractionResult {
		return types.TaskExtractionResult{
			PaperID:          paper.PaperID,
			HasCodingTask:    false,
			Confidence:       0.0,
			ExtractionReason: fmt.Sprintf("task extraction failed: %v", err),
		}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return fail(err)
	}

	user, err := renderTemplate(detailsUserTmpl, newPromptData(paper, retrievedContext))
	if err != nil {
		return fail(err)
	}

	response, err := e.completer.Complete(ctx, detailsSystemPrompt, user)
	if err != nil {
		return fail(err)
	}

	fields := parseKeyValueBlock(response)
	reason := fields["task_description"]
	if reason == "" {
		reason = "task extraction completed"
	}

	return types.TaskExtractionResult{
		PaperID:            paper.PaperID,
		HasCodingTask:      true,
		Confidence:         parseConfidenceField(fields),
		RawTaskDescription: response,
		ExtractionReason:   reason,
	}
}

// Categorize turns extracted task details into the structured category
// schema. A nil result with an error is non-fatal upstream: the paper keeps
// its positive extraction and surfaces in the low-quality bucket instead.
func (e *Extractor) Categorize(ctx context.Context, taskDetails string) (*types.TaskCategories, error) {
	if strings.TrimSpace(taskDetails) == "" {
		return nil, fmt.Errorf("no task details to categorize")
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	user, err := renderTemplate(categorizeUserTmpl, struct{ TaskDetails string }{taskDetails})
	if err != nil {
		return nil, fmt.Errorf("rendering categorization prompt: %w", err)
	}

	categories, err := e.categorizer.CompleteCategories(ctx, categorizeSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("categorizing task: %w", err)
	}
	return categories, nil
}
