// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate scores extraction quality so that weak results can be
// retried or flagged for manual review instead of polluting the output.
package validate

import (
	"strings"

	"github.com/pdiddy/codetask/pkg/types"
)

const (
	// DefaultRetryThreshold is the overall score below which an extraction
	// is considered unusable.
	DefaultRetryThreshold = 0.3
	// DefaultReviewThreshold is the overall score below which a result is
	// flagged for manual review.
	DefaultReviewThreshold = 0.6
)

// Validator computes quality scores for pipeline results.
type Validator struct {
	retryThreshold  float64
	reviewThreshold float64
}

// New builds a Validator. Zero thresholds use the defaults.
func New(cfg types.QualityConfig) *Validator {
	v := &Validator{
		retryThreshold:  cfg.RetryThreshold,
		reviewThreshold: cfg.ReviewThreshold,
	}
	if v.retryThreshold <= 0 {
		v.retryThreshold = DefaultRetryThreshold
	}
	if v.reviewThreshold <= 0 {
		v.reviewThreshold = DefaultReviewThreshold
	}
	return v
}

// sentinelValues are model outputs that mean "nothing here" and must not
// count as a filled field.
var sentinelValues = map[string]bool{
	"not specified": true,
	"unknown":       true,
	"none":          true,
}

func filled(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s != "" && !sentinelValues[s]
}

// completeness is the fraction of the ten categorization fields that carry
// real values. The two booleans are excluded since they are always set.
func completeness(c *types.TaskCategories) float64 {
	checks := []bool{
		filled(c.TaskSummary),
		len(c.SkillLevels) > 0,
		filled(c.ProgrammingLanguage),
		c.Domain.IsSet(),
		filled(c.SubDomain),
		c.TaskType.IsSet(),
		c.CodeScope != "",
		filled(c.EvaluationMetrics),
		filled(c.ToolsEnvironment),
		filled(c.ResearchFocus),
	}

	var n int
	for _, ok := range checks {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(checks))
}

// languageDomainCheck pairs a language signal with the domain it implies.
// A language hit without its domain loses the full penalty; the domain
// without its language loses half, since the language field is the one more
// often left vague.
type languageDomainCheck struct {
	langTokens []string
	allTokens  bool
	domain     types.DomainLabel
	penalty    float64
}

var languageDomainChecks = []languageDomainCheck{
	{langTokens: []string{"python", "pandas"}, allTokens: true, domain: types.DomainDataScience, penalty: 0.1},
	{langTokens: []string{"r"}, domain: types.DomainDataScience, penalty: 0.1},
	{langTokens: []string{"javascript", "js"}, domain: types.DomainWeb, penalty: 0.1},
	{langTokens: []string{"html", "css"}, domain: types.DomainWeb, penalty: 0.1},
	{langTokens: []string{"swift", "kotlin"}, domain: types.DomainMobile, penalty: 0.1},
	{langTokens: []string{"android", "ios"}, domain: types.DomainMobile, penalty: 0.1},
}

// languageTokens splits a free-text language field on non-alphanumeric
// boundaries so "R" never matches inside "React" and "js" never matches
// inside "json".
func languageTokens(language string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(language), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '+' || r == '#')
	}) {
		tokens[tok] = true
	}
	return tokens
}

func (c languageDomainCheck) languageHit(tokens map[string]bool) bool {
	if c.allTokens {
		for _, t := range c.langTokens {
			if !tokens[t] {
				return false
			}
		}
		return true
	}
	for _, t := range c.langTokens {
		if tokens[t] {
			return true
		}
	}
	return false
}

// consistency starts at 1.0 and subtracts for internal contradictions:
// language/domain mismatches, debugging studies claiming full-application
// scope, and feature development at snippet scope. Floored at zero.
func consistency(c *types.TaskCategories) float64 {
	score := 1.0

	if filled(c.ProgrammingLanguage) && c.Domain.IsSet() {
		tokens := languageTokens(c.ProgrammingLanguage)
		for _, check := range languageDomainChecks {
			langHit := check.languageHit(tokens)
			domainHit := c.Domain.Label == check.domain
			switch {
			case langHit && !domainHit:
				score -= check.penalty
			case !langHit && domainHit:
				score -= check.penalty / 2
			}
		}
	}

	if c.TaskType.IsSet() && c.CodeScope != "" {
		if c.TaskType.Label == types.TaskDebugging && c.CodeScope == types.ScopeApplication {
			score -= 0.1
		}
		if c.TaskType.Label == types.TaskFeatureDev && c.CodeScope == types.ScopeSnippet {
			score -= 0.05
		}
	}

	if score < 0 {
		return 0
	}
	return score
}

// QualityFor scores an extraction. Confidence carries over from the
// extraction stage; completeness and consistency come from the categories
// and are zero when categorization never happened.
func QualityFor(extraction types.TaskExtractionResult, categories *types.TaskCategories) types.QualityScore {
	q := types.QualityScore{Confidence: extraction.Confidence}
	if categories != nil {
		q.Completeness = completeness(categories)
		q.Consistency = consistency(categories)
	}
	return q
}

// Validate attaches a quality score to a pipeline result. Failed results
// and papers that never reached extraction pass through untouched.
func (v *Validator) Validate(result *types.PipelineResult) {
	if !result.Success() || result.Extraction == nil {
		return
	}
	q := QualityFor(*result.Extraction, result.Categories)
	result.Quality = &q
}

// ShouldRetry reports whether the score is below the unusable threshold.
func (v *Validator) ShouldRetry(q types.QualityScore) bool {
	return q.Overall() < v.retryThreshold
}

// ShouldFlagForReview reports whether the score warrants a manual look.
func (v *Validator) ShouldFlagForReview(q types.QualityScore) bool {
	return q.Overall() < v.reviewThreshold
}

// Summary aggregates quality statistics over a batch of results.
type Summary struct {
	TotalResults          int     `json:"total_results" yaml:"total_results"`
	SuccessfulExtractions int     `json:"successful_extractions" yaml:"successful_extractions"`
	SuccessRate           float64 `json:"success_rate" yaml:"success_rate"`

	AvgConfidence   float64 `json:"avg_confidence" yaml:"avg_confidence"`
	AvgCompleteness float64 `json:"avg_completeness" yaml:"avg_completeness"`
	AvgConsistency  float64 `json:"avg_consistency" yaml:"avg_consistency"`
	AvgOverall      float64 `json:"avg_overall" yaml:"avg_overall"`

	HighQuality   int `json:"high_quality" yaml:"high_quality"`
	MediumQuality int `json:"medium_quality" yaml:"medium_quality"`
	LowQuality    int `json:"low_quality" yaml:"low_quality"`
}

// Summarize computes batch statistics. Averages and the quality histogram
// cover only results that were scored; the histogram buckets are >= 0.7
// high, [0.4, 0.7) medium, < 0.4 low.
func Summarize(results []types.PipelineResult) Summary {
	s := Summary{TotalResults: len(results)}
	if len(results) == 0 {
		return s
	}

	for _, r := range results {
		if r.Success() && r.HasValidTask() {
			s.SuccessfulExtractions++
		}
	}
	s.SuccessRate = float64(s.SuccessfulExtractions) / float64(s.TotalResults)

	var scored int
	for _, r := range results {
		if !r.Success() || r.Quality == nil {
			continue
		}
		scored++
		s.AvgConfidence += r.Quality.Confidence
		s.AvgCompleteness += r.Quality.Completeness
		s.AvgConsistency += r.Quality.Consistency
		overall := r.Quality.Overall()
		s.AvgOverall += overall

		switch {
		case overall >= 0.7:
			s.HighQuality++
		case overall >= 0.4:
			s.MediumQuality++
		default:
			s.LowQuality++
		}
	}
	if scored > 0 {
		s.AvgConfidence /= float64(scored)
		s.AvgCompleteness /= float64(scored)
		s.AvgConsistency /= float64(scored)
		s.AvgOverall /= float64(scored)
	}
	return s
}
