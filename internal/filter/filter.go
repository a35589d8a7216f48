// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter estimates, from title and abstract alone, how likely a
// paper's user study is to involve a coding task. The filter gates the
// expensive LLM cascade: most of an HCI proceedings corpus never reaches
// the model.
package filter

import (
	"fmt"
	"strings"

	"github.com/pdiddy/codetask/pkg/types"
)

// weightedKeyword pairs a lowercase search term with its score contribution.
// Keywords are scanned in slice order, so KeywordsFound ordering is stable.
type weightedKeyword struct {
	term   string
	weight float64
}

// highRelevance are terms that strongly imply a hands-on coding task.
var highRelevance = []weightedKeyword{
	{"programming", 0.4}, {"code", 0.4}, {"coding", 0.4}, {"programmer", 0.4},
	{"debug", 0.4}, {"debugging", 0.4}, {"implementation", 0.3},
	{"software development", 0.4}, {"developers", 0.3},

	{"code generation", 0.5}, {"code generators", 0.5}, {"ai code", 0.5},
	{"copilot", 0.5},

	{"compiler", 0.4}, {"visual studio", 0.4}, {"vs code", 0.4},
	{"code editor", 0.4}, {"eclipse", 0.4},

	{"participants implemented", 0.5}, {"participants coded", 0.5},
	{"participants debugged", 0.5}, {"coding task", 0.5},
	{"programming task", 0.5},
}

// mediumRelevance are ambiguous terms that need corroboration.
var mediumRelevance = []weightedKeyword{
	{"user study", 0.2}, {"experiment", 0.2},
	{"participants performed", 0.2}, {"participants were asked", 0.2},

	{"algorithm", 0.2}, {"framework", 0.2}, {"library", 0.2},
	{"application", 0.1}, {"software", 0.1},
}

// negative are terms indicating survey, review, or non-coding HCI work.
var negative = []weightedKeyword{
	{"systematic review", -0.5}, {"review", -0.4}, {"survey", -0.4},
	{"analysis of", -0.4}, {"scoping", -0.4}, {"meta-analysis", -0.4},
	{"literature", -0.3}, {"multidisciplinary", -0.3},

	{"thematic analysis", -0.4}, {"qualitative", -0.3}, {"ethnographic", -0.3},
	{"focus group", -0.3}, {"interview", -0.2},

	{"embodied", -0.2}, {"tangible", -0.1}, {"haptic", -0.1}, {"gesture", -0.1},

	{"agriculture", -0.2}, {"healthcare", -0.1}, {"medical", -0.1},
	{"accessibility", -0.1}, {"privacy", -0.1},
}

// Normalization constants. Raw sums for the tables above land roughly in
// [-0.5, 1.0]; the affine map centers a no-match paper mid-scale instead of
// at zero. These constants and the 0.3/0.6 tier cutoffs are calibrated
// together against labeled corpus data.
const (
	normalizeOffset  = 0.5
	normalizeDivisor = 1.5
)

// Tier cutoffs over the normalized score.
const (
	tierHigh       = 0.6
	tierBorderline = 0.3
)

// Filter scores papers by weighted keyword matching. The zero value is not
// usable; construct with New.
type Filter struct {
	keywords []weightedKeyword
	weights  map[string]float64
}

// New builds a Filter with the default keyword tables.
func New() *Filter {
	var all []weightedKeyword
	all = append(all, highRelevance...)
	all = append(all, mediumRelevance...)
	all = append(all, negative...)

	weights := make(map[string]float64, len(all))
	for _, kw := range all {
		weights[kw.term] = kw.weight
	}
	return &Filter{keywords: all, weights: weights}
}

// Score computes the relevance verdict for one paper. It is a pure function
// of the paper's title and abstract: no I/O, no external calls, identical
// inputs always yield identical results.
func (f *Filter) Score(paper types.Paper) types.FilterResult {
	text := paper.SearchableText()
	if text == "" {
		return types.FilterResult{
			PaperID:        paper.PaperID,
			IsRelevant:     false,
			RelevanceScore: 0.0,
			Reason:         "no searchable text: paper has neither title nor abstract",
		}
	}

	score, found := f.keywordScore(text)
	relevant, reason := f.classify(score, found)

	return types.FilterResult{
		PaperID:        paper.PaperID,
		IsRelevant:     relevant,
		RelevanceScore: score,
		Reason:         reason,
		KeywordsFound:  found,
	}
}

// ScoreAll scores every paper in input order.
func (f *Filter) ScoreAll(papers []types.Paper) []types.FilterResult {
	results := make([]types.FilterResult, len(papers))
	for i, p := range papers {
		results[i] = f.Score(p)
	}
	return results
}

// keywordScore sums matched keyword weights over the lowercased text and
// normalizes into [0,1].
func (f *Filter) keywordScore(text string) (float64, []string) {
	lower := strings.ToLower(text)

	var sum float64
	var found []string
	for _, kw := range f.keywords {
		if strings.Contains(lower, kw.term) {
			sum += kw.weight
			found = append(found, kw.term)
		}
	}

	return clamp01((sum + normalizeOffset) / normalizeDivisor), found
}

// classify maps a normalized score onto the three-tier verdict.
func (f *Filter) classify(score float64, found []string) (bool, string) {
	switch {
	case score >= tierHigh:
		return true, fmt.Sprintf("high relevance score (%.2f) with strong keywords: %s",
			score, strings.Join(topN(found, 3), ", "))
	case score >= tierBorderline:
		return true, fmt.Sprintf("medium relevance score (%.2f): borderline case worth checking", score)
	default:
		if neg := f.negativesIn(found); len(neg) > 0 {
			return false, fmt.Sprintf("low relevance (%.2f) with negative indicators: %s",
				score, strings.Join(topN(neg, 2), ", "))
		}
		return false, fmt.Sprintf("low relevance score (%.2f): insufficient programming indicators", score)
	}
}

// negativesIn returns the matched keywords with negative weight, scan order
// preserved.
func (f *Filter) negativesIn(found []string) []string {
	var neg []string
	for _, term := range found {
		if f.weights[term] < 0 {
			neg = append(neg, term)
		}
	}
	return neg
}

func topN(terms []string, n int) []string {
	if len(terms) > n {
		return terms[:n]
	}
	return terms
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Stats aggregates filter results for the dry-run stage.
type Stats struct {
	Total       int
	Relevant    int
	FilteredOut int
	MeanScore   float64
}

// RelevanceRate is the fraction of papers passing the filter.
func (s Stats) RelevanceRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Relevant) / float64(s.Total)
}

// FilterRate is the fraction of papers the filter removes.
func (s Stats) FilterRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.FilteredOut) / float64(s.Total)
}

// ComputeStats summarizes a batch of filter results.
func ComputeStats(results []types.FilterResult) Stats {
	s := Stats{Total: len(results)}
	if s.Total == 0 {
		return s
	}

	var sum float64
	for _, r := range results {
		sum += r.RelevanceScore
		if r.IsRelevant {
			s.Relevant++
		} else {
			s.FilteredOut++
		}
	}
	s.MeanScore = sum / float64(s.Total)
	return s
}
