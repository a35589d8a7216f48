// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Quality weighting constants. Overall is always the fixed convex combination
// of the three components; changing one weight requires re-validating the
// retry/review thresholds against labeled data.
const (
	qualityWeightConfidence   = 0.5
	qualityWeightCompleteness = 0.3
	qualityWeightConsistency  = 0.2
)

// QualityScore is the derived quality assessment of one extraction. The
// components are stored; Overall is always computed so identical inputs
// yield identical scores.
type QualityScore struct {
	// Confidence is the model confidence copied from the extraction stage.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Completeness is the fraction of category fields carrying non-trivial
	// values.
	Completeness float64 `json:"completeness" yaml:"completeness"`

	// Consistency is the penalty-based cross-field agreement score.
	Consistency float64 `json:"consistency" yaml:"consistency"`
}

// Overall combines the components: 0.5·confidence + 0.3·completeness +
// 0.2·consistency.
func (q QualityScore) Overall() float64 {
	return qualityWeightConfidence*q.Confidence +
		qualityWeightCompleteness*q.Completeness +
		qualityWeightConsistency*q.Consistency
}

// PipelineResult is the aggregate record for one paper's traversal of the
// pipeline. It is created when processing starts and filled in as stages
// complete; a retry is a fresh traversal, never an in-place mutation.
type PipelineResult struct {
	Paper        Paper                 `json:"paper" yaml:"paper"`
	FilterResult FilterResult          `json:"filter_result" yaml:"filter_result"`
	Extraction   *TaskExtractionResult `json:"extraction_result,omitempty" yaml:"extraction_result,omitempty"`
	Categories   *TaskCategories       `json:"categories,omitempty" yaml:"categories,omitempty"`
	Quality      *QualityScore         `json:"quality_score,omitempty" yaml:"quality_score,omitempty"`

	// ProcessingTime is the wall-clock duration of the traversal.
	ProcessingTime time.Duration `json:"processing_time" yaml:"processing_time"`

	// ErrorMessage records a per-paper processing failure. When set, the
	// result carries no categories and no quality score.
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// Success reports whether processing completed without error.
func (r PipelineResult) Success() bool {
	return r.ErrorMessage == ""
}

// HasValidTask reports whether a coding task was found and categorized.
func (r PipelineResult) HasValidTask() bool {
	return r.Extraction != nil && r.Extraction.HasCodingTask && r.Categories != nil
}
