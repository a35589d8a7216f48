// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/codetask/pkg/types"
)

func sampleResults() []types.PipelineResult {
	return []types.PipelineResult{
		{
			Paper: types.Paper{
				PaperID:  "p1",
				Title:    "Debugging with AI Assistants",
				Authors:  "Doe, J.; Roe, R.",
				Venue:    "CHI",
				Year:     2025,
				URL:      "https://example.org/p1",
				Abstract: "We studied 20 developers debugging, with \"quoted\" text\nand a newline.",
			},
			FilterResult: types.FilterResult{
				PaperID:        "p1",
				IsRelevant:     true,
				RelevanceScore: 0.93,
				Reason:         "high relevance score (0.93) with strong keywords: debug, code, developers",
				KeywordsFound:  []string{"debug", "code", "developers"},
			},
			Extraction: &types.TaskExtractionResult{
				PaperID:            "p1",
				HasCodingTask:      true,
				Confidence:         0.85,
				RawTaskDescription: "Task Description: fix seeded defects\nConfidence: 0.85",
				ExtractionReason:   "fix seeded defects",
			},
			Categories: &types.TaskCategories{
				TaskSummary:          "Fix seeded defects in Python scripts",
				SkillLevels:          types.SkillLevels{types.SkillIntermediate, types.SkillExpert},
				ProgrammingLanguage:  "Python",
				Domain:               types.Domain{Label: types.DomainDataScience},
				SubDomain:            "data wrangling",
				TaskType:             types.TaskType{Label: types.TaskDebugging},
				CodeScope:            types.ScopeFunction,
				EvaluationMetrics:    "completion time",
				ToolsEnvironment:     "VS Code",
				ResearchFocus:        "debugging strategies",
				IsProgrammingRelated: true,
			},
			Quality:        &types.QualityScore{Confidence: 0.85, Completeness: 1.0, Consistency: 1.0},
			ProcessingTime: 1500 * time.Millisecond,
		},
		{
			Paper: types.Paper{
				PaperID:             "p2",
				Title:               "A Systematic Review of Gestures",
				Abstract:            "A Systematic Review of Gestures",
				AbstractIsSurrogate: true,
			},
			FilterResult: types.FilterResult{
				PaperID:        "p2",
				RelevanceScore: 0.0,
				Reason:         "low relevance (0.00) with negative indicators: systematic review, review",
				KeywordsFound:  []string{"systematic review", "review"},
			},
			ProcessingTime: 2 * time.Millisecond,
		},
		{
			Paper:        types.Paper{PaperID: "p3", Title: "Broken"},
			FilterResult: types.FilterResult{PaperID: "p3", Reason: "processing error"},
			ErrorMessage: "API error: 500",
		},
	}
}

func TestWriteResults_ReadResults_RoundTrip(t *testing.T) {
	results := sampleResults()

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, results))

	parsed, err := ReadResults(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, len(results))

	for i := range results {
		assert.Equal(t, results[i].Paper, parsed[i].Paper, "paper %d", i)
		assert.Equal(t, results[i].FilterResult, parsed[i].FilterResult, "filter %d", i)
		assert.Equal(t, results[i].Extraction, parsed[i].Extraction, "extraction %d", i)
		assert.Equal(t, results[i].Categories, parsed[i].Categories, "categories %d", i)
		assert.Equal(t, results[i].Quality, parsed[i].Quality, "quality %d", i)
		assert.Equal(t, results[i].ProcessingTime, parsed[i].ProcessingTime, "time %d", i)
		assert.Equal(t, results[i].ErrorMessage, parsed[i].ErrorMessage, "error %d", i)
	}
}

func TestWriteTasks_OnlyConfirmedTasks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTasks(&buf, sampleResults()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// Header plus the single confirmed task; p1's multi-line abstract adds
	// quoted newlines, so count by paper ID instead of raw lines.
	assert.Contains(t, buf.String(), "p1")
	assert.NotContains(t, buf.String(), "p3")
	assert.True(t, strings.HasPrefix(lines[0], "paper_id,title,authors"))
	assert.Contains(t, buf.String(), "Intermediate, Expert")
	assert.Contains(t, buf.String(), "Data Science/Analytics")
}

func TestReadResults_MissingRequiredColumn(t *testing.T) {
	_, err := ReadResults(strings.NewReader("title,year\nfoo,2025\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paper_id")
}

func TestReadResults_ToleratesColumnReordering(t *testing.T) {
	csvText := "relevance_score,paper_id,title\n0.5,p9,Reordered\n"
	parsed, err := ReadResults(strings.NewReader(csvText))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "p9", parsed[0].Paper.PaperID)
	assert.InDelta(t, 0.5, parsed[0].FilterResult.RelevanceScore, 1e-9)
	assert.Nil(t, parsed[0].Extraction)
}

func TestReadResults_BadScore(t *testing.T) {
	_, err := ReadResults(strings.NewReader("paper_id,relevance_score\np1,not-a-number\n"))
	assert.Error(t, err)
}

func TestWriteResults_EmptyBatchWritesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, nil))

	parsed, err := ReadResults(&buf)
	require.NoError(t, err)
	assert.Empty(t, parsed)
}
