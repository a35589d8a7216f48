// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report flattens pipeline results into CSV files for analysis in
// spreadsheets and notebooks, and reads them back for reprocessing.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/codetask/pkg/types"
)

// resultColumns is the full result schema, one row per processed paper.
// Optional stage columns stay empty for papers that never reached the
// stage; the has_coding_task, is_programming_related, and quality_overall
// columns double as presence markers when reading back.
var resultColumns = []string{
	"paper_id", "title", "authors", "venue", "year", "url", "abstract",
	"abstract_is_surrogate", "pdf_path",
	"relevance_score", "is_relevant", "filter_reason", "keywords_found",
	"has_coding_task", "extraction_confidence", "extraction_reason", "coding_task",
	"task_summary", "participant_skill_level", "programming_language",
	"programming_domain", "programming_sub_domain", "task_type",
	"code_size_scope", "evaluation_metrics", "tools_environment", "research_focus",
	"is_programming_related", "is_ai_related",
	"quality_confidence", "quality_completeness", "quality_consistency", "quality_overall",
	"processing_time", "error",
}

// taskColumns is the compact export of confirmed coding tasks only.
var taskColumns = []string{
	"paper_id", "title", "authors", "venue", "year", "url", "abstract", "coding_task",
	"task_summary", "participant_skill_level", "programming_language",
	"programming_domain", "programming_sub_domain", "task_type",
	"code_size_scope", "evaluation_metrics", "tools_environment", "research_focus",
	"is_programming_related", "is_ai_related",
}

const keywordSeparator = "; "

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteResults writes every result, one row per paper, in input order.
func WriteResults(w io.Writer, results []types.PipelineResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range results {
		row := map[string]string{
			"paper_id":              r.Paper.PaperID,
			"title":                 r.Paper.Title,
			"authors":               r.Paper.Authors,
			"venue":                 r.Paper.Venue,
			"url":                   r.Paper.URL,
			"abstract":              r.Paper.Abstract,
			"abstract_is_surrogate": strconv.FormatBool(r.Paper.AbstractIsSurrogate),
			"pdf_path":              r.Paper.PDFPath,
			"relevance_score":       formatFloat(r.FilterResult.RelevanceScore),
			"is_relevant":           strconv.FormatBool(r.FilterResult.IsRelevant),
			"filter_reason":         r.FilterResult.Reason,
			"keywords_found":        strings.Join(r.FilterResult.KeywordsFound, keywordSeparator),
			"processing_time":       r.ProcessingTime.String(),
			"error":                 r.ErrorMessage,
		}
		if r.Paper.Year != 0 {
			row["year"] = strconv.Itoa(r.Paper.Year)
		}
		if r.Extraction != nil {
			row["has_coding_task"] = strconv.FormatBool(r.Extraction.HasCodingTask)
			row["extraction_confidence"] = formatFloat(r.Extraction.Confidence)
			row["extraction_reason"] = r.Extraction.ExtractionReason
			row["coding_task"] = r.Extraction.RawTaskDescription
		}
		if r.Categories != nil {
			fillCategoryColumns(row, r.Categories)
		}
		if r.Quality != nil {
			row["quality_confidence"] = formatFloat(r.Quality.Confidence)
			row["quality_completeness"] = formatFloat(r.Quality.Completeness)
			row["quality_consistency"] = formatFloat(r.Quality.Consistency)
			row["quality_overall"] = formatFloat(r.Quality.Overall())
		}

		if err := cw.Write(rowValues(resultColumns, row)); err != nil {
			return fmt.Errorf("writing row for %s: %w", r.Paper.PaperID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTasks writes only the results with a confirmed, categorized coding
// task, in the compact schema.
func WriteTasks(w io.Writer, results []types.PipelineResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(taskColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range results {
		if !r.Success() || !r.HasValidTask() {
			continue
		}
		row := map[string]string{
			"paper_id":    r.Paper.PaperID,
			"title":       r.Paper.Title,
			"authors":     r.Paper.Authors,
			"venue":       r.Paper.Venue,
			"url":         r.Paper.URL,
			"abstract":    r.Paper.Abstract,
			"coding_task": r.Extraction.RawTaskDescription,
		}
		if r.Paper.Year != 0 {
			row["year"] = strconv.Itoa(r.Paper.Year)
		}
		fillCategoryColumns(row, r.Categories)

		if err := cw.Write(rowValues(taskColumns, row)); err != nil {
			return fmt.Errorf("writing row for %s: %w", r.Paper.PaperID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func fillCategoryColumns(row map[string]string, c *types.TaskCategories) {
	row["task_summary"] = c.TaskSummary
	row["participant_skill_level"] = c.SkillLevels.String()
	row["programming_language"] = c.ProgrammingLanguage
	row["programming_domain"] = c.Domain.String()
	row["programming_sub_domain"] = c.SubDomain
	row["task_type"] = c.TaskType.String()
	row["code_size_scope"] = string(c.CodeScope)
	row["evaluation_metrics"] = c.EvaluationMetrics
	row["tools_environment"] = c.ToolsEnvironment
	row["research_focus"] = c.ResearchFocus
	row["is_programming_related"] = strconv.FormatBool(c.IsProgrammingRelated)
	row["is_ai_related"] = strconv.FormatBool(c.IsAIRelated)
}

func rowValues(columns []string, row map[string]string) []string {
	values := make([]string, len(columns))
	for i, col := range columns {
		values[i] = row[col]
	}
	return values
}

// ReadResults parses a full result CSV back into pipeline results. Columns
// are located by header name, so column order does not matter.
func ReadResults(r io.Reader) ([]types.PipelineResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"paper_id", "relevance_score"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("required column %q not found", required)
		}
	}

	var results []types.PipelineResult
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		result, err := parseResult(get)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func parseResult(get func(string) string) (types.PipelineResult, error) {
	result := types.PipelineResult{
		Paper: types.Paper{
			PaperID:  get("paper_id"),
			Title:    get("title"),
			Authors:  get("authors"),
			Venue:    get("venue"),
			URL:      get("url"),
			Abstract: get("abstract"),
			PDFPath:  get("pdf_path"),
		},
		ErrorMessage: get("error"),
	}
	result.Paper.AbstractIsSurrogate = get("abstract_is_surrogate") == "true"

	if y := get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return result, fmt.Errorf("parsing year %q: %w", y, err)
		}
		result.Paper.Year = year
	}

	score, err := strconv.ParseFloat(get("relevance_score"), 64)
	if err != nil {
		return result, fmt.Errorf("parsing relevance_score: %w", err)
	}
	result.FilterResult = types.FilterResult{
		PaperID:        result.Paper.PaperID,
		IsRelevant:     get("is_relevant") == "true",
		RelevanceScore: score,
		Reason:         get("filter_reason"),
	}
	if kw := get("keywords_found"); kw != "" {
		result.FilterResult.KeywordsFound = strings.Split(kw, keywordSeparator)
	}

	if get("has_coding_task") != "" {
		confidence, err := strconv.ParseFloat(get("extraction_confidence"), 64)
		if err != nil {
			return result, fmt.Errorf("parsing extraction_confidence: %w", err)
		}
		result.Extraction = &types.TaskExtractionResult{
			PaperID:            result.Paper.PaperID,
			HasCodingTask:      get("has_coding_task") == "true",
			Confidence:         confidence,
			RawTaskDescription: get("coding_task"),
			ExtractionReason:   get("extraction_reason"),
		}
	}

	if get("is_programming_related") != "" {
		categories := &types.TaskCategories{
			TaskSummary:          get("task_summary"),
			SkillLevels:          types.ParseSkillLevels(get("participant_skill_level")),
			ProgrammingLanguage:  get("programming_language"),
			Domain:               types.ParseDomain(get("programming_domain")),
			SubDomain:            get("programming_sub_domain"),
			TaskType:             types.ParseTaskType(get("task_type")),
			EvaluationMetrics:    get("evaluation_metrics"),
			ToolsEnvironment:     get("tools_environment"),
			ResearchFocus:        get("research_focus"),
			IsProgrammingRelated: get("is_programming_related") == "true",
			IsAIRelated:          get("is_ai_related") == "true",
		}
		if scope, ok := types.ParseCodeScope(get("code_size_scope")); ok {
			categories.CodeScope = scope
		}
		result.Categories = categories
	}

	if get("quality_overall") != "" {
		quality := types.QualityScore{}
		for col, dst := range map[string]*float64{
			"quality_confidence":   &quality.Confidence,
			"quality_completeness": &quality.Completeness,
			"quality_consistency":  &quality.Consistency,
		} {
			v, err := strconv.ParseFloat(get(col), 64)
			if err != nil {
				return result, fmt.Errorf("parsing %s: %w", col, err)
			}
			*dst = v
		}
		result.Quality = &quality
	}

	if d := get("processing_time"); d != "" {
		duration, err := time.ParseDuration(d)
		if err != nil {
			return result, fmt.Errorf("parsing processing_time %q: %w", d, err)
		}
		result.ProcessingTime = duration
	}

	return result, nil
}
