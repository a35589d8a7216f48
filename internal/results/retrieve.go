// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/codetask/pkg/types"
)

// QueryOptions holds parameters for result queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over task summary and raw
	// task text.
	Query string

	// OnlyTasks restricts results to papers with a confirmed coding task.
	OnlyTasks bool

	// Domain filters by programming domain label.
	Domain string

	// MinQuality filters by overall quality score.
	MinQuality float64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Retrieve queries stored results with optional full-text search and
// structured filters. Full-text queries rank by relevance; structured-only
// queries sort by descending relevance score.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.PipelineResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	const columns = `r.paper_id, p.title, p.authors, p.venue, p.year, p.url,
			p.abstract, p.abstract_is_surrogate, p.pdf_path,
			r.relevance_score, r.is_relevant, r.filter_reason, r.keywords_found,
			r.has_coding_task, r.extraction_confidence, r.extraction_reason, r.coding_task,
			r.task_summary, r.participant_skill_level, r.programming_language,
			r.programming_domain, r.programming_sub_domain, r.task_type, r.code_size_scope,
			r.evaluation_metrics, r.tools_environment, r.research_focus,
			r.is_programming_related, r.is_ai_related,
			r.quality_confidence, r.quality_completeness, r.quality_consistency,
			r.processing_time_ns, r.error`

	if useFTS {
		qb.WriteString(`SELECT ` + columns + `
			FROM results_fts
			JOIN results r ON r.rowid = results_fts.rowid
			LEFT JOIN papers p ON r.paper_id = p.id
			WHERE results_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(`SELECT ` + columns + `
			FROM results r
			LEFT JOIN papers p ON r.paper_id = p.id
			WHERE 1=1`)
	}

	if opts.OnlyTasks {
		qb.WriteString(` AND r.has_coding_task = 1 AND r.task_summary IS NOT NULL`)
	}
	if opts.Domain != "" {
		qb.WriteString(` AND r.programming_domain = ?`)
		args = append(args, opts.Domain)
	}
	if opts.MinQuality > 0 {
		qb.WriteString(` AND r.quality_overall >= ?`)
		args = append(args, opts.MinQuality)
	}

	if useFTS {
		qb.WriteString(` ORDER BY results_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.relevance_score DESC, r.paper_id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []types.PipelineResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

func scanResult(rows *sql.Rows) (types.PipelineResult, error) {
	var (
		r types.PipelineResult

		title, authors, venue, url, abstract, pdfPath sql.NullString
		year                                          sql.NullInt64
		surrogate                                     sql.NullInt64

		filterReason, keywordsJSON sql.NullString
		isRelevant                 int

		hasCodingTask                  sql.NullInt64
		extractionConfidence           sql.NullFloat64
		extractionReason, codingTask   sql.NullString
		taskSummary, skills, language  sql.NullString
		domain, subDomain, taskType    sql.NullString
		scope, metrics, tools, focus   sql.NullString
		isProgramming, isAI            sql.NullInt64
		qConf, qCompl, qCons           sql.NullFloat64
		processingNS                   int64
		errorMessage                   sql.NullString
	)

	if err := rows.Scan(
		&r.Paper.PaperID, &title, &authors, &venue, &year, &url,
		&abstract, &surrogate, &pdfPath,
		&r.FilterResult.RelevanceScore, &isRelevant, &filterReason, &keywordsJSON,
		&hasCodingTask, &extractionConfidence, &extractionReason, &codingTask,
		&taskSummary, &skills, &language,
		&domain, &subDomain, &taskType, &scope,
		&metrics, &tools, &focus,
		&isProgramming, &isAI,
		&qConf, &qCompl, &qCons,
		&processingNS, &errorMessage,
	); err != nil {
		return r, fmt.Errorf("scanning row: %w", err)
	}

	r.Paper.Title = title.String
	r.Paper.Authors = authors.String
	r.Paper.Venue = venue.String
	r.Paper.Year = int(year.Int64)
	r.Paper.URL = url.String
	r.Paper.Abstract = abstract.String
	r.Paper.AbstractIsSurrogate = surrogate.Int64 == 1
	r.Paper.PDFPath = pdfPath.String

	r.FilterResult.PaperID = r.Paper.PaperID
	r.FilterResult.IsRelevant = isRelevant == 1
	r.FilterResult.Reason = filterReason.String
	if keywordsJSON.Valid {
		json.Unmarshal([]byte(keywordsJSON.String), &r.FilterResult.KeywordsFound)
	}

	if hasCodingTask.Valid {
		r.Extraction = &types.TaskExtractionResult{
			PaperID:            r.Paper.PaperID,
			HasCodingTask:      hasCodingTask.Int64 == 1,
			Confidence:         extractionConfidence.Float64,
			RawTaskDescription: codingTask.String,
			ExtractionReason:   extractionReason.String,
		}
	}

	if isProgramming.Valid {
		categories := &types.TaskCategories{
			TaskSummary:          taskSummary.String,
			SkillLevels:          types.ParseSkillLevels(skills.String),
			ProgrammingLanguage:  language.String,
			Domain:               types.ParseDomain(domain.String),
			SubDomain:            subDomain.String,
			TaskType:             types.ParseTaskType(taskType.String),
			EvaluationMetrics:    metrics.String,
			ToolsEnvironment:     tools.String,
			ResearchFocus:        focus.String,
			IsProgrammingRelated: isProgramming.Int64 == 1,
			IsAIRelated:          isAI.Int64 == 1,
		}
		if cs, ok := types.ParseCodeScope(scope.String); ok {
			categories.CodeScope = cs
		}
		r.Categories = categories
	}

	if qConf.Valid {
		r.Quality = &types.QualityScore{
			Confidence:   qConf.Float64,
			Completeness: qCompl.Float64,
			Consistency:  qCons.Float64,
		}
	}

	r.ProcessingTime = time.Duration(processingNS)
	r.ErrorMessage = errorMessage.String

	return r, nil
}
