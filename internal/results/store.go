// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package results persists pipeline results in a SQLite database with a
// full-text index over the extracted task text, and exports them for
// downstream analysis.
package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/codetask/pkg/types"
)

const dbFile = "results.db"

// Store manages the results SQLite database.
type Store struct {
	db         *sql.DB
	resultsDir string
	maxResults int
}

// NewStore opens or creates the results database at dir/results.db,
// creating the schema if it does not exist.
func NewStore(cfg types.ResultsConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:         db,
		resultsDir: cfg.Dir,
		maxResults: 50,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT,
			authors TEXT,
			venue TEXT,
			year INTEGER,
			url TEXT,
			abstract TEXT,
			abstract_is_surrogate INTEGER NOT NULL DEFAULT 0,
			pdf_path TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL UNIQUE REFERENCES papers(id),
			relevance_score REAL NOT NULL,
			is_relevant INTEGER NOT NULL,
			filter_reason TEXT,
			keywords_found TEXT,
			has_coding_task INTEGER,
			extraction_confidence REAL,
			extraction_reason TEXT,
			coding_task TEXT,
			task_summary TEXT,
			participant_skill_level TEXT,
			programming_language TEXT,
			programming_domain TEXT,
			programming_sub_domain TEXT,
			task_type TEXT,
			code_size_scope TEXT,
			evaluation_metrics TEXT,
			tools_environment TEXT,
			research_focus TEXT,
			is_programming_related INTEGER,
			is_ai_related INTEGER,
			quality_confidence REAL,
			quality_completeness REAL,
			quality_consistency REAL,
			quality_overall REAL,
			processing_time_ns INTEGER NOT NULL DEFAULT 0,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_has_task ON results(has_coding_task)`,
		`CREATE INDEX IF NOT EXISTS idx_results_domain ON results(programming_domain)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='results_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE results_fts USING fts5(task_summary, coding_task, content=results, content_rowid=rowid)`,
			`CREATE TRIGGER results_ai AFTER INSERT ON results BEGIN
				INSERT INTO results_fts(rowid, task_summary, coding_task) VALUES (new.rowid, new.task_summary, new.coding_task);
			END`,
			`CREATE TRIGGER results_ad AFTER DELETE ON results BEGIN
				INSERT INTO results_fts(results_fts, rowid, task_summary, coding_task) VALUES('delete', old.rowid, old.task_summary, old.coding_task);
			END`,
			`CREATE TRIGGER results_au AFTER UPDATE ON results BEGIN
				INSERT INTO results_fts(results_fts, rowid, task_summary, coding_task) VALUES('delete', old.rowid, old.task_summary, old.coding_task);
				INSERT INTO results_fts(rowid, task_summary, coding_task) VALUES (new.rowid, new.task_summary, new.coding_task);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save upserts a batch of pipeline results, keyed by paper ID. Re-saving a
// paper replaces its previous row.
func (s *Store) Save(ctx context.Context, results []types.PipelineResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range results {
		if err := saveOne(ctx, tx, r); err != nil {
			return fmt.Errorf("saving result for %s: %w", r.Paper.PaperID, err)
		}
	}

	return tx.Commit()
}

func saveOne(ctx context.Context, tx *sql.Tx, r types.PipelineResult) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO papers (id, title, authors, venue, year, url, abstract, abstract_is_surrogate, pdf_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, authors=excluded.authors, venue=excluded.venue,
			year=excluded.year, url=excluded.url, abstract=excluded.abstract,
			abstract_is_surrogate=excluded.abstract_is_surrogate, pdf_path=excluded.pdf_path`,
		r.Paper.PaperID, r.Paper.Title, r.Paper.Authors, r.Paper.Venue,
		r.Paper.Year, r.Paper.URL, r.Paper.Abstract,
		boolToInt(r.Paper.AbstractIsSurrogate), r.Paper.PDFPath,
	)
	if err != nil {
		return fmt.Errorf("upserting paper: %w", err)
	}

	keywordsJSON, _ := json.Marshal(r.FilterResult.KeywordsFound)

	var (
		hasCodingTask        any
		extractionConfidence any
		extractionReason     any
		codingTask           any
	)
	if r.Extraction != nil {
		hasCodingTask = boolToInt(r.Extraction.HasCodingTask)
		extractionConfidence = r.Extraction.Confidence
		extractionReason = r.Extraction.ExtractionReason
		codingTask = r.Extraction.RawTaskDescription
	}

	category := make(map[string]any, 12)
	if c := r.Categories; c != nil {
		category["task_summary"] = c.TaskSummary
		category["participant_skill_level"] = c.SkillLevels.String()
		category["programming_language"] = c.ProgrammingLanguage
		category["programming_domain"] = c.Domain.String()
		category["programming_sub_domain"] = c.SubDomain
		category["task_type"] = c.TaskType.String()
		category["code_size_scope"] = string(c.CodeScope)
		category["evaluation_metrics"] = c.EvaluationMetrics
		category["tools_environment"] = c.ToolsEnvironment
		category["research_focus"] = c.ResearchFocus
		category["is_programming_related"] = boolToInt(c.IsProgrammingRelated)
		category["is_ai_related"] = boolToInt(c.IsAIRelated)
	}

	var qConfidence, qCompleteness, qConsistency, qOverall any
	if q := r.Quality; q != nil {
		qConfidence = q.Confidence
		qCompleteness = q.Completeness
		qConsistency = q.Consistency
		qOverall = q.Overall()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO results (
			paper_id, relevance_score, is_relevant, filter_reason, keywords_found,
			has_coding_task, extraction_confidence, extraction_reason, coding_task,
			task_summary, participant_skill_level, programming_language,
			programming_domain, programming_sub_domain, task_type, code_size_scope,
			evaluation_metrics, tools_environment, research_focus,
			is_programming_related, is_ai_related,
			quality_confidence, quality_completeness, quality_consistency, quality_overall,
			processing_time_ns, error
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET
			relevance_score=excluded.relevance_score, is_relevant=excluded.is_relevant,
			filter_reason=excluded.filter_reason, keywords_found=excluded.keywords_found,
			has_coding_task=excluded.has_coding_task,
			extraction_confidence=excluded.extraction_confidence,
			extraction_reason=excluded.extraction_reason, coding_task=excluded.coding_task,
			task_summary=excluded.task_summary,
			participant_skill_level=excluded.participant_skill_level,
			programming_language=excluded.programming_language,
			programming_domain=excluded.programming_domain,
			programming_sub_domain=excluded.programming_sub_domain,
			task_type=excluded.task_type, code_size_scope=excluded.code_size_scope,
			evaluation_metrics=excluded.evaluation_metrics,
			tools_environment=excluded.tools_environment,
			research_focus=excluded.research_focus,
			is_programming_related=excluded.is_programming_related,
			is_ai_related=excluded.is_ai_related,
			quality_confidence=excluded.quality_confidence,
			quality_completeness=excluded.quality_completeness,
			quality_consistency=excluded.quality_consistency,
			quality_overall=excluded.quality_overall,
			processing_time_ns=excluded.processing_time_ns, error=excluded.error`,
		r.Paper.PaperID, r.FilterResult.RelevanceScore, boolToInt(r.FilterResult.IsRelevant),
		r.FilterResult.Reason, string(keywordsJSON),
		hasCodingTask, extractionConfidence, extractionReason, codingTask,
		category["task_summary"], category["participant_skill_level"],
		category["programming_language"], category["programming_domain"],
		category["programming_sub_domain"], category["task_type"],
		category["code_size_scope"], category["evaluation_metrics"],
		category["tools_environment"], category["research_focus"],
		category["is_programming_related"], category["is_ai_related"],
		qConfidence, qCompleteness, qConsistency, qOverall,
		int64(r.ProcessingTime), r.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("upserting result: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
