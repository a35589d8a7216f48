// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package papers loads the study corpus from tabular metadata exports.
// Column names vary across historical export schemas (Zotero and hand-rolled
// variants), so each canonical field resolves through an explicit alias
// table once at load time.
package papers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pdiddy/codetask/pkg/types"
)

// columnAliases maps each canonical field to the source column names that
// may carry it, in preference order.
var columnAliases = map[string][]string{
	"paper_id": {"Key", "paper_id", "id", "ID"},
	"title":    {"Title", "title"},
	"authors":  {"Author", "authors", "Authors"},
	"venue":    {"Publication Title", "venue", "Venue"},
	"year":     {"Publication Year", "year", "Year"},
	"url":      {"Url", "url", "URL"},
	"abstract": {"Abstract Note", "abstract", "Abstract"},
	"pdf_path": {"File Attachments", "pdf_path"},
}

// requiredFields must resolve to a column or loading fails.
var requiredFields = []string{"paper_id", "title"}

// LoadOptions adjusts corpus loading.
type LoadOptions struct {
	// Limit caps the number of papers loaded. Zero means no limit.
	Limit int

	// SkipMissingAbstracts drops rows without an abstract instead of
	// substituting the title.
	SkipMissingAbstracts bool
}

// LoadSummary reports what the loader found.
type LoadSummary struct {
	Loaded           int
	MissingAbstracts int
	Skipped          int
}

// LoadCSV reads the corpus from path. Missing required columns are a fatal
// error naming the field and listing the available columns; papers without
// an abstract get the title as a surrogate, tagged so downstream stages can
// treat them conservatively.
func LoadCSV(path string, opts LoadOptions) ([]types.Paper, LoadSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadSummary{}, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer f.Close()

	papers, summary, err := Read(f, opts)
	if err != nil {
		return nil, summary, fmt.Errorf("loading corpus %s: %w", path, err)
	}
	return papers, summary, nil
}

// Read parses corpus CSV from r. See LoadCSV.
func Read(r io.Reader, opts LoadOptions) ([]types.Paper, LoadSummary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, LoadSummary{}, fmt.Errorf("reading header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, LoadSummary{}, err
	}

	var (
		papers  []types.Paper
		summary LoadSummary
	)

	// row counts CSV rows including the header, so skipped rows still
	// advance it and errors name the actual file row.
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, summary, fmt.Errorf("reading row %d: %w", row, err)
		}
		if opts.Limit > 0 && len(papers) >= opts.Limit {
			break
		}

		get := func(field string) string {
			idx, ok := cols[field]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		p := types.Paper{
			PaperID:  get("paper_id"),
			Title:    get("title"),
			Authors:  get("authors"),
			Venue:    get("venue"),
			URL:      get("url"),
			Abstract: get("abstract"),
			PDFPath:  get("pdf_path"),
		}
		if y, err := strconv.Atoi(get("year")); err == nil {
			p.Year = y
		}

		if p.Abstract == "" {
			summary.MissingAbstracts++
			if opts.SkipMissingAbstracts {
				summary.Skipped++
				continue
			}
			// Title surrogate: downstream prompts are told there is no
			// real abstract.
			p.Abstract = p.Title
			p.AbstractIsSurrogate = true
		}

		papers = append(papers, p)
	}

	summary.Loaded = len(papers)
	return papers, summary, nil
}

// resolveColumns maps canonical field names to header indices through the
// alias table. A required field with no matching column is a hard failure.
func resolveColumns(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	cols := make(map[string]int)
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			if i, ok := index[alias]; ok {
				cols[field] = i
				break
			}
		}
	}

	for _, field := range requiredFields {
		if _, ok := cols[field]; !ok {
			return nil, fmt.Errorf("required column %q not found; available columns: %s",
				field, strings.Join(header, ", "))
		}
	}

	return cols, nil
}
