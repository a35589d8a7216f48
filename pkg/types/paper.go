// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the codetask pipeline:
// paper metadata, per-stage verdicts, categorization values, quality scores,
// and stage configuration.
package types

import "strings"

// Paper holds the bibliographic record for one study paper. Records are
// immutable once loaded from the corpus CSV.
type Paper struct {
	// PaperID is the unique corpus key (e.g. a Zotero item key).
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors is the comma-separated author list as exported.
	Authors string `json:"authors" yaml:"authors"`

	// Venue is the conference or journal name.
	Venue string `json:"venue" yaml:"venue"`

	// Year is the publication year.
	Year int `json:"year" yaml:"year"`

	// URL is the paper URL, when the export carried one.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Abstract is the paper abstract. When the export had none, the
	// loader backfills it from the title and sets AbstractIsSurrogate.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// PDFPath is the local path to the paper's PDF, when known.
	PDFPath string `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`

	// AbstractIsSurrogate marks papers whose Abstract is a title fallback
	// rather than a real abstract. Downstream prompts treat these more
	// conservatively.
	AbstractIsSurrogate bool `json:"abstract_is_surrogate,omitempty" yaml:"abstract_is_surrogate,omitempty"`
}

// SearchableText returns the concatenated title and abstract used by the
// relevance filter. Surrogate abstracts duplicate the title, so only the
// title is returned for those.
func (p Paper) SearchableText() string {
	if p.AbstractIsSurrogate || p.Abstract == "" {
		return strings.TrimSpace(p.Title)
	}
	return strings.TrimSpace(p.Title + " " + p.Abstract)
}

// FilterResult is the relevance filter's verdict for one paper.
type FilterResult struct {
	// PaperID identifies the scored paper.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// IsRelevant reports whether the paper passes the keyword filter.
	IsRelevant bool `json:"is_relevant" yaml:"is_relevant"`

	// RelevanceScore is the normalized keyword score, clamped to [0,1].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// Reason is a short human-readable explanation of the verdict.
	Reason string `json:"reason" yaml:"reason"`

	// KeywordsFound lists matched keywords in scan order.
	KeywordsFound []string `json:"keywords_found,omitempty" yaml:"keywords_found,omitempty"`
}
