package filter

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/codetask/pkg/types"
)

func paper(id, title, abstract string) types.Paper {
	return types.Paper{PaperID: id, Title: title, Abstract: abstract}
}

func TestScoreBounds(t *testing.T) {
	f := New()

	tests := []struct {
		name  string
		paper types.Paper
	}{
		{
			name: "many positive keywords",
			paper: paper("p1", "Programming study",
				"Participants implemented a coding task with code generation, debugging, "+
					"programming, copilot, vs code, visual studio and a compiler."),
		},
		{
			name: "many negative keywords",
			paper: paper("p2", "A Systematic Review",
				"A systematic review and meta-analysis of qualitative literature using "+
					"thematic analysis, interview and focus group methods."),
		},
		{
			name:  "no keywords",
			paper: paper("p3", "Untitled", "Nothing matches here."),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Score(tt.paper)
			if got.RelevanceScore < 0.0 || got.RelevanceScore > 1.0 {
				t.Errorf("RelevanceScore = %f, want within [0,1]", got.RelevanceScore)
			}
		})
	}
}

func TestScoreNeutralPaperLandsMidScale(t *testing.T) {
	f := New()
	got := f.Score(paper("p1", "Untitled", "Nothing matches here."))

	// (0 + 0.5) / 1.5
	want := 1.0 / 3.0
	if diff := got.RelevanceScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("neutral score = %f, want %f", got.RelevanceScore, want)
	}
}

func TestScoreDebuggingStudyIsHighRelevance(t *testing.T) {
	f := New()
	p := paper("p1", "Developer Tools in Practice",
		"We conducted a study where 20 developers used VS Code to debug Python applications.")

	got := f.Score(p)

	if !got.IsRelevant {
		t.Fatalf("IsRelevant = false, want true (reason: %s)", got.Reason)
	}
	if got.RelevanceScore < 0.6 {
		t.Errorf("RelevanceScore = %f, want >= 0.6", got.RelevanceScore)
	}
	if !strings.Contains(got.Reason, "high relevance") {
		t.Errorf("Reason = %q, want high-relevance tier", got.Reason)
	}
}

func TestScoreSystematicReviewIsFilteredOut(t *testing.T) {
	f := New()
	p := types.Paper{
		PaperID:             "p1",
		Title:               "A Systematic Review of Gesture Interfaces",
		Abstract:            "Title: A Systematic Review of Gesture Interfaces",
		AbstractIsSurrogate: true,
	}

	got := f.Score(p)

	if got.IsRelevant {
		t.Fatalf("IsRelevant = true, want false (reason: %s)", got.Reason)
	}
	if got.RelevanceScore != 0.0 {
		t.Errorf("RelevanceScore = %f, want 0.0", got.RelevanceScore)
	}
	if !strings.Contains(got.Reason, "negative indicators") {
		t.Errorf("Reason = %q, want negative-indicator citation", got.Reason)
	}
	if !strings.Contains(got.Reason, "systematic review") {
		t.Errorf("Reason = %q, want it to cite %q", got.Reason, "systematic review")
	}
}

func TestScoreEmptyText(t *testing.T) {
	f := New()
	got := f.Score(types.Paper{PaperID: "p1"})

	if got.IsRelevant {
		t.Error("IsRelevant = true, want false")
	}
	if got.RelevanceScore != 0.0 {
		t.Errorf("RelevanceScore = %f, want 0.0", got.RelevanceScore)
	}
	if len(got.KeywordsFound) != 0 {
		t.Errorf("KeywordsFound = %v, want empty", got.KeywordsFound)
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	f := New()
	p := paper("p1", "Debugging with Copilot",
		"Participants debugged code in a user study using an AI code assistant.")

	first := f.Score(p)
	second := f.Score(p)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Score results differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestKeywordsFoundScanOrder(t *testing.T) {
	f := New()
	p := paper("p1", "Survey of Debugging Practice",
		"A programming user study on debugging.")

	got := f.Score(p)

	// High-relevance terms are scanned before medium and negative ones.
	idx := func(term string) int {
		for i, k := range got.KeywordsFound {
			if k == term {
				return i
			}
		}
		t.Fatalf("keyword %q not found in %v", term, got.KeywordsFound)
		return -1
	}
	if idx("programming") > idx("user study") {
		t.Errorf("expected %q before %q in %v", "programming", "user study", got.KeywordsFound)
	}
	if idx("user study") > idx("survey") {
		t.Errorf("expected %q before %q in %v", "user study", "survey", got.KeywordsFound)
	}
}

func TestScoreBorderlineTier(t *testing.T) {
	f := New()
	// "user study" (0.2) alone: (0.2+0.5)/1.5 = 0.467, borderline.
	got := f.Score(paper("p1", "An HCI user study", "Participants took part in a lab session."))

	if !got.IsRelevant {
		t.Fatalf("IsRelevant = false, want true (reason: %s)", got.Reason)
	}
	if got.RelevanceScore < 0.3 || got.RelevanceScore >= 0.6 {
		t.Errorf("RelevanceScore = %f, want within [0.3, 0.6)", got.RelevanceScore)
	}
	if !strings.Contains(got.Reason, "borderline") {
		t.Errorf("Reason = %q, want borderline tier", got.Reason)
	}
}

func TestComputeStats(t *testing.T) {
	results := []types.FilterResult{
		{PaperID: "p1", IsRelevant: true, RelevanceScore: 0.8},
		{PaperID: "p2", IsRelevant: false, RelevanceScore: 0.1},
		{PaperID: "p3", IsRelevant: false, RelevanceScore: 0.0},
		{PaperID: "p4", IsRelevant: true, RelevanceScore: 0.5},
	}

	s := ComputeStats(results)

	if s.Total != 4 || s.Relevant != 2 || s.FilteredOut != 2 {
		t.Errorf("counts = %+v, want total 4, relevant 2, filtered 2", s)
	}
	if want := 0.35; s.MeanScore < want-1e-9 || s.MeanScore > want+1e-9 {
		t.Errorf("MeanScore = %f, want %f", s.MeanScore, want)
	}
	if s.RelevanceRate() != 0.5 || s.FilterRate() != 0.5 {
		t.Errorf("rates = %f/%f, want 0.5/0.5", s.RelevanceRate(), s.FilterRate())
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	s := ComputeStats(nil)
	if s.Total != 0 || s.RelevanceRate() != 0 || s.FilterRate() != 0 {
		t.Errorf("empty stats = %+v, want zeros", s)
	}
}
