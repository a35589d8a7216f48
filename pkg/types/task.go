// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"strings"

	"go.yaml.in/yaml/v3"
)

// TaskExtractionResult is the output of the binary classifier or the detail
// extractor for one paper. A paper holds at most one live instance; the
// detail extractor's result supersedes the classifier's when the cascade
// proceeds.
type TaskExtractionResult struct {
	// PaperID identifies the source paper.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// HasCodingTask reports whether the study involved a coding task.
	HasCodingTask bool `json:"has_coding_task" yaml:"has_coding_task"`

	// Confidence is the model's self-reported confidence in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// RawTaskDescription is the full model response, retained only when a
	// coding task was judged present.
	RawTaskDescription string `json:"raw_task_description,omitempty" yaml:"raw_task_description,omitempty"`

	// ExtractionReason is a brief explanation of the decision.
	ExtractionReason string `json:"extraction_reason" yaml:"extraction_reason"`
}

// SkillLevel is one participant experience tier.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "Beginner"
	SkillIntermediate SkillLevel = "Intermediate"
	SkillExpert       SkillLevel = "Expert"
)

// skillOrder fixes the canonical serialization order.
var skillOrder = []SkillLevel{SkillBeginner, SkillIntermediate, SkillExpert}

// SkillLevels is the set of experience tiers present in a study. Multi-level
// studies carry every observed tier; the wire form is a comma-joined list in
// canonical order. The legacy "Mixed" sentinel is accepted on input and
// expands to all three tiers, but is never produced on output.
type SkillLevels []SkillLevel

// ParseSkillLevels parses a comma-joined level list. Unrecognized entries are
// ignored; duplicates collapse.
func ParseSkillLevels(s string) SkillLevels {
	present := map[SkillLevel]bool{}
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "beginner", "novice":
			present[SkillBeginner] = true
		case "intermediate":
			present[SkillIntermediate] = true
		case "expert", "professional":
			present[SkillExpert] = true
		case "mixed":
			for _, l := range skillOrder {
				present[l] = true
			}
		}
	}

	var levels SkillLevels
	for _, l := range skillOrder {
		if present[l] {
			levels = append(levels, l)
		}
	}
	return levels
}

// String returns the canonical comma-joined form, or "" for the empty set.
func (s SkillLevels) String() string {
	parts := make([]string, len(s))
	for i, l := range s {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}

func (s SkillLevels) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SkillLevels) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseSkillLevels(raw)
	return nil
}

func (s SkillLevels) MarshalYAML() (any, error) {
	return s.String(), nil
}

func (s *SkillLevels) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*s = ParseSkillLevels(raw)
	return nil
}

// DomainLabel is a member of the closed programming-domain set.
type DomainLabel string

const (
	DomainDataScience DomainLabel = "Data Science/Analytics"
	DomainWeb         DomainLabel = "Web Development"
	DomainMobile      DomainLabel = "Mobile Development"
	DomainGames       DomainLabel = "Game Development"
	DomainHCI         DomainLabel = "Human-Computer Interaction"
	DomainAIML        DomainLabel = "Artificial Intelligence/ML"
	DomainSystems     DomainLabel = "System Programming"
	DomainSoftwareEng DomainLabel = "Software Engineering"
	DomainCreative    DomainLabel = "Creative/Media"
	DomainEducation   DomainLabel = "Education/Learning"
	DomainResearch    DomainLabel = "Research Tools"
	DomainOther       DomainLabel = "Other"
)

var domainLabels = []DomainLabel{
	DomainDataScience, DomainWeb, DomainMobile, DomainGames, DomainHCI,
	DomainAIML, DomainSystems, DomainSoftwareEng, DomainCreative,
	DomainEducation, DomainResearch,
}

// Domain is a tagged categorization value: either a known DomainLabel, or
// DomainOther carrying the model's free-text description. Parsing never
// fails; unknown values are preserved verbatim under Other.
type Domain struct {
	Label DomainLabel `json:"label" yaml:"label"`
	Other string      `json:"other,omitempty" yaml:"other,omitempty"`
}

// ParseDomain matches known labels case-insensitively; anything else becomes
// an Other value with the original text preserved. Empty input yields the
// zero (unset) Domain.
func ParseDomain(s string) Domain {
	s = strings.TrimSpace(s)
	if s == "" {
		return Domain{}
	}
	for _, l := range domainLabels {
		if strings.EqualFold(s, string(l)) {
			return Domain{Label: l}
		}
	}
	if strings.EqualFold(s, string(DomainOther)) {
		return Domain{Label: DomainOther}
	}
	// "Other: robotics" keeps just the description.
	if rest, ok := strings.CutPrefix(s, "Other:"); ok {
		return Domain{Label: DomainOther, Other: strings.TrimSpace(rest)}
	}
	return Domain{Label: DomainOther, Other: s}
}

// IsSet reports whether the value carries any categorization.
func (d Domain) IsSet() bool { return d.Label != "" }

// String returns the label, or the preserved description for Other values.
func (d Domain) String() string {
	if d.Label == DomainOther && d.Other != "" {
		return d.Other
	}
	return string(d.Label)
}

func (d Domain) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Domain) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = ParseDomain(raw)
	return nil
}

func (d Domain) MarshalYAML() (any, error) { return d.String(), nil }

func (d *Domain) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*d = ParseDomain(raw)
	return nil
}

// TaskTypeLabel is a member of the closed task-type set.
type TaskTypeLabel string

const (
	TaskDebugging       TaskTypeLabel = "Debugging"
	TaskComprehension   TaskTypeLabel = "Code Comprehension"
	TaskFeatureDev      TaskTypeLabel = "Feature Development"
	TaskCodeQuality     TaskTypeLabel = "Code Quality"
	TaskTesting         TaskTypeLabel = "Testing & Validation"
	TaskProblemSolving  TaskTypeLabel = "Problem Solving"
	TaskToolUsage       TaskTypeLabel = "Tool Usage"
	TaskUIDesign        TaskTypeLabel = "User Interface Design"
	TaskCollaboration   TaskTypeLabel = "Collaboration"
	TaskContentCreation TaskTypeLabel = "Content Creation"
	TaskOther           TaskTypeLabel = "Other"
)

var taskTypeLabels = []TaskTypeLabel{
	TaskDebugging, TaskComprehension, TaskFeatureDev, TaskCodeQuality,
	TaskTesting, TaskProblemSolving, TaskToolUsage, TaskUIDesign,
	TaskCollaboration, TaskContentCreation,
}

// TaskType is a tagged categorization value, same shape as Domain.
type TaskType struct {
	Label TaskTypeLabel `json:"label" yaml:"label"`
	Other string        `json:"other,omitempty" yaml:"other,omitempty"`
}

// ParseTaskType matches known labels case-insensitively; unknown values are
// preserved under Other.
func ParseTaskType(s string) TaskType {
	s = strings.TrimSpace(s)
	if s == "" {
		return TaskType{}
	}
	for _, l := range taskTypeLabels {
		if strings.EqualFold(s, string(l)) {
			return TaskType{Label: l}
		}
	}
	if strings.EqualFold(s, string(TaskOther)) {
		return TaskType{Label: TaskOther}
	}
	if rest, ok := strings.CutPrefix(s, "Other:"); ok {
		return TaskType{Label: TaskOther, Other: strings.TrimSpace(rest)}
	}
	return TaskType{Label: TaskOther, Other: s}
}

// IsSet reports whether the value carries any categorization.
func (t TaskType) IsSet() bool { return t.Label != "" }

// String returns the label, or the preserved description for Other values.
func (t TaskType) String() string {
	if t.Label == TaskOther && t.Other != "" {
		return t.Other
	}
	return string(t.Label)
}

func (t TaskType) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *TaskType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = ParseTaskType(raw)
	return nil
}

func (t TaskType) MarshalYAML() (any, error) { return t.String(), nil }

func (t *TaskType) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*t = ParseTaskType(raw)
	return nil
}

// CodeScope is the size of the code participants worked with. The set is
// strictly closed; values outside it are dropped at parse time.
type CodeScope string

const (
	ScopeSnippet     CodeScope = "Snippet"
	ScopeFunction    CodeScope = "Function"
	ScopeModule      CodeScope = "Module"
	ScopePackage     CodeScope = "Package/Library"
	ScopeApplication CodeScope = "Full Application"
)

var codeScopes = []CodeScope{
	ScopeSnippet, ScopeFunction, ScopeModule, ScopePackage, ScopeApplication,
}

// ParseCodeScope matches a scope label case-insensitively.
func ParseCodeScope(s string) (CodeScope, bool) {
	s = strings.TrimSpace(s)
	for _, c := range codeScopes {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// TaskCategories is the structured categorization of one coding task. Any
// field may be unset, but the categorizer is instructed to prefer educated
// guesses over absence.
type TaskCategories struct {
	// TaskSummary is a concise description of what participants did.
	TaskSummary string `json:"task_summary" yaml:"task_summary"`

	// SkillLevels is the set of participant experience tiers.
	SkillLevels SkillLevels `json:"participant_skill_level,omitempty" yaml:"participant_skill_level,omitempty"`

	// ProgrammingLanguage lists the language(s) participants used, primary first.
	ProgrammingLanguage string `json:"programming_language,omitempty" yaml:"programming_language,omitempty"`

	// Domain is the programming domain the task belongs to.
	Domain Domain `json:"programming_domain,omitempty" yaml:"programming_domain,omitempty"`

	// SubDomain is the specific area within the domain.
	SubDomain string `json:"programming_sub_domain,omitempty" yaml:"programming_sub_domain,omitempty"`

	// TaskType is the primary activity participants performed.
	TaskType TaskType `json:"task_type,omitempty" yaml:"task_type,omitempty"`

	// CodeScope is the size of the code involved.
	CodeScope CodeScope `json:"code_size_scope,omitempty" yaml:"code_size_scope,omitempty"`

	// EvaluationMetrics describes how performance was measured.
	EvaluationMetrics string `json:"evaluation_metrics,omitempty" yaml:"evaluation_metrics,omitempty"`

	// ToolsEnvironment lists the development tools and IDEs used.
	ToolsEnvironment string `json:"tools_environment,omitempty" yaml:"tools_environment,omitempty"`

	// ResearchFocus describes what aspect the study investigated.
	ResearchFocus string `json:"research_focus,omitempty" yaml:"research_focus,omitempty"`

	// IsProgrammingRelated reports whether the paper concerns programming
	// tools or development.
	IsProgrammingRelated bool `json:"is_programming_related" yaml:"is_programming_related"`

	// IsAIRelated reports whether the study involves AI or LLM tooling.
	IsAIRelated bool `json:"is_ai_related" yaml:"is_ai_related"`
}
