// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/codetask/pkg/types"
)

// binarySystemPrompt drives the YES/NO classification stage. The three-line
// response format is parsed by parseBinaryResponse; changing one requires
// changing the other.
const binarySystemPrompt = `You are an expert research assistant specializing in identifying programming and coding user studies in HCI research papers.

Your task is to determine: Does this paper describe a user study where participants performed coding, programming, or software development tasks?

RESPOND WITH EXACTLY THIS FORMAT:
Decision: [YES or NO]
Confidence: [0.0-1.0]
Reason: [One sentence explanation]

WHAT COUNTS AS YES (Programming User Study):
- Participants wrote, edited, or debugged code
- Participants used programming tools (IDEs, debuggers, code editors)
- Participants implemented algorithms or software features
- Participants used AI coding assistants (Copilot, ChatGPT for code)
- Participants worked with visual programming languages (Scratch, Blockly)
- Participants performed code review or analysis tasks

WHAT COUNTS AS NO (Not Programming Study):
- Papers that only MENTION programming but don't study it
- System papers describing tools without user evaluation
- Survey/review papers analyzing other research
- Studies of general software usage (using apps, not building them)
- UI/UX studies without programming components
- Purely theoretical or algorithmic papers

EXAMPLES:

Paper: "We conducted a study where 20 developers used VS Code to debug Python applications. Participants were given buggy code and asked to identify and fix errors."
Decision: YES
Confidence: 0.95
Reason: Participants actively debugged code using programming tools.

Paper: "Our system automatically generates UI layouts using machine learning. We evaluated the quality of generated interfaces through expert review."
Decision: NO
Confidence: 0.9
Reason: Expert review of generated outputs, no programming tasks performed by participants.

Paper: "We surveyed 100 software developers about their experiences with pair programming and collaborative coding practices."
Decision: NO
Confidence: 0.9
Reason: Survey research about programming practices, no hands-on coding tasks.

Be decisive but honest about your confidence level.`

// binaryUserTmpl renders the per-paper half of the classification prompt.
var binaryUserTmpl = template.Must(template.New("binary").Parse(`Based on the following research paper information, determine if this describes a programming user study:

Title: {{.Title}}

{{.ContentLabel}}: {{.Content}}
{{if .Context}}
Relevant excerpts from the paper:
{{.Context}}
{{end}}
NOTE: {{.Note}}

Analyze this content and respond in the exact format specified.`))

// detailsSystemPrompt drives the structured free-text extraction stage.
// The Key: value block is parsed by parseKeyValueBlock.
const detailsSystemPrompt = `You are an expert research assistant extracting detailed information about programming user studies.

Your task: Extract specific details about the coding tasks participants performed in this study.

RESPOND WITH EXACTLY THIS FORMAT:
Task Description: [What participants were asked to code/implement]
Participants: [Skill level, background, count if mentioned]
Programming Details: [Languages, tools, frameworks, libraries mentioned]
Task Scope: [Size/complexity - snippet, function, module, or application]
Study Setup: [Duration, environment, individual/group]
Evaluation: [How performance was measured]
Confidence: [0.0-1.0 how confident you are in this extraction]

FOCUS ON THESE KEY QUESTIONS:
1. What exactly did participants code, debug, or implement?
2. What programming languages, tools, or environments were used?
3. What was the scope/size of the coding task?
4. How experienced/skilled were the participants?
5. How was their performance evaluated?

EXTRACTION GUIDELINES:
- Be specific and factual - quote exact details when possible
- If information isn't explicitly stated, note "Not specified" for that field
- Look for technical indicators: file extensions (.py, .js), tool names (VS Code, Eclipse), library names (React, pandas)
- Distinguish between what participants used vs. what the research system was built with
- Include quantitative details (number of participants, task duration, lines of code)

Be thorough but concise. Focus on facts over interpretation.`

// detailsUserTmpl renders the per-paper half of the detail-extraction prompt.
var detailsUserTmpl = template.Must(template.New("details").Parse(`Extract detailed information about the programming user study described in this paper:

Title: {{.Title}}

{{.ContentLabel}}: {{.Content}}
{{if .Context}}
Relevant excerpts from the paper:
{{.Context}}
{{end}}{{if .Note}}
NOTE: {{.Note}}
{{end}}
Extract the key details using the format specified above.`))

// categorizeSystemPrompt drives the structured categorization stage. The
// model must emit a JSON object matching the TaskCategories wire schema and
// is told to guess from context clues rather than leave fields empty.
const categorizeSystemPrompt = `You are an expert research assistant categorizing programming tasks from user studies.

Your task: Categorize the extracted task information into a JSON object with exactly these fields:

{
  "task_summary": "concise summary of what participants did",
  "participant_skill_level": "comma-separated subset of: Beginner, Intermediate, Expert",
  "programming_language": "primary language(s) participants used, primary first",
  "programming_domain": "one of: Data Science/Analytics, Web Development, Mobile Development, Game Development, Human-Computer Interaction, Artificial Intelligence/ML, System Programming, Software Engineering, Creative/Media, Education/Learning, Research Tools, Other: <description>",
  "programming_sub_domain": "specific area within the domain",
  "task_type": "one of: Debugging, Code Comprehension, Feature Development, Code Quality, Testing & Validation, Problem Solving, Tool Usage, User Interface Design, Collaboration, Content Creation, Other: <description>",
  "code_size_scope": "one of: Snippet, Function, Module, Package/Library, Full Application",
  "evaluation_metrics": "how performance was measured",
  "tools_environment": "development tools/IDEs participants used",
  "research_focus": "what aspect was being studied",
  "is_programming_related": true or false,
  "is_ai_related": true or false
}

CATEGORIZATION GUIDELINES:
- Skill levels: "CS students" means Intermediate; "professional developers" means Expert; "novices" or "introductory" means Beginner. List every level present in the study, comma-separated.
- Languages: infer from file extensions (.py = Python, .js = JavaScript) and library names (pandas = Python, React = JavaScript). Include AI/Natural Language if participants used code generation tools.
- Domain: "data analysis" means Data Science/Analytics; "web app" means Web Development; "AI code generator" means Artificial Intelligence/ML.
- Task type: "debugging session" means Debugging; "implement function" means Feature Development at Function scope.
- Scope: estimate from context clues - single commands are Snippet, individual functions are Function, single files or classes are Module, multiple files or APIs are Package/Library, end-to-end systems are Full Application.

Always make educated guesses rather than leaving fields empty. Use context clues and domain knowledge. Respond with only the JSON object.`

// categorizeUserTmpl renders the categorization request around the extracted
// task details.
var categorizeUserTmpl = template.Must(template.New("categorize").Parse(`Categorize this programming task based on the extracted details:

{{.TaskDetails}}

Respond with the JSON object specified above.`))

// promptData carries the per-paper fields shared by the binary and detail
// prompts.
type promptData struct {
	Title        string
	ContentLabel string
	Content      string
	Context      string
	Note         string
}

// newPromptData prepares the user-prompt fields for a paper, flagging
// title-surrogate abstracts so the model can be conservative.
func newPromptData(paper types.Paper, context string) promptData {
	d := promptData{
		Title:   paper.Title,
		Content: paper.Abstract,
		Context: context,
	}
	if paper.AbstractIsSurrogate || paper.Abstract == "" {
		d.ContentLabel = "Title (no abstract available)"
		d.Content = paper.Title
		d.Note = "This paper lacks an abstract, so only the title is available. Be more conservative in your assessment."
	} else {
		d.ContentLabel = "Abstract"
		d.Note = "Full abstract is available for analysis."
	}
	return d
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
