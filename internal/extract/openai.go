// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/codetask/internal/httputil"
	"github.com/pdiddy/codetask/pkg/types"
)

// openAIAPIURL is the chat-completions endpoint. Package-level var for test
// substitution.
var openAIAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIBackend implements Completer and Categorizer over the OpenAI chat
// API. Construction fails without an API key, so availability is decided
// once up front rather than on every call.
type OpenAIBackend struct {
	apiKey      string
	model       string
	temperature float64
	maxRetries  int
	client      *http.Client
}

// NewOpenAIBackend validates the configuration and returns a ready backend.
func NewOpenAIBackend(cfg types.LLMConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: add .secrets/openai-api-key or set llm.api_key")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIBackend{
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		client:      http.DefaultClient,
	}, nil
}

// chatRequest is the request body for the chat-completions API.
type chatRequest struct {
	Model          string          `json:"model"`
	Temperature    float64         `json:"temperature"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the response body from the chat-completions API.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a system/user prompt pair and returns the model's text.
func (b *OpenAIBackend) Complete(ctx context.Context, system, user string) (string, error) {
	return b.call(ctx, system, user, nil)
}

// categoriesWire is the JSON schema the categorization stage requests. All
// categorical fields arrive as strings and go through the type parsers.
type categoriesWire struct {
	TaskSummary          string `json:"task_summary"`
	ParticipantSkill     string `json:"participant_skill_level"`
	ProgrammingLanguage  string `json:"programming_language"`
	ProgrammingDomain    string `json:"programming_domain"`
	ProgrammingSubDomain string `json:"programming_sub_domain"`
	TaskType             string `json:"task_type"`
	CodeSizeScope        string `json:"code_size_scope"`
	EvaluationMetrics    string `json:"evaluation_metrics"`
	ToolsEnvironment     string `json:"tools_environment"`
	ResearchFocus        string `json:"research_focus"`
	IsProgrammingRelated bool   `json:"is_programming_related"`
	IsAIRelated          bool   `json:"is_ai_related"`
}

// CompleteCategories requests a JSON response and parses it into the
// category schema. Sentinel values ("not specified" and friends) never
// reach the closed enum types.
func (b *OpenAIBackend) CompleteCategories(ctx context.Context, system, user string) (*types.TaskCategories, error) {
	text, err := b.call(ctx, system, user, &responseFormat{Type: "json_object"})
	if err != nil {
		return nil, err
	}

	var wire categoriesWire
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, fmt.Errorf("parsing categorization JSON: %w", err)
	}

	categories := &types.TaskCategories{
		TaskSummary:          wire.TaskSummary,
		ProgrammingLanguage:  wire.ProgrammingLanguage,
		SubDomain:            wire.ProgrammingSubDomain,
		EvaluationMetrics:    wire.EvaluationMetrics,
		ToolsEnvironment:     wire.ToolsEnvironment,
		ResearchFocus:        wire.ResearchFocus,
		IsProgrammingRelated: wire.IsProgrammingRelated,
		IsAIRelated:          wire.IsAIRelated,
	}
	if !isSentinel(wire.ParticipantSkill) {
		categories.SkillLevels = types.ParseSkillLevels(wire.ParticipantSkill)
	}
	if !isSentinel(wire.ProgrammingDomain) {
		categories.Domain = types.ParseDomain(wire.ProgrammingDomain)
	}
	if !isSentinel(wire.TaskType) {
		categories.TaskType = types.ParseTaskType(wire.TaskType)
	}
	if scope, ok := types.ParseCodeScope(wire.CodeSizeScope); ok {
		categories.CodeScope = scope
	}

	return categories, nil
}

// isSentinel reports whether a wire value is a "nothing here" placeholder
// that must not be parsed into a closed enum.
func isSentinel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "not specified", "unknown", "none", "n/a":
		return true
	}
	return false
}

func (b *OpenAIBackend) call(ctx context.Context, system, user string, format *responseFormat) (string, error) {
	reqBody := chatRequest{
		Model:       b.model,
		Temperature: b.temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: format,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := httputil.DoWithRetry(ctx, b.client, req, b.maxRetries)
	if err != nil {
		return "", fmt.Errorf("calling completion API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}

	return cResp.Choices[0].Message.Content, nil
}
