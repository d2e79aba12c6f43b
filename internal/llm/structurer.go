package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/job-pilot/internal/prompts"
	"github.com/jonathan/job-pilot/internal/schemas"
	"github.com/jonathan/job-pilot/internal/types"
)

// SkillDraft is one skill extracted by the structurer, not yet persisted.
type SkillDraft struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// Structurer turns free-text blocks into structured profile records.
// Responses are validated against embedded JSON Schemas before use; a
// violation is surfaced as a collaborator error and nothing is applied.
type Structurer struct {
	client Client
}

// NewStructurer creates a structurer over the given client.
func NewStructurer(client Client) *Structurer {
	return &Structurer{client: client}
}

// ParseEmployment extracts an employment record from free text. The entry id
// is left unset; the store assigns one if the user accepts the record.
func (s *Structurer) ParseEmployment(ctx context.Context, text string) (*types.EmploymentEntry, error) {
	prompt := prompts.Format(prompts.MustGet("structuring.json", "parse_employment"),
		map[string]string{"Text": text})

	raw, err := s.client.GenerateJSON(ctx, prompt, TierStandard)
	if err != nil {
		return nil, fmt.Errorf("failed to parse employment text: %w", err)
	}
	if err := schemas.Validate(schemas.EmploymentResponse, []byte(raw)); err != nil {
		return nil, fmt.Errorf("employment response rejected: %w", err)
	}

	var entry types.EmploymentEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode employment response: %w", err)
	}
	return &entry, nil
}

// ParseProject extracts a project record from free text.
func (s *Structurer) ParseProject(ctx context.Context, text string) (*types.ProjectEntry, error) {
	prompt := prompts.Format(prompts.MustGet("structuring.json", "parse_project"),
		map[string]string{"Text": text})

	raw, err := s.client.GenerateJSON(ctx, prompt, TierStandard)
	if err != nil {
		return nil, fmt.Errorf("failed to parse project text: %w", err)
	}
	if err := schemas.Validate(schemas.ProjectResponse, []byte(raw)); err != nil {
		return nil, fmt.Errorf("project response rejected: %w", err)
	}

	var entry types.ProjectEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode project response: %w", err)
	}
	return &entry, nil
}

// ParseSkills extracts {name, category} pairs from free text for batch add.
func (s *Structurer) ParseSkills(ctx context.Context, text string, knownCategories []string) ([]SkillDraft, error) {
	prompt := prompts.Format(prompts.MustGet("structuring.json", "parse_skills"),
		map[string]string{
			"Text":       text,
			"Categories": strings.Join(knownCategories, ", "),
		})

	raw, err := s.client.GenerateJSON(ctx, prompt, TierStandard)
	if err != nil {
		return nil, fmt.Errorf("failed to parse skills text: %w", err)
	}
	if err := schemas.Validate(schemas.SkillsResponse, []byte(raw)); err != nil {
		return nil, fmt.Errorf("skills response rejected: %w", err)
	}

	var drafts []SkillDraft
	if err := json.Unmarshal([]byte(raw), &drafts); err != nil {
		return nil, fmt.Errorf("failed to decode skills response: %w", err)
	}
	return drafts, nil
}

// ClassifySkill assigns a category to a skill name, constrained to the known
// categories or a new suggestion. Implements the categorization policy's
// classifier collaborator.
func (s *Structurer) ClassifySkill(ctx context.Context, skillName string, knownCategories []string) (string, error) {
	prompt := prompts.Format(prompts.MustGet("structuring.json", "classify_skill"),
		map[string]string{
			"Skill":      skillName,
			"Categories": strings.Join(knownCategories, ", "),
		})

	raw, err := s.client.GenerateJSON(ctx, prompt, TierLite)
	if err != nil {
		return "", fmt.Errorf("failed to classify skill: %w", err)
	}

	var resp struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("failed to decode classification response: %w", err)
	}
	return strings.TrimSpace(resp.Category), nil
}

// SuggestLearning proposes topics to study for a job description given the
// user's current skills.
func (s *Structurer) SuggestLearning(ctx context.Context, jobDescription string, skills []types.SkillEntry) ([]string, error) {
	names := make([]string, len(skills))
	for i, sk := range skills {
		names[i] = sk.Name
	}
	prompt := prompts.Format(prompts.MustGet("structuring.json", "suggest_learning"),
		map[string]string{
			"JobDescription": jobDescription,
			"Skills":         strings.Join(names, ", "),
		})

	raw, err := s.client.GenerateJSON(ctx, prompt, TierStandard)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest learning topics: %w", err)
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(raw), &suggestions); err != nil {
		return nil, fmt.Errorf("failed to decode learning suggestions: %w", err)
	}
	return suggestions, nil
}
