package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jonathan/job-pilot/internal/prompts"
	"github.com/jonathan/job-pilot/internal/schemas"
	"github.com/jonathan/job-pilot/internal/types"
)

// GeminiGenerator produces application kits (resume, cover letter, summary,
// match analysis) via the Gemini client. It satisfies the resume variant
// manager's Generator interface.
type GeminiGenerator struct {
	client Client
}

// NewGeminiGenerator creates a generator over the given client.
func NewGeminiGenerator(client Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

// Generate produces one application kit for the request.
func (g *GeminiGenerator) Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResult, error) {
	profileJSON, err := json.MarshalIndent(struct {
		PersonalDetails types.PersonalDetails   `json:"personal_details"`
		Education       []types.EducationEntry  `json:"education_history,omitempty"`
		Employment      []types.EmploymentEntry `json:"employment_history,omitempty"`
		Skills          []types.SkillEntry      `json:"skills,omitempty"`
		Projects        []types.ProjectEntry    `json:"projects,omitempty"`
		Background      string                  `json:"background_information,omitempty"`
	}{
		PersonalDetails: req.PersonalDetails,
		Education:       req.EducationHistory,
		Employment:      req.EmploymentHistory,
		Skills:          req.Skills,
		Projects:        req.Projects,
		Background:      req.BackgroundInformation,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}

	prompt := prompts.Format(prompts.MustGet("generation.json", "generate_application_kit"),
		map[string]string{
			"JobDescription": req.JobDescription,
			"Profile":        string(profileJSON),
			"Template":       req.ResumeTemplate,
			"AccentColor":    req.AccentColor,
			"PageLimit":      strconv.Itoa(req.PageLimit),
		})

	raw, err := g.client.GenerateJSON(ctx, prompt, TierStandard)
	if err != nil {
		return nil, fmt.Errorf("failed to generate application kit: %w", err)
	}
	if err := schemas.Validate(schemas.GenerationResponse, []byte(raw)); err != nil {
		return nil, fmt.Errorf("generation response rejected: %w", err)
	}

	var result types.GenerationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}
	return &result, nil
}
