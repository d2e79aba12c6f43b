package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/job-pilot/internal/types"
)

// TemplateGenerator is the deterministic fallback generation strategy. It
// renders the profile into fixed resume templates without calling any
// external service, so the application remains usable when the AI
// collaborator is unreachable. Selected via configuration, never as an
// implicit fallback branch.
type TemplateGenerator struct{}

// NewTemplateGenerator creates the fallback generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate renders one application kit deterministically: identical requests
// produce identical results.
func (g *TemplateGenerator) Generate(_ context.Context, req types.GenerationRequest) (*types.GenerationResult, error) {
	jobTitle := firstNonEmptyLine(req.JobDescription)
	company := extractCompany(req.JobDescription)

	name := req.PersonalDetails.Name
	if name == "" {
		name = "Candidate"
	}

	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", name)
	if req.PersonalDetails.Email != "" {
		fmt.Fprintf(&md, "%s\n\n", req.PersonalDetails.Email)
	}
	if len(req.EmploymentHistory) > 0 {
		md.WriteString("## Experience\n\n")
		for _, e := range req.EmploymentHistory {
			fmt.Fprintf(&md, "### %s, %s (%s)\n\n%s\n\n", e.Title, e.Company, e.Dates, e.Description)
		}
	}
	if len(req.Projects) > 0 {
		md.WriteString("## Projects\n\n")
		for _, p := range req.Projects {
			fmt.Fprintf(&md, "### %s (%s)\n\n%s\n\n", p.Name, p.Dates, p.RoleDescription)
		}
	}
	if len(req.Skills) > 0 {
		md.WriteString("## Skills\n\n")
		names := make([]string, len(req.Skills))
		for i, s := range req.Skills {
			names[i] = s.Name
		}
		fmt.Fprintf(&md, "%s\n\n", strings.Join(names, ", "))
	}
	if len(req.EducationHistory) > 0 {
		md.WriteString("## Education\n\n")
		for _, e := range req.EducationHistory {
			fmt.Fprintf(&md, "%s, %s (%s)\n\n", e.Degree, e.Institution, e.Dates)
		}
	}

	var tex strings.Builder
	tex.WriteString("\\documentclass[11pt]{article}\n")
	if req.AccentColor != "" {
		fmt.Fprintf(&tex, "%% accent: %s\n", req.AccentColor)
	}
	tex.WriteString("\\begin{document}\n")
	fmt.Fprintf(&tex, "\\section*{%s}\n", escapeLaTeX(name))
	for _, e := range req.EmploymentHistory {
		fmt.Fprintf(&tex, "\\subsection*{%s --- %s}\n%s\n",
			escapeLaTeX(e.Title), escapeLaTeX(e.Company), escapeLaTeX(e.Description))
	}
	tex.WriteString("\\end{document}\n")

	summary := fmt.Sprintf("%s with %d prior roles applying for %s.",
		name, len(req.EmploymentHistory), orUnknown(jobTitle, "the advertised role"))

	coverLetter := fmt.Sprintf(
		"Dear Hiring Manager,\n\nI am writing to apply for %s%s. My background covers %d roles and %d projects, and I believe my experience is a strong match for this position.\n\nSincerely,\n%s\n",
		orUnknown(jobTitle, "the advertised role"), atCompany(company), len(req.EmploymentHistory), len(req.Projects), name)

	match := buildMatchAnalysis(req)

	return &types.GenerationResult{
		Resume:            tex.String(),
		ResumeMarkdown:    md.String(),
		Summary:           summary,
		CoverLetter:       coverLetter,
		MatchAnalysis:     match,
		JobTitleFromJD:    jobTitle,
		CompanyNameFromJD: company,
	}, nil
}

// buildMatchAnalysis lists which of the user's skills appear verbatim in the
// job description.
func buildMatchAnalysis(req types.GenerationRequest) string {
	jd := strings.ToLower(req.JobDescription)
	var matched, missing []string
	for _, s := range req.Skills {
		if strings.Contains(jd, types.NormalizeSkillName(s.Name)) {
			matched = append(matched, s.Name)
		} else {
			missing = append(missing, s.Name)
		}
	}
	var sb strings.Builder
	if len(matched) > 0 {
		fmt.Fprintf(&sb, "Skills matching the job description: %s.\n", strings.Join(matched, ", "))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&sb, "Skills not mentioned in the job description: %s.\n", strings.Join(missing, ", "))
	}
	if sb.Len() == 0 {
		sb.WriteString("No skills recorded to compare against the job description.\n")
	}
	return sb.String()
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// extractCompany looks for an "at <Company>" phrase on the first few lines.
func extractCompany(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 4 {
			break
		}
		lower := strings.ToLower(line)
		if idx := strings.Index(lower, " at "); idx >= 0 {
			company := strings.TrimSpace(line[idx+4:])
			company = strings.TrimRight(company, ".,;:")
			if company != "" {
				return company
			}
		}
	}
	return ""
}

func escapeLaTeX(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\textbackslash{}",
		"&", "\\&", "%", "\\%", "$", "\\$", "#", "\\#",
		"_", "\\_", "{", "\\{", "}", "\\}",
		"~", "\\textasciitilde{}", "^", "\\textasciicircum{}",
	)
	return replacer.Replace(s)
}

func orUnknown(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func atCompany(company string) string {
	if company == "" {
		return ""
	}
	return " at " + company
}
