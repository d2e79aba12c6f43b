package types

// GenerationRequest is the request shape sent to the AI generation
// collaborator. It carries the full profile alongside the target job
// description and the user's customization choices.
type GenerationRequest struct {
	JobDescription        string            `json:"job_description"`
	PersonalDetails       PersonalDetails   `json:"personal_details"`
	EducationHistory      []EducationEntry  `json:"education_history,omitempty"`
	EmploymentHistory     []EmploymentEntry `json:"employment_history,omitempty"`
	Skills                []SkillEntry      `json:"skills,omitempty"`
	Projects              []ProjectEntry    `json:"projects,omitempty"`
	BackgroundInformation string            `json:"background_information,omitempty"`
	ResumeTemplate        string            `json:"resume_template,omitempty"`
	AccentColor           string            `json:"accent_color,omitempty"`
	PageLimit             int               `json:"page_limit,omitempty"`
}

// GenerationResult is the response shape from the AI generation
// collaborator.
type GenerationResult struct {
	Resume            string `json:"resume"`
	ResumeMarkdown    string `json:"resume_markdown"`
	Summary           string `json:"summary"`
	CoverLetter       string `json:"cover_letter"`
	MatchAnalysis     string `json:"match_analysis"`
	JobTitleFromJD    string `json:"job_title_from_jd"`
	CompanyNameFromJD string `json:"company_name_from_jd"`
}
