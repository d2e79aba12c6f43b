// Package types provides type definitions for the profile and application
// data used throughout the job-pilot system.
package types

import (
	"strings"

	"github.com/google/uuid"
)

// PersonalDetails holds the user's contact information and social links.
// There is exactly one per user; updates replace it in place.
type PersonalDetails struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

// EmploymentEntry represents one job in the user's employment history.
// SkillsDemonstrated holds skill display names, not SkillEntry ids; the
// association between skills and employment is resolved by case-insensitive
// name matching so that AI-extracted names can predate their SkillEntry.
type EmploymentEntry struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	Company            string    `json:"company"`
	Dates              string    `json:"dates"`
	Description        string    `json:"description"`
	JobSummary         string    `json:"job_summary,omitempty"`
	SkillsDemonstrated []string  `json:"skills_demonstrated,omitempty"`
}

// ProjectEntry represents a personal or professional project.
type ProjectEntry struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Association     string    `json:"association,omitempty"`
	Dates           string    `json:"dates"`
	RoleDescription string    `json:"role_description"`
	SkillsUsed      []string  `json:"skills_used,omitempty"`
	Link            string    `json:"link,omitempty"`
}

// SkillEntry represents a named skill. Name uniqueness is enforced
// case-insensitively within a user's collection; Category is empty until
// assigned by the categorization policy or the user.
type SkillEntry struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
}

// EducationEntry represents one entry in the user's education history.
type EducationEntry struct {
	ID           uuid.UUID `json:"id"`
	Institution  string    `json:"institution"`
	Degree       string    `json:"degree"`
	FieldOfStudy string    `json:"field_of_study,omitempty"`
	Dates        string    `json:"dates"`
	Description  string    `json:"description,omitempty"`
}

// Profile is the full professional profile for one user.
type Profile struct {
	PersonalDetails PersonalDetails   `json:"personal_details"`
	Employment      []EmploymentEntry `json:"employment,omitempty"`
	Projects        []ProjectEntry    `json:"projects,omitempty"`
	Skills          []SkillEntry      `json:"skills,omitempty"`
	Education       []EducationEntry  `json:"education,omitempty"`
	Background      string            `json:"background,omitempty"`
}

// NormalizeSkillName lowercases and trims a skill name to its canonical
// comparison form. Every case-insensitive skill lookup goes through this.
func NormalizeSkillName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SkillNamesEqual reports whether two skill names refer to the same skill.
func SkillNamesEqual(a, b string) bool {
	return NormalizeSkillName(a) == NormalizeSkillName(b)
}

// Clone returns a deep copy of the profile. Mutations are staged on a clone
// and committed only after the persistence collaborator accepts them.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := &Profile{
		PersonalDetails: p.PersonalDetails,
		Background:      p.Background,
	}
	if p.Employment != nil {
		c.Employment = make([]EmploymentEntry, len(p.Employment))
		for i, e := range p.Employment {
			c.Employment[i] = e
			c.Employment[i].SkillsDemonstrated = cloneStrings(e.SkillsDemonstrated)
		}
	}
	if p.Projects != nil {
		c.Projects = make([]ProjectEntry, len(p.Projects))
		for i, pr := range p.Projects {
			c.Projects[i] = pr
			c.Projects[i].SkillsUsed = cloneStrings(pr.SkillsUsed)
		}
	}
	if p.Skills != nil {
		c.Skills = make([]SkillEntry, len(p.Skills))
		copy(c.Skills, p.Skills)
	}
	if p.Education != nil {
		c.Education = make([]EducationEntry, len(p.Education))
		copy(c.Education, p.Education)
	}
	return c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
