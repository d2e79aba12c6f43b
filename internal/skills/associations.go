// Package skills provides the skill-association engine and the skill
// categorization policy. Associations between skills and employment/project
// entries are name-based: a case-insensitive match against the entry's skill
// name lists, with no referential-integrity requirement against the
// SkillEntry collection.
package skills

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/job-pilot/internal/store"
	"github.com/jonathan/job-pilot/internal/types"
)

// Associations holds the entries that reference a given skill name.
type Associations struct {
	Employment []types.EmploymentEntry `json:"employment"`
	Projects   []types.ProjectEntry    `json:"projects"`
}

// Associated computes which employment and project entries reference
// skillName, matching case-insensitively. Pure derivation; never persisted.
func Associated(profile *types.Profile, skillName string) Associations {
	var out Associations
	for _, e := range profile.Employment {
		if containsSkillName(e.SkillsDemonstrated, skillName) {
			out.Employment = append(out.Employment, e)
		}
	}
	for _, p := range profile.Projects {
		if containsSkillName(p.SkillsUsed, skillName) {
			out.Projects = append(out.Projects, p)
		}
	}
	return out
}

// UsedSkillNames returns the set of normalized skill names referenced by any
// employment or project entry. The UI uses this to flag skills as in-use;
// it is a derived read, recomputed after every toggle.
func UsedSkillNames(profile *types.Profile) map[string]struct{} {
	used := make(map[string]struct{})
	for _, e := range profile.Employment {
		for _, name := range e.SkillsDemonstrated {
			used[types.NormalizeSkillName(name)] = struct{}{}
		}
	}
	for _, p := range profile.Projects {
		for _, name := range p.SkillsUsed {
			used[types.NormalizeSkillName(name)] = struct{}{}
		}
	}
	delete(used, "")
	return used
}

func containsSkillName(names []string, skillName string) bool {
	for _, n := range names {
		if types.SkillNamesEqual(n, skillName) {
			return true
		}
	}
	return false
}

// Engine executes association commands against the entity store.
type Engine struct {
	store *store.Store
}

// NewEngine creates an association engine over the given store.
func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// ToggleJobAssociation adds skillName to the employment entry's
// skillsDemonstrated list if absent, else removes it. Toggling against an id
// that no longer exists is a silent no-op. Toggling twice with identical
// arguments restores the original list.
func (e *Engine) ToggleJobAssociation(ctx context.Context, jobID uuid.UUID, skillName string) error {
	profile := e.store.Profile()
	for _, entry := range profile.Employment {
		if entry.ID != jobID {
			continue
		}
		entry.SkillsDemonstrated = e.toggled(entry.SkillsDemonstrated, skillName)
		return e.store.UpdateEmployment(ctx, entry)
	}
	return nil
}

// ToggleProjectAssociation adds skillName to the project entry's skillsUsed
// list if absent, else removes it. Unknown project ids are a silent no-op.
func (e *Engine) ToggleProjectAssociation(ctx context.Context, projectID uuid.UUID, skillName string) error {
	profile := e.store.Profile()
	for _, entry := range profile.Projects {
		if entry.ID != projectID {
			continue
		}
		entry.SkillsUsed = e.toggled(entry.SkillsUsed, skillName)
		return e.store.UpdateProject(ctx, entry)
	}
	return nil
}

// toggled returns the list with skillName removed if any casing variant is
// present, or appended otherwise. A fresh add uses the canonical SkillEntry
// display name when one exists, else the spelling the caller supplied.
func (e *Engine) toggled(names []string, skillName string) []string {
	for i, n := range names {
		if types.SkillNamesEqual(n, skillName) {
			out := make([]string, 0, len(names)-1)
			out = append(out, names[:i]...)
			return append(out, names[i+1:]...)
		}
	}
	display := skillName
	if entry := e.store.FindSkill(skillName); entry != nil {
		display = entry.Name
	}
	out := make([]string, 0, len(names)+1)
	out = append(out, names...)
	return append(out, display)
}
