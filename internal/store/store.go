// Package store provides the in-memory authoritative entity store for one
// signed-in user's profile and application data. All mutations are staged on
// deep copies, handed to the persistence collaborator, and committed in
// memory only after the save succeeds, so a failed save never leaves partial
// state behind.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-pilot/internal/types"
)

// Sentinel errors for the store's refusal taxonomy.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrDuplicateSkill indicates a skill name that case-insensitively
	// matches an existing SkillEntry.
	ErrDuplicateSkill = errors.New("duplicate skill name")
)

// Persister is the external persistence collaborator, keyed by user id.
// It exposes load-all/save-one semantics; the store issues a save after
// every mutation and does not batch or debounce.
type Persister interface {
	Load(ctx context.Context, userID uuid.UUID) (*types.Profile, []types.SavedApplication, error)
	SaveProfile(ctx context.Context, userID uuid.UUID, profile *types.Profile) error
	SaveApplication(ctx context.Context, userID uuid.UUID, app *types.SavedApplication) error
	DeleteApplication(ctx context.Context, userID uuid.UUID, appID uuid.UUID) error
}

// Migration is an idempotent pass applied to the profile once at load time.
// It returns true if it changed anything, in which case the store saves the
// profile once after all migrations ran.
type Migration func(profile *types.Profile) bool

// Store holds one user's entities. It assumes the single-writer execution
// model: one user intent is processed at a time, so no lock guards the
// collections.
type Store struct {
	userID    uuid.UUID
	persister Persister
	verbose   bool

	profile      *types.Profile
	applications []*types.SavedApplication
}

// New creates a store for the given user backed by the persistence
// collaborator. Call Load before issuing mutations.
func New(userID uuid.UUID, persister Persister) *Store {
	return &Store{
		userID:    userID,
		persister: persister,
		profile:   &types.Profile{},
	}
}

// SetVerbose enables mutation logging.
func (s *Store) SetVerbose(v bool) { s.verbose = v }

// UserID returns the id of the user this store is scoped to.
func (s *Store) UserID() uuid.UUID { return s.userID }

// Load fetches all collections from the persistence collaborator and applies
// the given migrations. If any migration reports a change the profile is
// saved back once.
func (s *Store) Load(ctx context.Context, migrations ...Migration) error {
	profile, apps, err := s.persister.Load(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("failed to load user data: %w", err)
	}
	if profile == nil {
		profile = &types.Profile{}
	}

	changed := false
	for _, m := range migrations {
		if m(profile) {
			changed = true
		}
	}
	if changed {
		if err := s.persister.SaveProfile(ctx, s.userID, profile); err != nil {
			return fmt.Errorf("failed to save migrated profile: %w", err)
		}
		if s.verbose {
			log.Printf("[STORE] applied profile migrations for user %s", s.userID)
		}
	}

	s.profile = profile
	s.applications = make([]*types.SavedApplication, len(apps))
	for i := range apps {
		app := apps[i]
		s.applications[i] = &app
	}
	return nil
}

// Profile returns the current profile. Callers must not mutate it directly;
// all writes go through store mutations.
func (s *Store) Profile() *types.Profile { return s.profile }

// mutateProfile stages the mutation on a clone, persists it, and commits.
func (s *Store) mutateProfile(ctx context.Context, mutate func(p *types.Profile) error) error {
	staged := s.profile.Clone()
	if err := mutate(staged); err != nil {
		return err
	}
	if err := s.persister.SaveProfile(ctx, s.userID, staged); err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}
	s.profile = staged
	return nil
}

// SetPersonalDetails replaces the personal details singleton.
func (s *Store) SetPersonalDetails(ctx context.Context, details types.PersonalDetails) error {
	return s.mutateProfile(ctx, func(p *types.Profile) error {
		p.PersonalDetails = details
		return nil
	})
}

// SetBackground replaces the free-text background information.
func (s *Store) SetBackground(ctx context.Context, background string) error {
	return s.mutateProfile(ctx, func(p *types.Profile) error {
		p.Background = background
		return nil
	})
}

// AddEmployment appends a new employment entry and returns it with its
// assigned id.
func (s *Store) AddEmployment(ctx context.Context, entry types.EmploymentEntry) (*types.EmploymentEntry, error) {
	entry.ID = uuid.New()
	err := s.mutateProfile(ctx, func(p *types.Profile) error {
		p.Employment = append(p.Employment, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEmployment replaces the employment entry with the same id.
func (s *Store) UpdateEmployment(ctx context.Context, entry types.EmploymentEntry) error {
	return s.mutateProfile(ctx, func(p *types.Profile) error {
		for i := range p.Employment {
			if p.Employment[i].ID == entry.ID {
				p.Employment[i] = entry
				return nil
			}
		}
		return fmt.Errorf("employment %s: %w", entry.ID, ErrNotFound)
	})
}

// DeleteEmployment removes an employment entry.
func (s *Store) DeleteEmployment(ctx context.Context, id uuid.UUID) error {
	return s.mutateProfile(ctx, func(p *types.Profile) error {
		for i := range p.Employment {
			if p.Employment[i].ID == id {
				p.Employment = append(p.Employment[:i], p.Employment[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("employment %s: %w", id, ErrNotFound)
	})
}

// AddProject appends a new project entry and returns it with its assigned id.
func (s *Store) AddProject(ctx context.Context, entry types.ProjectEntry) (*types.ProjectEntry, error) {
	entry.ID = uuid.New()
	err := s.mutateProfile(ctx, func(p *types.Profile) error {
		p.Projects = append(p.Projects, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateProject replaces the project entry with the same id.
func (s *Store) UpdateProject(ctx context.Context, entry types.ProjectEntry) error {
	return s.mutateProfile(ctx, func(p *types.Profile) error {
		for i := range p.Projects {
			if p.Projects[i].ID == entry.ID {
				p.Projects[i] = entry
				return nil
			}
		}
		return fmt.Errorf("project %s: %w", entry.ID, ErrNotFound)
	})
}

// DeleteProject removes a project entry.
func (s *Store) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return s.mutateProfile(ctx, func(p *types.Profile) error {
		for i := range p.Projects {
			if p.Projects[i].ID == id {
				p.Projects = append(p.Projects[:i], p.Projects[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	})
}

// AddEducation appends a new education entry and returns it with its id.
func (s *Store) AddEducation(ctx context.Context, entry types.EducationEntry) (*types.EducationEntry, error) {
	entry.ID = uuid.New()
	err := s.mutateProfile(ctx, func(p *types.Profile) error {
		p.Education = append(p.Education, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEducation replaces the education entry with the same id.
func (s *Store) UpdateEducation(ctx context.Context, entry types.EducationEntry) error {
	return s.mutateProfile(ctx, func(p *types.Profile) error {
		for i := range p.Education {
			if p.Education[i].ID == entry.ID {
				p.Education[i] = entry
				return nil
			}
		}
		return fmt.Errorf("education %s: %w", entry.ID, ErrNotFound)
	})
}

// DeleteEducation removes an education entry.
func (s *Store) DeleteEducation(ctx context.Context, id uuid.UUID) error {
	return s.mutateProfile(ctx, func(p *types.Profile) error {
		for i := range p.Education {
			if p.Education[i].ID == id {
				p.Education = append(p.Education[:i], p.Education[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("education %s: %w", id, ErrNotFound)
	})
}

// FindSkill returns the SkillEntry whose name case-insensitively matches
// name, or nil if none exists.
func (s *Store) FindSkill(name string) *types.SkillEntry {
	for i := range s.profile.Skills {
		if types.SkillNamesEqual(s.profile.Skills[i].Name, name) {
			return &s.profile.Skills[i]
		}
	}
	return nil
}

// AddSkill creates a new skill entry. Adding a name that case-insensitively
// matches an existing skill is refused with ErrDuplicateSkill.
func (s *Store) AddSkill(ctx context.Context, name, category string) (*types.SkillEntry, error) {
	if types.NormalizeSkillName(name) == "" {
		return nil, fmt.Errorf("skill name cannot be empty")
	}
	if s.FindSkill(name) != nil {
		return nil, fmt.Errorf("skill %q: %w", name, ErrDuplicateSkill)
	}
	entry := types.SkillEntry{ID: uuid.New(), Name: name, Category: category}
	err := s.mutateProfile(ctx, func(p *types.Profile) error {
		p.Skills = append(p.Skills, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateSkill replaces the skill entry with the same id. Renaming onto
// another skill's name (case-insensitively) is refused.
func (s *Store) UpdateSkill(ctx context.Context, entry types.SkillEntry) error {
	return s.mutateProfile(ctx, func(p *types.Profile) error {
		for i := range p.Skills {
			if p.Skills[i].ID != entry.ID && types.SkillNamesEqual(p.Skills[i].Name, entry.Name) {
				return fmt.Errorf("skill %q: %w", entry.Name, ErrDuplicateSkill)
			}
		}
		for i := range p.Skills {
			if p.Skills[i].ID == entry.ID {
				p.Skills[i] = entry
				return nil
			}
		}
		return fmt.Errorf("skill %s: %w", entry.ID, ErrNotFound)
	})
}

// DeleteSkill removes a skill entry. Name references inside
// skillsDemonstrated/skillsUsed are deliberately left intact; associations
// are name-based and survive the SkillEntry's removal.
func (s *Store) DeleteSkill(ctx context.Context, id uuid.UUID) error {
	return s.mutateProfile(ctx, func(p *types.Profile) error {
		for i := range p.Skills {
			if p.Skills[i].ID == id {
				p.Skills = append(p.Skills[:i], p.Skills[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("skill %s: %w", id, ErrNotFound)
	})
}

// Applications returns all applications in creation order.
func (s *Store) Applications() []*types.SavedApplication { return s.applications }

// Application returns the application with the given id.
func (s *Store) Application(id uuid.UUID) (*types.SavedApplication, error) {
	for _, app := range s.applications {
		if app.ID == id {
			return app, nil
		}
	}
	return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
}

// CreateApplication stores a new application in the saved state.
func (s *Store) CreateApplication(ctx context.Context, app types.SavedApplication) (*types.SavedApplication, error) {
	app.ID = uuid.New()
	app.Status = types.StatusSaved
	app.CreatedAt = time.Now().UTC()
	if err := s.persister.SaveApplication(ctx, s.userID, &app); err != nil {
		return nil, fmt.Errorf("failed to persist application: %w", err)
	}
	stored := app
	s.applications = append(s.applications, &stored)
	if s.verbose {
		log.Printf("[STORE] created application %s (%s at %s)", stored.ID, stored.JobTitle, stored.CompanyName)
	}
	return &stored, nil
}

// MutateApplication stages the mutation on a clone of the application,
// persists it, and commits. The supplementary-data attachment and status
// change of a lifecycle transition go through here as one atomic update.
func (s *Store) MutateApplication(ctx context.Context, id uuid.UUID, mutate func(app *types.SavedApplication) error) (*types.SavedApplication, error) {
	for i, app := range s.applications {
		if app.ID != id {
			continue
		}
		staged := app.Clone()
		if err := mutate(staged); err != nil {
			return nil, err
		}
		if err := s.persister.SaveApplication(ctx, s.userID, staged); err != nil {
			return nil, fmt.Errorf("failed to persist application: %w", err)
		}
		s.applications[i] = staged
		return staged, nil
	}
	return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
}

// DeleteApplication removes an application and its sub-entities.
func (s *Store) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	for i, app := range s.applications {
		if app.ID != id {
			continue
		}
		if err := s.persister.DeleteApplication(ctx, s.userID, id); err != nil {
			return fmt.Errorf("failed to delete application: %w", err)
		}
		s.applications = append(s.applications[:i], s.applications[i+1:]...)
		return nil
	}
	return fmt.Errorf("application %s: %w", id, ErrNotFound)
}
