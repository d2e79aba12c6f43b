// Package resumes implements the resume variant manager: the sub-entity of
// an application tracking generated resume artifacts and their customization
// metadata, with the single-starred invariant.
package resumes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-pilot/internal/store"
	"github.com/jonathan/job-pilot/internal/types"
)

// Generator is the external AI generation collaborator. Each call produces
// one independent new resume; there is no regeneration or diffing between
// variants.
type Generator interface {
	Generate(ctx context.Context, req types.GenerationRequest) (*types.GenerationResult, error)
}

// GenerateOptions are the user's customization choices for one variant.
type GenerateOptions struct {
	Name        string `json:"name,omitempty"`
	Template    string `json:"template,omitempty"`
	AccentColor string `json:"accent_color,omitempty"`
	PageLimit   int    `json:"page_limit,omitempty"`
}

// Manager tracks resume variants for applications in the given store.
type Manager struct {
	store     *store.Store
	generator Generator
	now       func() time.Time
}

// NewManager creates a manager over the given store and generation
// collaborator. The generator may be nil if only manual Add is used.
func NewManager(s *store.Store, generator Generator) *Manager {
	return &Manager{store: s, generator: generator, now: time.Now}
}

// Add appends a resume to the application. The new variant is never starred
// on arrival; starring is an explicit follow-up action.
func (m *Manager) Add(ctx context.Context, appID uuid.UUID, resume types.Resume) (*types.Resume, error) {
	resume.ID = uuid.New()
	resume.IsStarred = false
	if resume.CreatedAt.IsZero() {
		resume.CreatedAt = m.now().UTC()
	}
	_, err := m.store.MutateApplication(ctx, appID, func(app *types.SavedApplication) error {
		app.Resumes = append(app.Resumes, resume)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resume, nil
}

// Generate calls the generation collaborator, appends the resulting variant
// and records the collaborator's summary, cover letter and match analysis on
// the application. A collaborator failure leaves the application untouched.
func (m *Manager) Generate(ctx context.Context, appID uuid.UUID, opts GenerateOptions) (*types.Resume, error) {
	if m.generator == nil {
		return nil, fmt.Errorf("no generator configured")
	}
	app, err := m.store.Application(appID)
	if err != nil {
		return nil, err
	}

	profile := m.store.Profile()
	result, err := m.generator.Generate(ctx, types.GenerationRequest{
		JobDescription:        app.JobDescription,
		PersonalDetails:       profile.PersonalDetails,
		EducationHistory:      profile.Education,
		EmploymentHistory:     profile.Employment,
		Skills:                profile.Skills,
		Projects:              profile.Projects,
		BackgroundInformation: profile.Background,
		ResumeTemplate:        opts.Template,
		AccentColor:           opts.AccentColor,
		PageLimit:             opts.PageLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate resume: %w", err)
	}

	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = fmt.Sprintf("Resume %d", len(app.Resumes)+1)
	}
	resume := types.Resume{
		ID:              uuid.New(),
		Name:            name,
		CreatedAt:       m.now().UTC(),
		TemplateUsed:    opts.Template,
		AccentColorUsed: opts.AccentColor,
		PageLimitUsed:   opts.PageLimit,
		LaTeX:           result.Resume,
		Markdown:        result.ResumeMarkdown,
	}
	// The variant and the application-level artifacts from the same
	// generation land in a single mutation.
	_, err = m.store.MutateApplication(ctx, appID, func(app *types.SavedApplication) error {
		app.Resumes = append(app.Resumes, resume)
		if result.Summary != "" {
			app.Summary = result.Summary
		}
		if result.CoverLetter != "" {
			app.CoverLetter = result.CoverLetter
		}
		if result.MatchAnalysis != "" {
			app.MatchAnalysis = result.MatchAnalysis
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resume, nil
}

// Star marks the given resume as starred and unstars every other resume of
// the same application, atomically. At most one variant per application is
// starred at any time.
func (m *Manager) Star(ctx context.Context, appID, resumeID uuid.UUID) error {
	_, err := m.store.MutateApplication(ctx, appID, func(app *types.SavedApplication) error {
		found := false
		for i := range app.Resumes {
			starred := app.Resumes[i].ID == resumeID
			app.Resumes[i].IsStarred = starred
			if starred {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("resume %s: %w", resumeID, store.ErrNotFound)
		}
		return nil
	})
	return err
}

// Rename changes a resume's display name in place.
func (m *Manager) Rename(ctx context.Context, appID, resumeID uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("resume name cannot be empty")
	}
	_, err := m.store.MutateApplication(ctx, appID, func(app *types.SavedApplication) error {
		for i := range app.Resumes {
			if app.Resumes[i].ID == resumeID {
				app.Resumes[i].Name = name
				return nil
			}
		}
		return fmt.Errorf("resume %s: %w", resumeID, store.ErrNotFound)
	})
	return err
}

// Remove deletes a resume variant. Removing the starred variant leaves the
// application with no starred resume.
func (m *Manager) Remove(ctx context.Context, appID, resumeID uuid.UUID) error {
	_, err := m.store.MutateApplication(ctx, appID, func(app *types.SavedApplication) error {
		for i := range app.Resumes {
			if app.Resumes[i].ID == resumeID {
				app.Resumes = append(app.Resumes[:i], app.Resumes[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("resume %s: %w", resumeID, store.ErrNotFound)
	})
	return err
}

// Starred returns the starred variant, or nil if none is starred.
func Starred(app *types.SavedApplication) *types.Resume {
	for i := range app.Resumes {
		if app.Resumes[i].IsStarred {
			return &app.Resumes[i]
		}
	}
	return nil
}
