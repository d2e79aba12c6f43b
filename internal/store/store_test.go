package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-pilot/internal/types"
)

// fakePersister records saves in memory and can be told to fail.
type fakePersister struct {
	profile      *types.Profile
	applications map[uuid.UUID]types.SavedApplication
	failNext     error
	saveCount    int
}

func newFakePersister() *fakePersister {
	return &fakePersister{applications: make(map[uuid.UUID]types.SavedApplication)}
}

func (f *fakePersister) fail() error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	return nil
}

func (f *fakePersister) Load(_ context.Context, _ uuid.UUID) (*types.Profile, []types.SavedApplication, error) {
	if err := f.fail(); err != nil {
		return nil, nil, err
	}
	var apps []types.SavedApplication
	for _, a := range f.applications {
		apps = append(apps, a)
	}
	return f.profile, apps, nil
}

func (f *fakePersister) SaveProfile(_ context.Context, _ uuid.UUID, p *types.Profile) error {
	if err := f.fail(); err != nil {
		return err
	}
	f.saveCount++
	f.profile = p.Clone()
	return nil
}

func (f *fakePersister) SaveApplication(_ context.Context, _ uuid.UUID, app *types.SavedApplication) error {
	if err := f.fail(); err != nil {
		return err
	}
	f.saveCount++
	f.applications[app.ID] = *app.Clone()
	return nil
}

func (f *fakePersister) DeleteApplication(_ context.Context, _ uuid.UUID, appID uuid.UUID) error {
	if err := f.fail(); err != nil {
		return err
	}
	delete(f.applications, appID)
	return nil
}

func newTestStore(t *testing.T) (*Store, *fakePersister) {
	t.Helper()
	p := newFakePersister()
	s := New(uuid.New(), p)
	require.NoError(t, s.Load(context.Background()))
	return s, p
}

func TestAddSkill_RejectsCaseInsensitiveDuplicate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddSkill(ctx, "React", "")
	require.NoError(t, err)

	_, err = s.AddSkill(ctx, "react", "")
	assert.ErrorIs(t, err, ErrDuplicateSkill)

	_, err = s.AddSkill(ctx, "  REACT ", "")
	assert.ErrorIs(t, err, ErrDuplicateSkill)

	assert.Len(t, s.Profile().Skills, 1)
}

func TestAddSkill_RejectsEmptyName(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.AddSkill(context.Background(), "   ", "")
	assert.Error(t, err)
}

func TestDeleteSkill_LeavesNameReferencesIntact(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	skill, err := s.AddSkill(ctx, "Node.js", "Web Technology")
	require.NoError(t, err)

	entry, err := s.AddEmployment(ctx, types.EmploymentEntry{
		Title:              "Engineer",
		SkillsDemonstrated: []string{"Node.js"},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSkill(ctx, skill.ID))

	assert.Empty(t, s.Profile().Skills)
	require.Len(t, s.Profile().Employment, 1)
	assert.Equal(t, []string{"Node.js"}, s.Profile().Employment[0].SkillsDemonstrated, "name reference must survive SkillEntry removal")
	_ = entry
}

func TestMutateProfile_FailedSaveLeavesStateUnchanged(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddSkill(ctx, "Go", "")
	require.NoError(t, err)

	p.failNext = errors.New("connection refused")
	_, err = s.AddSkill(ctx, "Rust", "")
	require.Error(t, err)

	require.Len(t, s.Profile().Skills, 1)
	assert.Equal(t, "Go", s.Profile().Skills[0].Name)
}

func TestUpdateSkill_RejectsRenameOntoExisting(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddSkill(ctx, "Go", "")
	require.NoError(t, err)
	rust, err := s.AddSkill(ctx, "Rust", "")
	require.NoError(t, err)

	rust.Name = "GO"
	err = s.UpdateSkill(ctx, *rust)
	assert.ErrorIs(t, err, ErrDuplicateSkill)
}

func TestCreateApplication_StartsSaved(t *testing.T) {
	s, _ := newTestStore(t)

	app, err := s.CreateApplication(context.Background(), types.SavedApplication{
		JobTitle:    "Backend Engineer",
		CompanyName: "Acme",
	})
	require.NoError(t, err)

	assert.Equal(t, types.StatusSaved, app.Status)
	assert.NotEqual(t, uuid.Nil, app.ID)
	assert.False(t, app.CreatedAt.IsZero())
}

func TestMutateApplication_FailedSaveLeavesStateUnchanged(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()

	app, err := s.CreateApplication(ctx, types.SavedApplication{JobTitle: "SRE"})
	require.NoError(t, err)

	p.failNext = errors.New("connection refused")
	_, err = s.MutateApplication(ctx, app.ID, func(a *types.SavedApplication) error {
		a.Status = types.StatusSubmitted
		a.Notes = "should not appear"
		return nil
	})
	require.Error(t, err)

	current, err := s.Application(app.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusSaved, current.Status)
	assert.Empty(t, current.Notes)
}

func TestMutateApplication_UnknownID(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.MutateApplication(context.Background(), uuid.New(), func(a *types.SavedApplication) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteApplication(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()

	app, err := s.CreateApplication(ctx, types.SavedApplication{JobTitle: "SRE"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteApplication(ctx, app.ID))
	_, err = s.Application(app.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, p.applications)
}

func TestLoad_RunsMigrationsOnce(t *testing.T) {
	p := newFakePersister()
	p.profile = &types.Profile{Skills: []types.SkillEntry{{ID: uuid.New(), Name: "Unity"}}}

	s := New(uuid.New(), p)
	calls := 0
	migration := func(profile *types.Profile) bool {
		calls++
		if profile.Skills[0].Category == "" {
			profile.Skills[0].Category = "Game Development"
			return true
		}
		return false
	}

	require.NoError(t, s.Load(context.Background(), migration))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Game Development", s.Profile().Skills[0].Category)

	// Second load sees the already-migrated profile and saves nothing.
	saves := p.saveCount
	require.NoError(t, s.Load(context.Background(), migration))
	assert.Equal(t, saves, p.saveCount)
}
