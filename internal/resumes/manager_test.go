package resumes

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-pilot/internal/store"
	"github.com/jonathan/job-pilot/internal/types"
)

type memPersister struct {
	profile      *types.Profile
	applications map[uuid.UUID]types.SavedApplication
}

func (m *memPersister) Load(_ context.Context, _ uuid.UUID) (*types.Profile, []types.SavedApplication, error) {
	return m.profile, nil, nil
}

func (m *memPersister) SaveProfile(_ context.Context, _ uuid.UUID, p *types.Profile) error {
	m.profile = p.Clone()
	return nil
}

func (m *memPersister) SaveApplication(_ context.Context, _ uuid.UUID, app *types.SavedApplication) error {
	m.applications[app.ID] = *app.Clone()
	return nil
}

func (m *memPersister) DeleteApplication(_ context.Context, _ uuid.UUID, appID uuid.UUID) error {
	delete(m.applications, appID)
	return nil
}

type stubGenerator struct {
	result *types.GenerationResult
	err    error
	gotReq types.GenerationRequest
}

func (g *stubGenerator) Generate(_ context.Context, req types.GenerationRequest) (*types.GenerationResult, error) {
	g.gotReq = req
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func newManager(t *testing.T, gen Generator) (*Manager, *store.Store, uuid.UUID) {
	t.Helper()
	s := store.New(uuid.New(), &memPersister{applications: make(map[uuid.UUID]types.SavedApplication)})
	require.NoError(t, s.Load(context.Background()))
	app, err := s.CreateApplication(context.Background(), types.SavedApplication{
		JobTitle:       "Backend Engineer",
		JobDescription: "Build services in Go",
	})
	require.NoError(t, err)
	return NewManager(s, gen), s, app.ID
}

func TestAdd_NeverStarred(t *testing.T) {
	m, s, appID := newManager(t, nil)

	r, err := m.Add(context.Background(), appID, types.Resume{Name: "v1", IsStarred: true})
	require.NoError(t, err)
	assert.False(t, r.IsStarred)

	app, err := s.Application(appID)
	require.NoError(t, err)
	require.Len(t, app.Resumes, 1)
	assert.False(t, app.Resumes[0].IsStarred)
	assert.False(t, app.Resumes[0].CreatedAt.IsZero())
}

func TestStar_SingleWinner(t *testing.T) {
	m, s, appID := newManager(t, nil)
	ctx := context.Background()

	first, err := m.Add(ctx, appID, types.Resume{Name: "v1"})
	require.NoError(t, err)
	second, err := m.Add(ctx, appID, types.Resume{Name: "v2"})
	require.NoError(t, err)

	require.NoError(t, m.Star(ctx, appID, first.ID))
	require.NoError(t, m.Star(ctx, appID, second.ID))

	app, err := s.Application(appID)
	require.NoError(t, err)

	starredCount := 0
	for _, r := range app.Resumes {
		if r.IsStarred {
			starredCount++
			assert.Equal(t, second.ID, r.ID)
		}
	}
	assert.Equal(t, 1, starredCount)

	starred := Starred(app)
	require.NotNil(t, starred)
	assert.Equal(t, "v2", starred.Name)
}

func TestStar_UnknownResume(t *testing.T) {
	m, s, appID := newManager(t, nil)
	ctx := context.Background()

	first, err := m.Add(ctx, appID, types.Resume{Name: "v1"})
	require.NoError(t, err)
	require.NoError(t, m.Star(ctx, appID, first.ID))

	err = m.Star(ctx, appID, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The existing star survives the refused call.
	app, err := s.Application(appID)
	require.NoError(t, err)
	assert.True(t, app.Resumes[0].IsStarred)
}

func TestRenameAndRemove(t *testing.T) {
	m, s, appID := newManager(t, nil)
	ctx := context.Background()

	r, err := m.Add(ctx, appID, types.Resume{Name: "v1"})
	require.NoError(t, err)

	require.NoError(t, m.Rename(ctx, appID, r.ID, "Final"))
	app, err := s.Application(appID)
	require.NoError(t, err)
	assert.Equal(t, "Final", app.Resumes[0].Name)

	assert.Error(t, m.Rename(ctx, appID, r.ID, "  "))

	require.NoError(t, m.Remove(ctx, appID, r.ID))
	app, err = s.Application(appID)
	require.NoError(t, err)
	assert.Empty(t, app.Resumes)
	assert.Nil(t, Starred(app))
}

func TestGenerate_AppendsVariantWithMetadata(t *testing.T) {
	gen := &stubGenerator{result: &types.GenerationResult{
		Resume:         "\\documentclass{article}",
		ResumeMarkdown: "# Resume",
	}}
	m, s, appID := newManager(t, gen)
	ctx := context.Background()

	require.NoError(t, s.SetPersonalDetails(ctx, types.PersonalDetails{Name: "Jane Doe"}))

	r, err := m.Generate(ctx, appID, GenerateOptions{Template: "modern", AccentColor: "#336699", PageLimit: 1})
	require.NoError(t, err)

	assert.Equal(t, "modern", r.TemplateUsed)
	assert.Equal(t, "#336699", r.AccentColorUsed)
	assert.Equal(t, 1, r.PageLimitUsed)
	assert.Equal(t, "\\documentclass{article}", r.LaTeX)
	assert.Equal(t, "Resume 1", r.Name)
	assert.False(t, r.IsStarred)

	// The collaborator saw the full profile and the job description.
	assert.Equal(t, "Build services in Go", gen.gotReq.JobDescription)
	assert.Equal(t, "Jane Doe", gen.gotReq.PersonalDetails.Name)
	assert.Equal(t, "modern", gen.gotReq.ResumeTemplate)
}

func TestGenerate_RecordsApplicationArtifacts(t *testing.T) {
	gen := &stubGenerator{result: &types.GenerationResult{
		Resume:        "\\documentclass{article}",
		Summary:       "A strong candidate summary",
		CoverLetter:   "Dear Hiring Manager",
		MatchAnalysis: "Matched skills: Go",
	}}
	m, s, appID := newManager(t, gen)
	ctx := context.Background()

	_, err := m.Generate(ctx, appID, GenerateOptions{})
	require.NoError(t, err)

	app, err := s.Application(appID)
	require.NoError(t, err)
	require.Len(t, app.Resumes, 1)
	assert.Equal(t, "A strong candidate summary", app.Summary)
	assert.Equal(t, "Dear Hiring Manager", app.CoverLetter)
	assert.Equal(t, "Matched skills: Go", app.MatchAnalysis)

	// A later generation that omits an artifact keeps the recorded one.
	gen.result = &types.GenerationResult{Resume: "\\documentclass{article}"}
	_, err = m.Generate(ctx, appID, GenerateOptions{})
	require.NoError(t, err)

	app, err = s.Application(appID)
	require.NoError(t, err)
	require.Len(t, app.Resumes, 2)
	assert.Equal(t, "Dear Hiring Manager", app.CoverLetter)
}

func TestGenerate_CollaboratorFailureLeavesStateUntouched(t *testing.T) {
	gen := &stubGenerator{err: errors.New("service unavailable")}
	m, s, appID := newManager(t, gen)

	_, err := m.Generate(context.Background(), appID, GenerateOptions{})
	require.Error(t, err)

	app, err := s.Application(appID)
	require.NoError(t, err)
	assert.Empty(t, app.Resumes)
}

func TestGenerate_NoGenerator(t *testing.T) {
	m, _, appID := newManager(t, nil)
	_, err := m.Generate(context.Background(), appID, GenerateOptions{})
	assert.Error(t, err)
}
