package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-pilot/internal/llm"
	"github.com/jonathan/job-pilot/internal/types"
)

func TestHealthIsPublic(t *testing.T) {
	_, handler, _ := newTestServer(t)

	rec := do(t, handler, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	_, handler, _ := newTestServer(t)

	rec := do(t, handler, http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileRoundTrip(t *testing.T) {
	_, handler, token := newTestServer(t)

	rec := do(t, handler, http.MethodPut, "/profile/personal-details", token, types.PersonalDetails{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, handler, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile types.Profile
	decode(t, rec, &profile)
	assert.Equal(t, "Ada Lovelace", profile.PersonalDetails.Name)
}

func TestEmploymentCRUD(t *testing.T) {
	_, handler, token := newTestServer(t)

	rec := do(t, handler, http.MethodPost, "/profile/employment", token, types.EmploymentEntry{
		Title:   "Engineer",
		Company: "Acme",
		Dates:   "2020-2023",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var entry types.EmploymentEntry
	decode(t, rec, &entry)
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", entry.ID.String())

	entry.Title = "Senior Engineer"
	rec = do(t, handler, http.MethodPut, "/profile/employment/"+entry.ID.String(), token, entry)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, handler, http.MethodDelete, "/profile/employment/"+entry.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, handler, http.MethodDelete, "/profile/employment/"+entry.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSkillLifecycleOverHTTP(t *testing.T) {
	_, handler, token := newTestServer(t)

	// No AI configured: category falls back to the default.
	rec := do(t, handler, http.MethodPost, "/skills", token, addSkillRequest{Name: "Go"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var skill types.SkillEntry
	decode(t, rec, &skill)
	assert.Equal(t, "General", skill.Category)

	// Case-insensitive duplicate is a conflict.
	rec = do(t, handler, http.MethodPost, "/skills", token, addSkillRequest{Name: "go"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, handler, http.MethodGet, "/skills", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []types.SkillEntry
	decode(t, rec, &list)
	assert.Len(t, list, 1)

	rec = do(t, handler, http.MethodDelete, "/skills/"+skill.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestToggleSkillAssociation(t *testing.T) {
	_, handler, token := newTestServer(t)

	rec := do(t, handler, http.MethodPost, "/skills", token, addSkillRequest{Name: "Go", Category: "Programming Language"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, handler, http.MethodPost, "/profile/employment", token, types.EmploymentEntry{
		Title: "Engineer", Company: "Acme", Dates: "2020-2023",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var job types.EmploymentEntry
	decode(t, rec, &job)

	rec = do(t, handler, http.MethodPost, "/profile/employment/"+job.ID.String()+"/skills/toggle", token,
		toggleSkillRequest{SkillName: "go"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, handler, http.MethodGet, "/profile", token, nil)
	var profile types.Profile
	decode(t, rec, &profile)
	require.Len(t, profile.Employment, 1)
	// Fresh association stores the canonical display name.
	assert.Equal(t, []string{"Go"}, profile.Employment[0].SkillsDemonstrated)

	// Toggling again removes it.
	rec = do(t, handler, http.MethodPost, "/profile/employment/"+job.ID.String()+"/skills/toggle", token,
		toggleSkillRequest{SkillName: "Go"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, handler, http.MethodGet, "/profile", token, nil)
	profile = types.Profile{}
	decode(t, rec, &profile)
	assert.Empty(t, profile.Employment[0].SkillsDemonstrated)
}

func TestApplicationLifecycleOverHTTP(t *testing.T) {
	_, handler, token := newTestServer(t)

	rec := do(t, handler, http.MethodPost, "/applications", token, createApplicationRequest{
		JobTitle:       "Go Engineer",
		CompanyName:    "Initech",
		JobDescription: "Build Go services.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var app types.SavedApplication
	decode(t, rec, &app)
	assert.Equal(t, types.StatusSaved, app.Status)

	// Submit.
	rec = do(t, handler, http.MethodPost, "/applications/"+app.ID.String()+"/status", token,
		statusChangeRequest{Target: types.StatusSubmitted})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &app)
	assert.Equal(t, types.StatusSubmitted, app.Status)
	require.NotNil(t, app.SubmissionDate)

	// Offer without details is refused as unprocessable.
	rec = do(t, handler, http.MethodPost, "/applications/"+app.ID.String()+"/status", token,
		statusChangeRequest{Target: types.StatusOffer})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Unknown target status is refused too.
	rec = do(t, handler, http.MethodPost, "/applications/"+app.ID.String()+"/status", token,
		statusChangeRequest{Target: "imaginary"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, handler, http.MethodDelete, "/applications/"+app.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type stubStructurer struct {
	drafts []llm.SkillDraft
}

func (s *stubStructurer) ParseEmployment(context.Context, string) (*types.EmploymentEntry, error) {
	return nil, errors.New("not implemented")
}

func (s *stubStructurer) ParseProject(context.Context, string) (*types.ProjectEntry, error) {
	return nil, errors.New("not implemented")
}

func (s *stubStructurer) ParseSkills(context.Context, string, []string) ([]llm.SkillDraft, error) {
	return s.drafts, nil
}

func (s *stubStructurer) SuggestLearning(context.Context, string, []types.SkillEntry) ([]string, error) {
	return nil, errors.New("not implemented")
}

type stubClassifier struct {
	mu    sync.Mutex
	calls []string
}

func (c *stubClassifier) ClassifySkill(_ context.Context, skillName string, _ []string) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, skillName)
	c.mu.Unlock()
	return "Databases", nil
}

func TestParseSkillsCategorizesUncategorizedDrafts(t *testing.T) {
	srv, handler, token := newTestServer(t)
	classifier := &stubClassifier{}
	srv.structurer = &stubStructurer{drafts: []llm.SkillDraft{
		{Name: "Go", Category: "Languages"},
		{Name: "PostgreSQL"},
		{Name: "Redis"},
	}}
	srv.classifier = classifier

	rec := do(t, handler, http.MethodPost, "/skills/parse", token, map[string]string{"text": "We use Go, PostgreSQL and Redis."})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Added   []types.SkillEntry `json:"added"`
		Skipped []string           `json:"skipped"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Added, 3)

	byName := make(map[string]string)
	for _, s := range resp.Added {
		byName[s.Name] = s.Category
	}
	assert.Equal(t, "Languages", byName["Go"])
	assert.Equal(t, "Databases", byName["PostgreSQL"])
	assert.Equal(t, "Databases", byName["Redis"])

	// Only the drafts without a category reach the classifier.
	assert.ElementsMatch(t, []string{"PostgreSQL", "Redis"}, classifier.calls)

	// Re-parsing the same text skips every name instead of failing.
	rec = do(t, handler, http.MethodPost, "/skills/parse", token, map[string]string{"text": "Same text again."})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Empty(t, resp.Added)
	assert.ElementsMatch(t, []string{"Go", "PostgreSQL", "Redis"}, resp.Skipped)
}

func TestCreateApplicationFromURLSeedsFromPostingText(t *testing.T) {
	_, handler, token := newTestServer(t)

	posting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>Jobs at Example Board</title></head><body>
<div class="job-description">Senior Go Engineer at Initech
We build scheduling software.</div></body></html>`)
	}))
	defer posting.Close()

	rec := do(t, handler, http.MethodPost, "/applications/from-url", token, map[string]string{"url": posting.URL})
	require.Equal(t, http.StatusCreated, rec.Code)

	var app types.SavedApplication
	decode(t, rec, &app)
	assert.Equal(t, "Senior Go Engineer at Initech", app.JobTitle)
	assert.Equal(t, "Initech", app.CompanyName)
	assert.Contains(t, app.JobDescription, "scheduling software")

	// Explicit request values win over what the posting text yields.
	rec = do(t, handler, http.MethodPost, "/applications/from-url", token, map[string]string{
		"url":          posting.URL,
		"company_name": "Initech GmbH",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	decode(t, rec, &app)
	assert.Equal(t, "Initech GmbH", app.CompanyName)
	assert.Equal(t, "Senior Go Engineer at Initech", app.JobTitle)
}

func TestMissingApplicationIs404(t *testing.T) {
	_, handler, token := newTestServer(t)

	rec := do(t, handler, http.MethodGet, "/applications/6ba7b810-9dad-11d1-80b4-00c04fd430c8", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportantDatesIncludeSyntheticSubmission(t *testing.T) {
	_, handler, token := newTestServer(t)

	rec := do(t, handler, http.MethodPost, "/applications", token, createApplicationRequest{
		JobTitle: "Go Engineer", CompanyName: "Initech",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var app types.SavedApplication
	decode(t, rec, &app)

	rec = do(t, handler, http.MethodPost, "/applications/"+app.ID.String()+"/status", token,
		statusChangeRequest{Target: types.StatusSubmitted})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, handler, http.MethodGet, "/applications/"+app.ID.String()+"/important-dates", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dates []types.ImportantDate
	decode(t, rec, &dates)
	require.Len(t, dates, 1)
	assert.Equal(t, "Application submitted", dates[0].Description)

	// Removing the synthetic entry reverts the application to saved.
	rec = do(t, handler, http.MethodDelete,
		"/applications/"+app.ID.String()+"/important-dates/"+dates[0].ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &app)
	assert.Equal(t, types.StatusSaved, app.Status)
	assert.Nil(t, app.SubmissionDate)
}

func TestResumeGenerateAndStar(t *testing.T) {
	_, handler, token := newTestServer(t)

	rec := do(t, handler, http.MethodPost, "/applications", token, createApplicationRequest{
		JobTitle: "Go Engineer", CompanyName: "Initech", JobDescription: "Go services.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var app types.SavedApplication
	decode(t, rec, &app)

	rec = do(t, handler, http.MethodPost, "/applications/"+app.ID.String()+"/resumes/generate", token,
		generateResumeRequest{Template: "classic"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var first types.Resume
	decode(t, rec, &first)
	assert.Equal(t, "Resume 1", first.Name)
	assert.NotEmpty(t, first.LaTeX)

	rec = do(t, handler, http.MethodPost, "/applications/"+app.ID.String()+"/resumes/generate", token,
		generateResumeRequest{})
	require.Equal(t, http.StatusCreated, rec.Code)
	var second types.Resume
	decode(t, rec, &second)

	// Star the second, then the first; only the last starred stays marked.
	rec = do(t, handler, http.MethodPost,
		"/applications/"+app.ID.String()+"/resumes/"+second.ID.String()+"/star", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, handler, http.MethodPost,
		"/applications/"+app.ID.String()+"/resumes/"+first.ID.String()+"/star", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []types.Resume
	decode(t, rec, &list)
	require.Len(t, list, 2)
	for _, resume := range list {
		assert.Equal(t, resume.ID == first.ID, resume.IsStarred)
	}
}

func TestAIEndpointsUnavailableWithoutKey(t *testing.T) {
	_, handler, token := newTestServer(t)

	rec := do(t, handler, http.MethodPost, "/profile/parse/employment", token, parseRequest{Text: "worked at Acme"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, handler, http.MethodPost, "/skills/parse", token, parseRequest{Text: "Go, Postgres"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInvalidUUIDPathIs400(t *testing.T) {
	_, handler, token := newTestServer(t)

	rec := do(t, handler, http.MethodGet, "/applications/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
