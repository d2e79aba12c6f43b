package skills

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonathan/job-pilot/internal/store"
	"github.com/jonathan/job-pilot/internal/types"
)

// memoryPersister returns a store.Persister that keeps everything in memory.
func memoryPersister() store.Persister {
	return &memPersister{applications: make(map[uuid.UUID]types.SavedApplication)}
}

type memPersister struct {
	profile      *types.Profile
	applications map[uuid.UUID]types.SavedApplication
}

func (m *memPersister) Load(_ context.Context, _ uuid.UUID) (*types.Profile, []types.SavedApplication, error) {
	var apps []types.SavedApplication
	for _, a := range m.applications {
		apps = append(apps, a)
	}
	return m.profile, apps, nil
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

// stubClassifier returns canned answers or an error.
type stubClassifier struct {
	answer string
	err    error
	calls  []string
}

func (s *stubClassifier) ClassifySkill(_ context.Context, skillName string, _ []string) (string, error) {
	s.calls = append(s.calls, skillName)
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

var errClassifierDown = errors.New("classifier unavailable")
