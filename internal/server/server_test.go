package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-pilot/internal/config"
	"github.com/jonathan/job-pilot/internal/db"
	"github.com/jonathan/job-pilot/internal/fetch"
	"github.com/jonathan/job-pilot/internal/llm"
	"github.com/jonathan/job-pilot/internal/types"
)

// memPersister is an in-memory store.Persister for handler tests.
type memPersister struct {
	profile *types.Profile
	apps    map[uuid.UUID]types.SavedApplication
}

func newMemPersister() *memPersister {
	return &memPersister{apps: make(map[uuid.UUID]types.SavedApplication)}
}

func (p *memPersister) Load(_ context.Context, _ uuid.UUID) (*types.Profile, []types.SavedApplication, error) {
	var apps []types.SavedApplication
	for _, app := range p.apps {
		apps = append(apps, app)
	}
	return p.profile, apps, nil
}

func (p *memPersister) SaveProfile(_ context.Context, _ uuid.UUID, profile *types.Profile) error {
	p.profile = profile.Clone()
	return nil
}

func (p *memPersister) SaveApplication(_ context.Context, _ uuid.UUID, app *types.SavedApplication) error {
	p.apps[app.ID] = *app.Clone()
	return nil
}

func (p *memPersister) DeleteApplication(_ context.Context, _ uuid.UUID, appID uuid.UUID) error {
	delete(p.apps, appID)
	return nil
}

// fakeUserDB backs the auth endpoints in tests.
type fakeUserDB struct {
	users map[uuid.UUID]*db.User
}

func newFakeUserDB() *fakeUserDB {
	return &fakeUserDB{users: make(map[uuid.UUID]*db.User)}
}

func (f *fakeUserDB) CreateUser(_ context.Context, name, email, phone string) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now()
	f.users[id] = &db.User{ID: id, Name: name, Email: email, Phone: phone, CreatedAt: now, UpdatedAt: now}
	return id, nil
}

func (f *fakeUserDB) GetUser(_ context.Context, userID uuid.UUID) (*db.User, error) {
	return f.users[userID], nil
}

func (f *fakeUserDB) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserDB) CheckEmailExists(_ context.Context, email string) (bool, error) {
	u, _ := f.GetUserByEmail(context.Background(), email)
	return u != nil, nil
}

func (f *fakeUserDB) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	u, ok := f.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %s", userID)
	}
	u.PasswordHash = passwordHash
	u.PasswordSet = true
	return nil
}

// newTestServer builds a server over in-memory collaborators with the
// deterministic template generator and no AI structurer.
func newTestServer(t *testing.T) (*Server, http.Handler, string) {
	t.Helper()

	jwtService := NewJWTService(&config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})
	userService := NewUserService(newFakeUserDB(), &config.PasswordConfig{BcryptCost: 10})

	s := &Server{
		persister:   newMemPersister(),
		generator:   llm.NewTemplateGenerator(),
		jwtService:  jwtService,
		userService: userService,
		authHandler: NewAuthHandler(userService, jwtService),
		fetchOpts:   &fetch.Options{Timeout: time.Second, UserAgent: "test"},
		sessions:    make(map[uuid.UUID]*session),
	}

	token, err := jwtService.GenerateToken(uuid.New())
	require.NoError(t, err)

	return s, s.routes(), token
}

// do issues a request through the router and decodes nothing.
func do(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorded JSON response into out.
func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}
