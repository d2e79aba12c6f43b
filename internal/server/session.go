package server

import (
	"net/http"
	"sync"

	"github.com/jonathan/job-pilot/internal/lifecycle"
	"github.com/jonathan/job-pilot/internal/resumes"
	"github.com/jonathan/job-pilot/internal/server/middleware"
	"github.com/jonathan/job-pilot/internal/skills"
	"github.com/jonathan/job-pilot/internal/store"
)

// session bundles the per-user domain services around one loaded store.
type session struct {
	mu sync.Mutex

	store       *store.Store
	machine     *lifecycle.Machine
	manager     *resumes.Manager
	skills      *skills.Engine
	categorizer *skills.Categorizer
}

// withSession resolves the authenticated user's session and runs fn while
// holding its lock. The store assumes a single writer, so requests for the
// same user are serialized here. The session is created and loaded on first
// use, with legacy category reconciliation running as a load-time migration.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(sess *session)) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	s.sessionsMu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
	}
	s.sessionsMu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.store == nil {
		st := store.New(userID, s.persister)
		st.SetVerbose(s.verbose)
		if err := st.Load(r.Context(), skills.CategoryMigration); err != nil {
			// Drop the half-built session so the next request retries.
			s.sessionsMu.Lock()
			delete(s.sessions, userID)
			s.sessionsMu.Unlock()
			s.domainError(w, err)
			return
		}

		categorizer := skills.NewCategorizer(s.classifier)
		categorizer.SetVerbose(s.verbose)

		sess.store = st
		sess.machine = lifecycle.NewMachine(st)
		sess.manager = resumes.NewManager(st, s.generator)
		sess.skills = skills.NewEngine(st)
		sess.categorizer = categorizer
	}

	fn(sess)
}
