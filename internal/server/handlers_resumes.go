package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/job-pilot/internal/resumes"
	"github.com/jonathan/job-pilot/internal/types"
)

// ---------------------------------------------------------------------
// Resume Handlers
// ---------------------------------------------------------------------

func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	s.withSession(w, r, func(sess *session) {
		app, err := sess.store.Application(id)
		if err != nil {
			s.domainError(w, err)
			return
		}
		if app.Resumes == nil {
			s.jsonResponse(w, http.StatusOK, []types.Resume{})
			return
		}
		s.jsonResponse(w, http.StatusOK, app.Resumes)
	})
}

// handleAddResume attaches an externally produced resume to the application.
func (s *Server) handleAddResume(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var resume types.Resume
	if err := json.NewDecoder(r.Body).Decode(&resume); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(sess *session) {
		added, err := sess.manager.Add(r.Context(), id, resume)
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, added)
	})
}

type generateResumeRequest struct {
	Name        string `json:"name,omitempty"`
	Template    string `json:"template,omitempty"`
	AccentColor string `json:"accent_color,omitempty"`
	PageLimit   int    `json:"page_limit,omitempty"`
}

// handleGenerateResume produces a tailored resume for the application from
// the full profile.
func (s *Server) handleGenerateResume(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req generateResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(sess *session) {
		resume, err := sess.manager.Generate(r.Context(), id, resumes.GenerateOptions{
			Name:        req.Name,
			Template:    req.Template,
			AccentColor: req.AccentColor,
			PageLimit:   req.PageLimit,
		})
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, resume)
	})
}

type renameResumeRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRenameResume(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	resumeID, ok := s.pathID(w, r, "resumeID")
	if !ok {
		return
	}

	var req renameResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		s.errorResponse(w, http.StatusBadRequest, "Field 'name' is required")
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.manager.Rename(r.Context(), id, resumeID, req.Name); err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, map[string]string{"name": req.Name})
	})
}

func (s *Server) handleRemoveResume(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	resumeID, ok := s.pathID(w, r, "resumeID")
	if !ok {
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.manager.Remove(r.Context(), id, resumeID); err != nil {
			s.domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// handleStarResume marks one resume as the variant actually submitted.
func (s *Server) handleStarResume(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	resumeID, ok := s.pathID(w, r, "resumeID")
	if !ok {
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.manager.Star(r.Context(), id, resumeID); err != nil {
			s.domainError(w, err)
			return
		}
		app, err := sess.store.Application(id)
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, app.Resumes)
	})
}
