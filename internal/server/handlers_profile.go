package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/job-pilot/internal/types"
)

// ---------------------------------------------------------------------
// Profile Handlers
// ---------------------------------------------------------------------

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		s.jsonResponse(w, http.StatusOK, sess.store.Profile())
	})
}

func (s *Server) handleSetPersonalDetails(w http.ResponseWriter, r *http.Request) {
	var details types.PersonalDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.store.SetPersonalDetails(r.Context(), details); err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, sess.store.Profile().PersonalDetails)
	})
}

type backgroundRequest struct {
	Background string `json:"background"`
}

func (s *Server) handleSetBackground(w http.ResponseWriter, r *http.Request) {
	var req backgroundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.store.SetBackground(r.Context(), req.Background); err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, map[string]string{"background": req.Background})
	})
}

func (s *Server) handleAddEmployment(w http.ResponseWriter, r *http.Request) {
	var entry types.EmploymentEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(sess *session) {
		added, err := sess.store.AddEmployment(r.Context(), entry)
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, added)
	})
}

func (s *Server) handleUpdateEmployment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var entry types.EmploymentEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	entry.ID = id

	s.withSession(w, r, func(sess *session) {
		if err := sess.store.UpdateEmployment(r.Context(), entry); err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, entry)
	})
}

func (s *Server) handleDeleteEmployment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.store.DeleteEmployment(r.Context(), id); err != nil {
			s.domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) handleAddProject(w http.ResponseWriter, r *http.Request) {
	var entry types.ProjectEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(sess *session) {
		added, err := sess.store.AddProject(r.Context(), entry)
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, added)
	})
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var entry types.ProjectEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	entry.ID = id

	s.withSession(w, r, func(sess *session) {
		if err := sess.store.UpdateProject(r.Context(), entry); err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, entry)
	})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.store.DeleteProject(r.Context(), id); err != nil {
			s.domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) handleAddEducation(w http.ResponseWriter, r *http.Request) {
	var entry types.EducationEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(sess *session) {
		added, err := sess.store.AddEducation(r.Context(), entry)
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, added)
	})
}

func (s *Server) handleUpdateEducation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var entry types.EducationEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	entry.ID = id

	s.withSession(w, r, func(sess *session) {
		if err := sess.store.UpdateEducation(r.Context(), entry); err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, entry)
	})
}

func (s *Server) handleDeleteEducation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.store.DeleteEducation(r.Context(), id); err != nil {
			s.domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

type parseRequest struct {
	Text string `json:"text"`
}

// handleParseEmployment turns free text into a structured employment entry
// and adds it to the profile.
func (s *Server) handleParseEmployment(w http.ResponseWriter, r *http.Request) {
	if s.structurer == nil {
		s.domainError(w, &ErrAIUnavailable{})
		return
	}

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		s.errorResponse(w, http.StatusBadRequest, "Field 'text' is required")
		return
	}

	entry, err := s.structurer.ParseEmployment(r.Context(), req.Text)
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, "Failed to parse employment: "+err.Error())
		return
	}

	s.withSession(w, r, func(sess *session) {
		added, err := sess.store.AddEmployment(r.Context(), *entry)
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, added)
	})
}

// handleParseProject turns free text into a structured project entry and
// adds it to the profile.
func (s *Server) handleParseProject(w http.ResponseWriter, r *http.Request) {
	if s.structurer == nil {
		s.domainError(w, &ErrAIUnavailable{})
		return
	}

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		s.errorResponse(w, http.StatusBadRequest, "Field 'text' is required")
		return
	}

	entry, err := s.structurer.ParseProject(r.Context(), req.Text)
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, "Failed to parse project: "+err.Error())
		return
	}

	s.withSession(w, r, func(sess *session) {
		added, err := sess.store.AddProject(r.Context(), *entry)
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, added)
	})
}

// pathID parses the named path segment as a UUID, writing a 400 on failure.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
