package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jonathan/job-pilot/internal/fetch"
	"github.com/jonathan/job-pilot/internal/lifecycle"
	"github.com/jonathan/job-pilot/internal/types"
)

// ---------------------------------------------------------------------
// Application Handlers
// ---------------------------------------------------------------------

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		apps := sess.store.Applications()
		if apps == nil {
			apps = []*types.SavedApplication{}
		}
		s.jsonResponse(w, http.StatusOK, apps)
	})
}

type createApplicationRequest struct {
	JobTitle       string `json:"job_title"`
	CompanyName    string `json:"company_name"`
	JobDescription string `json:"job_description,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.JobTitle == "" || req.CompanyName == "" {
		s.errorResponse(w, http.StatusBadRequest, "Fields 'job_title' and 'company_name' are required")
		return
	}

	s.withSession(w, r, func(sess *session) {
		app, err := sess.store.CreateApplication(r.Context(), types.SavedApplication{
			JobTitle:       req.JobTitle,
			CompanyName:    req.CompanyName,
			JobDescription: req.JobDescription,
			Notes:          req.Notes,
		})
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, app)
	})
}

type createFromURLRequest struct {
	URL         string `json:"url"`
	JobTitle    string `json:"job_title,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// handleCreateApplicationFromURL fetches a job posting and saves an
// application seeded with the extracted description. Title and company can be
// overridden in the request; otherwise the generation collaborator reads them
// out of the posting text, with the page title as the last resort.
func (s *Server) handleCreateApplicationFromURL(w http.ResponseWriter, r *http.Request) {
	var req createFromURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		s.errorResponse(w, http.StatusBadRequest, "Field 'url' is required")
		return
	}

	posting, err := fetch.JobPosting(r.Context(), req.URL, s.fetchOpts)
	if err != nil {
		s.domainError(w, err)
		return
	}

	jobTitle := req.JobTitle
	companyName := req.CompanyName
	if (jobTitle == "" || companyName == "") && s.generator != nil {
		result, genErr := s.generator.Generate(r.Context(), types.GenerationRequest{
			JobDescription: posting.Description,
		})
		if genErr != nil {
			log.Printf("[SERVER] Posting analysis failed for %s: %v", posting.URL, genErr)
		} else {
			if jobTitle == "" {
				jobTitle = result.JobTitleFromJD
			}
			if companyName == "" {
				companyName = result.CompanyNameFromJD
			}
		}
	}
	if jobTitle == "" {
		jobTitle = posting.Title
	}
	if jobTitle == "" {
		jobTitle = "Imported posting"
	}
	if companyName == "" {
		companyName = "Unknown"
	}

	s.withSession(w, r, func(sess *session) {
		app, err := sess.store.CreateApplication(r.Context(), types.SavedApplication{
			JobTitle:       jobTitle,
			CompanyName:    companyName,
			JobDescription: posting.Description,
			Notes:          "Imported from " + posting.URL,
		})
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, app)
	})
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
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
		s.jsonResponse(w, http.StatusOK, app)
	})
}

type updateApplicationRequest struct {
	JobTitle       *string `json:"job_title,omitempty"`
	CompanyName    *string `json:"company_name,omitempty"`
	JobDescription *string `json:"job_description,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// handleUpdateApplication edits descriptive fields. Status and detail blocks
// only change through the status endpoint.
func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(sess *session) {
		app, err := sess.store.MutateApplication(r.Context(), id, func(app *types.SavedApplication) error {
			if req.JobTitle != nil {
				app.JobTitle = *req.JobTitle
			}
			if req.CompanyName != nil {
				app.CompanyName = *req.CompanyName
			}
			if req.JobDescription != nil {
				app.JobDescription = *req.JobDescription
			}
			if req.Notes != nil {
				app.Notes = *req.Notes
			}
			return nil
		})
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, app)
	})
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.store.DeleteApplication(r.Context(), id); err != nil {
			s.domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

type statusChangeRequest struct {
	Target  types.ApplicationStatus      `json:"target"`
	Details *lifecycle.TransitionDetails `json:"details,omitempty"`
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(sess *session) {
		app, err := sess.machine.RequestStatusChange(r.Context(), id, req.Target, req.Details)
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, app)
	})
}

// handleSuggestLearning asks the AI which skills to pick up for this posting
// and stores the suggestions on the application.
func (s *Server) handleSuggestLearning(w http.ResponseWriter, r *http.Request) {
	if s.structurer == nil {
		s.domainError(w, &ErrAIUnavailable{})
		return
	}

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

		suggestions, err := s.structurer.SuggestLearning(r.Context(), app.JobDescription, sess.store.Profile().Skills)
		if err != nil {
			s.errorResponse(w, http.StatusBadGateway, "Failed to suggest learning: "+err.Error())
			return
		}

		updated, err := sess.store.MutateApplication(r.Context(), id, func(app *types.SavedApplication) error {
			app.SuggestedLearning = suggestions
			return nil
		})
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, updated.SuggestedLearning)
	})
}

// ---------------------------------------------------------------------
// Important Dates
// ---------------------------------------------------------------------

// handleListImportantDates returns stored dates plus the synthetic
// submission-date entry, ascending by date.
func (s *Server) handleListImportantDates(w http.ResponseWriter, r *http.Request) {
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
		s.jsonResponse(w, http.StatusOK, lifecycle.ImportantDates(app))
	})
}

func (s *Server) handleAddImportantDate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var date types.ImportantDate
	if err := json.NewDecoder(r.Body).Decode(&date); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(sess *session) {
		added, err := sess.machine.AddImportantDate(r.Context(), id, date)
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, added)
	})
}

func (s *Server) handleUpdateImportantDate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	dateID, ok := s.pathID(w, r, "dateID")
	if !ok {
		return
	}

	var date types.ImportantDate
	if err := json.NewDecoder(r.Body).Decode(&date); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	date.ID = dateID

	s.withSession(w, r, func(sess *session) {
		if err := sess.machine.UpdateImportantDate(r.Context(), id, date); err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, date)
	})
}

func (s *Server) handleRemoveImportantDate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	dateID, ok := s.pathID(w, r, "dateID")
	if !ok {
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.machine.RemoveImportantDate(r.Context(), id, dateID); err != nil {
			s.domainError(w, err)
			return
		}
		// Removing the submission date reverts the application to saved, so
		// return the current state rather than a bare 204.
		app, err := sess.store.Application(id)
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, app)
	})
}

// ---------------------------------------------------------------------
// Correspondence
// ---------------------------------------------------------------------

func (s *Server) handleListCorrespondence(w http.ResponseWriter, r *http.Request) {
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
		s.jsonResponse(w, http.StatusOK, lifecycle.CorrespondenceByDateDesc(app))
	})
}

func (s *Server) handleAddCorrespondence(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var entry types.CorrespondenceEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(sess *session) {
		added, err := sess.machine.AddCorrespondence(r.Context(), id, entry)
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, added)
	})
}

func (s *Server) handleRemoveCorrespondence(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	entryID, ok := s.pathID(w, r, "entryID")
	if !ok {
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.machine.RemoveCorrespondence(r.Context(), id, entryID); err != nil {
			s.domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
