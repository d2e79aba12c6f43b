package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonathan/job-pilot/internal/skills"
	"github.com/jonathan/job-pilot/internal/store"
	"github.com/jonathan/job-pilot/internal/types"
)

// ---------------------------------------------------------------------
// Skill Handlers
// ---------------------------------------------------------------------

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		profile := sess.store.Profile()
		if profile.Skills == nil {
			s.jsonResponse(w, http.StatusOK, []types.SkillEntry{})
			return
		}
		s.jsonResponse(w, http.StatusOK, profile.Skills)
	})
}

type addSkillRequest struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// handleAddSkill adds one skill. When no category is given the categorizer
// assigns one, falling back to the default category if the AI is unavailable.
func (s *Server) handleAddSkill(w http.ResponseWriter, r *http.Request) {
	var req addSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(sess *session) {
		category := req.Category
		if category == "" {
			result := sess.categorizer.Categorize(r.Context(), req.Name, skills.KnownCategories(sess.store.Profile()))
			category = result.Category
		}

		added, err := sess.store.AddSkill(r.Context(), req.Name, category)
		if err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusCreated, added)
	})
}

func (s *Server) handleUpdateSkill(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var entry types.SkillEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	entry.ID = id

	s.withSession(w, r, func(sess *session) {
		if err := sess.store.UpdateSkill(r.Context(), entry); err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, entry)
	})
}

func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.store.DeleteSkill(r.Context(), id); err != nil {
			s.domainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// handleSkillAssociations returns the employment and project entries that
// reference the skill by name.
func (s *Server) handleSkillAssociations(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	s.withSession(w, r, func(sess *session) {
		profile := sess.store.Profile()
		var skill *types.SkillEntry
		for i := range profile.Skills {
			if profile.Skills[i].ID == id {
				skill = &profile.Skills[i]
				break
			}
		}
		if skill == nil {
			s.domainError(w, store.ErrNotFound)
			return
		}
		s.jsonResponse(w, http.StatusOK, skills.Associated(profile, skill.Name))
	})
}

type toggleSkillRequest struct {
	SkillName string `json:"skill_name"`
}

func (s *Server) handleToggleJobSkill(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req toggleSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SkillName == "" {
		s.errorResponse(w, http.StatusBadRequest, "Field 'skill_name' is required")
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.skills.ToggleJobAssociation(r.Context(), id, req.SkillName); err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, skills.Associated(sess.store.Profile(), req.SkillName))
	})
}

func (s *Server) handleToggleProjectSkill(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var req toggleSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SkillName == "" {
		s.errorResponse(w, http.StatusBadRequest, "Field 'skill_name' is required")
		return
	}

	s.withSession(w, r, func(sess *session) {
		if err := sess.skills.ToggleProjectAssociation(r.Context(), id, req.SkillName); err != nil {
			s.domainError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, skills.Associated(sess.store.Profile(), req.SkillName))
	})
}

type parseSkillsResponse struct {
	Added   []types.SkillEntry `json:"added"`
	Skipped []string           `json:"skipped,omitempty"`
}

// handleParseSkills extracts skills from free text with the AI, categorizes
// the uncategorized ones in one concurrent batch and adds the new ones.
// Names already present are reported back as skipped rather than failing the
// batch.
func (s *Server) handleParseSkills(w http.ResponseWriter, r *http.Request) {
	if s.structurer == nil {
		s.domainError(w, &ErrAIUnavailable{})
		return
	}

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		s.errorResponse(w, http.StatusBadRequest, "Field 'text' is required")
		return
	}

	s.withSession(w, r, func(sess *session) {
		known := skills.KnownCategories(sess.store.Profile())
		drafts, err := s.structurer.ParseSkills(r.Context(), req.Text, known)
		if err != nil {
			s.errorResponse(w, http.StatusBadGateway, "Failed to parse skills: "+err.Error())
			return
		}

		var uncategorized []string
		for _, draft := range drafts {
			if draft.Category == "" {
				uncategorized = append(uncategorized, draft.Name)
			}
		}
		var batch map[string]skills.Result
		if len(uncategorized) > 0 {
			batch, err = sess.categorizer.CategorizeBatch(r.Context(), uncategorized, known)
			if err != nil {
				s.domainError(w, err)
				return
			}
		}

		var resp parseSkillsResponse
		for _, draft := range drafts {
			category := draft.Category
			if category == "" {
				category = batch[draft.Name].Category
			}

			added, err := sess.store.AddSkill(r.Context(), draft.Name, category)
			if errors.Is(err, store.ErrDuplicateSkill) {
				resp.Skipped = append(resp.Skipped, draft.Name)
				continue
			}
			if err != nil {
				s.domainError(w, err)
				return
			}
			resp.Added = append(resp.Added, *added)
		}

		s.jsonResponse(w, http.StatusOK, resp)
	})
}

// handleCategorizeSkills assigns categories to every skill that lacks one.
func (s *Server) handleCategorizeSkills(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		profile := sess.store.Profile()
		known := skills.KnownCategories(profile)

		var uncategorized []string
		byName := make(map[string]types.SkillEntry)
		for _, skill := range profile.Skills {
			if skill.Category == "" {
				uncategorized = append(uncategorized, skill.Name)
				byName[types.NormalizeSkillName(skill.Name)] = skill
			}
		}
		if len(uncategorized) == 0 {
			s.jsonResponse(w, http.StatusOK, map[string]int{"updated": 0})
			return
		}

		results, err := sess.categorizer.CategorizeBatch(r.Context(), uncategorized, known)
		if err != nil {
			s.errorResponse(w, http.StatusBadGateway, "Failed to categorize skills: "+err.Error())
			return
		}

		updated := 0
		for name, result := range results {
			entry, ok := byName[types.NormalizeSkillName(name)]
			if !ok {
				continue
			}
			entry.Category = result.Category
			if err := sess.store.UpdateSkill(r.Context(), entry); err != nil {
				s.domainError(w, err)
				return
			}
			updated++
		}

		s.jsonResponse(w, http.StatusOK, map[string]int{"updated": updated})
	})
}
