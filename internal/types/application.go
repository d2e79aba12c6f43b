package types

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus represents the lifecycle state of a SavedApplication.
type ApplicationStatus string

// Lifecycle states. Transitions between them are governed by the lifecycle
// state machine; archived is reachable from any state.
const (
	StatusSaved        ApplicationStatus = "saved"
	StatusSubmitted    ApplicationStatus = "submitted"
	StatusInterviewing ApplicationStatus = "interviewing"
	StatusOffer        ApplicationStatus = "offer"
	StatusRejected     ApplicationStatus = "rejected"
	StatusArchived     ApplicationStatus = "archived"
)

// ValidStatus reports whether s is a known application status.
func ValidStatus(s ApplicationStatus) bool {
	switch s {
	case StatusSaved, StatusSubmitted, StatusInterviewing, StatusOffer, StatusRejected, StatusArchived:
		return true
	}
	return false
}

// CorrespondenceType classifies a correspondence log entry.
type CorrespondenceType string

// Correspondence entry types.
const (
	CorrespondenceEmail     CorrespondenceType = "email"
	CorrespondencePhone     CorrespondenceType = "phone"
	CorrespondenceInterview CorrespondenceType = "interview"
	CorrespondenceNote      CorrespondenceType = "note"
)

// ValidCorrespondenceType reports whether t is a known correspondence type.
func ValidCorrespondenceType(t CorrespondenceType) bool {
	switch t {
	case CorrespondenceEmail, CorrespondencePhone, CorrespondenceInterview, CorrespondenceNote:
		return true
	}
	return false
}

// RejectedBy identifies which party ended the application.
type RejectedBy string

// Parties that can reject an application.
const (
	RejectedByUser    RejectedBy = "user"
	RejectedByCompany RejectedBy = "company"
)

// OfferDetails captures the terms attached when an application reaches offer.
// Both fields are optional strings, but the payload itself is mandatory for
// the transition.
type OfferDetails struct {
	PayRate string `json:"pay_rate,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// RejectionDetails captures why an application was rejected.
type RejectionDetails struct {
	RejectedBy RejectedBy `json:"rejected_by"`
	Reason     string     `json:"reason"`
	Takeaways  string     `json:"takeaways,omitempty"`
}

// ArchiveDetails captures notes recorded when an application is archived.
type ArchiveDetails struct {
	Reason    string `json:"reason,omitempty"`
	Takeaways string `json:"takeaways,omitempty"`
}

// ImportantDate is a user-managed key date attached to an application.
// One synthetic entry is derived from SavedApplication.SubmissionDate and is
// never stored in the Dates list itself.
type ImportantDate struct {
	ID          uuid.UUID `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	IsFollowUp  bool      `json:"is_follow_up"`
	Notes       string    `json:"notes,omitempty"`
}

// CorrespondenceEntry is one entry in the append-mostly correspondence log.
// Storage order is insertion order; display order is date descending.
type CorrespondenceEntry struct {
	ID      uuid.UUID          `json:"id"`
	Date    time.Time          `json:"date"`
	Type    CorrespondenceType `json:"type"`
	Content string             `json:"content"`
}

// Resume is one generated resume artifact with its customization metadata.
// At most one Resume per application is starred; the resume variant manager
// enforces that, not the store.
type Resume struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"created_at"`
	TemplateUsed    string    `json:"template_used,omitempty"`
	AccentColorUsed string    `json:"accent_color_used,omitempty"`
	PageLimitUsed   int       `json:"page_limit_used,omitempty"`
	LaTeX           string    `json:"generated_resume_latex,omitempty"`
	Markdown        string    `json:"generated_resume_markdown,omitempty"`
	IsStarred       bool      `json:"is_starred"`
}

// SavedApplication is one tracked job application and its artifacts.
// Exactly one of Offer/Rejection/Archive is non-nil, and only while the
// status is respectively offer/rejected/archived.
type SavedApplication struct {
	ID             uuid.UUID         `json:"id"`
	JobTitle       string            `json:"job_title"`
	CompanyName    string            `json:"company_name"`
	JobDescription string            `json:"job_description,omitempty"`
	Summary        string            `json:"summary,omitempty"`
	CoverLetter    string            `json:"cover_letter,omitempty"`
	MatchAnalysis  string            `json:"match_analysis,omitempty"`
	Status         ApplicationStatus `json:"status"`
	Notes          string            `json:"notes,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	SubmissionDate *time.Time        `json:"submission_date,omitempty"`

	ImportantDates    []ImportantDate       `json:"important_dates,omitempty"`
	Correspondence    []CorrespondenceEntry `json:"correspondence,omitempty"`
	Resumes           []Resume              `json:"resumes,omitempty"`
	Offer             *OfferDetails         `json:"offer_details,omitempty"`
	Rejection         *RejectionDetails     `json:"rejection_details,omitempty"`
	Archive           *ArchiveDetails       `json:"archive_details,omitempty"`
	SuggestedLearning []string              `json:"suggested_learning,omitempty"`
}

// Clone returns a deep copy of the application for stage-then-commit
// mutations.
func (a *SavedApplication) Clone() *SavedApplication {
	if a == nil {
		return nil
	}
	c := *a
	if a.SubmissionDate != nil {
		d := *a.SubmissionDate
		c.SubmissionDate = &d
	}
	if a.ImportantDates != nil {
		c.ImportantDates = make([]ImportantDate, len(a.ImportantDates))
		copy(c.ImportantDates, a.ImportantDates)
	}
	if a.Correspondence != nil {
		c.Correspondence = make([]CorrespondenceEntry, len(a.Correspondence))
		copy(c.Correspondence, a.Correspondence)
	}
	if a.Resumes != nil {
		c.Resumes = make([]Resume, len(a.Resumes))
		copy(c.Resumes, a.Resumes)
	}
	if a.Offer != nil {
		o := *a.Offer
		c.Offer = &o
	}
	if a.Rejection != nil {
		r := *a.Rejection
		c.Rejection = &r
	}
	if a.Archive != nil {
		ar := *a.Archive
		c.Archive = &ar
	}
	c.SuggestedLearning = cloneStrings(a.SuggestedLearning)
	return &c
}

// AttachedDetails returns the single populated detail payload, if any.
// Used by tests and the API layer to assert the exactly-one-of invariant.
func (a *SavedApplication) AttachedDetails() (offer *OfferDetails, rejection *RejectionDetails, archive *ArchiveDetails) {
	return a.Offer, a.Rejection, a.Archive
}
