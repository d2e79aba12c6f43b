// Package lifecycle implements the application status state machine.
// Transitions to interviewing, offer, rejected, and archived are gated
// behind a supplementary detail payload; a transition and its payload
// attachment commit as one atomic update, and a refused transition leaves
// the application exactly as it was.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-pilot/internal/store"
	"github.com/jonathan/job-pilot/internal/types"
)

// ErrRefused indicates a transition or sub-entity request with an incomplete
// or malformed payload. The application remains in its prior state.
var ErrRefused = errors.New("transition refused")

func refusalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRefused, fmt.Sprintf(format, args...))
}

// interviewDateLayouts are the accepted date/time formats for interview
// scheduling, tried in order.
var interviewDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// InterviewDetails is the payload required to enter the interviewing state.
type InterviewDetails struct {
	When        string `json:"when"`
	Description string `json:"description"`
	Notes       string `json:"notes,omitempty"`
}

// ParseWhen parses the user-entered interview date/time.
func (d *InterviewDetails) ParseWhen() (time.Time, error) {
	raw := strings.TrimSpace(d.When)
	if raw == "" {
		return time.Time{}, fmt.Errorf("interview date is empty")
	}
	for _, layout := range interviewDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable interview date %q", raw)
}

// TransitionDetails carries the supplementary payload for a status change
// request. Which field must be set depends on the target status.
type TransitionDetails struct {
	Interview *InterviewDetails       `json:"interview,omitempty"`
	Offer     *types.OfferDetails     `json:"offer,omitempty"`
	Rejection *types.RejectionDetails `json:"rejection,omitempty"`
	Archive   *types.ArchiveDetails   `json:"archive,omitempty"`

	// SubmissionDate optionally overrides the submission timestamp when
	// moving to submitted; defaults to now.
	SubmissionDate *time.Time `json:"submission_date,omitempty"`
}

// Machine governs status transitions for applications in the given store.
type Machine struct {
	store *store.Store
	now   func() time.Time
}

// NewMachine creates a state machine over the given store.
func NewMachine(s *store.Store) *Machine {
	return &Machine{store: s, now: time.Now}
}

// RequestStatusChange validates the supplementary payload for the target
// status and, if accepted, applies the status change and its attachment
// atomically. No transition is automatic; every call here is user-initiated.
func (m *Machine) RequestStatusChange(ctx context.Context, appID uuid.UUID, target types.ApplicationStatus, details *TransitionDetails) (*types.SavedApplication, error) {
	if !types.ValidStatus(target) {
		return nil, refusalf("unknown status %q", target)
	}
	if details == nil {
		details = &TransitionDetails{}
	}

	mutate, err := m.transition(target, details)
	if err != nil {
		return nil, err
	}
	return m.store.MutateApplication(ctx, appID, mutate)
}

// transition validates the payload up front and returns the mutation to
// apply. Validation happens before any state is touched so a refusal never
// produces a partial write.
func (m *Machine) transition(target types.ApplicationStatus, details *TransitionDetails) (func(app *types.SavedApplication) error, error) {
	switch target {
	case types.StatusSaved:
		return func(app *types.SavedApplication) error {
			app.Status = types.StatusSaved
			clearDetails(app)
			return nil
		}, nil

	case types.StatusSubmitted:
		submitted := m.now().UTC()
		if details.SubmissionDate != nil {
			submitted = *details.SubmissionDate
		}
		return func(app *types.SavedApplication) error {
			app.Status = types.StatusSubmitted
			if app.SubmissionDate == nil {
				d := submitted
				app.SubmissionDate = &d
			}
			clearDetails(app)
			return nil
		}, nil

	case types.StatusInterviewing:
		if details.Interview == nil {
			return nil, refusalf("interview details are required")
		}
		if strings.TrimSpace(details.Interview.Description) == "" {
			return nil, refusalf("interview description is required")
		}
		when, err := details.Interview.ParseWhen()
		if err != nil {
			return nil, refusalf("%v", err)
		}
		date := types.ImportantDate{
			ID:          uuid.New(),
			Date:        when,
			Description: details.Interview.Description,
			Notes:       details.Interview.Notes,
		}
		return func(app *types.SavedApplication) error {
			app.Status = types.StatusInterviewing
			app.ImportantDates = append(app.ImportantDates, date)
			clearDetails(app)
			return nil
		}, nil

	case types.StatusOffer:
		if details.Offer == nil {
			return nil, refusalf("offer details are required")
		}
		offer := *details.Offer
		return func(app *types.SavedApplication) error {
			app.Status = types.StatusOffer
			clearDetails(app)
			app.Offer = &offer
			return nil
		}, nil

	case types.StatusRejected:
		if details.Rejection == nil {
			return nil, refusalf("rejection details are required")
		}
		if details.Rejection.RejectedBy != types.RejectedByUser && details.Rejection.RejectedBy != types.RejectedByCompany {
			return nil, refusalf("rejected_by must be %q or %q", types.RejectedByUser, types.RejectedByCompany)
		}
		if strings.TrimSpace(details.Rejection.Reason) == "" {
			return nil, refusalf("rejection reason is required")
		}
		rejection := *details.Rejection
		return func(app *types.SavedApplication) error {
			app.Status = types.StatusRejected
			clearDetails(app)
			app.Rejection = &rejection
			return nil
		}, nil

	case types.StatusArchived:
		if details.Archive == nil {
			return nil, refusalf("archive details are required")
		}
		archive := *details.Archive
		return func(app *types.SavedApplication) error {
			app.Status = types.StatusArchived
			clearDetails(app)
			app.Archive = &archive
			return nil
		}, nil
	}
	return nil, refusalf("unknown status %q", target)
}

// clearDetails upholds the exactly-one-of invariant: detail payloads are
// attached only while the status that requires them is current.
func clearDetails(app *types.SavedApplication) {
	app.Offer = nil
	app.Rejection = nil
	app.Archive = nil
}

// SubmissionDateID returns the id of the synthetic submission-date entry for
// an application. The entry is derived from SubmissionDate, never stored.
func SubmissionDateID(appID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("submission-date:"+appID.String()))
}

// ImportantDates returns the application's key dates, including the
// synthetic submission-date entry when a submission date is set, sorted by
// date ascending.
func ImportantDates(app *types.SavedApplication) []types.ImportantDate {
	dates := make([]types.ImportantDate, 0, len(app.ImportantDates)+1)
	dates = append(dates, app.ImportantDates...)
	if app.SubmissionDate != nil {
		dates = append(dates, types.ImportantDate{
			ID:          SubmissionDateID(app.ID),
			Date:        *app.SubmissionDate,
			Description: "Application submitted",
		})
	}
	sort.SliceStable(dates, func(i, j int) bool { return dates[i].Date.Before(dates[j].Date) })
	return dates
}

// AddImportantDate appends a user-managed key date.
func (m *Machine) AddImportantDate(ctx context.Context, appID uuid.UUID, date types.ImportantDate) (*types.ImportantDate, error) {
	if strings.TrimSpace(date.Description) == "" {
		return nil, refusalf("date description is required")
	}
	if date.Date.IsZero() {
		return nil, refusalf("date is required")
	}
	date.ID = uuid.New()
	_, err := m.store.MutateApplication(ctx, appID, func(app *types.SavedApplication) error {
		app.ImportantDates = append(app.ImportantDates, date)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &date, nil
}

// UpdateImportantDate replaces a stored key date. The synthetic
// submission-date entry cannot be edited.
func (m *Machine) UpdateImportantDate(ctx context.Context, appID uuid.UUID, date types.ImportantDate) error {
	if date.ID == SubmissionDateID(appID) {
		return refusalf("the submission date entry is derived and cannot be edited")
	}
	_, err := m.store.MutateApplication(ctx, appID, func(app *types.SavedApplication) error {
		for i := range app.ImportantDates {
			if app.ImportantDates[i].ID == date.ID {
				app.ImportantDates[i] = date
				return nil
			}
		}
		return fmt.Errorf("important date %s: %w", date.ID, store.ErrNotFound)
	})
	return err
}

// RemoveImportantDate removes a key date. Removing the synthetic
// submission-date entry reverts the application to saved and clears the
// submission date; this is the only state-machine effect triggered by a
// sub-entity deletion.
func (m *Machine) RemoveImportantDate(ctx context.Context, appID uuid.UUID, dateID uuid.UUID) error {
	if dateID == SubmissionDateID(appID) {
		_, err := m.store.MutateApplication(ctx, appID, func(app *types.SavedApplication) error {
			app.Status = types.StatusSaved
			app.SubmissionDate = nil
			clearDetails(app)
			return nil
		})
		return err
	}
	_, err := m.store.MutateApplication(ctx, appID, func(app *types.SavedApplication) error {
		for i := range app.ImportantDates {
			if app.ImportantDates[i].ID == dateID {
				app.ImportantDates = append(app.ImportantDates[:i], app.ImportantDates[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("important date %s: %w", dateID, store.ErrNotFound)
	})
	return err
}

// AddCorrespondence appends an entry to the correspondence log.
func (m *Machine) AddCorrespondence(ctx context.Context, appID uuid.UUID, entry types.CorrespondenceEntry) (*types.CorrespondenceEntry, error) {
	if !types.ValidCorrespondenceType(entry.Type) {
		return nil, refusalf("unknown correspondence type %q", entry.Type)
	}
	if strings.TrimSpace(entry.Content) == "" {
		return nil, refusalf("correspondence content is required")
	}
	if entry.Date.IsZero() {
		entry.Date = m.now().UTC()
	}
	entry.ID = uuid.New()
	_, err := m.store.MutateApplication(ctx, appID, func(app *types.SavedApplication) error {
		app.Correspondence = append(app.Correspondence, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// RemoveCorrespondence removes a log entry.
func (m *Machine) RemoveCorrespondence(ctx context.Context, appID uuid.UUID, entryID uuid.UUID) error {
	_, err := m.store.MutateApplication(ctx, appID, func(app *types.SavedApplication) error {
		for i := range app.Correspondence {
			if app.Correspondence[i].ID == entryID {
				app.Correspondence = append(app.Correspondence[:i], app.Correspondence[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("correspondence %s: %w", entryID, store.ErrNotFound)
	})
	return err
}

// CorrespondenceByDateDesc returns the log ordered for display: most recent
// first. Storage order is insertion order and is left untouched.
func CorrespondenceByDateDesc(app *types.SavedApplication) []types.CorrespondenceEntry {
	out := make([]types.CorrespondenceEntry, len(app.Correspondence))
	copy(out, app.Correspondence)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
