package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-pilot/internal/store"
	"github.com/jonathan/job-pilot/internal/types"
)

type memPersister struct {
	profile      *types.Profile
	applications map[uuid.UUID]types.SavedApplication
	saveCount    int
}

func (m *memPersister) Load(_ context.Context, _ uuid.UUID) (*types.Profile, []types.SavedApplication, error) {
	return m.profile, nil, nil
}

func (m *memPersister) SaveProfile(_ context.Context, _ uuid.UUID, p *types.Profile) error {
	m.profile = p.Clone()
	return nil
}

func (m *memPersister) SaveApplication(_ context.Context, _ uuid.UUID, app *types.SavedApplication) error {
	m.saveCount++
	m.applications[app.ID] = *app.Clone()
	return nil
}

func (m *memPersister) DeleteApplication(_ context.Context, _ uuid.UUID, appID uuid.UUID) error {
	delete(m.applications, appID)
	return nil
}

func newMachine(t *testing.T) (*Machine, *store.Store, *memPersister) {
	t.Helper()
	p := &memPersister{applications: make(map[uuid.UUID]types.SavedApplication)}
	s := store.New(uuid.New(), p)
	require.NoError(t, s.Load(context.Background()))
	return NewMachine(s), s, p
}

func newApplication(t *testing.T, s *store.Store) *types.SavedApplication {
	t.Helper()
	app, err := s.CreateApplication(context.Background(), types.SavedApplication{
		JobTitle:    "Backend Engineer",
		CompanyName: "Acme",
	})
	require.NoError(t, err)
	return app
}

func TestRequestStatusChange_Submitted(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)

	got, err := m.RequestStatusChange(context.Background(), app.ID, types.StatusSubmitted, nil)
	require.NoError(t, err)

	assert.Equal(t, types.StatusSubmitted, got.Status)
	require.NotNil(t, got.SubmissionDate)
}

func TestRequestStatusChange_SubmittedKeepsExistingSubmissionDate(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)
	ctx := context.Background()

	first := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	_, err := m.RequestStatusChange(ctx, app.ID, types.StatusSubmitted, &TransitionDetails{SubmissionDate: &first})
	require.NoError(t, err)

	// Bouncing through saved and back must not re-stamp the date.
	_, err = m.RequestStatusChange(ctx, app.ID, types.StatusSaved, nil)
	require.NoError(t, err)
	got, err := m.RequestStatusChange(ctx, app.ID, types.StatusSubmitted, nil)
	require.NoError(t, err)

	require.NotNil(t, got.SubmissionDate)
	assert.Equal(t, first, *got.SubmissionDate)
}

func TestRequestStatusChange_InterviewingAppendsImportantDate(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)

	got, err := m.RequestStatusChange(context.Background(), app.ID, types.StatusInterviewing, &TransitionDetails{
		Interview: &InterviewDetails{When: "2025-03-10T14:00", Description: "Technical screen"},
	})
	require.NoError(t, err)

	assert.Equal(t, types.StatusInterviewing, got.Status)
	require.Len(t, got.ImportantDates, 1)
	assert.Equal(t, "Technical screen", got.ImportantDates[0].Description)
	assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), got.ImportantDates[0].Date)
}

func TestRequestStatusChange_InterviewingUnparsableDateRefused(t *testing.T) {
	m, s, p := newMachine(t)
	app := newApplication(t, s)
	saves := p.saveCount

	_, err := m.RequestStatusChange(context.Background(), app.ID, types.StatusInterviewing, &TransitionDetails{
		Interview: &InterviewDetails{When: "next tuesday-ish", Description: "Screen"},
	})
	require.ErrorIs(t, err, ErrRefused)

	current, err := s.Application(app.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusSaved, current.Status)
	assert.Empty(t, current.ImportantDates)
	assert.Equal(t, saves, p.saveCount, "refused transition must not persist")
}

func TestRequestStatusChange_InterviewingMissingPayloadRefused(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)
	ctx := context.Background()

	_, err := m.RequestStatusChange(ctx, app.ID, types.StatusInterviewing, nil)
	assert.ErrorIs(t, err, ErrRefused)

	_, err = m.RequestStatusChange(ctx, app.ID, types.StatusInterviewing, &TransitionDetails{
		Interview: &InterviewDetails{When: "2025-03-10", Description: "   "},
	})
	assert.ErrorIs(t, err, ErrRefused)
}

func TestRequestStatusChange_OfferAttachesExactlyOneDetail(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)

	got, err := m.RequestStatusChange(context.Background(), app.ID, types.StatusOffer, &TransitionDetails{
		Offer: &types.OfferDetails{PayRate: "$120k", Notes: "Remote"},
	})
	require.NoError(t, err)

	offer, rejection, archive := got.AttachedDetails()
	require.NotNil(t, offer)
	assert.Equal(t, "$120k", offer.PayRate)
	assert.Nil(t, rejection)
	assert.Nil(t, archive)
}

func TestRequestStatusChange_OfferWithoutPayloadRefused(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)

	_, err := m.RequestStatusChange(context.Background(), app.ID, types.StatusOffer, nil)
	assert.ErrorIs(t, err, ErrRefused)
}

func TestRequestStatusChange_Rejected(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)
	ctx := context.Background()

	_, err := m.RequestStatusChange(ctx, app.ID, types.StatusRejected, &TransitionDetails{
		Rejection: &types.RejectionDetails{RejectedBy: "recruiter", Reason: "x"},
	})
	assert.ErrorIs(t, err, ErrRefused, "unknown rejected_by")

	_, err = m.RequestStatusChange(ctx, app.ID, types.StatusRejected, &TransitionDetails{
		Rejection: &types.RejectionDetails{RejectedBy: types.RejectedByCompany, Reason: ""},
	})
	assert.ErrorIs(t, err, ErrRefused, "missing reason")

	got, err := m.RequestStatusChange(ctx, app.ID, types.StatusRejected, &TransitionDetails{
		Rejection: &types.RejectionDetails{RejectedBy: types.RejectedByCompany, Reason: "Position filled", Takeaways: "Apply earlier"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusRejected, got.Status)
	require.NotNil(t, got.Rejection)
	assert.Nil(t, got.Offer)
	assert.Nil(t, got.Archive)
}

func TestRequestStatusChange_ArchivedReachableFromAnyState(t *testing.T) {
	m, s, _ := newMachine(t)
	ctx := context.Background()

	for _, from := range []types.ApplicationStatus{types.StatusSaved, types.StatusSubmitted, types.StatusOffer, types.StatusRejected} {
		app := newApplication(t, s)
		switch from {
		case types.StatusSubmitted:
			_, err := m.RequestStatusChange(ctx, app.ID, from, nil)
			require.NoError(t, err)
		case types.StatusOffer:
			_, err := m.RequestStatusChange(ctx, app.ID, from, &TransitionDetails{Offer: &types.OfferDetails{}})
			require.NoError(t, err)
		case types.StatusRejected:
			_, err := m.RequestStatusChange(ctx, app.ID, from, &TransitionDetails{
				Rejection: &types.RejectionDetails{RejectedBy: types.RejectedByUser, Reason: "Withdrew"},
			})
			require.NoError(t, err)
		}

		got, err := m.RequestStatusChange(ctx, app.ID, types.StatusArchived, &TransitionDetails{
			Archive: &types.ArchiveDetails{Reason: "No longer interested"},
		})
		require.NoError(t, err, "from %s", from)
		assert.Equal(t, types.StatusArchived, got.Status)
		require.NotNil(t, got.Archive)
		assert.Nil(t, got.Offer)
		assert.Nil(t, got.Rejection)
	}
}

func TestRequestStatusChange_DetailSwapOnStatusChange(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)
	ctx := context.Background()

	_, err := m.RequestStatusChange(ctx, app.ID, types.StatusOffer, &TransitionDetails{Offer: &types.OfferDetails{PayRate: "$1"}})
	require.NoError(t, err)

	got, err := m.RequestStatusChange(ctx, app.ID, types.StatusRejected, &TransitionDetails{
		Rejection: &types.RejectionDetails{RejectedBy: types.RejectedByUser, Reason: "Declined offer"},
	})
	require.NoError(t, err)
	assert.Nil(t, got.Offer)
	require.NotNil(t, got.Rejection)

	// Moving back to a detail-free status clears everything.
	got, err = m.RequestStatusChange(ctx, app.ID, types.StatusSaved, nil)
	require.NoError(t, err)
	offer, rejection, archive := got.AttachedDetails()
	assert.Nil(t, offer)
	assert.Nil(t, rejection)
	assert.Nil(t, archive)
}

func TestRequestStatusChange_UnknownStatusRefused(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)

	_, err := m.RequestStatusChange(context.Background(), app.ID, "pending", nil)
	assert.ErrorIs(t, err, ErrRefused)
}

func TestRequestStatusChange_UnknownApplication(t *testing.T) {
	m, _, _ := newMachine(t)

	_, err := m.RequestStatusChange(context.Background(), uuid.New(), types.StatusSubmitted, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestImportantDates_SyntheticSubmissionEntry(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)
	ctx := context.Background()

	current, err := s.Application(app.ID)
	require.NoError(t, err)
	assert.Empty(t, ImportantDates(current), "no synthetic entry before submission")

	submitted := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	_, err = m.RequestStatusChange(ctx, app.ID, types.StatusSubmitted, &TransitionDetails{SubmissionDate: &submitted})
	require.NoError(t, err)

	_, err = m.AddImportantDate(ctx, app.ID, types.ImportantDate{
		Date:        submitted.AddDate(0, 0, -7),
		Description: "Found posting",
	})
	require.NoError(t, err)

	current, err = s.Application(app.ID)
	require.NoError(t, err)
	dates := ImportantDates(current)
	require.Len(t, dates, 2)
	assert.Equal(t, "Found posting", dates[0].Description, "sorted ascending")
	assert.Equal(t, SubmissionDateID(app.ID), dates[1].ID)
	assert.Equal(t, submitted, dates[1].Date)
}

func TestRemoveImportantDate_SyntheticRevertsToSaved(t *testing.T) {
	m, s, _ := newMachine(t)
	ctx := context.Background()

	// The reverse transition applies regardless of how far the application
	// progressed.
	for _, via := range []types.ApplicationStatus{types.StatusSubmitted, types.StatusOffer} {
		app := newApplication(t, s)
		_, err := m.RequestStatusChange(ctx, app.ID, types.StatusSubmitted, nil)
		require.NoError(t, err)
		if via == types.StatusOffer {
			_, err = m.RequestStatusChange(ctx, app.ID, types.StatusOffer, &TransitionDetails{Offer: &types.OfferDetails{}})
			require.NoError(t, err)
		}

		require.NoError(t, m.RemoveImportantDate(ctx, app.ID, SubmissionDateID(app.ID)))

		current, err := s.Application(app.ID)
		require.NoError(t, err)
		assert.Equal(t, types.StatusSaved, current.Status, "via %s", via)
		assert.Nil(t, current.SubmissionDate)
		assert.Nil(t, current.Offer)
	}
}

func TestRemoveImportantDate_StoredEntry(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)
	ctx := context.Background()

	date, err := m.AddImportantDate(ctx, app.ID, types.ImportantDate{
		Date:        time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Description: "Follow up",
		IsFollowUp:  true,
	})
	require.NoError(t, err)

	require.NoError(t, m.RemoveImportantDate(ctx, app.ID, date.ID))

	current, err := s.Application(app.ID)
	require.NoError(t, err)
	assert.Empty(t, current.ImportantDates)
	assert.Equal(t, types.StatusSaved, current.Status, "removing a plain date never changes status")

	err = m.RemoveImportantDate(ctx, app.ID, date.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddImportantDate_Validation(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)
	ctx := context.Background()

	_, err := m.AddImportantDate(ctx, app.ID, types.ImportantDate{Date: time.Now()})
	assert.ErrorIs(t, err, ErrRefused)

	_, err = m.AddImportantDate(ctx, app.ID, types.ImportantDate{Description: "No date"})
	assert.ErrorIs(t, err, ErrRefused)
}

func TestCorrespondence(t *testing.T) {
	m, s, _ := newMachine(t)
	app := newApplication(t, s)
	ctx := context.Background()

	_, err := m.AddCorrespondence(ctx, app.ID, types.CorrespondenceEntry{Type: "letter", Content: "hi"})
	assert.ErrorIs(t, err, ErrRefused)

	_, err = m.AddCorrespondence(ctx, app.ID, types.CorrespondenceEntry{Type: types.CorrespondenceEmail, Content: " "})
	assert.ErrorIs(t, err, ErrRefused)

	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	first, err := m.AddCorrespondence(ctx, app.ID, types.CorrespondenceEntry{Type: types.CorrespondenceEmail, Date: older, Content: "Applied"})
	require.NoError(t, err)
	_, err = m.AddCorrespondence(ctx, app.ID, types.CorrespondenceEntry{Type: types.CorrespondencePhone, Date: newer, Content: "Recruiter call"})
	require.NoError(t, err)

	current, err := s.Application(app.ID)
	require.NoError(t, err)

	// Storage keeps insertion order; the display view sorts date descending.
	assert.Equal(t, "Applied", current.Correspondence[0].Content)
	view := CorrespondenceByDateDesc(current)
	assert.Equal(t, "Recruiter call", view[0].Content)
	assert.Equal(t, "Applied", view[1].Content)

	require.NoError(t, m.RemoveCorrespondence(ctx, app.ID, first.ID))
	current, err = s.Application(app.ID)
	require.NoError(t, err)
	assert.Len(t, current.Correspondence, 1)
}

func TestParseWhen(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2025-03-10T14:00:00Z", false},
		{"2025-03-10T14:00", false},
		{"2025-03-10 14:00", false},
		{"2025-03-10", false},
		{"", true},
		{"soon", true},
		{"10/03/2025", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d := InterviewDetails{When: tt.input}
			_, err := d.ParseWhen()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
