package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	"github.com/noah-isme/obs-timetable-api/internal/models"
	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
)

type candidateSourceStub struct {
	candidates []models.Proposal
	err        error
}

func (s *candidateSourceStub) FetchCandidates(ctx context.Context, query dto.ProposalQuery) ([]models.Proposal, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	return s.candidates, false, nil
}

type allocatorStub struct {
	calls    int
	received models.Timetable
	start    time.Time
	err      error
}

func (a *allocatorStub) Allocate(ctx context.Context, timetable models.Timetable) (models.Timetable, error) {
	a.calls++
	a.received = timetable
	if a.err != nil {
		return models.Timetable{}, a.err
	}
	out := timetable
	out.Proposals = make([]models.Proposal, len(timetable.Proposals))
	for i, p := range timetable.Proposals {
		ts := a.start.Add(time.Duration(i) * time.Hour)
		p.ScheduledStart = &ts
		out.Proposals[i] = p
	}
	return out, nil
}

type creatorStub struct {
	created []models.Timetable
	err     error
}

func (c *creatorStub) Create(ctx context.Context, timetable models.Timetable) (*models.Timetable, error) {
	if c.err != nil {
		return nil, c.err
	}
	timetable.ID = "tt-1"
	c.created = append(c.created, timetable)
	return &timetable, nil
}

var generationNow = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

func generationCandidates() []models.Proposal {
	return []models.Proposal{
		{ID: 1, ProposalID: "SCI-1", Duration: 86400 * time.Second},
		{ID: 2, ProposalID: "SCI-2", Duration: 3600 * time.Second},
		{ID: 3, ProposalID: "SCI-3", Duration: 150000 * time.Second},
	}
}

type generationFixture struct {
	svc       *GenerationService
	allocator *allocatorStub
	creator   *creatorStub
	clock     *time.Time
}

func newGenerationFixture(t *testing.T) *generationFixture {
	t.Helper()
	clock := generationNow
	allocator := &allocatorStub{start: time.Date(2030, 1, 2, 6, 0, 0, 0, time.UTC)}
	creator := &creatorStub{}
	svc := NewGenerationService(&candidateSourceStub{candidates: generationCandidates()}, allocator, creator, nil, NewMetricsService(), nil, GenerationServiceConfig{
		SessionTTL: time.Hour,
		Now:        func() time.Time { return clock },
	})
	return &generationFixture{svc: svc, allocator: allocator, creator: creator, clock: &clock}
}

func (f *generationFixture) create(t *testing.T) *dto.SessionResponse {
	t.Helper()
	session, err := f.svc.Create(context.Background(), dto.CreateSessionRequest{Name: "Run"})
	require.NoError(t, err)
	return session
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func TestGenerationServiceCreate(t *testing.T) {
	f := newGenerationFixture(t)
	session := f.create(t)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "Run", session.Name)
	assert.Len(t, session.Candidates, 3)
	assert.Zero(t, session.SelectedCount)
	assert.Zero(t, session.RemainingSeconds)
	assert.Empty(t, session.StartDate)
	assert.Equal(t, generationNow.Add(time.Hour), session.ExpiresAt)
}

func TestGenerationServiceCreateSourceFailure(t *testing.T) {
	svc := NewGenerationService(&candidateSourceStub{err: appErrors.Clone(appErrors.ErrSourceUnavailable, "down")}, &allocatorStub{}, &creatorStub{}, nil, nil, nil, GenerationServiceConfig{})
	_, err := svc.Create(context.Background(), dto.CreateSessionRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrSourceUnavailable))
}

func TestGenerationServiceSetWindowAutoFills(t *testing.T) {
	f := newGenerationFixture(t)
	session := f.create(t)

	// Two days hold the first two candidates; the third overflows.
	resp, err := f.svc.SetWindow(context.Background(), session.ID, dto.SetWindowRequest{StartDate: "2030-01-01", EndDate: "2030-01-02"})
	require.NoError(t, err)
	assert.Equal(t, "2030-01-01", resp.StartDate)
	assert.Equal(t, int64(172800), resp.WindowSeconds)
	assert.Equal(t, 2, resp.SelectedCount)
	assert.Equal(t, float64(172800-86400-3600), resp.RemainingSeconds)
	assert.True(t, resp.Candidates[0].Selected)
	assert.True(t, resp.Candidates[1].Selected)
	assert.False(t, resp.Candidates[2].Selected)
}

func TestGenerationServiceSetWindowManual(t *testing.T) {
	f := newGenerationFixture(t)
	session := f.create(t)

	resp, err := f.svc.SetWindow(context.Background(), session.ID, dto.SetWindowRequest{StartDate: "2030-01-01", EndDate: "2030-01-01", AutoFill: boolPtr(false)})
	require.NoError(t, err)
	assert.Zero(t, resp.SelectedCount)
	assert.Equal(t, float64(86400), resp.RemainingSeconds)
}

func TestGenerationServiceRejectedWindowLeavesSession(t *testing.T) {
	f := newGenerationFixture(t)
	session := f.create(t)
	_, err := f.svc.SetWindow(context.Background(), session.ID, dto.SetWindowRequest{StartDate: "2030-01-01", EndDate: "2030-01-02"})
	require.NoError(t, err)

	_, err = f.svc.SetWindow(context.Background(), session.ID, dto.SetWindowRequest{StartDate: "2029-12-31", EndDate: "2030-01-02"})
	assert.True(t, errors.Is(err, appErrors.ErrStartInPast))
	_, err = f.svc.SetWindow(context.Background(), session.ID, dto.SetWindowRequest{StartDate: "2030-01-05", EndDate: "2030-01-02"})
	assert.True(t, errors.Is(err, appErrors.ErrRangeInverted))
	_, err = f.svc.SetWindow(context.Background(), session.ID, dto.SetWindowRequest{StartDate: "2030-02-30", EndDate: "2030-03-02"})
	assert.True(t, errors.Is(err, appErrors.ErrMalformedDate))

	resp, err := f.svc.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-02", resp.EndDate)
	assert.Equal(t, 2, resp.SelectedCount)
}

func TestGenerationServiceToggleAndAutoFill(t *testing.T) {
	f := newGenerationFixture(t)
	session := f.create(t)
	_, err := f.svc.SetWindow(context.Background(), session.ID, dto.SetWindowRequest{StartDate: "2030-01-01", EndDate: "2030-01-02"})
	require.NoError(t, err)

	resp, err := f.svc.Toggle(context.Background(), session.ID, dto.ToggleRequest{Index: intPtr(2)})
	require.NoError(t, err)
	assert.True(t, resp.OverCapacity)
	assert.Equal(t, 3, resp.SelectedCount)

	resp, err = f.svc.Toggle(context.Background(), session.ID, dto.ToggleRequest{Index: intPtr(2)})
	require.NoError(t, err)
	assert.False(t, resp.OverCapacity)
	assert.Equal(t, float64(172800-86400-3600), resp.RemainingSeconds)

	_, err = f.svc.Toggle(context.Background(), session.ID, dto.ToggleRequest{Index: intPtr(0)})
	require.NoError(t, err)
	resp, err = f.svc.AutoFill(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.SelectedCount)
}

func TestGenerationServiceToggleValidation(t *testing.T) {
	f := newGenerationFixture(t)
	session := f.create(t)

	_, err := f.svc.Toggle(context.Background(), session.ID, dto.ToggleRequest{Index: intPtr(3)})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	_, err = f.svc.Toggle(context.Background(), session.ID, dto.ToggleRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	_, err = f.svc.Toggle(context.Background(), session.ID, dto.ToggleRequest{Index: intPtr(-1)})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestGenerationServiceAutoFillNeedsWindow(t *testing.T) {
	f := newGenerationFixture(t)
	session := f.create(t)

	_, err := f.svc.AutoFill(context.Background(), session.ID)
	assert.True(t, errors.Is(err, appErrors.ErrEmptyWindow))
}

func TestGenerationServiceReset(t *testing.T) {
	f := newGenerationFixture(t)
	session := f.create(t)
	_, err := f.svc.SetWindow(context.Background(), session.ID, dto.SetWindowRequest{StartDate: "2030-01-01", EndDate: "2030-01-02"})
	require.NoError(t, err)

	resp, err := f.svc.Reset(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Zero(t, resp.SelectedCount)
	assert.Zero(t, resp.RemainingSeconds)
	assert.Empty(t, resp.StartDate)

	_, err = f.svc.Submit(context.Background(), session.ID, dto.SubmitSessionRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrEmptyWindow))
}

func TestGenerationServiceSubmit(t *testing.T) {
	f := newGenerationFixture(t)
	session := f.create(t)
	_, err := f.svc.SetWindow(context.Background(), session.ID, dto.SetWindowRequest{StartDate: "2030-01-01", EndDate: "2030-01-02"})
	require.NoError(t, err)

	resp, err := f.svc.Submit(context.Background(), session.ID, dto.SubmitSessionRequest{Name: "Final"})
	require.NoError(t, err)
	assert.Equal(t, "tt-1", resp.ID)
	assert.Equal(t, "Final", resp.Name)
	assert.Equal(t, 2, resp.ScheduledCount)
	require.Len(t, resp.Proposals, 2)
	assert.Equal(t, "2030-01-02 06:00:00", resp.Proposals[0].ScheduledStartDatetime)

	assert.Equal(t, 1, f.allocator.calls)
	assert.Equal(t, "2030-01-01", f.allocator.received.StartDate.Format(models.DateLayout))
	require.Len(t, f.creator.created, 1)

	_, err = f.svc.Get(context.Background(), session.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, uint64(1), f.svc.metrics.Snapshot().TimetablesSubmitted)
}

func TestGenerationServiceSubmitOverCapacity(t *testing.T) {
	f := newGenerationFixture(t)
	session := f.create(t)
	_, err := f.svc.SetWindow(context.Background(), session.ID, dto.SetWindowRequest{StartDate: "2030-01-01", EndDate: "2030-01-02"})
	require.NoError(t, err)
	_, err = f.svc.Toggle(context.Background(), session.ID, dto.ToggleRequest{Index: intPtr(2)})
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), session.ID, dto.SubmitSessionRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrOverCapacity))
	assert.Zero(t, f.allocator.calls)
	assert.Equal(t, uint64(1), f.svc.metrics.Snapshot().SubmissionsRejected)
}

func TestGenerationServiceSubmitFailureKeepsSession(t *testing.T) {
	f := newGenerationFixture(t)
	f.allocator.err = appErrors.Clone(appErrors.ErrSourceUnavailable, "backend down")
	session := f.create(t)
	_, err := f.svc.SetWindow(context.Background(), session.ID, dto.SetWindowRequest{StartDate: "2030-01-01", EndDate: "2030-01-02"})
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), session.ID, dto.SubmitSessionRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrSourceUnavailable))

	resp, err := f.svc.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.SelectedCount)

	// The session is not locked after a failed submit.
	_, err = f.svc.Toggle(context.Background(), session.ID, dto.ToggleRequest{Index: intPtr(1)})
	require.NoError(t, err)

	f.allocator.err = nil
	f.creator.err = appErrors.Clone(appErrors.ErrSourceUnavailable, "db down")
	_, err = f.svc.Submit(context.Background(), session.ID, dto.SubmitSessionRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrSourceUnavailable))
	_, err = f.svc.Get(context.Background(), session.ID)
	require.NoError(t, err)
}

func TestGenerationServiceSessionExpiry(t *testing.T) {
	f := newGenerationFixture(t)
	session := f.create(t)

	*f.clock = f.clock.Add(30 * time.Minute)
	_, err := f.svc.Get(context.Background(), session.ID)
	require.NoError(t, err)

	*f.clock = f.clock.Add(61 * time.Minute)
	_, err = f.svc.Get(context.Background(), session.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Zero(t, f.svc.Sweep())
}

func TestGenerationServiceDelete(t *testing.T) {
	f := newGenerationFixture(t)
	session := f.create(t)

	require.NoError(t, f.svc.Delete(context.Background(), session.ID))
	assert.True(t, errors.Is(f.svc.Delete(context.Background(), session.ID), appErrors.ErrNotFound))
}

func TestGenerationServiceValidateWindow(t *testing.T) {
	f := newGenerationFixture(t)

	resp, err := f.svc.ValidateWindow(dto.ValidateWindowRequest{StartDate: "2030-1-1", EndDate: "2030-01-03"})
	require.NoError(t, err)
	assert.Equal(t, "2030-01-01", resp.StartDate)
	assert.Equal(t, int64(3*86400), resp.DurationSeconds)

	_, err = f.svc.ValidateWindow(dto.ValidateWindowRequest{StartDate: "2030-01-01"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
