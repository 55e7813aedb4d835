package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	"github.com/noah-isme/obs-timetable-api/internal/models"
	"github.com/noah-isme/obs-timetable-api/internal/planner"
	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
)

type candidateSource interface {
	FetchCandidates(ctx context.Context, query dto.ProposalQuery) ([]models.Proposal, bool, error)
}

type timetableAllocator interface {
	Allocate(ctx context.Context, timetable models.Timetable) (models.Timetable, error)
}

type timetableCreator interface {
	Create(ctx context.Context, timetable models.Timetable) (*models.Timetable, error)
}

// GenerationServiceConfig tunes generation sessions.
type GenerationServiceConfig struct {
	SessionTTL time.Duration
	FlagStyle  planner.FlagStyle
	Now        func() time.Time
}

// GenerationService drives the lifecycle of a timetable being generated:
// candidates are loaded into a selection ledger, a window is validated and
// auto-filled, the user adjusts the selection, and submit hands the
// assembled timetable to the allocation backend before persisting it.
type GenerationService struct {
	source     candidateSource
	allocator  timetableAllocator
	timetables timetableCreator
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	store      *sessionStore
	flagStyle  planner.FlagStyle
	now        func() time.Time
}

// NewGenerationService constructs a GenerationService.
func NewGenerationService(source candidateSource, allocator timetableAllocator, timetables timetableCreator, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg GenerationServiceConfig) *GenerationService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.FlagStyle == "" {
		cfg.FlagStyle = planner.FlagStyleYesNo
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &GenerationService{
		source:     source,
		allocator:  allocator,
		timetables: timetables,
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
		store:      newSessionStore(cfg.SessionTTL, cfg.Now),
		flagStyle:  cfg.FlagStyle,
		now:        cfg.Now,
	}
}

// ValidateWindow checks a date window without touching any session.
func (s *GenerationService) ValidateWindow(req dto.ValidateWindowRequest) (*dto.WindowResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window payload")
	}
	window, err := planner.ValidateWindow(req.StartDate, req.EndDate, s.now())
	if err != nil {
		return nil, err
	}
	return &dto.WindowResponse{
		StartDate:       window.Start.Format(models.DateLayout),
		EndDate:         window.End.Format(models.DateLayout),
		DurationSeconds: int64(window.Duration / time.Second),
	}, nil
}

// Create loads the current candidates into a fresh ledger.
func (s *GenerationService) Create(ctx context.Context, req dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	candidates, _, err := s.source.FetchCandidates(ctx, dto.ProposalQuery{Search: req.Search, Refresh: req.Refresh})
	if err != nil {
		return nil, err
	}

	session := &generationSession{
		ID:     uuid.NewString(),
		Name:   strings.TrimSpace(req.Name),
		Ledger: planner.NewLedger(candidates),
	}
	s.store.Save(session)
	s.publishActive()

	s.logger.Info("generation session created",
		zap.String("session_id", session.ID),
		zap.Int("candidates", len(candidates)),
	)
	return s.snapshot(session), nil
}

// Get returns the current ledger snapshot.
func (s *GenerationService) Get(_ context.Context, id string) (*dto.SessionResponse, error) {
	var resp *dto.SessionResponse
	err := s.with(id, false, func(session *generationSession) error {
		resp = s.snapshot(session)
		return nil
	})
	return resp, err
}

// SetWindow validates the window and, unless told otherwise, auto-fills the
// ledger against it. A rejected window leaves the session untouched.
func (s *GenerationService) SetWindow(_ context.Context, id string, req dto.SetWindowRequest) (*dto.SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window payload")
	}
	var resp *dto.SessionResponse
	err := s.with(id, true, func(session *generationSession) error {
		window, err := planner.ValidateWindow(req.StartDate, req.EndDate, s.now())
		if err != nil {
			return err
		}
		session.Window = window
		if req.AutoFill == nil || *req.AutoFill {
			s.autoFill(session)
		} else {
			session.Ledger.SetCapacity(window.Duration)
		}
		resp = s.snapshot(session)
		return nil
	})
	return resp, err
}

// AutoFill recomputes the selection from scratch, discarding manual toggles.
func (s *GenerationService) AutoFill(_ context.Context, id string) (*dto.SessionResponse, error) {
	var resp *dto.SessionResponse
	err := s.with(id, true, func(session *generationSession) error {
		if session.Window.IsZero() {
			return appErrors.Clone(appErrors.ErrEmptyWindow, "set a date window before auto-filling")
		}
		s.autoFill(session)
		resp = s.snapshot(session)
		return nil
	})
	return resp, err
}

// Toggle flips one candidate. Exceeding capacity is allowed and reported
// through over_capacity.
func (s *GenerationService) Toggle(_ context.Context, id string, req dto.ToggleRequest) (*dto.SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid toggle payload")
	}
	var resp *dto.SessionResponse
	err := s.with(id, true, func(session *generationSession) error {
		index := *req.Index
		if index >= session.Ledger.Len() {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("index %d out of range, session has %d candidates", index, session.Ledger.Len()))
		}
		session.Ledger.Toggle(index)
		resp = s.snapshot(session)
		return nil
	})
	return resp, err
}

// Reset cancels the selection and forgets the window.
func (s *GenerationService) Reset(_ context.Context, id string) (*dto.SessionResponse, error) {
	var resp *dto.SessionResponse
	err := s.with(id, true, func(session *generationSession) error {
		session.Ledger.Reset()
		session.Window = planner.Window{}
		resp = s.snapshot(session)
		return nil
	})
	return resp, err
}

// Submit assembles the selection, asks the allocation backend for start
// times and persists the result. The session is discarded on success and
// left exactly as it was on any failure.
func (s *GenerationService) Submit(ctx context.Context, id string, req dto.SubmitSessionRequest) (*dto.TimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submit payload")
	}

	var assembled models.Timetable
	err := s.with(id, true, func(session *generationSession) error {
		timetable, err := planner.Assemble(session.Window, session.Ledger)
		if err != nil {
			return err
		}
		timetable.Name = session.Name
		if name := strings.TrimSpace(req.Name); name != "" {
			timetable.Name = name
		}
		assembled = timetable
		session.Submitting = true
		return nil
	})
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}

	created, err := s.allocateAndPersist(ctx, assembled)
	if err != nil {
		s.release(id)
		s.metrics.RecordSubmission(OutcomeUnavailable)
		return nil, err
	}

	s.store.Delete(id)
	s.publishActive()
	s.metrics.RecordSubmission(OutcomeSubmitted)
	s.logger.Info("generation session submitted",
		zap.String("session_id", id),
		zap.String("timetable_id", created.ID),
		zap.Int("proposals", len(created.Proposals)),
	)
	resp := newTimetableResponse(*created, s.flagStyle)
	return &resp, nil
}

// Delete discards a session.
func (s *GenerationService) Delete(_ context.Context, id string) error {
	if !s.store.Delete(id) {
		return appErrors.Clone(appErrors.ErrNotFound, "generation session not found")
	}
	s.publishActive()
	return nil
}

// Sweep drops expired sessions and refreshes the active sessions gauge.
func (s *GenerationService) Sweep() int {
	n := s.store.Sweep()
	s.metrics.SetActiveSessions(n)
	return n
}

// StartJanitor sweeps expired sessions every interval until ctx is done.
func (s *GenerationService) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

func (s *GenerationService) allocateAndPersist(ctx context.Context, timetable models.Timetable) (*models.Timetable, error) {
	allocated, err := s.allocator.Allocate(ctx, timetable)
	if err != nil {
		return nil, err
	}
	return s.timetables.Create(ctx, allocated)
}

func (s *GenerationService) with(id string, mutate bool, fn func(*generationSession) error) error {
	ok, err := s.store.With(id, func(session *generationSession) error {
		if mutate && session.Submitting {
			return appErrors.Clone(appErrors.ErrConflict, "generation session is being submitted")
		}
		return fn(session)
	})
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "generation session not found")
	}
	return err
}

func (s *GenerationService) release(id string) {
	_, _ = s.store.With(id, func(session *generationSession) error {
		session.Submitting = false
		return nil
	})
}

func (s *GenerationService) autoFill(session *generationSession) {
	allocation := planner.AutoFill(session.Window.Duration, session.Ledger.Candidates())
	session.Ledger.Apply(allocation)
	s.metrics.ObserveAutoFill(session.Ledger.SelectedCount())
}

func (s *GenerationService) recordRejection(err error) {
	switch {
	case errors.Is(err, appErrors.ErrOverCapacity):
		s.metrics.RecordSubmission(OutcomeOverCapacity)
	case errors.Is(err, appErrors.ErrEmptyWindow):
		s.metrics.RecordSubmission(OutcomeEmptyWindow)
	}
}

func (s *GenerationService) publishActive() {
	s.metrics.SetActiveSessions(s.store.Sweep())
}

func (s *GenerationService) snapshot(session *generationSession) *dto.SessionResponse {
	entries := session.Ledger.Snapshot()
	candidates := make([]dto.SessionCandidate, len(entries))
	for i, entry := range entries {
		candidates[i] = dto.SessionCandidate{
			Index:    entry.Index,
			Selected: entry.Selected,
			Proposal: planner.RecordFromProposal(entry.Proposal, s.flagStyle),
		}
	}
	resp := &dto.SessionResponse{
		ID:               session.ID,
		Name:             session.Name,
		WindowSeconds:    int64(session.Window.Duration / time.Second),
		RemainingSeconds: session.Ledger.Remaining().Seconds(),
		OverCapacity:     session.Ledger.IsOverCapacity(),
		SelectedCount:    session.Ledger.SelectedCount(),
		Candidates:       candidates,
		ExpiresAt:        s.store.ExpiresAt(session),
	}
	if !session.Window.IsZero() {
		resp.StartDate = session.Window.Start.Format(models.DateLayout)
		resp.EndDate = session.Window.End.Format(models.DateLayout)
	}
	return resp
}
