package service

import (
	"context"
	"database/sql"
	"errors"
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

type timetableStore interface {
	Create(ctx context.Context, row *models.TimetableRow, records []dto.ProposalRecord) error
	FindByID(ctx context.Context, id string) (*models.TimetableRow, []dto.ProposalRecord, error)
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableSummary, int, error)
	Update(ctx context.Context, row *models.TimetableRow, records []dto.ProposalRecord) error
	Delete(ctx context.Context, id string) error
}

// TimetableService persists assembled timetables and projects them onto
// the calendar.
type TimetableService struct {
	repo      timetableStore
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	flagStyle planner.FlagStyle
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(repo timetableStore, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, flagStyle planner.FlagStyle) *TimetableService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if flagStyle == "" {
		flagStyle = planner.FlagStyleYesNo
	}
	return &TimetableService{repo: repo, validator: validate, metrics: metrics, logger: logger, flagStyle: flagStyle}
}

// List returns timetable summaries with pagination metadata.
func (s *TimetableService) List(ctx context.Context, query dto.ListTimetablesQuery) ([]models.TimetableSummary, *models.Pagination, error) {
	page, size := query.Page, query.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	filter := models.TimetableFilter{
		Search:    strings.TrimSpace(query.Search),
		Page:      page,
		PageSize:  size,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}

	start := time.Now()
	items, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("timetables_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Find loads a timetable with its typed proposals.
func (s *TimetableService) Find(ctx context.Context, id string) (*models.Timetable, error) {
	if err := checkTimetableID(id); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.ErrNotFound
	}

	start := time.Now()
	row, records, err := s.repo.FindByID(ctx, id)
	s.metrics.ObserveDBQuery("timetables_get", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	proposals, err := planner.ProposalsFromRecords(records)
	if err != nil {
		s.logger.Error("stored timetable contains malformed proposals", zap.String("timetable_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable is corrupt")
	}
	return timetableFromRow(row, proposals), nil
}

// Get returns the wire form of a stored timetable.
func (s *TimetableService) Get(ctx context.Context, id string) (*dto.TimetableResponse, error) {
	timetable, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := newTimetableResponse(*timetable, s.flagStyle)
	return &resp, nil
}

// Create persists an allocated timetable and returns it with its new id.
func (s *TimetableService) Create(ctx context.Context, timetable models.Timetable) (*models.Timetable, error) {
	row := &models.TimetableRow{
		Name:      strings.TrimSpace(timetable.Name),
		StartDate: timetable.StartDate,
		EndDate:   timetable.EndDate,
	}
	records := planner.RecordsFromProposals(timetable.Proposals, s.flagStyle)

	start := time.Now()
	err := s.repo.Create(ctx, row, records)
	s.metrics.ObserveDBQuery("timetables_create", time.Since(start))
	if err != nil {
		s.logger.Error("failed to persist timetable", zap.Error(err))
		return nil, appErrors.Unavailable(err, "failed to persist timetable")
	}

	created := timetableFromRow(row, timetable.Proposals)
	s.logger.Info("timetable created",
		zap.String("timetable_id", created.ID),
		zap.Int("proposals", len(created.Proposals)),
		zap.Int("scheduled", created.ScheduledCount()),
	)
	return created, nil
}

// Update renames a timetable and optionally replaces its proposal list.
// Incoming records may use either flag convention; they are stored using
// the configured one.
func (s *TimetableService) Update(ctx context.Context, id string, req dto.UpdateTimetableRequest) (*dto.TimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	existing, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		records   []dto.ProposalRecord
		proposals = existing.Proposals
	)
	if req.Proposals != nil {
		proposals, err = planner.ProposalsFromRecords(req.Proposals)
		if err != nil {
			return nil, err
		}
		window := planner.StoredWindow(existing.StartDate, existing.EndDate)
		if err := planner.CheckCapacity(window, proposals); err != nil {
			return nil, err
		}
		records = planner.RecordsFromProposals(proposals, s.flagStyle)
	}
	name := existing.Name
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}

	row := &models.TimetableRow{
		ID:        existing.ID,
		Name:      name,
		StartDate: existing.StartDate,
		EndDate:   existing.EndDate,
		CreatedAt: existing.CreatedAt,
	}
	start := time.Now()
	err = s.repo.Update(ctx, row, records)
	s.metrics.ObserveDBQuery("timetables_update", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable")
	}

	resp := newTimetableResponse(*timetableFromRow(row, proposals), s.flagStyle)
	return &resp, nil
}

// Delete removes a stored timetable.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if err := checkTimetableID(id); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.ErrNotFound
	}
	start := time.Now()
	err := s.repo.Delete(ctx, id)
	s.metrics.ObserveDBQuery("timetables_delete", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	s.logger.Info("timetable deleted", zap.String("timetable_id", id))
	return nil
}

// Events projects a stored timetable onto calendar events.
func (s *TimetableService) Events(ctx context.Context, id string) ([]models.CalendarEvent, error) {
	timetable, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return planner.Project(*timetable), nil
}

func newTimetableResponse(t models.Timetable, style planner.FlagStyle) dto.TimetableResponse {
	return dto.TimetableResponse{
		ID:             t.ID,
		Name:           t.Name,
		StartDate:      t.StartDate.Format(models.DateLayout),
		EndDate:        t.EndDate.Format(models.DateLayout),
		Proposals:      planner.RecordsFromProposals(t.Proposals, style),
		ScheduledCount: t.ScheduledCount(),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func timetableFromRow(row *models.TimetableRow, proposals []models.Proposal) *models.Timetable {
	if proposals == nil {
		proposals = []models.Proposal{}
	}
	return &models.Timetable{
		ID:        row.ID,
		Name:      row.Name,
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
		Proposals: proposals,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// checkTimetableID rejects the placeholder ids a client sends before a
// timetable has been picked.
func checkTimetableID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" || id == "0" {
		return appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	return nil
}
