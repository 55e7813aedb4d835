package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	"github.com/noah-isme/obs-timetable-api/internal/models"
)

// TimetableRepository persists timetables and their ordered proposal
// records.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

type timetableProposalRow struct {
	TimetableID string         `db:"timetable_id"`
	Position    int            `db:"position"`
	Record      types.JSONText `db:"record"`
}

// Create inserts the timetable and its records in one transaction. An id
// is assigned when absent.
func (r *TimetableRepository) Create(ctx context.Context, row *models.TimetableRow, records []dto.ProposalRecord) (err error) {
	if row == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertQuery = `INSERT INTO timetables (id, name, start_date, end_date, created_at, updated_at)
VALUES (:id, :name, :start_date, :end_date, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insertQuery, row); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}
	if err = insertRecords(ctx, tx, row.ID, records); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create timetable: %w", err)
	}
	return nil
}

// FindByID loads a timetable with its records in position order. It
// returns sql.ErrNoRows when the timetable does not exist.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableRow, []dto.ProposalRecord, error) {
	const query = `SELECT id, name, start_date, end_date, created_at, updated_at FROM timetables WHERE id = $1`
	var row models.TimetableRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, nil, err
	}

	const recordsQuery = `SELECT timetable_id, position, record FROM timetable_proposals WHERE timetable_id = $1 ORDER BY position`
	var rows []timetableProposalRow
	if err := r.db.SelectContext(ctx, &rows, recordsQuery, id); err != nil {
		return nil, nil, fmt.Errorf("list timetable proposals: %w", err)
	}

	records := make([]dto.ProposalRecord, len(rows))
	for i, pr := range rows {
		if err := pr.Record.Unmarshal(&records[i]); err != nil {
			return nil, nil, fmt.Errorf("decode timetable proposal %d: %w", pr.Position, err)
		}
	}
	return &row, records, nil
}

// List returns summaries with proposal and scheduled counts.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableSummary, int, error) {
	base := "FROM timetables t"
	args := []interface{}{}
	where := ""
	if filter.Search != "" {
		where = " WHERE LOWER(t.name) LIKE $1"
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	allowedSorts := map[string]string{
		"name":       "t.name",
		"start_date": "t.start_date",
		"created_at": "t.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "t.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT t.id, t.name, t.start_date, t.end_date, t.created_at, t.updated_at,
        COUNT(p.position) AS proposal_count,
        COUNT(p.position) FILTER (WHERE COALESCE(p.record->>'scheduled_start_datetime', '') <> '') AS scheduled_count
        %s LEFT JOIN timetable_proposals p ON p.timetable_id = t.id%s
        GROUP BY t.id ORDER BY %s %s LIMIT %d OFFSET %d`, base, where, column, order, size, offset)

	summaries := make([]models.TimetableSummary, 0)
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}
	return summaries, total, nil
}

// Update saves the name and, when records is non-nil, replaces the stored
// proposal list. It returns sql.ErrNoRows when the timetable does not exist.
func (r *TimetableRepository) Update(ctx context.Context, row *models.TimetableRow, records []dto.ProposalRecord) (err error) {
	if row == nil || row.ID == "" {
		return fmt.Errorf("timetable id is required")
	}
	row.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `UPDATE timetables SET name = $1, updated_at = $2 WHERE id = $3`, row.Name, row.UpdatedAt, row.ID)
	if err != nil {
		return fmt.Errorf("update timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if records != nil {
		if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_proposals WHERE timetable_id = $1`, row.ID); err != nil {
			return fmt.Errorf("clear timetable proposals: %w", err)
		}
		if err = insertRecords(ctx, tx, row.ID, records); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update timetable: %w", err)
	}
	return nil
}

// Delete removes a timetable; its records cascade.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM timetables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func insertRecords(ctx context.Context, exec sqlx.ExtContext, timetableID string, records []dto.ProposalRecord) error {
	const query = `INSERT INTO timetable_proposals (timetable_id, position, record) VALUES ($1, $2, $3)`
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode timetable proposal %d: %w", i, err)
		}
		if _, err := exec.ExecContext(ctx, query, timetableID, i, types.JSONText(payload)); err != nil {
			return fmt.Errorf("insert timetable proposal %d: %w", i, err)
		}
	}
	return nil
}

func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
