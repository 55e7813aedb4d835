package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
)

const proposalColumns = `id, description, proposal_id, owner_email, instrument_product, instrument_integration_time,
instrument_band, instrument_pool_resources, lst_start, lst_start_end, simulated_duration, night_obs,
avoid_sunrise_sunset, minimum_antennas, general_comments, scheduled_start_datetime`

// ProposalRepository reads the candidate proposal catalogue.
type ProposalRepository struct {
	db *sqlx.DB
}

// NewProposalRepository constructs a ProposalRepository.
func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// ListCandidates returns catalogue records in catalogue order. Numeric ids
// sort numerically.
func (r *ProposalRepository) ListCandidates(ctx context.Context, search string) ([]dto.ProposalRecord, error) {
	query := "SELECT " + proposalColumns + " FROM proposals"
	args := []interface{}{}
	if search = strings.TrimSpace(search); search != "" {
		query += " WHERE (LOWER(proposal_id) LIKE $1 OR LOWER(description) LIKE $1 OR LOWER(owner_email) LIKE $1)"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += " ORDER BY LENGTH(id), id"

	records := make([]dto.ProposalRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return records, nil
}

// Ping checks the catalogue is reachable.
func (r *ProposalRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
