package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var proposalColumnNames = []string{
	"id", "description", "proposal_id", "owner_email", "instrument_product", "instrument_integration_time",
	"instrument_band", "instrument_pool_resources", "lst_start", "lst_start_end", "simulated_duration", "night_obs",
	"avoid_sunrise_sunset", "minimum_antennas", "general_comments", "scheduled_start_datetime",
}

func TestProposalRepositoryListCandidates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	rows := sqlmock.NewRows(proposalColumnNames).
		AddRow("2", "Pulsar", "SCI-2", "a@example.org", "beamformer", "8", "L", "m000", "01:00:00", "02:00:00", "3600", "yes", "no", "40", "", "").
		AddRow("10", "HI", "SCI-10", "b@example.org", "imaging", "2", "UHF", "m001", "03:00:00", "04:00:00", "1800", "no", "true", "58", "note", "")
	mock.ExpectQuery(`(?s)SELECT id, description, proposal_id,.* FROM proposals ORDER BY LENGTH\(id\), id`).
		WillReturnRows(rows)

	records, err := repo.ListCandidates(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "SCI-2", records[0].ProposalID)
	assert.Equal(t, "3600", records[0].SimulatedDuration)
	assert.Equal(t, "true", records[1].AvoidSunriseSunset)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalRepositoryListCandidatesSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE (LOWER(proposal_id) LIKE $1 OR LOWER(description) LIKE $1 OR LOWER(owner_email) LIKE $1)")).
		WithArgs("%pulsar%").
		WillReturnRows(sqlmock.NewRows(proposalColumnNames))

	records, err := repo.ListCandidates(context.Background(), "  Pulsar ")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalRepositoryListCandidatesError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectQuery("(?s)SELECT .* FROM proposals").WillReturnError(errors.New("connection refused"))

	_, err := repo.ListCandidates(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list proposals")
	assert.NoError(t, mock.ExpectationsWereMet())
}
