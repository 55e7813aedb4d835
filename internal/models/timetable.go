package models

import "time"

// DateLayout is the calendar date format used on every boundary.
const DateLayout = "2006-01-02"

// Timetable is a named window with its ordered, scheduled proposals.
type Timetable struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Proposals []Proposal `json:"proposals"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ScheduledCount returns how many proposals carry a start time.
func (t Timetable) ScheduledCount() int {
	count := 0
	for _, p := range t.Proposals {
		if p.Scheduled() {
			count++
		}
	}
	return count
}

// TimetableRow mirrors the timetables table.
type TimetableRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// TimetableSummary is a list entry without the proposal payloads.
type TimetableSummary struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	ProposalCount  int       `db:"proposal_count" json:"proposal_count"`
	ScheduledCount int       `db:"scheduled_count" json:"scheduled_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableFilter describes list query params.
type TimetableFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
