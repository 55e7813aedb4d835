package dto

import "time"

// ValidateWindowRequest checks a date window without a session.
type ValidateWindowRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// WindowResponse reports a validated window.
type WindowResponse struct {
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// TimetableResponse is the full stored timetable.
type TimetableResponse struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
	Proposals      []ProposalRecord `json:"proposals"`
	ScheduledCount int              `json:"scheduled_count"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// UpdateTimetableRequest replaces the name and/or the proposal list.
// A nil Proposals keeps the stored list.
type UpdateTimetableRequest struct {
	Name      *string          `json:"name" validate:"omitempty,max=200"`
	Proposals []ProposalRecord `json:"proposals" validate:"omitempty,dive"`
}

// ListTimetablesQuery captures list query params.
type ListTimetablesQuery struct {
	Search    string `form:"search"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}
