package dto

import "time"

// CreateSessionRequest starts a generation session.
type CreateSessionRequest struct {
	Name    string `json:"name" validate:"omitempty,max=200"`
	Search  string `json:"search" validate:"omitempty,max=200"`
	Refresh bool   `json:"refresh"`
}

// SetWindowRequest sets the date window of a session. AutoFill defaults to
// true; false starts a manual selection against the new capacity.
type SetWindowRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	AutoFill  *bool  `json:"autofill"`
}

// ToggleRequest flips the selection of one candidate.
type ToggleRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

// SubmitSessionRequest finalises a session. Name overrides the one given at
// creation when present.
type SubmitSessionRequest struct {
	Name string `json:"name" validate:"omitempty,max=200"`
}

// SessionCandidate is one row of the selection ledger.
type SessionCandidate struct {
	Index    int            `json:"index"`
	Selected bool           `json:"selected"`
	Proposal ProposalRecord `json:"proposal"`
}

// SessionResponse is the snapshot of a generation session.
type SessionResponse struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	StartDate        string             `json:"start_date,omitempty"`
	EndDate          string             `json:"end_date,omitempty"`
	WindowSeconds    int64              `json:"window_seconds"`
	RemainingSeconds float64            `json:"remaining_seconds"`
	OverCapacity     bool               `json:"over_capacity"`
	SelectedCount    int                `json:"selected_count"`
	Candidates       []SessionCandidate `json:"candidates"`
	ExpiresAt        time.Time          `json:"expires_at"`
}
