package models

import "time"

// Proposal is a candidate observation. It is immutable once loaded from the
// catalogue; ScheduledStart is only ever assigned by the allocation backend.
type Proposal struct {
	ID                        int64         `json:"id"`
	ProposalID                string        `json:"proposal_id"`
	Description               string        `json:"description"`
	OwnerEmail                string        `json:"owner_email"`
	InstrumentProduct         string        `json:"instrument_product"`
	InstrumentIntegrationTime float64       `json:"instrument_integration_time"`
	InstrumentBand            string        `json:"instrument_band"`
	InstrumentPoolResources   string        `json:"instrument_pool_resources"`
	LSTStart                  string        `json:"lst_start"`
	LSTStartEnd               string        `json:"lst_start_end"`
	Duration                  time.Duration `json:"-"`
	NightObs                  bool          `json:"night_obs"`
	AvoidSunriseSunset        bool          `json:"avoid_sunrise_sunset"`
	MinimumAntennas           int           `json:"minimum_antennas"`
	GeneralComments           string        `json:"general_comments"`
	ScheduledStart            *time.Time    `json:"scheduled_start,omitempty"`
}

// Scheduled reports whether the backend assigned a start time.
func (p Proposal) Scheduled() bool {
	return p.ScheduledStart != nil
}

// TotalDuration sums the simulated durations of the given proposals.
func TotalDuration(proposals []Proposal) time.Duration {
	var total time.Duration
	for _, p := range proposals {
		total += p.Duration
	}
	return total
}
