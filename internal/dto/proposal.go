package dto

// ProposalRecord is the flat, string typed form a proposal takes in the
// catalogue, in stored timetables and on the wire.
type ProposalRecord struct {
	ID                        string `db:"id" json:"id"`
	Description               string `db:"description" json:"description"`
	ProposalID                string `db:"proposal_id" json:"proposal_id" validate:"required"`
	OwnerEmail                string `db:"owner_email" json:"owner_email" validate:"omitempty,email"`
	InstrumentProduct         string `db:"instrument_product" json:"instrument_product"`
	InstrumentIntegrationTime string `db:"instrument_integration_time" json:"instrument_integration_time" validate:"omitempty,numeric"`
	InstrumentBand            string `db:"instrument_band" json:"instrument_band"`
	InstrumentPoolResources   string `db:"instrument_pool_resources" json:"instrument_pool_resources"`
	LSTStart                  string `db:"lst_start" json:"lst_start"`
	LSTStartEnd               string `db:"lst_start_end" json:"lst_start_end"`
	SimulatedDuration         string `db:"simulated_duration" json:"simulated_duration" validate:"omitempty,numeric"`
	NightObs                  string `db:"night_obs" json:"night_obs" validate:"omitempty,flagstyle"`
	AvoidSunriseSunset        string `db:"avoid_sunrise_sunset" json:"avoid_sunrise_sunset" validate:"omitempty,flagstyle"`
	MinimumAntennas           string `db:"minimum_antennas" json:"minimum_antennas" validate:"omitempty,numeric"`
	GeneralComments           string `db:"general_comments" json:"general_comments"`
	ScheduledStartDatetime    string `db:"scheduled_start_datetime" json:"scheduled_start_datetime"`
}

// ProposalQuery filters the candidate catalogue.
type ProposalQuery struct {
	Search  string `form:"search" json:"search"`
	Refresh bool   `form:"refresh" json:"refresh"`
}
