package planner

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	"github.com/noah-isme/obs-timetable-api/internal/models"
	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
)

// FlagStyle selects how booleans are spelled when writing records.
type FlagStyle string

const (
	FlagStyleYesNo     FlagStyle = "yesno"
	FlagStyleTrueFalse FlagStyle = "truefalse"
)

// RecordTimeLayout is the zone-less UTC layout used when writing
// scheduled start times.
const RecordTimeLayout = "2006-01-02 15:04:05"

var recordTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	RecordTimeLayout,
}

// ProposalFromRecord converts a string typed record into a Proposal.
// Either flag convention reads as true; empty numerics read as zero.
func ProposalFromRecord(rec dto.ProposalRecord) (models.Proposal, error) {
	id, err := parseInt("id", rec.ID)
	if err != nil {
		return models.Proposal{}, err
	}
	integration, err := parseFloat("instrument_integration_time", rec.InstrumentIntegrationTime)
	if err != nil {
		return models.Proposal{}, err
	}
	seconds, err := parseFloat("simulated_duration", rec.SimulatedDuration)
	if err != nil {
		return models.Proposal{}, err
	}
	// float64(math.MaxInt64) rounds up to 2^63, so equality overflows too.
	nanos := math.Round(seconds * float64(time.Second))
	if seconds < 0 || nanos >= float64(math.MaxInt64) {
		return models.Proposal{}, malformedField("simulated_duration", rec.SimulatedDuration)
	}
	antennas, err := parseInt("minimum_antennas", rec.MinimumAntennas)
	if err != nil {
		return models.Proposal{}, err
	}
	scheduled, err := ParseTimestamp(rec.ScheduledStartDatetime)
	if err != nil {
		return models.Proposal{}, err
	}

	return models.Proposal{
		ID:                        id,
		ProposalID:                rec.ProposalID,
		Description:               rec.Description,
		OwnerEmail:                rec.OwnerEmail,
		InstrumentProduct:         rec.InstrumentProduct,
		InstrumentIntegrationTime: integration,
		InstrumentBand:            rec.InstrumentBand,
		InstrumentPoolResources:   rec.InstrumentPoolResources,
		LSTStart:                  rec.LSTStart,
		LSTStartEnd:               rec.LSTStartEnd,
		Duration:                  time.Duration(nanos),
		NightObs:                  parseFlag(rec.NightObs),
		AvoidSunriseSunset:        parseFlag(rec.AvoidSunriseSunset),
		MinimumAntennas:           int(antennas),
		GeneralComments:           rec.GeneralComments,
		ScheduledStart:            scheduled,
	}, nil
}

// ProposalsFromRecords converts a batch, failing on the first bad record.
func ProposalsFromRecords(recs []dto.ProposalRecord) ([]models.Proposal, error) {
	out := make([]models.Proposal, 0, len(recs))
	for i, rec := range recs {
		p, err := ProposalFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// RecordFromProposal writes a Proposal back into its string form.
func RecordFromProposal(p models.Proposal, style FlagStyle) dto.ProposalRecord {
	rec := dto.ProposalRecord{
		ID:                        strconv.FormatInt(p.ID, 10),
		Description:               p.Description,
		ProposalID:                p.ProposalID,
		OwnerEmail:                p.OwnerEmail,
		InstrumentProduct:         p.InstrumentProduct,
		InstrumentIntegrationTime: strconv.FormatFloat(p.InstrumentIntegrationTime, 'f', -1, 64),
		InstrumentBand:            p.InstrumentBand,
		InstrumentPoolResources:   p.InstrumentPoolResources,
		LSTStart:                  p.LSTStart,
		LSTStartEnd:               p.LSTStartEnd,
		SimulatedDuration:         strconv.FormatFloat(p.Duration.Seconds(), 'f', -1, 64),
		NightObs:                  formatFlag(p.NightObs, style),
		AvoidSunriseSunset:        formatFlag(p.AvoidSunriseSunset, style),
		MinimumAntennas:           strconv.Itoa(p.MinimumAntennas),
		GeneralComments:           p.GeneralComments,
	}
	if p.ScheduledStart != nil {
		rec.ScheduledStartDatetime = p.ScheduledStart.UTC().Format(RecordTimeLayout)
	}
	return rec
}

// RecordsFromProposals converts a batch.
func RecordsFromProposals(ps []models.Proposal, style FlagStyle) []dto.ProposalRecord {
	out := make([]dto.ProposalRecord, len(ps))
	for i, p := range ps {
		out[i] = RecordFromProposal(p, style)
	}
	return out
}

func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "true":
		return true
	default:
		return false
	}
}

func formatFlag(b bool, style FlagStyle) string {
	if style == FlagStyleTrueFalse {
		return strconv.FormatBool(b)
	}
	return yesNo(b)
}

func parseFloat(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, malformedField(field, raw)
	}
	return f, nil
}

// parseInt also accepts integral decimals such as "4.0".
func parseInt(field, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, malformedField(field, raw)
	}
	return int64(f), nil
}

// ParseTimestamp reads a scheduled start in any accepted layout. Zone-less
// values are UTC; empty input yields nil.
func ParseTimestamp(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range recordTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, malformedField("scheduled_start_datetime", raw)
}

func malformedField(field, raw string) error {
	return appErrors.Clone(appErrors.ErrMalformedRecord, fmt.Sprintf("%s: %q is not a valid value", field, raw))
}
