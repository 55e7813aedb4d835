package planner

import (
	"fmt"
	"strconv"

	"github.com/noah-isme/obs-timetable-api/internal/models"
)

// Calendar colors.
const (
	ColorNight       = "#0000a3"
	ColorDay         = "#ffa400"
	ColorTextOnNight = "#ffffff"
	ColorTextOnDay   = "#000000"
	ColorAvoidBorder = "#ff0000"
)

// Project turns the scheduled proposals of a timetable into calendar
// events. Unscheduled proposals produce no event. The result is never nil.
func Project(t models.Timetable) []models.CalendarEvent {
	events := make([]models.CalendarEvent, 0, len(t.Proposals))
	for _, p := range t.Proposals {
		if p.ScheduledStart == nil {
			continue
		}
		start := *p.ScheduledStart

		background, text := ColorDay, ColorTextOnDay
		if p.NightObs {
			background, text = ColorNight, ColorTextOnNight
		}
		border := background
		if p.AvoidSunriseSunset {
			border = ColorAvoidBorder
		}

		events = append(events, models.CalendarEvent{
			ID:              strconv.FormatInt(p.ID, 10),
			Title:           p.ProposalID,
			Start:           start,
			End:             start.Add(p.Duration),
			BackgroundColor: background,
			BorderColor:     border,
			TextColor:       text,
			Details:         details(p),
			AllDay:          false,
		})
	}
	return events
}

func details(p models.Proposal) []string {
	return []string{
		"Description: " + p.Description,
		"Owner Email: " + p.OwnerEmail,
		"Instrument Product: " + p.InstrumentProduct,
		"Integration Time: " + strconv.FormatFloat(p.InstrumentIntegrationTime, 'f', -1, 64) + " seconds",
		"Band: " + p.InstrumentBand,
		"Pool Resources: " + p.InstrumentPoolResources,
		"LST Start: " + p.LSTStart,
		"LST Start End: " + p.LSTStartEnd,
		"Night Obs: " + yesNo(p.NightObs),
		"Avoid Sunrise/Sunset: " + yesNo(p.AvoidSunriseSunset),
		"Minimum Antennas: " + strconv.Itoa(p.MinimumAntennas),
		"General Comments: " + p.GeneralComments,
		fmt.Sprintf("Simulated Duration: %.2f hours", p.Duration.Hours()),
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
