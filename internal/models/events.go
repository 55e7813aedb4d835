package models

import "time"

// CalendarEvent is the display form of one scheduled proposal.
type CalendarEvent struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	BackgroundColor string    `json:"backgroundColor"`
	BorderColor     string    `json:"borderColor"`
	TextColor       string    `json:"textColor"`
	Details         []string  `json:"details"`
	AllDay          bool      `json:"allDay"`
}
