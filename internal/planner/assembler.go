package planner

import (
	"fmt"

	"github.com/noah-isme/obs-timetable-api/internal/models"
	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
)

// Assemble is the last gate before a selection is handed to the allocation
// backend. It requires a validated window and a selection that fits both
// the ledger's own bookkeeping and the window as it is now, since the
// window may have been revalidated after the selection was made.
func Assemble(window Window, ledger *Ledger) (models.Timetable, error) {
	if window.IsZero() {
		return models.Timetable{}, appErrors.Clone(appErrors.ErrEmptyWindow, "a date window must be validated before submitting")
	}
	if ledger == nil {
		ledger = NewLedger(nil)
	}
	if ledger.IsOverCapacity() {
		return models.Timetable{}, appErrors.Clone(appErrors.ErrOverCapacity,
			fmt.Sprintf("selection exceeds the window by %s", (-ledger.Remaining()).String()))
	}

	selected := ledger.SelectedProposals()
	if err := CheckCapacity(window, selected); err != nil {
		return models.Timetable{}, err
	}

	return models.Timetable{
		StartDate: window.Start,
		EndDate:   window.End,
		Proposals: selected,
	}, nil
}

// CheckCapacity fails with OVER_CAPACITY when the proposals need more time
// than the window holds.
func CheckCapacity(window Window, proposals []models.Proposal) error {
	if total := models.TotalDuration(proposals); total > window.Duration {
		return appErrors.Clone(appErrors.ErrOverCapacity,
			fmt.Sprintf("selection needs %s but the window holds %s", total, window.Duration))
	}
	return nil
}
