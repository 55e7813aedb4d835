package planner

import (
	"time"

	"github.com/noah-isme/obs-timetable-api/internal/models"
)

// Allocation is an auto-fill result, index aligned with its candidates.
type Allocation struct {
	Selected  []bool
	Remaining time.Duration
}

// AutoFill selects candidates first-fit in the given order. The first
// candidate that does not fit is rolled back and the scan stops there:
// later candidates stay unselected even when they would fit.
func AutoFill(capacity time.Duration, candidates []models.Proposal) Allocation {
	alloc := Allocation{Selected: make([]bool, len(candidates)), Remaining: capacity}
	for i, p := range candidates {
		alloc.Selected[i] = true
		alloc.Remaining -= p.Duration
		if alloc.Remaining < 0 {
			alloc.Selected[i] = false
			alloc.Remaining += p.Duration
			break
		}
	}
	return alloc
}
