package planner

import (
	"fmt"
	"time"

	"github.com/noah-isme/obs-timetable-api/internal/models"
)

// Ledger tracks which candidates are selected for one generation session
// and how much window capacity is left. Remaining may go negative while a
// user edits; that state is reported by IsOverCapacity, never prevented.
//
// A Ledger is not safe for concurrent use.
type Ledger struct {
	candidates []models.Proposal
	selected   []bool
	remaining  time.Duration
}

// LedgerEntry is one row of a ledger snapshot.
type LedgerEntry struct {
	Index    int
	Selected bool
	Proposal models.Proposal
}

// NewLedger returns a ledger with nothing selected and no capacity.
func NewLedger(candidates []models.Proposal) *Ledger {
	owned := make([]models.Proposal, len(candidates))
	copy(owned, candidates)
	return &Ledger{
		candidates: owned,
		selected:   make([]bool, len(owned)),
	}
}

// Len returns the number of candidates.
func (l *Ledger) Len() int {
	return len(l.candidates)
}

// Toggle flips the selection at index. It panics when index is out of
// range; callers must check against Len first.
func (l *Ledger) Toggle(index int) {
	if index < 0 || index >= len(l.candidates) {
		panic(fmt.Sprintf("planner: toggle index %d out of range [0,%d)", index, len(l.candidates)))
	}
	if l.selected[index] {
		l.remaining += l.candidates[index].Duration
	} else {
		l.remaining -= l.candidates[index].Duration
	}
	l.selected[index] = !l.selected[index]
}

// IsSelected reports the flag at index. Out of range indexes are unselected.
func (l *Ledger) IsSelected(index int) bool {
	if index < 0 || index >= len(l.selected) {
		return false
	}
	return l.selected[index]
}

// SelectedProposals returns the selected candidates in candidate order.
func (l *Ledger) SelectedProposals() []models.Proposal {
	out := make([]models.Proposal, 0, len(l.candidates))
	for i, p := range l.candidates {
		if l.selected[i] {
			out = append(out, p)
		}
	}
	return out
}

// SelectedCount returns the number of selected candidates.
func (l *Ledger) SelectedCount() int {
	n := 0
	for _, s := range l.selected {
		if s {
			n++
		}
	}
	return n
}

// Remaining returns the unallocated capacity.
func (l *Ledger) Remaining() time.Duration {
	return l.remaining
}

// IsOverCapacity is true when the selection exceeds the window.
func (l *Ledger) IsOverCapacity() bool {
	return l.remaining < 0
}

// Reset clears every flag and zeroes the remaining capacity.
func (l *Ledger) Reset() {
	for i := range l.selected {
		l.selected[i] = false
	}
	l.remaining = 0
}

// SetCapacity clears every flag and starts a manual pass with the full
// window capacity available.
func (l *Ledger) SetCapacity(capacity time.Duration) {
	l.Reset()
	l.remaining = capacity
}

// Apply overwrites the selection with an auto-fill result. Manual toggles
// made before are discarded. A result of the wrong length is ignored and
// reported as false.
func (l *Ledger) Apply(a Allocation) bool {
	if len(a.Selected) != len(l.selected) {
		return false
	}
	copy(l.selected, a.Selected)
	l.remaining = a.Remaining
	return true
}

// Candidates returns a copy of the candidate list.
func (l *Ledger) Candidates() []models.Proposal {
	out := make([]models.Proposal, len(l.candidates))
	copy(out, l.candidates)
	return out
}

// Snapshot returns every candidate with its flag.
func (l *Ledger) Snapshot() []LedgerEntry {
	out := make([]LedgerEntry, len(l.candidates))
	for i, p := range l.candidates {
		out[i] = LedgerEntry{Index: i, Selected: l.selected[i], Proposal: p}
	}
	return out
}
