// Package progress computes completion percentages over a work breakdown and
// derives parent status from children. Every function here is pure apart from
// ApplyDerivedStatus, which writes the derived result onto its argument.
package progress

import (
	"math"

	"github.com/alexanderramin/foreman/internal/domain"
)

// Percentage returns overall completion 0..100. Every work item carries an
// equal share regardless of price or child count.
func Percentage(items []*domain.WorkItem) int {
	n := len(items)
	if n == 0 {
		return 0
	}
	share := 100.0 / float64(n)
	var total float64
	for _, it := range items {
		total += ItemFraction(it) * share
	}
	return int(math.Round(total))
}

// ItemFraction is the completed fraction (0..1) of a single work item.
func ItemFraction(it *domain.WorkItem) float64 {
	if !it.HasChildren() {
		switch it.Status {
		case domain.StepFinished:
			return 1
		case domain.StepInProgress:
			return 0.5
		default:
			return 0
		}
	}
	var done, active int
	for _, c := range it.Children {
		switch {
		case c.Done():
			done++
		case c.Status == domain.StepInProgress:
			active++
		}
	}
	return (float64(done) + 0.5*float64(active)) / float64(len(it.Children))
}

// DeriveParentStatus computes a parent's status from its children: finished
// when all are finished or overridden, in_progress when any has started,
// pending otherwise. An empty slice yields pending.
func DeriveParentStatus(children []*domain.WorkDescription) domain.StepStatus {
	if len(children) == 0 {
		return domain.StepPending
	}
	done, started := 0, 0
	for _, c := range children {
		if c.Done() {
			done++
		}
		if c.Started() {
			started++
		}
	}
	switch {
	case done == len(children):
		return domain.StepFinished
	case started > 0:
		return domain.StepInProgress
	default:
		return domain.StepPending
	}
}

// ApplyDerivedStatus sets it.Status from its children and reports whether
// anything changed. Reaching finished also sets the manual override flag.
// Items without children are left alone.
func ApplyDerivedStatus(it *domain.WorkItem) bool {
	if !it.HasChildren() {
		return false
	}
	next := DeriveParentStatus(it.Children)
	changed := next != it.Status
	it.Status = next
	if next == domain.StepFinished && !it.ManualOverride {
		it.ManualOverride = true
		changed = true
	}
	return changed
}

// DeriveAll applies ApplyDerivedStatus to every item and returns those that changed.
func DeriveAll(items []*domain.WorkItem) []*domain.WorkItem {
	var changed []*domain.WorkItem
	for _, it := range items {
		if ApplyDerivedStatus(it) {
			changed = append(changed, it)
		}
	}
	return changed
}

// AllFinished reports whether every item is finished and every child is
// finished or overridden. An empty breakdown is trivially finished.
func AllFinished(items []*domain.WorkItem) bool {
	for _, it := range items {
		if it.Status != domain.StepFinished {
			return false
		}
		for _, c := range it.Children {
			if !c.Done() {
				return false
			}
		}
	}
	return true
}

// Completion summarises a breakdown as a single step status, used for
// change-order completion tracking.
func Completion(items []*domain.WorkItem) domain.StepStatus {
	if len(items) == 0 {
		return domain.StepPending
	}
	if AllFinished(items) {
		return domain.StepFinished
	}
	for _, it := range items {
		if it.Status.Started() {
			return domain.StepInProgress
		}
		for _, c := range it.Children {
			if c.Started() {
				return domain.StepInProgress
			}
		}
	}
	return domain.StepPending
}
