package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Owner tags a work breakdown with the entity it belongs to.
type Owner struct {
	Kind OwnerKind
	ID   string
}

// WorkItem is a priced, top-level work title. When it has children its
// status is derived from them; otherwise Status is authoritative.
type WorkItem struct {
	ID             string
	Name           string
	Description    string
	Status         StepStatus
	Price          decimal.Decimal
	OrderIndex     int
	ManualOverride bool
	Children       []*WorkDescription

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkDescription is an unpriced sub-task owned by exactly one WorkItem.
type WorkDescription struct {
	ID             string
	ParentID       string
	Name           string
	Description    string
	Status         StepStatus
	ManualOverride bool
	OrderIndex     int

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w *WorkItem) HasChildren() bool {
	return len(w.Children) > 0
}

// Child returns the child with the given id and its position, or nil, -1.
func (w *WorkItem) Child(id string) (*WorkDescription, int) {
	for i, c := range w.Children {
		if c.ID == id {
			return c, i
		}
	}
	return nil, -1
}

// RenumberChildren makes child order indices dense and returns the
// children whose index changed.
func (w *WorkItem) RenumberChildren() []*WorkDescription {
	var changed []*WorkDescription
	for i, c := range w.Children {
		if c.OrderIndex != i {
			c.OrderIndex = i
			changed = append(changed, c)
		}
	}
	return changed
}

// Done reports whether the child counts as finished for aggregation.
func (d *WorkDescription) Done() bool {
	return d.Status == StepFinished || d.ManualOverride
}

// Started reports whether work on the child has begun.
func (d *WorkDescription) Started() bool {
	return d.Status.Started() || d.ManualOverride
}

// WorkBreakdown is the ordered work-title tree of a project or change order.
type WorkBreakdown struct {
	Owner Owner
	Items []*WorkItem
}

// Item returns the work item with the given id and its position, or nil, -1.
func (b *WorkBreakdown) Item(id string) (*WorkItem, int) {
	for i, it := range b.Items {
		if it.ID == id {
			return it, i
		}
	}
	return nil, -1
}

// Renumber assigns dense order indices 0..n-1 following slice order and
// returns the items whose index changed.
func (b *WorkBreakdown) Renumber() []*WorkItem {
	var changed []*WorkItem
	for i, it := range b.Items {
		if it.OrderIndex != i {
			it.OrderIndex = i
			changed = append(changed, it)
		}
	}
	return changed
}

// Move relocates the item at from to position to, clamping to bounds.
func (b *WorkBreakdown) Move(from, to int) {
	if to < 0 {
		to = 0
	}
	if to > len(b.Items)-1 {
		to = len(b.Items) - 1
	}
	if from == to {
		return
	}
	it := b.Items[from]
	items := append(b.Items[:from:from], b.Items[from+1:]...)
	items = append(items[:to], append([]*WorkItem{it}, items[to:]...)...)
	b.Items = items
}

// ItemsTotal sums the work title prices.
func (b *WorkBreakdown) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range b.Items {
		total = total.Add(it.Price)
	}
	return total
}

// Clone returns a deep copy so callers can hold a snapshot.
func (b *WorkBreakdown) Clone() *WorkBreakdown {
	out := &WorkBreakdown{Owner: b.Owner, Items: make([]*WorkItem, 0, len(b.Items))}
	for _, it := range b.Items {
		cp := *it
		cp.Children = make([]*WorkDescription, 0, len(it.Children))
		for _, c := range it.Children {
			cc := *c
			cp.Children = append(cp.Children, &cc)
		}
		out.Items = append(out.Items, &cp)
	}
	return out
}
