package progress

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/stretchr/testify/assert"
)

func leaf(id string, s domain.StepStatus) *domain.WorkItem {
	return &domain.WorkItem{ID: id, Status: s}
}

func parent(id string, children ...*domain.WorkDescription) *domain.WorkItem {
	it := &domain.WorkItem{ID: id, Status: domain.StepPending}
	for _, c := range children {
		c.ParentID = id
	}
	it.Children = children
	return it
}

func child(s domain.StepStatus) *domain.WorkDescription {
	return &domain.WorkDescription{Status: s}
}

func TestPercentage_Scenarios(t *testing.T) {
	cases := []struct {
		name  string
		items []*domain.WorkItem
		want  int
	}{
		{"empty", nil, 0},
		{"one finished one pending", []*domain.WorkItem{
			leaf("a", domain.StepFinished), leaf("b", domain.StepPending),
		}, 50},
		{"children finished and in progress", []*domain.WorkItem{
			parent("a", child(domain.StepFinished), child(domain.StepInProgress)),
		}, 75},
		{"override counts as finished", []*domain.WorkItem{
			parent("a", &domain.WorkDescription{Status: domain.StepPending, ManualOverride: true}, child(domain.StepPending)),
		}, 50},
		{"three leaves all finished", []*domain.WorkItem{
			leaf("a", domain.StepFinished), leaf("b", domain.StepFinished), leaf("c", domain.StepFinished),
		}, 100},
		{"in progress leaf is half", []*domain.WorkItem{
			leaf("a", domain.StepInProgress), leaf("b", domain.StepPending), leaf("c", domain.StepPending),
		}, 17},
		{"parent status ignored when children exist", []*domain.WorkItem{
			{ID: "a", Status: domain.StepFinished, Children: []*domain.WorkDescription{child(domain.StepPending)}},
		}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Percentage(tc.items))
		})
	}
}

func TestDeriveParentStatus(t *testing.T) {
	over := &domain.WorkDescription{Status: domain.StepPending, ManualOverride: true}
	cases := []struct {
		name     string
		children []*domain.WorkDescription
		want     domain.StepStatus
	}{
		{"none", nil, domain.StepPending},
		{"all pending", []*domain.WorkDescription{child(domain.StepPending), child(domain.StepPending)}, domain.StepPending},
		{"one in progress", []*domain.WorkDescription{child(domain.StepInProgress), child(domain.StepPending)}, domain.StepInProgress},
		{"one finished", []*domain.WorkDescription{child(domain.StepFinished), child(domain.StepPending)}, domain.StepInProgress},
		{"override only", []*domain.WorkDescription{over, child(domain.StepPending)}, domain.StepInProgress},
		{"all done mixed", []*domain.WorkDescription{over, child(domain.StepFinished)}, domain.StepFinished},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveParentStatus(tc.children))
		})
	}
}

func TestApplyDerivedStatus_FinishedSetsOverride(t *testing.T) {
	it := parent("a", child(domain.StepFinished), child(domain.StepFinished))
	assert.True(t, ApplyDerivedStatus(it))
	assert.Equal(t, domain.StepFinished, it.Status)
	assert.True(t, it.ManualOverride)

	assert.False(t, ApplyDerivedStatus(it), "second application is a no-op")
}

func TestApplyDerivedStatus_LeafUntouched(t *testing.T) {
	it := leaf("a", domain.StepInProgress)
	assert.False(t, ApplyDerivedStatus(it))
	assert.Equal(t, domain.StepInProgress, it.Status)
	assert.False(t, it.ManualOverride)
}

func TestAllFinishedAndCompletion(t *testing.T) {
	assert.True(t, AllFinished(nil))
	assert.Equal(t, domain.StepPending, Completion(nil))

	items := []*domain.WorkItem{
		leaf("a", domain.StepFinished),
		parent("b", child(domain.StepFinished), child(domain.StepInProgress)),
	}
	DeriveAll(items)
	assert.False(t, AllFinished(items))
	assert.Equal(t, domain.StepInProgress, Completion(items))

	items[1].Children[1].ManualOverride = true
	DeriveAll(items)
	assert.True(t, AllFinished(items))
	assert.Equal(t, domain.StepFinished, Completion(items))

	pending := []*domain.WorkItem{leaf("a", domain.StepPending), parent("b", child(domain.StepPending))}
	assert.Equal(t, domain.StepPending, Completion(pending))
}

// randomTree builds a breakdown of up to 8 items, some with children.
func randomTree(rng *rand.Rand) []*domain.WorkItem {
	statuses := []domain.StepStatus{domain.StepPending, domain.StepInProgress, domain.StepFinished}
	n := 1 + rng.Intn(8)
	items := make([]*domain.WorkItem, n)
	for i := range items {
		it := &domain.WorkItem{ID: fmt.Sprintf("w%d", i), Status: statuses[rng.Intn(3)]}
		if rng.Intn(2) == 0 {
			k := 1 + rng.Intn(5)
			for j := 0; j < k; j++ {
				it.Children = append(it.Children, &domain.WorkDescription{
					ID:             fmt.Sprintf("w%d-%d", i, j),
					ParentID:       it.ID,
					Status:         statuses[rng.Intn(3)],
					ManualOverride: rng.Intn(5) == 0,
				})
			}
		}
		items[i] = it
	}
	return items
}

func TestPercentage_AllFinishedLeavesIs100(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(40)
		items := make([]*domain.WorkItem, n)
		for j := range items {
			items[j] = leaf(fmt.Sprintf("w%d", j), domain.StepFinished)
		}
		assert.Equal(t, 100, Percentage(items), "n=%d", n)
	}
}

func TestPercentage_AllPendingIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		items := randomTree(rng)
		for _, it := range items {
			it.Status = domain.StepPending
			for _, c := range it.Children {
				c.Status = domain.StepPending
				c.ManualOverride = false
			}
		}
		assert.Equal(t, 0, Percentage(items))
	}
}

func TestPercentage_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 300; i++ {
		items := randomTree(rng)
		before := Percentage(items)

		it := items[rng.Intn(len(items))]
		if it.HasChildren() {
			c := it.Children[rng.Intn(len(it.Children))]
			c.Status = advance(c.Status)
		} else {
			it.Status = advance(it.Status)
		}
		DeriveAll(items)

		assert.GreaterOrEqual(t, Percentage(items), before, "iteration %d", i)
	}
}

func TestDeriveAll_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 300; i++ {
		items := randomTree(rng)
		DeriveAll(items)
		first := snapshot(items)
		changed := DeriveAll(items)
		assert.Empty(t, changed, "iteration %d", i)
		assert.Equal(t, first, snapshot(items), "iteration %d", i)
	}
}

func advance(s domain.StepStatus) domain.StepStatus {
	switch s {
	case domain.StepPending:
		return domain.StepInProgress
	default:
		return domain.StepFinished
	}
}

func snapshot(items []*domain.WorkItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = fmt.Sprintf("%s:%s:%t", it.ID, it.Status, it.ManualOverride)
	}
	return out
}
