package cache

import (
	"testing"
	"time"

	"github.com/abelbrown/lessonvault/internal/content"
)

var t0 = time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC)

func item(id string, typ content.Type) content.Item {
	return content.Item{ID: id, Type: typ, CreatedAt: t0, UpdatedAt: t0}
}

func TestHasChanged(t *testing.T) {
	a := item("a", content.TypeExercise)
	b := item("b", content.TypeLessonPlan)
	bAsImage := item("b", content.TypeImage)
	c := item("c", content.TypeLessonPlan)
	aEdited := a
	aEdited.UpdatedAt = t0.Add(time.Minute)
	aBody := a
	aBody.Content = "rewritten body"

	tests := []struct {
		name string
		old  []content.Item
		new  []content.Item
		want bool
	}{
		{"both empty", nil, []content.Item{}, false},
		{"old empty", nil, []content.Item{a}, true},
		{"new empty", []content.Item{a}, nil, true},
		{"count differs", []content.Item{a}, []content.Item{a, b}, true},
		{"type count differs", []content.Item{a, b}, []content.Item{a, bAsImage}, true},
		{"id swapped same type", []content.Item{a, b}, []content.Item{a, c}, true},
		{"updated_at differs", []content.Item{a, b}, []content.Item{aEdited, b}, true},
		{"order only", []content.Item{a, b}, []content.Item{b, a}, false},
		{"body only", []content.Item{a}, []content.Item{aBody}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasChanged(tt.old, tt.new); got != tt.want {
				t.Errorf("HasChanged() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateAndGetReturnCopies(t *testing.T) {
	c := New(0)
	items := []content.Item{item("a", content.TypeExercise)}
	c.Update(items)
	items[0].Title = "mutated"

	got := c.Get()
	if got[0].Title != "" {
		t.Error("Update kept a reference to the caller's slice")
	}
	got[0].Title = "also mutated"
	if c.Get()[0].Title != "" {
		t.Error("Get returned internal storage")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d", c.Len())
	}
}

func TestPendingAndDataReceived(t *testing.T) {
	c := New(3)
	c.AppendPending([]content.Item{item("a", content.TypeExercise)})
	c.AppendPending(nil)
	c.AppendPending([]content.Item{item("b", content.TypeImage)})
	c.SetDataReceived(true)

	if n := len(c.Pending()); n != 2 {
		t.Errorf("pending = %d, want 2", n)
	}
	if !c.DataReceived() {
		t.Error("expected data received")
	}

	c.ClearPending()
	if len(c.Pending()) != 0 {
		t.Error("ClearPending left items")
	}
}

func TestInvalidate(t *testing.T) {
	c := New(3)
	c.Update([]content.Item{item("a", content.TypeExercise)})
	c.AppendPending([]content.Item{item("b", content.TypeExercise)})
	c.SetDataReceived(true)

	c.Invalidate()
	if c.Len() != 0 || len(c.Pending()) != 0 || c.DataReceived() {
		t.Error("Invalidate should clear snapshot, pending and flag")
	}
	if !c.HasRecentData() {
		t.Error("history should survive invalidation")
	}
}

func TestHasRecentDataFadesAfterRepeatedEmpties(t *testing.T) {
	c := New(3)
	if c.HasRecentData() {
		t.Error("fresh cache has no evidence")
	}

	c.Update([]content.Item{item("a", content.TypeExercise)})
	if !c.HasRecentData() {
		t.Error("non-empty snapshot is evidence")
	}

	// [a] moves into history and stays there for three more updates.
	for i := 0; i < 3; i++ {
		c.Update(nil)
		if !c.HasRecentData() {
			t.Fatalf("empty update %d: evidence should persist", i+1)
		}
	}
	c.Update(nil)
	if c.HasRecentData() {
		t.Error("evidence should be gone once history holds only empties")
	}
}
