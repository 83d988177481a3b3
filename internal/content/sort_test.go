package content

import (
	"testing"
	"time"
)

func TestMergeDropsInvalidAndDuplicates(t *testing.T) {
	now := time.Now()
	exercises := []Item{
		{ID: "a", Type: TypeExercise, CreatedAt: now},
		{ID: "", Type: TypeExercise, CreatedAt: now},
	}
	plans := []Item{
		{ID: "b", Type: TypeLessonPlan, CreatedAt: now},
		{ID: "a", Type: TypeLessonPlan, CreatedAt: now},
	}

	merged := Merge(exercises, plans)
	if len(merged) != 2 {
		t.Fatalf("expected 2 items, got %d", len(merged))
	}
	if merged[0].Type != TypeExercise {
		t.Errorf("first occurrence should win, got type %s", merged[0].Type)
	}

	seen := make(map[string]bool)
	for _, it := range merged {
		if seen[it.ID] {
			t.Errorf("duplicate id %s in merged result", it.ID)
		}
		seen[it.ID] = true
	}
}

func TestMergeEmpty(t *testing.T) {
	merged := Merge(nil, []Item{}, nil)
	if merged == nil || len(merged) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", merged)
	}
}

func TestSortRecentIsStableAndIdempotent(t *testing.T) {
	same := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := Merge(
		[]Item{{ID: "ex", Type: TypeExercise, CreatedAt: same}},
		[]Item{{ID: "lp", Type: TypeLessonPlan, CreatedAt: same}},
		[]Item{{ID: "new", Type: TypeCorrespondence, CreatedAt: same.Add(time.Hour)}},
		[]Item{{ID: "img", Type: TypeImage, CreatedAt: same}},
	)

	Sort(items, SortRecent)
	want := []string{"new", "ex", "lp", "img"}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("order[%d] = %s, want %s", i, items[i].ID, id)
		}
	}

	again := Sorted(items, SortRecent)
	for i := range items {
		if again[i].ID != items[i].ID {
			t.Fatalf("second sort changed order at %d: %s vs %s", i, again[i].ID, items[i].ID)
		}
	}
}

func TestSortOldestAndTitle(t *testing.T) {
	base := time.Now()
	items := []Item{
		{ID: "1", Title: "banana", CreatedAt: base},
		{ID: "2", Title: "Apple", CreatedAt: base.Add(-time.Hour)},
		{ID: "3", Title: "cherry", CreatedAt: base.Add(time.Hour)},
	}

	oldest := Sorted(items, SortOldest)
	if oldest[0].ID != "2" || oldest[2].ID != "3" {
		t.Errorf("oldest order wrong: %s %s %s", oldest[0].ID, oldest[1].ID, oldest[2].ID)
	}

	byTitle := Sorted(items, SortTitle)
	if byTitle[0].ID != "2" || byTitle[1].ID != "1" || byTitle[2].ID != "3" {
		t.Errorf("title order wrong: %s %s %s", byTitle[0].ID, byTitle[1].ID, byTitle[2].ID)
	}

	if items[0].ID != "1" {
		t.Error("Sorted mutated its input")
	}
}

func TestSortModeNextWraps(t *testing.T) {
	if SortRecent.Next() != SortOldest {
		t.Error("recent -> oldest")
	}
	if SortTitle.Next() != SortRecent {
		t.Error("title should wrap to recent")
	}
	if SortMode("bogus").Next() != SortRecent {
		t.Error("unknown mode should reset to recent")
	}
}

func TestTypeCategoryAndValid(t *testing.T) {
	want := map[Type]Category{
		TypeExercise:       CategoryExercises,
		TypeLessonPlan:     CategoryLessonPlans,
		TypeCorrespondence: CategoryCorrespondences,
		TypeImage:          CategoryImages,
		TypeMusicLesson:    CategoryMusicLessons,
	}
	for typ, cat := range want {
		if !typ.Valid() {
			t.Errorf("%s should be valid", typ)
		}
		if typ.Category() != cat {
			t.Errorf("%s.Category() = %s, want %s", typ, typ.Category(), cat)
		}
	}
	if Type("Image").Valid() {
		t.Error("unknown type reported valid")
	}
	if TypeMusicLesson.Deletable() || Type("Image").Deletable() || !TypeImage.Deletable() {
		t.Error("Deletable should exclude music lessons and unknown types")
	}
}

func TestNewTagDerivesColors(t *testing.T) {
	tag := NewTag("Exercise", "#22C55E")
	if tag.BackgroundColor != "#22C55E20" || tag.BorderColor != "#22C55E4D" {
		t.Errorf("unexpected derived colors: %+v", tag)
	}
}

func TestWithout(t *testing.T) {
	items := []Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := Without(items, "b")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("Without() = %+v", got)
	}
	if len(items) != 3 {
		t.Error("Without mutated input")
	}
}
