package filter

import (
	"testing"
	"time"

	"github.com/abelbrown/lessonvault/internal/content"
)

func sampleItems() []content.Item {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return []content.Item{
		{ID: "e1", Type: content.TypeExercise, Title: "Fractions drill", Subject: "Maths", CreatedAt: base},
		{ID: "l1", Type: content.TypeLessonPlan, Title: "Volcanoes", Subject: "Science", CreatedAt: base.Add(-24 * time.Hour)},
		{ID: "c1", Type: content.TypeCorrespondence, Title: "Parent letter", CreatedAt: base.Add(-48 * time.Hour),
			Tags: []content.Tag{content.NewTag("Correspondence", "#9b87f5")}},
		{ID: "i1", Type: content.TypeImage, Title: "Generated image", CreatedAt: base.Add(time.Hour)},
		{ID: "m1", Type: content.TypeMusicLesson, Title: "Times tables song", Subject: "maths", CreatedAt: base.Add(-72 * time.Hour)},
	}
}

func TestByTab(t *testing.T) {
	items := sampleItems()

	tests := []struct {
		tab  Tab
		want int
	}{
		{TabAll, 5},
		{"", 5},
		{TabExercises, 1},
		{TabLessonPlans, 1},
		{TabCorrespondence, 1},
		{TabImages, 1},
		{TabMusicLessons, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.tab), func(t *testing.T) {
			got := ByTab(items, tt.tab)
			if len(got) != tt.want {
				t.Errorf("ByTab(%q) = %d items, want %d", tt.tab, len(got), tt.want)
			}
		})
	}
}

func TestBySubjectsCaseInsensitive(t *testing.T) {
	result := BySubjects(sampleItems(), []string{"MATHS"})
	if len(result) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result))
	}
	if result[0].ID != "e1" || result[1].ID != "m1" {
		t.Errorf("unexpected items: %s, %s", result[0].ID, result[1].ID)
	}
}

func TestBySubjectsEmpty(t *testing.T) {
	result := BySubjects(nil, []string{"Maths"})
	if result == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestByDateRange(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	result := ByDateRange(sampleItems(), base.Add(-48*time.Hour), base)
	if len(result) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result))
	}

	open := ByDateRange(sampleItems(), base, time.Time{})
	if len(open) != 2 {
		t.Errorf("open upper bound: expected 2 items, got %d", len(open))
	}
}

func TestByQueryMatchesTitleSubjectAndTags(t *testing.T) {
	items := sampleItems()

	if got := ByQuery(items, "volcano"); len(got) != 1 || got[0].ID != "l1" {
		t.Errorf("title match failed: %+v", got)
	}
	if got := ByQuery(items, "science"); len(got) != 1 {
		t.Errorf("subject match failed: got %d", len(got))
	}
	if got := ByQuery(items, "correspondence letter"); len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("multi-term tag match failed: %+v", got)
	}
	if got := ByQuery(items, "   "); len(got) != len(items) {
		t.Errorf("blank query should keep everything, got %d", len(got))
	}
}

func TestApplySortsAndFilters(t *testing.T) {
	items := sampleItems()

	got := Apply(items, Options{})
	wantOrder := []string{"i1", "e1", "l1", "c1", "m1"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("recent order[%d] = %s, want %s", i, got[i].ID, id)
		}
	}

	got = Apply(items, Options{Sort: content.SortTitle, Subjects: []string{"maths"}})
	if len(got) != 2 || got[0].ID != "e1" || got[1].ID != "m1" {
		t.Errorf("title sort with subject filter: %+v", got)
	}

	// Input must not be reordered.
	if items[0].ID != "e1" {
		t.Error("Apply mutated its input")
	}
}

func TestSubjects(t *testing.T) {
	got := Subjects(sampleItems())
	if len(got) != 2 || got[0] != "Maths" || got[1] != "Science" {
		t.Errorf("Subjects() = %v", got)
	}
}

func TestLimitPerType(t *testing.T) {
	items := []content.Item{
		{ID: "1", Type: content.TypeImage},
		{ID: "2", Type: content.TypeImage},
		{ID: "3", Type: content.TypeExercise},
		{ID: "4", Type: content.TypeImage},
	}
	got := LimitPerType(items, 2)
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[2].ID != "3" {
		t.Errorf("expected order preserved, got %s last", got[2].ID)
	}
}
