package fetch

import (
	"testing"
	"time"

	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/remote"
)

func TestFromExerciseCategoryTag(t *testing.T) {
	std, _ := FromExercise(remote.ExerciseRecord{ID: "a"})
	diff, _ := FromExercise(remote.ExerciseRecord{ID: "b", ExerciseCategory: "differentiated"})

	if std.Tags[0].Label != "Standard" || std.Tags[0].Color != ColorExercise {
		t.Errorf("standard tag = %+v", std.Tags[0])
	}
	if diff.Tags[0].Label != "Differentiated" || diff.Tags[0].BorderColor != ColorDifferentiated+"4D" {
		t.Errorf("differentiated tag = %+v", diff.Tags[0])
	}
}

func TestFromImage(t *testing.T) {
	at := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	it, ok := FromImage(remote.ImageRecord{ID: "i", ImageURL: "https://x/y.png", GeneratedAt: at})
	if !ok {
		t.Fatal("image with URL should convert")
	}
	if it.Type != content.TypeImage || it.Content != "https://x/y.png" || !it.CreatedAt.Equal(at) {
		t.Errorf("unexpected item %+v", it)
	}
	if it.Title != ImageTitle {
		t.Errorf("title = %q", it.Title)
	}

	if _, ok := FromImage(remote.ImageRecord{ID: "j"}); ok {
		t.Error("image without URL should be skipped")
	}
}

func TestUpdatedAtFallsBackToCreated(t *testing.T) {
	at := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	it, _ := FromLessonPlan(remote.LessonPlanRecord{ID: "p", CreatedAt: at})
	if !it.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", it.UpdatedAt, at)
	}
}

func TestFromMusicLessonUsesLyricsWhenNoContent(t *testing.T) {
	it, ok := FromMusicLesson(remote.MusicLessonRecord{ID: "m", Lyrics: "la la"})
	if !ok || it.Content != "la la" {
		t.Errorf("FromMusicLesson = %+v, %v", it, ok)
	}
}

func TestMissingIDRejected(t *testing.T) {
	if _, ok := FromCorrespondence(remote.CorrespondenceRecord{Title: "x"}); ok {
		t.Error("record without id should be rejected")
	}
}
