package fetch

import (
	"time"

	"github.com/abelbrown/lessonvault/internal/content"
	"github.com/abelbrown/lessonvault/internal/remote"
)

// Tag colors per type.
const (
	ColorExercise       = "#22C55E"
	ColorDifferentiated = "#F47C7C"
	ColorLessonPlan     = "#FF9EBC"
	ColorCorrespondence = "#9b87f5"
	ColorImage          = "#F2FCE2"
	ColorMusicLesson    = "#AC7AB5"
)

// ImageTitle is the display title given to every generated image.
const ImageTitle = "Generated image"

// ExerciseTag returns the tag for an exercise category ("standard" when empty).
func ExerciseTag(category string) content.Tag {
	if category == "differentiated" {
		return content.NewTag("Differentiated", ColorDifferentiated)
	}
	return content.NewTag("Standard", ColorExercise)
}

// FromExercise converts an exercise record.
func FromExercise(r remote.ExerciseRecord) (content.Item, bool) {
	return content.Item{
		ID:         r.ID,
		Type:       content.TypeExercise,
		Title:      r.Title,
		Content:    r.Content,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  orCreated(r.UpdatedAt, r.CreatedAt),
		Subject:    r.Subject,
		ClassLevel: r.ClassLevel,
		Tags:       []content.Tag{ExerciseTag(r.ExerciseCategory)},
	}, r.ID != ""
}

// FromLessonPlan converts a lesson plan record.
func FromLessonPlan(r remote.LessonPlanRecord) (content.Item, bool) {
	return content.Item{
		ID:         r.ID,
		Type:       content.TypeLessonPlan,
		Title:      r.Title,
		Content:    r.Content,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  orCreated(r.UpdatedAt, r.CreatedAt),
		Subject:    r.Subject,
		ClassLevel: r.ClassLevel,
		Tags:       []content.Tag{content.NewTag(content.TypeLessonPlan.Label(), ColorLessonPlan)},
	}, r.ID != ""
}

// FromCorrespondence converts a correspondence record. The recipient type
// doubles as the subject so it can be filtered on.
func FromCorrespondence(r remote.CorrespondenceRecord) (content.Item, bool) {
	return content.Item{
		ID:        r.ID,
		Type:      content.TypeCorrespondence,
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
		UpdatedAt: orCreated(r.UpdatedAt, r.CreatedAt),
		Subject:   r.RecipientType,
		Tags:      []content.Tag{content.NewTag(content.TypeCorrespondence.Label(), ColorCorrespondence)},
	}, r.ID != ""
}

// FromImage converts an image record. Rows without a URL are skipped.
func FromImage(r remote.ImageRecord) (content.Item, bool) {
	if r.ID == "" || r.ImageURL == "" {
		return content.Item{}, false
	}
	return content.Item{
		ID:        r.ID,
		Type:      content.TypeImage,
		Title:     ImageTitle,
		Content:   r.ImageURL,
		CreatedAt: r.GeneratedAt,
		UpdatedAt: r.GeneratedAt,
		Tags:      []content.Tag{content.NewTag("Image", ColorImage)},
	}, true
}

// FromMusicLesson converts a music lesson record. Lyrics are the body when
// the record has no separate content.
func FromMusicLesson(r remote.MusicLessonRecord) (content.Item, bool) {
	body := r.Content
	if body == "" {
		body = r.Lyrics
	}
	return content.Item{
		ID:         r.ID,
		Type:       content.TypeMusicLesson,
		Title:      r.Title,
		Content:    body,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  orCreated(r.UpdatedAt, r.CreatedAt),
		Subject:    r.Subject,
		ClassLevel: r.ClassLevel,
		Tags:       []content.Tag{content.NewTag(content.TypeMusicLesson.Label(), ColorMusicLesson)},
	}, r.ID != ""
}

func orCreated(updated, created time.Time) time.Time {
	if updated.IsZero() {
		return created
	}
	return updated
}
