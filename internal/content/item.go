// Package content defines the normalized saved-content model shared by the
// retrievers, the cache and the UI.
package content

import "time"

// Type tags an Item with the category it came from.
type Type string

const (
	TypeExercise       Type = "exercise"
	TypeLessonPlan     Type = "lesson-plan"
	TypeCorrespondence Type = "correspondence"
	TypeImage          Type = "image"
	TypeMusicLesson    Type = "music-lesson"
)

// Types lists every Type in canonical category order. Retrieval, merging and
// tie-breaking all follow this order.
var Types = []Type{
	TypeExercise,
	TypeLessonPlan,
	TypeCorrespondence,
	TypeImage,
	TypeMusicLesson,
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Deletable reports whether items of type t can be deleted by the user.
// Music lessons have no delete operation in the store.
func (t Type) Deletable() bool {
	return t.Valid() && t != TypeMusicLesson
}

// Label returns the human-readable name of the type.
func (t Type) Label() string {
	switch t {
	case TypeExercise:
		return "Exercise"
	case TypeLessonPlan:
		return "Lesson plan"
	case TypeCorrespondence:
		return "Correspondence"
	case TypeImage:
		return "Generated image"
	case TypeMusicLesson:
		return "Song"
	}
	return string(t)
}

// Category is the key under which a type's fetch errors are reported.
type Category string

const (
	CategoryExercises       Category = "exercises"
	CategoryLessonPlans     Category = "lessonPlans"
	CategoryCorrespondences Category = "correspondences"
	CategoryImages          Category = "images"
	CategoryMusicLessons    Category = "musicLessons"
)

// Category returns the error key for t.
func (t Type) Category() Category {
	switch t {
	case TypeExercise:
		return CategoryExercises
	case TypeLessonPlan:
		return CategoryLessonPlans
	case TypeCorrespondence:
		return CategoryCorrespondences
	case TypeImage:
		return CategoryImages
	case TypeMusicLesson:
		return CategoryMusicLessons
	}
	return Category(t)
}

// Tag is a display-only label derived from an item's type and metadata.
type Tag struct {
	Label           string `json:"label"`
	Color           string `json:"color"`
	BackgroundColor string `json:"background_color"`
	BorderColor     string `json:"border_color"`
}

// NewTag derives background and border colors from the base color by
// appending alpha channels (12% and 30%).
func NewTag(label, color string) Tag {
	return Tag{
		Label:           label,
		Color:           color,
		BackgroundColor: color + "20",
		BorderColor:     color + "4D",
	}
}

// Item is one saved artifact as exposed to the UI.
type Item struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Title      string    `json:"title"`
	Content    string    `json:"content"` // free text, or the URL for images
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Subject    string    `json:"subject,omitempty"`
	ClassLevel string    `json:"class_level,omitempty"`
	Tags       []Tag     `json:"tags,omitempty"`
}

// Valid reports whether the item can take part in a merged collection.
func (it Item) Valid() bool {
	return it.ID != ""
}

// CountByType tallies items per type.
func CountByType(items []Item) map[Type]int {
	counts := make(map[Type]int, len(Types))
	for _, it := range items {
		counts[it.Type]++
	}
	return counts
}

// Clone returns a copy of items that shares no backing array with the input.
// Returns an empty, non-nil slice for empty input.
func Clone(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Without returns a copy of items with every entry whose ID is id removed.
func Without(items []Item, id string) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
