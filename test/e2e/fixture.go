package e2e

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/abelbrown/lessonvault/internal/remote"
	"github.com/abelbrown/lessonvault/internal/store"
)

// seedFixtureDB writes a deterministic content.db under homeDir/.lessonvault.
func seedFixtureDB(homeDir, userID string) error {
	dataDir := filepath.Join(homeDir, ".lessonvault")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	st, err := store.Open(filepath.Join(dataDir, "content.db"))
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	if _, err := st.SaveExercise(ctx, remote.ExerciseRecord{
		ID:        "ex-1",
		UserID:    userID,
		Title:     "Fractions Fixture",
		Content:   "1/2 + 1/4",
		Subject:   "Maths",
		CreatedAt: now.Add(-10 * time.Minute),
	}); err != nil {
		return err
	}
	if _, err := st.SaveLessonPlan(ctx, remote.LessonPlanRecord{
		ID:        "lp-1",
		UserID:    userID,
		Title:     "Volcanoes Fixture",
		Subject:   "Geography",
		CreatedAt: now.Add(-2 * time.Hour),
	}); err != nil {
		return err
	}
	// Another user's row must never show up.
	_, err = st.SaveExercise(ctx, remote.ExerciseRecord{
		ID:        "ex-other",
		UserID:    "someone-else",
		Title:     "Intruder Fixture",
		CreatedAt: now,
	})
	return err
}
