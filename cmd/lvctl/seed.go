package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/abelbrown/lessonvault/internal/remote"
	"github.com/abelbrown/lessonvault/internal/store"
)

func runSeed() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	user := fs.String("user", "", "User id to seed content for")
	fs.Parse(os.Args[1:])
	requireUser(*user)

	cfg := loadConfig()
	st := openDB(cfg)
	defer st.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	day := 24 * time.Hour

	exercises := []remote.ExerciseRecord{
		{Title: "Adding fractions", Content: "1/2 + 1/4 = ?", Subject: "Maths", ClassLevel: "CM1", ExerciseType: "quiz", ExerciseCategory: "standard", CreatedAt: now.Add(-2 * time.Hour)},
		{Title: "Adding fractions (support)", Content: "Shade 1/2 then 1/4.", Subject: "Maths", ClassLevel: "CM1", ExerciseType: "quiz", ExerciseCategory: "differentiated", CreatedAt: now.Add(-3 * time.Hour)},
		{Title: "Past tense drill", Content: "Conjugate: to go, to see.", Subject: "English", ClassLevel: "CE2", CreatedAt: now.Add(-5 * day)},
	}
	plans := []remote.LessonPlanRecord{
		{Title: "Volcanoes", Content: "Session 1: what is magma?", Subject: "Geography", ClassLevel: "CM2", TotalSessions: 4, CreatedAt: now.Add(-1 * day)},
	}
	letters := []remote.CorrespondenceRecord{
		{Title: "School trip reminder", Content: "Dear parents, ...", RecipientType: "parents", Tone: "formal", CreatedAt: now.Add(-10 * day)},
	}
	images := []remote.ImageRecord{
		{Prompt: "A friendly volcano", ImageURL: "https://images.example.org/volcano.png", Status: store.ImageStatusSuccess, GeneratedAt: now.Add(-30 * time.Minute)},
		{Prompt: "Failed render", Status: "error", GeneratedAt: now.Add(-40 * time.Minute)},
	}
	songs := []remote.MusicLessonRecord{
		{Title: "The water cycle song", Lyrics: "Up goes the vapour...", Subject: "Science", MusicGenre: "pop", CreatedAt: now.Add(-40 * day)},
	}

	n := 0
	for _, r := range exercises {
		r.UserID = *user
		must(st.SaveExercise(ctx, r))
		n++
	}
	for _, r := range plans {
		r.UserID = *user
		must(st.SaveLessonPlan(ctx, r))
		n++
	}
	for _, r := range letters {
		r.UserID = *user
		must(st.SaveCorrespondence(ctx, r))
		n++
	}
	for _, r := range images {
		r.UserID = *user
		must(st.SaveImage(ctx, r))
		n++
	}
	for _, r := range songs {
		r.UserID = *user
		must(st.SaveMusicLesson(ctx, r))
		n++
	}
	fmt.Printf("Seeded %d rows for %s in %s\n", n, *user, cfg.Store.DBPath)
}

func must[T any](_ T, err error) {
	if err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}
