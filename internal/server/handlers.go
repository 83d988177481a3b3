package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/abelbrown/lessonvault/internal/remote"
	"github.com/abelbrown/lessonvault/internal/store"
)

type handlers struct {
	st  *store.Store
	log *log.Logger
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	uid := userID(r)
	ctx := r.Context()

	var (
		rows any
		err  error
	)
	switch table {
	case store.TableExercises:
		rows, err = h.st.ListExercises(ctx, uid)
	case store.TableLessonPlans:
		rows, err = h.st.ListLessonPlans(ctx, uid)
	case store.TableCorrespondences:
		rows, err = h.st.ListCorrespondences(ctx, uid)
	case store.TableImages:
		rows, err = h.st.ListImages(ctx, uid)
	case store.TableMusicLessons:
		rows, err = h.st.ListMusicLessons(ctx, uid)
	default:
		writeError(w, r, http.StatusNotFound, "unknown table "+table)
		return
	}
	if err != nil {
		h.log.Error("list failed", "table", table, "user", uid, "err", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list "+table)
		return
	}
	render.JSON(w, r, rows)
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	uid := userID(r)
	ctx := r.Context()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))

	var (
		saved any
		err   error
	)
	switch table {
	case store.TableExercises:
		var rec remote.ExerciseRecord
		if err = dec.Decode(&rec); err == nil {
			rec.UserID = uid
			saved, err = h.st.SaveExercise(ctx, rec)
		}
	case store.TableLessonPlans:
		var rec remote.LessonPlanRecord
		if err = dec.Decode(&rec); err == nil {
			rec.UserID = uid
			saved, err = h.st.SaveLessonPlan(ctx, rec)
		}
	case store.TableCorrespondences:
		var rec remote.CorrespondenceRecord
		if err = dec.Decode(&rec); err == nil {
			rec.UserID = uid
			saved, err = h.st.SaveCorrespondence(ctx, rec)
		}
	case store.TableImages:
		var rec remote.ImageRecord
		if err = dec.Decode(&rec); err == nil {
			rec.UserID = uid
			saved, err = h.st.SaveImage(ctx, rec)
		}
	case store.TableMusicLessons:
		var rec remote.MusicLessonRecord
		if err = dec.Decode(&rec); err == nil {
			rec.UserID = uid
			saved, err = h.st.SaveMusicLesson(ctx, rec)
		}
	default:
		writeError(w, r, http.StatusNotFound, "unknown table "+table)
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.EOF):
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	case err != nil:
		h.log.Error("save failed", "table", table, "user", uid, "err", err)
		writeError(w, r, http.StatusInternalServerError, "failed to save to "+table)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, saved)
}

func (h *handlers) delete(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id, ok := strings.CutPrefix(r.URL.Query().Get("id"), "eq.")
	if !ok || id == "" {
		writeError(w, r, http.StatusBadRequest, "delete requires an id=eq.{id} filter")
		return
	}
	if !knownTable(table) {
		writeError(w, r, http.StatusNotFound, "unknown table "+table)
		return
	}

	err := h.st.Delete(r.Context(), table, userID(r), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "no row "+id+" in "+table)
	case err != nil:
		h.log.Error("delete failed", "table", table, "id", id, "err", err)
		writeError(w, r, http.StatusInternalServerError, "failed to delete from "+table)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func knownTable(table string) bool {
	for _, t := range store.Tables {
		if t == table {
			return true
		}
	}
	return false
}
