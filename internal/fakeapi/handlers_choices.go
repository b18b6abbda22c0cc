package fakeapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/aussiebroadwan/classrecord/pkg/httpx"
)

// ChoicesHandler serves the lookup lists and grading compositions.
type ChoicesHandler struct {
	Store *Store
}

func (h *ChoicesHandler) Courses(w http.ResponseWriter, r *http.Request) {
	out := []classrecord.Course{}
	for _, c := range h.Store.Courses() {
		out = append(out, classrecord.Course{
			ID:         strconv.Itoa(c.ID),
			CourseCode: c.Code,
			CourseName: c.Name,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *ChoicesHandler) Semesters(w http.ResponseWriter, r *http.Request) {
	out := []classrecord.Semester{}
	for _, s := range h.Store.Semesters() {
		out = append(out, classrecord.Semester{
			ID:        s.ID,
			SemName:   s.Name,
			CreatedAt: s.CreatedAt.Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *ChoicesHandler) Terms(w http.ResponseWriter, r *http.Request) {
	out := []classrecord.Term{}
	for _, t := range h.Store.Terms() {
		out = append(out, classrecord.Term{ID: t.ID, TermType: t.Type})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *ChoicesHandler) Categories(w http.ResponseWriter, r *http.Request) {
	out := []classrecord.Category{}
	for _, c := range h.Store.Categories() {
		out = append(out, classrecord.Category{ID: c.ID, CategoryName: c.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *ChoicesHandler) GradingComposition(w http.ResponseWriter, r *http.Request) {
	detailID, ok := pathInt(r, "tld")
	if !ok {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid class id")
		return
	}
	if _, err := h.Store.LoadDetail(detailID); err != nil {
		writeStoreError(w, r, err, "Class not found")
		return
	}

	out := classrecord.GradingComposition{
		TeachingLoadDetailID: detailID,
		Composition:          []classrecord.Composition{},
	}
	for _, wt := range h.Store.Weights(detailID) {
		cat, _ := h.Store.Category(wt.CategoryID)
		out.Composition = append(out.Composition, classrecord.Composition{
			ID:         wt.ID,
			Percentage: wt.Percentage,
			Category:   classrecord.Category{ID: cat.ID, CategoryName: cat.Name},
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
