package fakeapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/aussiebroadwan/classrecord/pkg/httpx"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
)

type StudentHandler struct {
	Store *Store
}

func (h *StudentHandler) student(w http.ResponseWriter, r *http.Request) (User, bool) {
	u, ok := currentUser(r, h.Store)
	if !ok || u.StudentID == 0 {
		httpx.WriteMessage(w, http.StatusForbidden, "Forbidden")
		return User{}, false
	}
	return u, true
}

// enrollment resolves the caller's enrollment in the {tld} class.
func (h *StudentHandler) enrollment(w http.ResponseWriter, r *http.Request, u User) (Enrollment, bool) {
	detailID, ok := pathInt(r, "tld")
	if !ok {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid class id")
		return Enrollment{}, false
	}
	e, err := h.Store.Enrollment(u.StudentID, detailID)
	if err != nil {
		writeStoreError(w, r, err, "Not enrolled in this class")
		return Enrollment{}, false
	}
	return e, true
}

func (h *StudentHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	u, ok := h.student(w, r)
	if !ok {
		return
	}

	out := []classrecord.SubjectEnrolled{}
	for _, e := range h.Store.EnrollmentsByStudent(u.StudentID) {
		d, err := h.Store.LoadDetail(e.DetailID)
		if err != nil {
			continue
		}
		load, _ := h.Store.TeachingLoad(d.LoadID)
		sub, _ := h.Store.Subject(d.SubjectID)
		sem, _ := h.Store.Semester(load.SemID)

		teacher := ""
		if t, err := h.Store.UserByTeacherID(load.TeacherID); err == nil {
			teacher = t.FullName()
		}

		out = append(out, classrecord.SubjectEnrolled{
			TeachingLoadDetailID: d.ID,
			SubjectDesc:          sub.Desc,
			SubjectName:          sub.Name,
			Status:               load.Status,
			AcademicYear:         load.AcademicYear,
			SemName:              sem.Name,
			Teacher:              teacher,
			Section:              d.Section,
			Schedule:             d.Schedule,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *StudentHandler) TermGrade(w http.ResponseWriter, r *http.Request) {
	u, ok := h.student(w, r)
	if !ok {
		return
	}
	e, ok := h.enrollment(w, r, u)
	if !ok {
		return
	}
	termID, ok := pathInt(r, "term")
	if !ok {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid term id")
		return
	}
	if _, err := h.Store.Term(termID); err != nil {
		writeStoreError(w, r, err, "Term not found")
		return
	}

	res := h.Store.ComputeTerm(e, termID)
	httpx.WriteJSON(w, http.StatusOK, classrecord.TermGrades{
		StudentID: u.StudentID,
		Name:      u.FullName(),
		Scores: []classrecord.ScoreSplit{{
			Quiz:       res.Percent[CategoryQuiz],
			Activity:   res.Percent[CategoryActivity],
			Exam:       res.Percent[CategoryExam],
			Attendance: res.Percent[CategoryAttendance],
		}},
		FinalGrade: res.Grade,
		Remarks:    Remarks(res.Grade),
	})
}

func (h *StudentHandler) SemGrade(w http.ResponseWriter, r *http.Request) {
	u, ok := h.student(w, r)
	if !ok {
		return
	}
	e, ok := h.enrollment(w, r, u)
	if !ok {
		return
	}

	res := h.Store.ComputeSemester(e)
	msg := "Semester grade computed"
	if !res.Complete {
		msg = "Semester grade is partial until both terms are graded"
	}

	httpx.WriteJSON(w, http.StatusOK, classrecord.SemGrades{
		StudentID:   u.StudentID,
		StudentName: u.FullName(),
		TermGrades: classrecord.TermGradePair{
			Midterm: res.Midterm.Grade,
			Final:   res.Final.Grade,
		},
		SemesterGrade: res.Grade,
		Message:       msg,
	})
}

// Scores lists every grading of one category with the caller's score.
// Gradings without a score report 0 and an empty recordedOn.
func (h *StudentHandler) Scores(w http.ResponseWriter, r *http.Request) {
	u, ok := h.student(w, r)
	if !ok {
		return
	}
	e, ok := h.enrollment(w, r, u)
	if !ok {
		return
	}
	termID, okTerm := pathInt(r, "term")
	categoryID, okCat := pathInt(r, "cat")
	if !okTerm || !okCat {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid term or category id")
		return
	}

	out := []classrecord.ScoreEntry{}
	for _, g := range h.Store.Gradings(e.DetailID, termID, categoryID) {
		entry := classrecord.ScoreEntry{
			GradingID:     g.ID,
			EnrollmentID:  e.ID,
			ConductedOn:   g.ConductedOn.Format(dateLayout),
			NumberOfItems: g.Items,
		}
		if g.Description != "" {
			desc := g.Description
			entry.Description = &desc
		}
		if sc, ok := h.Store.ScoreFor(g.ID, e.ID); ok {
			entry.GradingDetailID = sc.ID
			entry.Score = sc.Score
			entry.RecordedOn = sc.RecordedOn.Format(time.RFC3339)
		}
		out = append(out, entry)
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *StudentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	u, ok := h.student(w, r)
	if !ok {
		return
	}

	var req classrecord.EnrollmentHash
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	d, err := h.Store.LoadDetailByKey(strings.TrimSpace(req.HashKey))
	if err != nil {
		writeStoreError(w, r, err, "Invalid enrollment key")
		return
	}

	e, err := h.Store.Enroll(u.StudentID, d.ID)
	if errors.Is(err, ErrAlreadyExists) {
		httpx.WriteMessage(w, http.StatusConflict, "Already enrolled")
		return
	}
	if err != nil {
		writeStoreError(w, r, err, "Invalid enrollment key")
		return
	}

	slogx.FromContext(r.Context()).Info("student enrolled",
		"student_id", u.StudentID,
		"teaching_load_detail_id", d.ID,
		"enrollment_id", e.ID,
	)
	httpx.WriteMessage(w, http.StatusCreated, "Enrolled successfully")
}

func (h *StudentHandler) Info(w http.ResponseWriter, r *http.Request) {
	u, ok := h.student(w, r)
	if !ok {
		return
	}

	course, _ := h.Store.Course(u.CourseID)
	httpx.WriteJSON(w, http.StatusOK, classrecord.StudentInfo{
		StudentID: u.StudentID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Course:    course.Code,
		Gender:    u.GenderLabel(),
		DOB:       u.DOB,
	})
}
