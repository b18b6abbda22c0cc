package fakeapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/aussiebroadwan/classrecord/pkg/httpx"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
)

type TeacherHandler struct {
	Store *Store

	// Now stamps new attendance sessions. nil means time.Now.
	Now func() time.Time
}

func (h *TeacherHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// teacher resolves the caller, writing 403 when the account is not a teacher.
func (h *TeacherHandler) teacher(w http.ResponseWriter, r *http.Request) (User, bool) {
	u, ok := currentUser(r, h.Store)
	if !ok || u.TeacherID == "" {
		httpx.WriteMessage(w, http.StatusForbidden, "Forbidden")
		return User{}, false
	}
	return u, true
}

// owns writes 404 unless the caller teaches the class.
func (h *TeacherHandler) owns(w http.ResponseWriter, u User, detailID int) bool {
	if !h.Store.TeacherOwns(u.TeacherID, detailID) {
		httpx.WriteMessage(w, http.StatusNotFound, "Class not found")
		return false
	}
	return true
}

func (h *TeacherHandler) TeachingLoad(w http.ResponseWriter, r *http.Request) {
	u, ok := h.teacher(w, r)
	if !ok {
		return
	}

	out := []classrecord.TeachingLoad{}
	for _, l := range h.Store.TeachingLoads(u.TeacherID) {
		load := classrecord.TeachingLoad{
			ID:           l.ID,
			SemID:        l.SemID,
			Status:       l.Status,
			AddedOn:      l.AddedOn.Format(time.RFC3339),
			AcademicYear: l.AcademicYear,
			Details:      []classrecord.TeachingLoadDetail{},
		}
		for _, d := range h.Store.LoadDetails(l.ID) {
			sub, _ := h.Store.Subject(d.SubjectID)
			load.Details = append(load.Details, classrecord.TeachingLoadDetail{
				ID:       d.ID,
				Key:      d.Key,
				Schedule: d.Schedule,
				Section:  d.Section,
				Subject:  subjectView(sub),
			})
		}
		out = append(out, load)
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *TeacherHandler) Enrolled(w http.ResponseWriter, r *http.Request) {
	u, ok := h.teacher(w, r)
	if !ok {
		return
	}
	detailID, ok := pathInt(r, "tld")
	if !ok {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid class id")
		return
	}
	if !h.owns(w, u, detailID) {
		return
	}

	out := []classrecord.Enrolled{}
	for _, e := range h.Store.EnrollmentsByClass(detailID) {
		student, err := h.Store.UserByStudentID(e.StudentID)
		if err != nil {
			continue
		}
		out = append(out, classrecord.Enrolled{
			EnrollmentID: e.ID,
			StudentID:    e.StudentID,
			Name:         student.FullName(),
			Gender:       student.Gender,
			Email:        student.Email,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *TeacherHandler) Info(w http.ResponseWriter, r *http.Request) {
	u, ok := h.teacher(w, r)
	if !ok {
		return
	}

	httpx.WriteJSON(w, http.StatusOK, classrecord.TeacherInfo{
		TeacherID: u.TeacherID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Gender:    u.GenderLabel(),
		DOB:       u.DOB,
	})
}

func (h *TeacherHandler) AttendanceList(w http.ResponseWriter, r *http.Request) {
	u, ok := h.teacher(w, r)
	if !ok {
		return
	}
	detailID, okDetail := pathInt(r, "tld")
	termID, okTerm := pathInt(r, "term")
	if !okDetail || !okTerm {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid class or term id")
		return
	}
	if !h.owns(w, u, detailID) {
		return
	}

	out := []classrecord.AttendanceSession{}
	for _, g := range h.Store.Gradings(detailID, termID, CategoryAttendance) {
		out = append(out, attendanceView(g))
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}

// PostAttendance opens a new attendance session. Students are marked into
// the latest open session of the class and term.
func (h *TeacherHandler) PostAttendance(w http.ResponseWriter, r *http.Request) {
	u, ok := h.teacher(w, r)
	if !ok {
		return
	}

	var req classrecord.PostAttendance
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.owns(w, u, req.TeachingLoadDetailID) {
		return
	}
	if _, err := h.Store.Term(req.TermID); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Unknown term")
		return
	}

	now := h.now()
	g := h.Store.CreateGrading(Grading{
		DetailID:    req.TeachingLoadDetailID,
		TermID:      req.TermID,
		CategoryID:  CategoryAttendance,
		Description: fmt.Sprintf("Attendance %s", now.Format(dateLayout)),
		Items:       1,
		ConductedOn: now,
	})

	slogx.FromContext(r.Context()).Info("attendance opened",
		"teaching_load_detail_id", req.TeachingLoadDetailID,
		"term_id", req.TermID,
		"grading_id", g.ID,
	)
	httpx.WriteMessage(w, http.StatusCreated, "Attendance opened")
}

func (h *TeacherHandler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	u, ok := h.teacher(w, r)
	if !ok {
		return
	}

	var req classrecord.RecordAttendance
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.owns(w, u, req.TeachingLoadDetailID) {
		return
	}

	sessions := h.Store.Gradings(req.TeachingLoadDetailID, req.TermID, CategoryAttendance)
	if len(sessions) == 0 {
		httpx.WriteMessage(w, http.StatusNotFound, "No open attendance")
		return
	}
	open := sessions[len(sessions)-1]

	enrollment, err := h.Store.Enrollment(req.StudentID, req.TeachingLoadDetailID)
	if err != nil {
		writeStoreError(w, r, err, "Student not enrolled")
		return
	}

	_, err = h.Store.RecordScore(Score{
		GradingID:    open.ID,
		EnrollmentID: enrollment.ID,
		Score:        1,
		RecordedOn:   h.now(),
	})
	if errors.Is(err, ErrAlreadyExists) {
		httpx.WriteMessage(w, http.StatusConflict, "Attendance already recorded")
		return
	}
	if err != nil {
		writeStoreError(w, r, err, "No open attendance")
		return
	}

	httpx.WriteMessage(w, http.StatusCreated, "Attendance recorded")
}

func subjectView(s Subject) classrecord.Subject {
	return classrecord.Subject{
		ID:          s.ID,
		SubjectDesc: s.Desc,
		SubjectName: s.Name,
		Units:       s.Units,
	}
}

func attendanceView(g Grading) classrecord.AttendanceSession {
	return classrecord.AttendanceSession{
		ID:            g.ID,
		Description:   g.Description,
		NumberOfItems: g.Items,
		Date:          g.ConductedOn.Format(dateLayout),
	}
}
