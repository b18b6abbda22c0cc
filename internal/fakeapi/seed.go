package fakeapi

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/cryptox"
	"github.com/aussiebroadwan/classrecord/pkg/idx"
	"github.com/aussiebroadwan/classrecord/pkg/jwtx"
)

// Seeded accounts and classes. Tests and local runs log in with these.
const (
	SeedTeacherUsername = "teacher"
	SeedTeacherPassword = "teacher-pass"
	SeedTeacherID       = "T-0001"

	SeedStudentUsername = "student"
	SeedStudentPassword = "student-pass"
	SeedStudentID       = 2021001

	// SeedEnrolledClass has the seeded student on its roster.
	SeedEnrolledClass = 10
	// SeedOpenClass is open for enrollment with SeedOpenClassKey.
	SeedOpenClass    = 11
	SeedOpenClassKey = "CR-OPEN-7F3A9C"
)

// Seed fills s with one teacher, one student, a teaching load of two
// classes and the choice lists.
func Seed(s *Store, now time.Time) error {
	teacherHash, err := cryptox.HashPassword(SeedTeacherPassword)
	if err != nil {
		return fmt.Errorf("seed: hash teacher password: %w", err)
	}
	studentHash, err := cryptox.HashPassword(SeedStudentPassword)
	if err != nil {
		return fmt.Errorf("seed: hash student password: %w", err)
	}

	s.mu.Lock()
	s.courses = []Course{
		{ID: 1, Code: "BSCS", Name: "Bachelor of Science in Computer Science"},
		{ID: 2, Code: "BSIT", Name: "Bachelor of Science in Information Technology"},
	}
	s.semesters = []Semester{
		{ID: 1, Name: "First Semester", CreatedAt: now},
		{ID: 2, Name: "Second Semester", CreatedAt: now},
	}
	s.terms = []Term{
		{ID: TermMidterm, Type: "Midterm"},
		{ID: TermFinal, Type: "Final"},
	}
	s.categories = []Category{
		{ID: CategoryQuiz, Name: "Quiz"},
		{ID: CategoryActivity, Name: "Activity"},
		{ID: CategoryExam, Name: "Exam"},
		{ID: CategoryAttendance, Name: "Attendance"},
	}
	s.subjects[1] = Subject{ID: 1, Name: "CS 101", Desc: "Introduction to Computing", Units: 3}
	s.subjects[2] = Subject{ID: 2, Name: "CS 102", Desc: "Computer Programming 1", Units: 3}

	s.loads[1] = &TeachingLoad{
		ID:           1,
		TeacherID:    SeedTeacherID,
		SemID:        1,
		Status:       true,
		AddedOn:      now,
		AcademicYear: fmt.Sprintf("%d-%d", now.Year(), now.Year()+1),
	}
	s.details[SeedEnrolledClass] = &LoadDetail{
		ID: SeedEnrolledClass, LoadID: 1, SubjectID: 1,
		Key: "CR-ENROLLED-1B2C3D", Schedule: "MWF 08:00-09:00", Section: "A",
	}
	s.details[SeedOpenClass] = &LoadDetail{
		ID: SeedOpenClass, LoadID: 1, SubjectID: 2,
		Key: SeedOpenClassKey, Schedule: "TTh 10:00-11:30", Section: "B",
	}
	for _, detailID := range []int{SeedEnrolledClass, SeedOpenClass} {
		s.weights[detailID] = []Weight{
			{ID: detailID*10 + 1, CategoryID: CategoryQuiz, Percentage: 25},
			{ID: detailID*10 + 2, CategoryID: CategoryActivity, Percentage: 25},
			{ID: detailID*10 + 3, CategoryID: CategoryExam, Percentage: 40},
			{ID: detailID*10 + 4, CategoryID: CategoryAttendance, Percentage: 10},
		}
	}
	s.mu.Unlock()

	if _, err := s.CreateUser(User{
		Subject:      idx.New().String(),
		Username:     SeedTeacherUsername,
		PasswordHash: teacherHash,
		Role:         jwtx.RoleTeacher,
		FirstName:    "Maria",
		LastName:     "Santos",
		Email:        "maria.santos@example.edu",
		DOB:          "1985-03-14",
		TeacherID:    SeedTeacherID,
	}); err != nil {
		return fmt.Errorf("seed: teacher: %w", err)
	}
	if _, err := s.CreateUser(User{
		Subject:      idx.New().String(),
		Username:     SeedStudentUsername,
		PasswordHash: studentHash,
		Role:         jwtx.RoleStudent,
		FirstName:    "Juan",
		LastName:     "Dela Cruz",
		Email:        "juan.delacruz@example.edu",
		Gender:       true,
		DOB:          "2003-07-21",
		StudentID:    SeedStudentID,
		CourseID:     1,
	}); err != nil {
		return fmt.Errorf("seed: student: %w", err)
	}
	s.mu.Lock()
	if s.nextStudentID <= SeedStudentID {
		s.nextStudentID = SeedStudentID + 1
	}
	s.mu.Unlock()

	enrollment, err := s.Enroll(SeedStudentID, SeedEnrolledClass)
	if err != nil {
		return fmt.Errorf("seed: enrollment: %w", err)
	}

	quiz := s.CreateGrading(Grading{
		DetailID: SeedEnrolledClass, TermID: TermMidterm, CategoryID: CategoryQuiz,
		Description: "Quiz 1", Items: 20, ConductedOn: now,
	})
	exam := s.CreateGrading(Grading{
		DetailID: SeedEnrolledClass, TermID: TermMidterm, CategoryID: CategoryExam,
		Description: "Midterm Exam", Items: 50, ConductedOn: now,
	})
	for _, sc := range []Score{
		{GradingID: quiz.ID, EnrollmentID: enrollment.ID, Score: 18, RecordedOn: now},
		{GradingID: exam.ID, EnrollmentID: enrollment.ID, Score: 40, RecordedOn: now},
	} {
		if _, err := s.RecordScore(sc); err != nil {
			return fmt.Errorf("seed: score: %w", err)
		}
	}

	return nil
}
