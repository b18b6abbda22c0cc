package fakeapi

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("fakeapi: not found")
	ErrAlreadyExists = errors.New("fakeapi: already exists")
	ErrNotEnrolled   = errors.New("fakeapi: student not enrolled")
)

// Category ids. Attendance is graded like any other category, one item per
// session.
const (
	CategoryQuiz       = 1
	CategoryActivity   = 2
	CategoryExam       = 3
	CategoryAttendance = 4
)

// Term ids.
const (
	TermMidterm = 1
	TermFinal   = 2
)

// PassingGrade is the lowest final grade remarked as passed.
const PassingGrade = 75.0

// User is an account that can log in. Exactly one of StudentID or TeacherID
// is set, matching Role.
type User struct {
	Subject      string
	Username     string
	PasswordHash string
	Role         string

	FirstName string
	LastName  string
	Email     string
	Gender    bool
	DOB       string

	StudentID int
	CourseID  int
	TeacherID string
}

func (u User) FullName() string { return u.FirstName + " " + u.LastName }

func (u User) GenderLabel() string {
	if u.Gender {
		return "Male"
	}
	return "Female"
}

type Course struct {
	ID   int
	Code string
	Name string
}

type Subject struct {
	ID    int
	Name  string
	Desc  string
	Units int
}

type TeachingLoad struct {
	ID           int
	TeacherID    string
	SemID        int
	Status       bool
	AddedOn      time.Time
	AcademicYear string
}

// LoadDetail is one class within a teaching load. Key is its enrollment hash.
type LoadDetail struct {
	ID        int
	LoadID    int
	SubjectID int
	Key       string
	Schedule  string
	Section   string
}

type Enrollment struct {
	ID        int
	StudentID int
	DetailID  int
}

// Grading is one scored activity (quiz, exam, attendance session, ...) of a
// class in a term.
type Grading struct {
	ID          int
	DetailID    int
	TermID      int
	CategoryID  int
	Description string
	Items       int
	ConductedOn time.Time
}

type Score struct {
	ID           int
	GradingID    int
	EnrollmentID int
	Score        float64
	RecordedOn   time.Time
}

// RefreshToken is stored by fingerprint only.
type RefreshToken struct {
	Hash      string
	Subject   string
	ExpiresAt time.Time
	Revoked   bool
}

// PendingRegistration waits for its OTP before a username can be attached.
type PendingRegistration struct {
	ID         string
	FirstName  string
	MiddleName string
	LastName   string
	Email      string
	Gender     bool
	DOB        string
	OTPSecret  string
	ExpiresAt  time.Time
}

type Semester struct {
	ID        int
	Name      string
	CreatedAt time.Time
}

type Term struct {
	ID   int
	Type string
}

type Category struct {
	ID   int
	Name string
}

// Weight is a category's share of a class's term grade, in percent.
type Weight struct {
	ID         int
	CategoryID int
	Percentage float64
}
