package classrecord

// ============================================================================
// Auth
// ============================================================================

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by the login endpoint. Token and RefreshToken are
// persisted by Client.Login and should not be kept elsewhere.
type LoginResponse struct {
	Message      string `json:"message"`
	Username     string `json:"username"`
	FirstName    string `json:"fname"`
	LastName     string `json:"lname"`
	Role         string `json:"role"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Register starts a student registration. Gender is true for male.
type Register struct {
	FirstName  string `json:"fname"`
	MiddleName string `json:"mname"`
	LastName   string `json:"lname"`
	Email      string `json:"email"`
	Gender     bool   `json:"gender"`
	DOB        string `json:"dob"`
}

// UsernamePassword completes a registration started with Register.
type UsernamePassword struct {
	Username string `json:"username"`
	Password string `json:"password"`
	CourseID int    `json:"courseId"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterResponse acknowledges a registration. OTP is only filled in by
// servers running in dev OTP mode; otherwise the code is delivered out of band.
type RegisterResponse struct {
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
}

type RegisterUsernameResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// ============================================================================
// Teacher
// ============================================================================

type TeachingLoad struct {
	ID           int                  `json:"id"`
	SemID        int                  `json:"semId"`
	Status       bool                 `json:"status"`
	AddedOn      string               `json:"addedOn"`
	AcademicYear string               `json:"academicYear"`
	Details      []TeachingLoadDetail `json:"teachingLoadId"`
}

// TeachingLoadDetail is one class a teacher handles. Key is the enrollment
// hash students scan to join it.
type TeachingLoadDetail struct {
	ID       int     `json:"id"`
	Key      string  `json:"key"`
	Schedule string  `json:"schedule"`
	Section  string  `json:"section"`
	Subject  Subject `json:"subjects"`
}

type Subject struct {
	ID          int    `json:"id"`
	SubjectDesc string `json:"subjectDesc"`
	SubjectName string `json:"subjectName"`
	Units       int    `json:"units"`
}

type Enrolled struct {
	EnrollmentID int    `json:"enrollmentId"`
	StudentID    int    `json:"studentId"`
	Name         string `json:"name"`
	Gender       bool   `json:"gender"`
	Email        string `json:"email"`
}

type TeacherInfo struct {
	TeacherID string `json:"teacherId"`
	FirstName string `json:"fname"`
	LastName  string `json:"lname"`
	Email     string `json:"email"`
	Gender    string `json:"gender,omitempty"`
	DOB       string `json:"dob,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// AttendanceSession is one attendance taking opened by a teacher.
type AttendanceSession struct {
	ID            int    `json:"id"`
	Description   string `json:"description"`
	NumberOfItems int    `json:"numberOfItems"`
	Date          string `json:"date"`
}

type PostAttendance struct {
	TeachingLoadDetailID int `json:"teachingLoadDetailId"`
	TermID               int `json:"termId"`
}

type RecordAttendance struct {
	TeachingLoadDetailID int `json:"teachingLoadDetailId"`
	TermID               int `json:"termId"`
	StudentID            int `json:"studentId"`
}

// ============================================================================
// Student
// ============================================================================

type SubjectEnrolled struct {
	TeachingLoadDetailID int    `json:"teachingLoadDetailId"`
	SubjectDesc          string `json:"subjectDesc"`
	SubjectName          string `json:"subjectName"`
	Status               bool   `json:"status"`
	AcademicYear         string `json:"academicYear"`
	SemName              string `json:"semName"`
	Teacher              string `json:"teacher"`
	Section              string `json:"section"`
	Schedule             string `json:"schedule"`
}

type TermGrades struct {
	StudentID  int          `json:"studentId"`
	Name       string       `json:"name"`
	Scores     []ScoreSplit `json:"scores"`
	FinalGrade float64      `json:"finalGrade"`
	Remarks    string       `json:"remarks"`
}

type ScoreSplit struct {
	Quiz       float64 `json:"quiz"`
	Activity   float64 `json:"activity"`
	Exam       float64 `json:"exam"`
	Attendance float64 `json:"attendance"`
}

type SemGrades struct {
	StudentID     int           `json:"studentId"`
	StudentName   string        `json:"studentName"`
	TermGrades    TermGradePair `json:"termGrades"`
	SemesterGrade float64       `json:"semesterGrade"`
	Message       string        `json:"message"`
}

type TermGradePair struct {
	Midterm float64 `json:"Midterm"`
	Final   float64 `json:"Final"`
}

type ScoreEntry struct {
	GradingID       int     `json:"gradingId"`
	GradingDetailID int     `json:"gradingDetailId"`
	EnrollmentID    int     `json:"enrollmentId"`
	Description     *string `json:"description"`
	ConductedOn     string  `json:"conductedOn"`
	NumberOfItems   int     `json:"numberOfItems"`
	Score           float64 `json:"score"`
	RecordedOn      string  `json:"recordedOn"`
}

type EnrollmentHash struct {
	HashKey string `json:"hashKey"`
}

type StudentInfo struct {
	StudentID int    `json:"studentId"`
	FirstName string `json:"fname"`
	LastName  string `json:"lname"`
	Email     string `json:"email"`
	Course    string `json:"course,omitempty"`
	Gender    string `json:"gender,omitempty"`
	DOB       string `json:"dob,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// ============================================================================
// Choices and public
// ============================================================================

type Course struct {
	ID         string `json:"id"`
	CourseCode string `json:"courseCode"`
	CourseName string `json:"courseName"`
}

type Term struct {
	ID       int    `json:"id"`
	TermType string `json:"termType"`
}

type Semester struct {
	ID        int    `json:"id"`
	SemName   string `json:"semName"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type Category struct {
	ID           int    `json:"id"`
	CategoryName string `json:"categoryName"`
}

type GradingComposition struct {
	TeachingLoadDetailID int           `json:"teachingLoadDetailId"`
	Composition          []Composition `json:"composition"`
}

type Composition struct {
	ID         int      `json:"id"`
	Percentage float64  `json:"percentage"`
	Category   Category `json:"category"`
}
