package classrecord

// Endpoints holds the URL fragment of every API operation. Fragments are
// appended to Config.BaseURL; path parameters follow as /{id} segments.
type Endpoints struct {
	// Auth
	Login            string
	RegisterStudent  string
	RegisterUsername string
	RefreshToken     string

	// Teacher
	TeachingLoad     string
	ViewEnrolled     string
	AttendanceList   string
	TeacherInfo      string
	PostAttendance   string
	RecordAttendance string

	// Student
	TermGrade         string
	SemGrade          string
	EnrolledSubjects  string
	ScoresPerCategory string
	StudentInfo       string
	EnrollSubject     string

	// Public
	GradingComposition string

	// Choices
	Semesters  string
	Courses    string
	Terms      string
	Categories string
}

// DefaultEndpoints returns the routes served by the bundled dev API.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:            "/api/auth/login",
		RegisterStudent:  "/api/auth/register-student",
		RegisterUsername: "/api/auth/register-username",
		RefreshToken:     "/api/auth/refresh",

		TeachingLoad:     "/api/teacher/teaching-load",
		ViewEnrolled:     "/api/teacher/enrolled",
		AttendanceList:   "/api/teacher/attendance",
		TeacherInfo:      "/api/teacher/info",
		PostAttendance:   "/api/teacher/attendance",
		RecordAttendance: "/api/teacher/attendance/record",

		TermGrade:         "/api/student/term-grade",
		SemGrade:          "/api/student/sem-grade",
		EnrolledSubjects:  "/api/student/subjects",
		ScoresPerCategory: "/api/student/scores",
		StudentInfo:       "/api/student/info",
		EnrollSubject:     "/api/student/enroll",

		GradingComposition: "/api/public/grading-composition",

		Semesters:  "/api/choices/semesters",
		Courses:    "/api/choices/courses",
		Terms:      "/api/choices/terms",
		Categories: "/api/choices/categories",
	}
}
