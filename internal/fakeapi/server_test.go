package fakeapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/aussiebroadwan/classrecord/pkg/httpx"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		APIKey:               "test-key",
		APISecret:            "test-secret",
		Issuer:               "classrecord-test",
		AccessTTL:            time.Minute,
		RefreshTTL:           time.Hour,
		OTPTTL:               5 * time.Minute,
		OTPReturnToClient:    true,
		RateLimitStrict:      1000,
		RateLimitLenient:     1000,
		HousekeepingInterval: time.Hour,
		ShutdownGracePeriod:  time.Second,
	}
}

type apiHarness struct {
	t   *testing.T
	app *Application
	e   classrecord.Endpoints
}

func newAPI(t *testing.T) *apiHarness {
	t.Helper()
	app, err := New(testConfig(), WithLogger(slogx.Discard()))
	require.NoError(t, err)
	return &apiHarness{t: t, app: app, e: classrecord.DefaultEndpoints()}
}

// call sends a request with the API key pair and an optional bearer token.
func (h *apiHarness) call(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpx.HeaderAPIKey, "test-key")
	req.Header.Set(httpx.HeaderSecretKey, "test-secret")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.app.Handler().ServeHTTP(rec, req)
	return rec
}

func (h *apiHarness) login(username, password string) classrecord.LoginResponse {
	h.t.Helper()
	rec := h.call(http.MethodPost, h.e.Login, "", classrecord.LoginRequest{Username: username, Password: password})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())

	var out classrecord.LoginResponse
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAPI_RequiresAPIKeys(t *testing.T) {
	h := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, h.e.Courses, nil)
	req.Header.Set(httpx.HeaderAPIKey, "test-key")
	req.Header.Set(httpx.HeaderSecretKey, "wrong")
	rec := httptest.NewRecorder()
	h.app.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"message":"Invalid API credentials"}`, rec.Body.String())
}

func TestAPI_Livez(t *testing.T) {
	h := newAPI(t)

	rec := httptest.NewRecorder()
	h.app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(slogx.RequestIDHeader))
}

func TestAPI_Login(t *testing.T) {
	h := newAPI(t)

	out := h.login(SeedTeacherUsername, SeedTeacherPassword)
	require.Equal(t, "teacher", out.Role)
	require.Equal(t, "Maria", out.FirstName)
	require.NotEmpty(t, out.Token)
	require.NotEmpty(t, out.RefreshToken)

	rec := h.call(http.MethodPost, h.e.Login, "", classrecord.LoginRequest{Username: SeedTeacherUsername, Password: "bad"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid username or password", decode[classrecord.MessageResponse](t, rec).Message)
}

func TestAPI_Refresh(t *testing.T) {
	h := newAPI(t)
	session := h.login(SeedStudentUsername, SeedStudentPassword)

	rec := h.call(http.MethodPost, h.e.RefreshToken, "", map[string]string{"refreshToken": session.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[refreshResponse](t, rec)
	require.NotEmpty(t, out.AccessToken)
	require.NotEmpty(t, out.RefreshToken)

	rec = h.call(http.MethodPost, h.e.RefreshToken, "", map[string]string{"refreshToken": session.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.call(http.MethodGet, h.e.StudentInfo, out.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_BearerFailuresAre403(t *testing.T) {
	h := newAPI(t)
	student := h.login(SeedStudentUsername, SeedStudentPassword)

	tests := []struct {
		name  string
		path  string
		token string
		want  string
	}{
		{"missing", h.e.TeacherInfo, "", "Missing bearer token"},
		{"garbage", h.e.TeacherInfo, "not.a.jwt", "Invalid token"},
		{"wrong role", h.e.TeacherInfo, student.Token, "Forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.call(http.MethodGet, tt.path, tt.token, nil)
			require.Equal(t, http.StatusForbidden, rec.Code)
			require.Equal(t, tt.want, decode[classrecord.MessageResponse](t, rec).Message)
		})
	}
}

func TestAPI_ExpiredTokenIs403(t *testing.T) {
	h := newAPI(t)
	now := time.Now()
	h.app.tokens.Now = func() time.Time { return now }

	session := h.login(SeedStudentUsername, SeedStudentPassword)
	now = now.Add(2 * time.Minute)

	rec := h.call(http.MethodGet, h.e.StudentInfo, session.Token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Token expired", decode[classrecord.MessageResponse](t, rec).Message)
}

func TestAPI_Teacher(t *testing.T) {
	h := newAPI(t)
	token := h.login(SeedTeacherUsername, SeedTeacherPassword).Token

	t.Run("teaching load", func(t *testing.T) {
		rec := h.call(http.MethodGet, h.e.TeachingLoad, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		loads := decode[[]classrecord.TeachingLoad](t, rec)
		require.Len(t, loads, 1)
		require.Len(t, loads[0].Details, 2)
		require.Equal(t, SeedOpenClassKey, loads[0].Details[1].Key)
		require.Equal(t, "CS 102", loads[0].Details[1].Subject.SubjectName)
	})

	t.Run("roster", func(t *testing.T) {
		rec := h.call(http.MethodGet, h.e.ViewEnrolled+"/10", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		roster := decode[[]classrecord.Enrolled](t, rec)
		require.Len(t, roster, 1)
		require.Equal(t, SeedStudentID, roster[0].StudentID)
		require.Equal(t, "Juan Dela Cruz", roster[0].Name)

		rec = h.call(http.MethodGet, h.e.ViewEnrolled+"/999", token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("info", func(t *testing.T) {
		rec := h.call(http.MethodGet, h.e.TeacherInfo, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, SeedTeacherID, decode[classrecord.TeacherInfo](t, rec).TeacherID)
	})
}

func TestAPI_Attendance(t *testing.T) {
	h := newAPI(t)
	token := h.login(SeedTeacherUsername, SeedTeacherPassword).Token
	record := classrecord.RecordAttendance{TeachingLoadDetailID: SeedEnrolledClass, TermID: TermMidterm, StudentID: SeedStudentID}

	rec := h.call(http.MethodPost, h.e.RecordAttendance, token, record)
	require.Equal(t, http.StatusNotFound, rec.Code, "nothing open yet")

	rec = h.call(http.MethodPost, h.e.PostAttendance, token,
		classrecord.PostAttendance{TeachingLoadDetailID: SeedEnrolledClass, TermID: TermMidterm})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.call(http.MethodPost, h.e.RecordAttendance, token, record)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.call(http.MethodPost, h.e.RecordAttendance, token, record)
	require.Equal(t, http.StatusConflict, rec.Code)

	stranger := record
	stranger.StudentID = 42
	rec = h.call(http.MethodPost, h.e.RecordAttendance, token, stranger)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Student not enrolled", decode[classrecord.MessageResponse](t, rec).Message)

	rec = h.call(http.MethodGet, h.e.AttendanceList+"/10/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sessions := decode[[]classrecord.AttendanceSession](t, rec)
	require.Len(t, sessions, 1)
	require.Equal(t, 1, sessions[0].NumberOfItems)
}

func TestAPI_Student(t *testing.T) {
	h := newAPI(t)
	token := h.login(SeedStudentUsername, SeedStudentPassword).Token

	t.Run("subjects", func(t *testing.T) {
		rec := h.call(http.MethodGet, h.e.EnrolledSubjects, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		subjects := decode[[]classrecord.SubjectEnrolled](t, rec)
		require.Len(t, subjects, 1)
		require.Equal(t, SeedEnrolledClass, subjects[0].TeachingLoadDetailID)
		require.Equal(t, "Maria Santos", subjects[0].Teacher)
		require.Equal(t, "First Semester", subjects[0].SemName)
	})

	t.Run("term grade", func(t *testing.T) {
		rec := h.call(http.MethodGet, h.e.TermGrade+"/10/1", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		grades := decode[classrecord.TermGrades](t, rec)
		require.Equal(t, 83.85, grades.FinalGrade)
		require.Equal(t, "Passed", grades.Remarks)
		require.Equal(t, 90.0, grades.Scores[0].Quiz)

		rec = h.call(http.MethodGet, h.e.TermGrade+"/11/1", token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code, "not enrolled")
	})

	t.Run("sem grade", func(t *testing.T) {
		rec := h.call(http.MethodGet, h.e.SemGrade+"/10", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		grades := decode[classrecord.SemGrades](t, rec)
		require.Equal(t, 83.85, grades.TermGrades.Midterm)
		require.Equal(t, 83.85, grades.SemesterGrade)
	})

	t.Run("scores", func(t *testing.T) {
		rec := h.call(http.MethodGet, h.e.ScoresPerCategory+"/10/1/1", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		scores := decode[[]classrecord.ScoreEntry](t, rec)
		require.Len(t, scores, 1)
		require.Equal(t, 18.0, scores[0].Score)
		require.Equal(t, 20, scores[0].NumberOfItems)
		require.Equal(t, "Quiz 1", *scores[0].Description)
	})

	t.Run("enroll", func(t *testing.T) {
		rec := h.call(http.MethodPost, h.e.EnrollSubject, token, classrecord.EnrollmentHash{HashKey: "nope"})
		require.Equal(t, http.StatusNotFound, rec.Code)

		rec = h.call(http.MethodPost, h.e.EnrollSubject, token, classrecord.EnrollmentHash{HashKey: SeedOpenClassKey})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = h.call(http.MethodPost, h.e.EnrollSubject, token, classrecord.EnrollmentHash{HashKey: SeedOpenClassKey})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("info", func(t *testing.T) {
		rec := h.call(http.MethodGet, h.e.StudentInfo, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		info := decode[classrecord.StudentInfo](t, rec)
		require.Equal(t, SeedStudentID, info.StudentID)
		require.Equal(t, "BSCS", info.Course)
	})
}

func TestAPI_Choices(t *testing.T) {
	h := newAPI(t)

	rec := h.call(http.MethodGet, h.e.Courses, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]classrecord.Course](t, rec), 2)

	rec = h.call(http.MethodGet, h.e.Categories, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]classrecord.Category](t, rec), 4)

	rec = h.call(http.MethodGet, h.e.GradingComposition+"/10", "", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	token := h.login(SeedStudentUsername, SeedStudentPassword).Token
	rec = h.call(http.MethodGet, h.e.GradingComposition+"/10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	comp := decode[classrecord.GradingComposition](t, rec)
	require.Len(t, comp.Composition, 4)
	var total float64
	for _, c := range comp.Composition {
		total += c.Percentage
	}
	require.Equal(t, 100.0, total)
}

func TestAPI_Registration(t *testing.T) {
	h := newAPI(t)

	rec := h.call(http.MethodPost, h.e.RegisterStudent, "", classrecord.Register{
		FirstName: "Ana", LastName: "Reyes", Email: "ana@example.edu",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	otp := decode[classrecord.RegisterResponse](t, rec).OTP
	require.Len(t, otp, 6)

	creds := classrecord.UsernamePassword{Username: "ana", Password: "long-enough", CourseID: 1}

	rec = h.call(http.MethodPost, h.e.RegisterUsername, "", creds)
	require.Equal(t, http.StatusBadRequest, rec.Code, "missing otp")

	rec = h.call(http.MethodPost, h.e.RegisterUsername+"?otp="+otp, "", creds)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "ana", decode[classrecord.RegisterUsernameResponse](t, rec).Username)

	out := h.login("ana", "long-enough")
	require.Equal(t, "student", out.Role)
}

func TestAPI_RegistrationHidesOTPByDefault(t *testing.T) {
	cfg := testConfig()
	cfg.OTPReturnToClient = false
	app, err := New(cfg, WithLogger(slogx.Discard()))
	require.NoError(t, err)
	h := &apiHarness{t: t, app: app, e: classrecord.DefaultEndpoints()}

	rec := h.call(http.MethodPost, h.e.RegisterStudent, "", classrecord.Register{
		FirstName: "Ana", LastName: "Reyes", Email: "ana@example.edu",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Empty(t, decode[classrecord.RegisterResponse](t, rec).OTP)
}

func TestAPI_LoginRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitStrict = 2
	app, err := New(cfg, WithLogger(slogx.Discard()))
	require.NoError(t, err)
	h := &apiHarness{t: t, app: app, e: classrecord.DefaultEndpoints()}

	body := classrecord.LoginRequest{Username: SeedStudentUsername, Password: "bad"}
	require.Equal(t, http.StatusUnauthorized, h.call(http.MethodPost, h.e.Login, "", body).Code)
	require.Equal(t, http.StatusUnauthorized, h.call(http.MethodPost, h.e.Login, "", body).Code)
	require.Equal(t, http.StatusTooManyRequests, h.call(http.MethodPost, h.e.Login, "", body).Code)
}

func TestHousekeeping_Cleanup(t *testing.T) {
	s := seededStore(t)
	now := time.Now()
	s.CreateRefreshToken(RefreshToken{Hash: "a", ExpiresAt: now.Add(-time.Second)})
	s.CreateRefreshToken(RefreshToken{Hash: "b", ExpiresAt: now.Add(time.Hour)})
	s.CreatePending(PendingRegistration{ID: "p", ExpiresAt: now.Add(-time.Second)})

	NewHousekeeping(s, slogx.Discard(), 0).Cleanup(now)

	require.Equal(t, 0, s.PurgeRefreshTokens(now))
	require.Equal(t, 0, s.PurgePending(now))
	require.Len(t, s.refreshTokens, 1)
}
