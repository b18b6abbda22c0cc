package classrecord_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/classrecord/internal/fakeapi"
	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/aussiebroadwan/classrecord/pkg/credstore"
	"github.com/aussiebroadwan/classrecord/pkg/jwtx"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type integration struct {
	client  *classrecord.Client
	sess    *credstore.Session
	expired *atomic.Int32
	now     *time.Time
}

func startIntegration(t *testing.T) *integration {
	t.Helper()

	app, err := fakeapi.New(fakeapi.Config{
		APIKey:               "it-key",
		APISecret:            "it-secret",
		Issuer:               "classrecord-it",
		AccessTTL:            15 * time.Minute,
		RefreshTTL:           time.Hour,
		OTPTTL:               5 * time.Minute,
		OTPReturnToClient:    true,
		RateLimitStrict:      1000,
		RateLimitLenient:     1000,
		HousekeepingInterval: time.Hour,
		ShutdownGracePeriod:  time.Second,
	}, fakeapi.WithLogger(slogx.Discard()))
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)

	sess := credstore.NewSession(credstore.New(credstore.NewMemoryBackend(), []byte("integration-secret")))
	now := time.Now()
	var expired atomic.Int32

	client := classrecord.New(classrecord.Config{
		BaseURL:   srv.URL + "/",
		APIKey:    "it-key",
		SecretKey: "it-secret",
		Endpoints: classrecord.DefaultEndpoints(),
	}, sess,
		classrecord.WithLogger(slogx.Discard()),
		classrecord.WithClock(func() time.Time { return now }),
		classrecord.WithSessionExpiredHook(func(context.Context) { expired.Add(1) }),
	)

	return &integration{client: client, sess: sess, expired: &expired, now: &now}
}

func TestIntegration_TeacherAttendance(t *testing.T) {
	ctx := context.Background()
	it := startIntegration(t)

	login, err := it.client.Login(ctx, fakeapi.SeedTeacherUsername, fakeapi.SeedTeacherPassword)
	require.NoError(t, err)
	require.Equal(t, classrecord.DestinationTeacherDashboard, classrecord.RoleToDestination(login.Role))
	require.Equal(t, jwtx.RoleTeacher, it.client.Role(ctx))

	profile, ok := it.client.Profile(ctx)
	require.True(t, ok)
	require.Equal(t, fakeapi.SeedTeacherUsername, profile.Username)

	loads, err := it.client.GetTeachingLoad(ctx)
	require.NoError(t, err)
	require.Len(t, loads, 1)

	_, err = it.client.PostAttendance(ctx, classrecord.PostAttendance{
		TeachingLoadDetailID: fakeapi.SeedEnrolledClass,
		TermID:               fakeapi.TermMidterm,
	})
	require.NoError(t, err)

	record := classrecord.RecordAttendance{
		TeachingLoadDetailID: fakeapi.SeedEnrolledClass,
		TermID:               fakeapi.TermMidterm,
		StudentID:            fakeapi.SeedStudentID,
	}
	_, err = it.client.RecordAttendance(ctx, record)
	require.NoError(t, err)

	_, err = it.client.RecordAttendance(ctx, record)
	var apiErr *classrecord.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 409, apiErr.StatusCode)
	require.Equal(t, "Attendance already recorded", apiErr.Message)

	sessions, err := it.client.GetAttendance(ctx, fakeapi.SeedEnrolledClass, fakeapi.TermMidterm)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}

func TestIntegration_StudentRegistrationAndEnroll(t *testing.T) {
	ctx := context.Background()
	it := startIntegration(t)

	courses, err := it.client.GetCourses(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, courses)

	reg, err := it.client.RegisterStudent(ctx, classrecord.Register{
		FirstName: "Ana",
		LastName:  "Reyes",
		Email:     "ana.reyes@example.edu",
		DOB:       "2004-02-02",
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.OTP)

	_, err = it.client.RegisterStudentUsername(ctx, reg.OTP, classrecord.UsernamePassword{
		Username: "ana",
		Password: "long-enough",
		CourseID: 2,
	})
	require.NoError(t, err)

	_, err = it.client.Login(ctx, "ana", "long-enough")
	require.NoError(t, err)
	require.Equal(t, classrecord.DestinationStudentDashboard, classrecord.RoleToDestination(it.client.Role(ctx)))

	_, err = it.client.EnrollSubject(ctx, fakeapi.SeedOpenClassKey)
	require.NoError(t, err)

	subjects, err := it.client.GetSubjectsEnrolled(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	require.Equal(t, fakeapi.SeedOpenClass, subjects[0].TeachingLoadDetailID)

	info, err := it.client.GetStudentInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, "BSIT", info.Course)
}

func TestIntegration_StudentGrades(t *testing.T) {
	ctx := context.Background()
	it := startIntegration(t)

	_, err := it.client.Login(ctx, fakeapi.SeedStudentUsername, fakeapi.SeedStudentPassword)
	require.NoError(t, err)

	term, err := it.client.GetSubjectTermGrades(ctx, fakeapi.SeedEnrolledClass, fakeapi.TermMidterm)
	require.NoError(t, err)
	require.Equal(t, "Passed", term.Remarks)

	sem, err := it.client.GetSubjectSemGrades(ctx, fakeapi.SeedEnrolledClass)
	require.NoError(t, err)
	require.Equal(t, term.FinalGrade, sem.TermGrades.Midterm)

	scores, err := it.client.GetScoresPerCategory(ctx, fakeapi.SeedEnrolledClass, fakeapi.TermMidterm, fakeapi.CategoryExam)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	comp, err := it.client.GetGradingComposition(ctx, fakeapi.SeedEnrolledClass)
	require.NoError(t, err)
	require.Len(t, comp.Composition, 4)
}

func TestIntegration_ExpiredTokenRefreshesBeforeDispatch(t *testing.T) {
	ctx := context.Background()
	it := startIntegration(t)

	_, err := it.client.Login(ctx, fakeapi.SeedStudentUsername, fakeapi.SeedStudentPassword)
	require.NoError(t, err)
	before, _ := it.sess.AccessToken(ctx)
	beforeRefresh, _ := it.sess.RefreshToken(ctx)

	// Inside the expiry buffer from the client's point of view only.
	*it.now = it.now.Add(15*time.Minute - 5*time.Second)

	_, err = it.client.GetStudentInfo(ctx)
	require.NoError(t, err)

	after, _ := it.sess.AccessToken(ctx)
	afterRefresh, _ := it.sess.RefreshToken(ctx)
	require.NotEqual(t, before, after)
	require.NotEqual(t, beforeRefresh, afterRefresh, "server rotates refresh tokens")
	require.Zero(t, it.expired.Load())
}

func TestIntegration_RejectedTokenRetriesOnce(t *testing.T) {
	ctx := context.Background()
	it := startIntegration(t)

	_, err := it.client.Login(ctx, fakeapi.SeedStudentUsername, fakeapi.SeedStudentPassword)
	require.NoError(t, err)

	// Unexpired but signed by someone else: only the server can tell.
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Role:             jwtx.RoleStudent,
	}).SignedString([]byte("not-the-server-key"))
	require.NoError(t, err)
	refresh, _ := it.sess.RefreshToken(ctx)
	require.NoError(t, it.sess.SetTokens(ctx, forged, refresh))

	info, err := it.client.GetStudentInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, fakeapi.SeedStudentID, info.StudentID)

	access, _ := it.sess.AccessToken(ctx)
	require.NotEqual(t, forged, access)
}

func TestIntegration_RefreshFailureEndsSession(t *testing.T) {
	ctx := context.Background()
	it := startIntegration(t)

	_, err := it.client.Login(ctx, fakeapi.SeedStudentUsername, fakeapi.SeedStudentPassword)
	require.NoError(t, err)
	access, _ := it.sess.AccessToken(ctx)
	require.NoError(t, it.sess.SetTokens(ctx, access, "revoked-or-unknown"))

	*it.now = it.now.Add(time.Hour)

	_, err = it.client.GetStudentInfo(ctx)
	require.True(t, classrecord.IsSessionExpired(err))
	require.True(t, errors.Is(err, classrecord.ErrSessionExpired))
	require.EqualValues(t, 1, it.expired.Load())

	require.False(t, it.client.LoggedIn(ctx))
	_, ok := it.client.Profile(ctx)
	require.False(t, ok)
}
