package fakeapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/aussiebroadwan/classrecord/pkg/httpx"
	"github.com/aussiebroadwan/classrecord/pkg/jwtx"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	endpoints    classrecord.Endpoints
	verifier     jwtx.Verifier
	apiKey       string
	apiSecret    string
	strict       httpx.RateLimitConfig
	lenient      httpx.RateLimitConfig
	buildVersion string
	startTime    time.Time

	Auth    *AuthHandler
	Teacher *TeacherHandler
	Student *StudentHandler
	Choices *ChoicesHandler
}

// RouterConfig carries the settings NewRouter needs besides the handlers.
type RouterConfig struct {
	Endpoints    classrecord.Endpoints
	Verifier     jwtx.Verifier
	APIKey       string
	APISecret    string
	Strict       httpx.RateLimitConfig
	Lenient      httpx.RateLimitConfig
	BuildVersion string
}

func NewRouter(cfg RouterConfig, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		endpoints:    cfg.Endpoints,
		verifier:     cfg.Verifier,
		apiKey:       cfg.APIKey,
		apiSecret:    cfg.APISecret,
		strict:       cfg.Strict,
		lenient:      cfg.Lenient,
		buildVersion: cfg.BuildVersion,
		startTime:    time.Now(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTeacher()
	r.registerStudent()
	r.registerChoices()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// public guards a route with the API key pair only.
func (r *Router) public(h http.HandlerFunc, mws ...httpx.Middleware) http.Handler {
	return httpx.Chain(h, append([]httpx.Middleware{httpx.RequireAPIKeys(r.apiKey, r.apiSecret)}, mws...)...)
}

// secured adds bearer verification and a role check, then a per user limit.
func (r *Router) secured(h http.HandlerFunc, roles ...string) http.Handler {
	return r.public(h,
		httpx.Authn(r.verifier),
		httpx.RequireRole(roles...),
		httpx.RateLimitByUser(r.lenient),
	)
}

func (r *Router) registerAuth() {
	e := r.endpoints

	// Rate limited by IP + username so one account cannot be brute forced
	// from many addresses sharing a limit.
	r.Mux.Handle("POST "+e.Login, r.public(r.Auth.Login,
		httpx.RateLimitByIPAndJSONField(r.strict, "username"),
	))
	r.Mux.Handle("POST "+e.RefreshToken, r.public(r.Auth.Refresh,
		httpx.RateLimitByIP(r.strict),
	))
	r.Mux.Handle("POST "+e.RegisterStudent, r.public(r.Auth.RegisterStudent,
		httpx.RateLimitByIP(r.strict),
	))
	r.Mux.Handle("POST "+e.RegisterUsername, r.public(r.Auth.RegisterUsername,
		httpx.RateLimitByIP(r.strict),
	))
}

func (r *Router) registerTeacher() {
	e := r.endpoints
	h := r.Teacher

	r.Mux.Handle("GET "+e.TeachingLoad, r.secured(h.TeachingLoad, jwtx.RoleTeacher))
	r.Mux.Handle("GET "+e.ViewEnrolled+"/{tld}", r.secured(h.Enrolled, jwtx.RoleTeacher))
	r.Mux.Handle("GET "+e.TeacherInfo, r.secured(h.Info, jwtx.RoleTeacher))
	r.Mux.Handle("GET "+e.AttendanceList+"/{tld}/{term}", r.secured(h.AttendanceList, jwtx.RoleTeacher))
	r.Mux.Handle("POST "+e.PostAttendance, r.secured(h.PostAttendance, jwtx.RoleTeacher))
	r.Mux.Handle("POST "+e.RecordAttendance, r.secured(h.RecordAttendance, jwtx.RoleTeacher))
}

func (r *Router) registerStudent() {
	e := r.endpoints
	h := r.Student

	r.Mux.Handle("GET "+e.EnrolledSubjects, r.secured(h.Subjects, jwtx.RoleStudent))
	r.Mux.Handle("GET "+e.TermGrade+"/{tld}/{term}", r.secured(h.TermGrade, jwtx.RoleStudent))
	r.Mux.Handle("GET "+e.SemGrade+"/{tld}", r.secured(h.SemGrade, jwtx.RoleStudent))
	r.Mux.Handle("GET "+e.ScoresPerCategory+"/{tld}/{term}/{cat}", r.secured(h.Scores, jwtx.RoleStudent))
	r.Mux.Handle("POST "+e.EnrollSubject, r.secured(h.Enroll, jwtx.RoleStudent))
	r.Mux.Handle("GET "+e.StudentInfo, r.secured(h.Info, jwtx.RoleStudent))
}

func (r *Router) registerChoices() {
	e := r.endpoints
	h := r.Choices

	// Courses are listed on the registration screen, before any login.
	r.Mux.Handle("GET "+e.Courses, r.public(h.Courses, httpx.RateLimitByIP(r.lenient)))
	r.Mux.Handle("GET "+e.Semesters, r.public(h.Semesters, httpx.RateLimitByIP(r.lenient)))
	r.Mux.Handle("GET "+e.Terms, r.public(h.Terms, httpx.RateLimitByIP(r.lenient)))
	r.Mux.Handle("GET "+e.Categories, r.public(h.Categories, httpx.RateLimitByIP(r.lenient)))

	r.Mux.Handle("GET "+e.GradingComposition+"/{tld}",
		r.secured(h.GradingComposition, jwtx.RoleStudent, jwtx.RoleTeacher))
}

func (r *Router) registerSystem() {
	// Probes carry no API keys.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.lenient),
		),
	)
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// LivezHandler always answers 200 while the process is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
