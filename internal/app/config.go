package app

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/spf13/viper"
)

// Store modes.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds the client configuration loaded from the environment.
type Config struct {
	// APIKey and APISecret are sent as API_KEY and SECRET_KEY on every call.
	APIKey    string `mapstructure:"API_KEY"`
	APISecret string `mapstructure:"API_SECRET"`
	// BaseEndpoint is the API origin, e.g. http://localhost:8080.
	BaseEndpoint string `mapstructure:"BASE_ENDPOINT"`

	EndpointLogin              string `mapstructure:"ENDPOINT_LOGIN"`
	EndpointRegisterStudent    string `mapstructure:"ENDPOINT_REGISTER_STUDENT"`
	EndpointRegisterUsername   string `mapstructure:"ENDPOINT_REGISTER_USERNAME"`
	EndpointRefreshToken       string `mapstructure:"ENDPOINT_REFRESH_TOKEN"`
	EndpointTeachingLoad       string `mapstructure:"ENDPOINT_TEACHING_LOAD"`
	EndpointViewEnrolled       string `mapstructure:"ENDPOINT_VIEW_ENROLLED"`
	EndpointAttendanceList     string `mapstructure:"ENDPOINT_ATTENDANCE_LIST"`
	EndpointTeacherInfo        string `mapstructure:"ENDPOINT_TEACHER_INFO"`
	EndpointPostAttendance     string `mapstructure:"ENDPOINT_POST_ATTENDANCE"`
	EndpointRecordAttendance   string `mapstructure:"ENDPOINT_RECORD_ATTENDANCE"`
	EndpointTermGrade          string `mapstructure:"ENDPOINT_TERM_GRADE"`
	EndpointSemGrade           string `mapstructure:"ENDPOINT_SEM_GRADE"`
	EndpointEnrolledSubjects   string `mapstructure:"ENDPOINT_ENROLLED_SUBJECTS"`
	EndpointScoresPerCategory  string `mapstructure:"ENDPOINT_SCORES_PER_CATEGORY"`
	EndpointStudentInfo        string `mapstructure:"ENDPOINT_STUDENT_INFO"`
	EndpointEnrollSubject      string `mapstructure:"ENDPOINT_ENROLL_SUBJECT"`
	EndpointGradingComposition string `mapstructure:"ENDPOINT_GRADING_COMPOSITION"`
	EndpointSemesters          string `mapstructure:"ENDPOINT_SEMESTERS"`
	EndpointCourses            string `mapstructure:"ENDPOINT_COURSES"`
	EndpointTerms              string `mapstructure:"ENDPOINT_TERMS"`
	EndpointCategories         string `mapstructure:"ENDPOINT_CATEGORIES"`

	// StoreMode is "sqlite" (sessions survive restarts) or "memory".
	StoreMode string `mapstructure:"STORE_MODE"`
	// StoreFile is the SQLite credential database.
	StoreFile string `mapstructure:"STORE_FILE"`
	// DeviceSecretFile holds the per device secret the integrity key is
	// derived from. Created on first run.
	DeviceSecretFile string `mapstructure:"DEVICE_SECRET_FILE"`

	// ExpiryBuffer treats tokens expiring within it as already expired.
	ExpiryBuffer time.Duration `mapstructure:"EXPIRY_BUFFER"`
	// ScanSettleDelay is how long a decoded code must stay stable before the
	// scanner acts on it.
	ScanSettleDelay time.Duration `mapstructure:"SCAN_SETTLE_DELAY"`
	HTTPTimeout     time.Duration `mapstructure:"HTTP_TIMEOUT"`

	Env       string `mapstructure:"ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// LoadConfig reads .env (if present), then the environment. Env vars
// override .env.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Defaults returns the default value of every configuration key. Endpoint
// defaults match the bundled dev API.
func Defaults() map[string]any {
	dir := dataDir()
	e := classrecord.DefaultEndpoints()

	return map[string]any{
		"API_KEY":       "dev-api-key",
		"API_SECRET":    "dev-api-secret",
		"BASE_ENDPOINT": "http://localhost:8080",

		"ENDPOINT_LOGIN":               e.Login,
		"ENDPOINT_REGISTER_STUDENT":    e.RegisterStudent,
		"ENDPOINT_REGISTER_USERNAME":   e.RegisterUsername,
		"ENDPOINT_REFRESH_TOKEN":       e.RefreshToken,
		"ENDPOINT_TEACHING_LOAD":       e.TeachingLoad,
		"ENDPOINT_VIEW_ENROLLED":       e.ViewEnrolled,
		"ENDPOINT_ATTENDANCE_LIST":     e.AttendanceList,
		"ENDPOINT_TEACHER_INFO":        e.TeacherInfo,
		"ENDPOINT_POST_ATTENDANCE":     e.PostAttendance,
		"ENDPOINT_RECORD_ATTENDANCE":   e.RecordAttendance,
		"ENDPOINT_TERM_GRADE":          e.TermGrade,
		"ENDPOINT_SEM_GRADE":           e.SemGrade,
		"ENDPOINT_ENROLLED_SUBJECTS":   e.EnrolledSubjects,
		"ENDPOINT_SCORES_PER_CATEGORY": e.ScoresPerCategory,
		"ENDPOINT_STUDENT_INFO":        e.StudentInfo,
		"ENDPOINT_ENROLL_SUBJECT":      e.EnrollSubject,
		"ENDPOINT_GRADING_COMPOSITION": e.GradingComposition,
		"ENDPOINT_SEMESTERS":           e.Semesters,
		"ENDPOINT_COURSES":             e.Courses,
		"ENDPOINT_TERMS":               e.Terms,
		"ENDPOINT_CATEGORIES":          e.Categories,

		"STORE_MODE":         StoreSQLite,
		"STORE_FILE":         filepath.Join(dir, "credentials.db"),
		"DEVICE_SECRET_FILE": filepath.Join(dir, "device.secret"),

		"EXPIRY_BUFFER":     classrecord.DefaultExpiryBuffer.String(),
		"SCAN_SETTLE_DELAY": "0s",
		"HTTP_TIMEOUT":      classrecord.DefaultHTTPTimeout.String(),

		"ENV":        "dev",
		"LOG_LEVEL":  "info",
		"LOG_FORMAT": "text",
	}
}

// dataDir is where credentials live by default: the user config dir, or
// the working directory when there is none.
func dataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".classrecord"
	}
	return filepath.Join(base, "classrecord")
}

func (c *Config) Validate() error {
	if c.APIKey == "" || c.APISecret == "" {
		return errors.New("config: API_KEY and API_SECRET must be set")
	}
	u, err := url.Parse(c.BaseEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("config: BASE_ENDPOINT must be an absolute URL")
	}
	switch c.StoreMode {
	case StoreSQLite:
		if c.StoreFile == "" {
			return errors.New("config: STORE_FILE must be set when STORE_MODE=sqlite")
		}
	case StoreMemory:
	default:
		return errors.New("config: STORE_MODE must be sqlite or memory")
	}
	if c.DeviceSecretFile == "" {
		return errors.New("config: DEVICE_SECRET_FILE must be set")
	}
	if c.ExpiryBuffer < 0 || c.ScanSettleDelay < 0 {
		return errors.New("config: EXPIRY_BUFFER and SCAN_SETTLE_DELAY must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("config: HTTP_TIMEOUT must be positive")
	}
	return nil
}

// Endpoints assembles the configured URL fragments.
func (c *Config) Endpoints() classrecord.Endpoints {
	return classrecord.Endpoints{
		Login:              c.EndpointLogin,
		RegisterStudent:    c.EndpointRegisterStudent,
		RegisterUsername:   c.EndpointRegisterUsername,
		RefreshToken:       c.EndpointRefreshToken,
		TeachingLoad:       c.EndpointTeachingLoad,
		ViewEnrolled:       c.EndpointViewEnrolled,
		AttendanceList:     c.EndpointAttendanceList,
		TeacherInfo:        c.EndpointTeacherInfo,
		PostAttendance:     c.EndpointPostAttendance,
		RecordAttendance:   c.EndpointRecordAttendance,
		TermGrade:          c.EndpointTermGrade,
		SemGrade:           c.EndpointSemGrade,
		EnrolledSubjects:   c.EndpointEnrolledSubjects,
		ScoresPerCategory:  c.EndpointScoresPerCategory,
		StudentInfo:        c.EndpointStudentInfo,
		EnrollSubject:      c.EndpointEnrollSubject,
		GradingComposition: c.EndpointGradingComposition,
		Semesters:          c.EndpointSemesters,
		Courses:            c.EndpointCourses,
		Terms:              c.EndpointTerms,
		Categories:         c.EndpointCategories,
	}
}
