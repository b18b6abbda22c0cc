package fakeapi

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds the dev server configuration loaded from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port int `mapstructure:"PORT"`
	// APIKey and APISecret must match the client's API_KEY/SECRET_KEY headers.
	APIKey    string `mapstructure:"API_KEY"`
	APISecret string `mapstructure:"API_SECRET"`
	// Issuer is the iss claim of minted access tokens.
	Issuer string `mapstructure:"ISSUER"`
	// AccessTTL and RefreshTTL bound token lifetimes.
	AccessTTL  time.Duration `mapstructure:"ACCESS_TTL"`
	RefreshTTL time.Duration `mapstructure:"REFRESH_TTL"`
	// OTPTTL is how long a registration code stays valid.
	OTPTTL time.Duration `mapstructure:"OTP_TTL"`
	// OTPReturnToClient echoes registration codes in the response body.
	// Refused when Env is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`
	// RateLimitStrict and RateLimitLenient are requests per minute.
	RateLimitStrict  int `mapstructure:"RATELIMIT_STRICT_PER_MINUTE"`
	RateLimitLenient int `mapstructure:"RATELIMIT_LENIENT_PER_MINUTE"`

	// HousekeepingInterval is how often expired refresh tokens and
	// registrations are dropped.
	HousekeepingInterval time.Duration `mapstructure:"HOUSEKEEPING_INTERVAL"`
	ShutdownGracePeriod  time.Duration `mapstructure:"SHUTDOWN_GRACE_PERIOD"`

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

// Defaults returns the default value of every configuration key.
func Defaults() map[string]any {
	return map[string]any{
		"PORT":                         8080,
		"API_KEY":                      "dev-api-key",
		"API_SECRET":                   "dev-api-secret",
		"ISSUER":                       "classrecord-dev",
		"ACCESS_TTL":                   "15m",
		"REFRESH_TTL":                  "168h",
		"OTP_TTL":                      "5m",
		"OTP_RETURN_TO_CLIENT":         false,
		"RATELIMIT_STRICT_PER_MINUTE":  10,
		"RATELIMIT_LENIENT_PER_MINUTE": 300,
		"HOUSEKEEPING_INTERVAL":        "1h",
		"SHUTDOWN_GRACE_PERIOD":        "10s",
		"ENV":                          "dev",
		"LOG_LEVEL":                    "info",
		"LOG_FORMAT":                   "text",
	}
}

func (c *Config) Validate() error {
	if c.APIKey == "" || c.APISecret == "" {
		return errors.New("config: API_KEY and API_SECRET must be set")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("config: ACCESS_TTL and REFRESH_TTL must be positive")
	}
	if c.OTPTTL < time.Minute {
		return errors.New("config: OTP_TTL must be at least 1m")
	}
	if c.RateLimitStrict <= 0 || c.RateLimitLenient <= 0 {
		return errors.New("config: rate limits must be positive")
	}
	if c.OTPReturnToClient && c.Env == "production" {
		return errors.New("config: OTP_RETURN_TO_CLIENT must not be true when ENV=production")
	}
	return nil
}
