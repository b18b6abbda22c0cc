package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/aussiebroadwan/classrecord/pkg/cryptox"
	"github.com/aussiebroadwan/classrecord/pkg/idx"
	"github.com/aussiebroadwan/classrecord/pkg/jwtx"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
)

var (
	ErrInvalidOTP          = errors.New("invalid or expired OTP")
	ErrInvalidRegistration = errors.New("invalid registration")
)

// RegistrationService runs the two step student sign up: details first, then
// a username and password unlocked by a one time code.
type RegistrationService struct {
	Store  *Store
	Issuer string
	OTPTTL time.Duration

	// Now is the clock used for codes. nil means time.Now.
	Now func() time.Time
}

func (s *RegistrationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RegistrationService) otpOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(s.OTPTTL / time.Second),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Start records a pending registration and returns its current code. The
// caller decides how the code reaches the student.
func (s *RegistrationService) Start(ctx context.Context, req classrecord.Register) (string, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FirstName == "" || req.LastName == "" {
		return "", fmt.Errorf("%w: first and last name are required", ErrInvalidRegistration)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidRegistration)
	}

	opts := s.otpOpts()
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: req.Email,
		Period:      opts.Period,
		Digits:      opts.Digits,
		Algorithm:   opts.Algorithm,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP key: %w", err)
	}

	now := s.now()
	code, err := totp.GenerateCodeCustom(key.Secret(), now, opts)
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	p := PendingRegistration{
		ID:         idx.NewAt(now).String(),
		FirstName:  req.FirstName,
		MiddleName: strings.TrimSpace(req.MiddleName),
		LastName:   req.LastName,
		Email:      req.Email,
		Gender:     req.Gender,
		DOB:        req.DOB,
		OTPSecret:  key.Secret(),
		ExpiresAt:  now.Add(s.OTPTTL),
	}
	s.Store.CreatePending(p)

	slogx.FromContext(ctx).Info("registration pending", slog.String("registration_id", p.ID))
	return code, nil
}

// Complete turns the pending registration the code belongs to into a
// student account.
func (s *RegistrationService) Complete(ctx context.Context, code string, req classrecord.UsernamePassword) (User, error) {
	code = strings.TrimSpace(code)
	req.Username = strings.TrimSpace(req.Username)
	if code == "" {
		return User{}, ErrInvalidOTP
	}
	if len(req.Username) < minUsernameLength {
		return User{}, fmt.Errorf("%w: username must be at least %d characters", ErrInvalidRegistration, minUsernameLength)
	}
	if len(req.Password) < minPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRegistration, minPasswordLength)
	}
	if _, err := s.Store.Course(req.CourseID); err != nil {
		return User{}, fmt.Errorf("%w: unknown course", ErrInvalidRegistration)
	}
	if _, err := s.Store.UserByUsername(req.Username); err == nil {
		return User{}, ErrAlreadyExists
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return User{}, err
	}

	now := s.now()
	opts := s.otpOpts()
	pending, err := s.Store.ClaimPending(now, func(p PendingRegistration) bool {
		ok, err := totp.ValidateCustom(code, p.OTPSecret, now, opts)
		return err == nil && ok
	})
	if err != nil {
		return User{}, ErrInvalidOTP
	}

	u, err := s.Store.CreateUser(User{
		Subject:      idx.NewAt(now).String(),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         jwtx.RoleStudent,
		FirstName:    pending.FirstName,
		LastName:     pending.LastName,
		Email:        pending.Email,
		Gender:       pending.Gender,
		DOB:          pending.DOB,
		CourseID:     req.CourseID,
	})
	if err != nil {
		return User{}, err
	}

	slogx.FromContext(ctx).Info("student registered",
		slog.String("registration_id", pending.ID),
		slog.Int("student_id", u.StudentID),
	)
	return u, nil
}
