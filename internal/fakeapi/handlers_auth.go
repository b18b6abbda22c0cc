package fakeapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/aussiebroadwan/classrecord/pkg/httpx"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type AuthHandler struct {
	Tokens        *TokenService
	Registrations *RegistrationService

	// ReturnOTP echoes registration codes to the caller.
	ReturnOTP bool
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req classrecord.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, pair, err := h.Tokens.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			slogx.FromContext(r.Context()).Info("login failed", slog.String("username", req.Username))
			httpx.WriteMessage(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		slogx.FromContext(r.Context()).Error("login error", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, classrecord.LoginResponse{
		Message:      "Login successful",
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pair, err := h.Tokens.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefresh) {
			httpx.WriteMessage(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		slogx.FromContext(r.Context()).Error("refresh error", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, refreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req classrecord.Register
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	code, err := h.Registrations.Start(ctx, req)
	if err != nil {
		if errors.Is(err, ErrInvalidRegistration) {
			httpx.WriteMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		slogx.FromContext(ctx).Error("registration error", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// No mailer in the dev server; the log is the delivery channel.
	slogx.FromContext(ctx).Info("registration otp issued", slog.String("email", req.Email), slog.String("otp", code))

	resp := classrecord.RegisterResponse{Message: "OTP sent"}
	if h.ReturnOTP {
		resp.OTP = code
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) RegisterUsername(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req classrecord.UsernamePassword
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.Registrations.Complete(ctx, r.URL.Query().Get("otp"), req)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidOTP):
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	case errors.Is(err, ErrInvalidRegistration):
		httpx.WriteMessage(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrAlreadyExists):
		httpx.WriteMessage(w, http.StatusConflict, "Username already taken")
		return
	default:
		slogx.FromContext(ctx).Error("registration error", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, classrecord.RegisterUsernameResponse{
		Message:  "Registration complete",
		Username: u.Username,
	})
}
