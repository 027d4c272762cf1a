package http_handlers

import (
	"net/http"
	"strings"

	"github.com/shelfshare/shelfshare/internal/application/auth"
	"github.com/shelfshare/shelfshare/internal/domain"
	"github.com/shelfshare/shelfshare/internal/logger"
	"github.com/shelfshare/shelfshare/internal/transport/http/dto"
	"github.com/shelfshare/shelfshare/internal/transport/http/middleware"
	"github.com/shelfshare/shelfshare/internal/transport/http/response"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.Register(r.Context(), req.ToInput())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	l := logger.WithCtx(r.Context())
	l.Info().
		Str("user_id", u.ID).
		Str("email", u.Email).
		Msg("user_registered")

	response.Created(w, dto.ToUserResponse(u))
}

func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req dto.AuthenticateRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.LoginAttemptsTotal.WithLabelValues(loginStatus(err)).Inc()
		response.WriteError(w, r, err)
		return
	}
	middleware.LoginAttemptsTotal.WithLabelValues("success").Inc()

	l := logger.WithCtx(r.Context())
	l.Info().
		Str("user_id", res.User.ID).
		Msg("user_logged_in")

	response.OK(w, dto.ToAuthResponse(res.Tokens))
}

func (h *AuthHandler) ActivateAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.ActivateAccountRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.ActivateAccount(r.Context(), req.Code); err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.StatusResponse{Status: "activated"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.StatusResponse{Status: "code_sent"})
}

func (h *AuthHandler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyCodeRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.VerifyResetCode(r.Context(), req.Code); err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.StatusResponse{Status: "verified"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.ToInput()); err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.StatusResponse{Status: "password_reset"})
}

func (h *AuthHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.SetPassword(r.Context(), req.ToInput()); err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.StatusResponse{Status: "password_set"})
}

func loginStatus(err error) string {
	for _, code := range []string{"invalid_credentials", "account_locked", "account_disabled"} {
		if domain.Is(err, code) {
			return code
		}
	}
	return "error"
}
