package http_handlers

import (
	"net/http"

	"github.com/shelfshare/shelfshare/internal/application/auth"
	"github.com/shelfshare/shelfshare/internal/domain"
	"github.com/shelfshare/shelfshare/internal/logger"
	"github.com/shelfshare/shelfshare/internal/transport/http/dto"
	"github.com/shelfshare/shelfshare/internal/transport/http/middleware"
	"github.com/shelfshare/shelfshare/internal/transport/http/response"
)

type UserHandler struct {
	svc *auth.Service
}

func NewUserHandler(svc *auth.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// CreateUser is the admin path: enabled account, no password, set-password
// code mailed out.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	in, err := req.ToInput()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.CreateUser(r.Context(), in)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	l := logger.WithCtx(r.Context())
	l.Info().
		Str("user_id", u.ID).
		Str("email", u.Email).
		Msg("user_created_by_admin")

	response.Created(w, dto.ToUserResponse(u))
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenInvalid())
		return
	}

	var req dto.ChangePasswordRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), callerID, req.ToInput()); err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.StatusResponse{Status: "password_changed"})
}
