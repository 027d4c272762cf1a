package http_handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfshare/shelfshare/internal/application/notify"
	"github.com/shelfshare/shelfshare/internal/domain"
	"github.com/shelfshare/shelfshare/internal/transport/http/dto"
	"github.com/shelfshare/shelfshare/internal/transport/http/middleware"
	"github.com/shelfshare/shelfshare/internal/transport/http/response"
)

type NotificationHandler struct {
	svc *notify.Service
}

func NewNotificationHandler(svc *notify.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenInvalid())
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	ns, err := h.svc.List(r.Context(), uid, unreadOnly)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToNotificationResponses(ns))
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenInvalid())
		return
	}

	if err := h.svc.MarkRead(r.Context(), chi.URLParam(r, "id"), uid); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenInvalid())
		return
	}

	if err := h.svc.MarkAllRead(r.Context(), uid); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.NoContent(w)
}
