package http_handlers

import (
	"net/http"
	"strings"

	"github.com/shelfshare/shelfshare/internal/domain"
	"github.com/shelfshare/shelfshare/internal/infrastructure/ws"
	"github.com/shelfshare/shelfshare/internal/transport/http/middleware"
	"github.com/shelfshare/shelfshare/internal/transport/http/response"
)

type WSHandler struct {
	hub      *ws.Hub
	verifier middleware.TokenVerifier
}

func NewWSHandler(hub *ws.Hub, verifier middleware.TokenVerifier) *WSHandler {
	return &WSHandler{hub: hub, verifier: verifier}
}

// Notifications upgrades to a WebSocket for live notification delivery.
// Browsers cannot set headers on WebSocket dials, so the access token is
// also accepted as a ?token= query parameter.
func (h *WSHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		header := r.Header.Get("Authorization")
		if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			raw = strings.TrimSpace(parts[1])
		}
	}
	if raw == "" {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	claims, err := h.verifier.VerifyAccessToken(raw)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if strings.TrimSpace(claims.UserID) == "" {
		response.WriteError(w, r, domain.ErrTokenInvalid())
		return
	}

	h.hub.ServeWS(w, r, claims.UserID)
}
