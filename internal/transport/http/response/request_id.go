package response

import (
	"net/http"

	pkgctx "github.com/shelfshare/shelfshare/internal/pkg/context"
)

// RequestIDFromContext extracts the request id set by the request_id middleware.
func RequestIDFromContext(r *http.Request) string {
	return pkgctx.GetRequestID(r.Context())
}
