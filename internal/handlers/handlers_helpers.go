package handlers

import (
	"codereview-backend/internal/auth"
	"codereview-backend/pkg/httputil"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// principalFromRequest extracts the authenticated caller, writing a 401 when
// the request carries none.
func principalFromRequest(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "You are not logged in")
		return auth.Principal{}, false
	}
	return p, true
}

// configIDParam parses the {configID} URL parameter, writing a 400 when it is
// not a positive integer.
func configIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "configID"), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid configured integration ID format")
		return 0, false
	}
	return id, true
}
