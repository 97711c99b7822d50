package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"portfolio_api/internal/api/middleware"
	"portfolio_api/internal/common"
)

// Request bodies above this size are rejected while decoding.
const maxBodyBytes = 10 << 20

const serverError = "Server error"

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// callerID reads the identity placed by the access gate.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return "", false
	}
	return userID, true
}

// queryInt returns 0 for a missing or malformed value; services apply
// their own defaults.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
