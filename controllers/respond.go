package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pcstore/middleware"
	"pcstore/utils"
)

// requestTimeout bounds every datastore call made by a handler.
const requestTimeout = 5 * time.Second

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// authClaims pulls the authenticated claims from the request, answering 401
// when they are missing.
func authClaims(w http.ResponseWriter, r *http.Request) (*utils.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return claims, true
}

// requireOwner checks that the caller owns the given userId or is an admin,
// and parses the id. Answers 403 on an ownership violation.
func requireOwner(w http.ResponseWriter, r *http.Request, userIDHex string) (primitive.ObjectID, bool) {
	claims, ok := authClaims(w, r)
	if !ok {
		return primitive.NilObjectID, false
	}
	if claims.UserID != userIDHex && !claims.IsAdmin() {
		writeError(w, http.StatusForbidden, "Access denied")
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return primitive.NilObjectID, false
	}
	return userID, true
}

// pageParams reads page/limit query parameters with defaults.
func pageParams(r *http.Request, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

// pagination is the envelope block reported with every paginated list.
type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func paginate(page, limit int, total int64) pagination {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
