package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"finlingo/internal/service"
)

// errorResponse is the failure envelope for every endpoint
type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{OK: false, Error: userMsg})
}

// respondWithServiceError translates service failures into responses.
// Expected account failures are caller errors (400) carrying their own
// message; anything else is a 500 with the detail kept to the log.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrChildIDExhausted),
		errors.Is(err, service.ErrInvalidChildID),
		errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error", "account operation failed", err)
	}
}
