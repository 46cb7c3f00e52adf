package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"notification-feed/internal/domain/service"
)

// handleServiceError maps domain errors to HTTP statuses
func handleServiceError(w http.ResponseWriter, err error) {
	var httpStatus int
	message := err.Error()

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		httpStatus = http.StatusBadRequest
	case errors.Is(err, service.ErrExternalSource):
		httpStatus = http.StatusBadGateway
		message = "external notification source unavailable"
	default:
		httpStatus = http.StatusInternalServerError
		message = "internal server error"
	}

	if httpStatus >= http.StatusInternalServerError {
		log.Printf("Request failed: %v", err)
	}

	writeJSON(w, httpStatus, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
