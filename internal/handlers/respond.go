package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
)

// Every endpoint answers with this envelope; error responses carry
// success=false and a human-readable message for the mobile client to
// surface directly.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    interface{} `json:"user,omitempty"`
	Tokens  interface{} `json:"tokens,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, Response{Success: false, Message: message})
}

var phoneRegexp = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// isValidPhoneNumber accepts E.164 with an optional leading +.
func isValidPhoneNumber(phone string) bool {
	return phoneRegexp.MatchString(phone)
}
