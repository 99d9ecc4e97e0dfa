// Package httpx provides HTTP response utilities for the Crestline API.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response shape every Crestline endpoint returns.
type Envelope struct {
	Success bool   `json:"success"`
	Result  any    `json:"result"`
	Message string `json:"message"`
}

// JSON sends an envelope with the given status code.
func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK sends a 200 success envelope.
func OK(w http.ResponseWriter, result any, message string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Result: result, Message: message})
}

// Created sends a 201 success envelope.
func Created(w http.ResponseWriter, result any, message string) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Result: result, Message: message})
}

// Fail sends an error envelope with a nil result.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Result: nil, Message: message})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
