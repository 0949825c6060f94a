package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// WriteJSON marshals v and writes it with the given status. The body is
// encoded before any header is written so an encoding failure surfaces as
// a 500 instead of a truncated 2xx.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}

	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// NoCache marks the response uncacheable. Token and session responses
// must never land in a shared cache.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// ParseSpaceDelimitedFields splits a space-delimited value such as an
// OAuth2 scope string. Empty or all-whitespace input yields nil.
func ParseSpaceDelimitedFields(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
