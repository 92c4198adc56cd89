package handlers

import (
	"compress/gzip"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/anamnesportalen/anamnese-api/logging"
)

// Minimum response size to consider compression (1KB)
const compressionThreshold = 1024

// RespondWithJSON writes a JSON response, gzip-compressed when the client
// accepts it and the body is large enough to be worth it. Resolved step
// lists for long anamnesis forms easily cross the threshold.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err, "payload_type", fmt.Sprintf("%T", payload))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))

	shouldCompress := len(data) >= compressionThreshold &&
		strings.Contains(strings.ToLower(r.Header.Get("Accept-Encoding")), "gzip")

	if shouldCompress {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(code)
		gz := gzip.NewWriter(w)
		defer gz.Close()
		if _, err := gz.Write(data); err != nil {
			logging.Error("Failed to write compressed response", "error", err)
		}
		return
	}

	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Error("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response. Errors are small, so they
// are never compressed.
func RespondWithError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": msg,
		"code":    code,
	}

	data, err := json.Marshal(errorResponse)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if _, err := w.Write(data); err != nil {
		logging.Error("Failed to write error response", "error", err)
	}
}
