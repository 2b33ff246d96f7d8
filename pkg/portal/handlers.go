package portal

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"flow-settings/pkg/prefs"
)

//go:embed settings_page.html
var settingsPageHTML string

// Largest accepted PUT body
const maxBodyBytes = 1 << 10

// handleRoot serves the remote settings page
func (ws *WebServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, settingsPageHTML)
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetSettings returns the stored record
func (ws *WebServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	rec, err := ws.store.Load(r.Context())
	if err != nil {
		ws.log.Warn("Failed to load preferences", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SetRequest is the body of PUT /api/settings/{key}. Value may be a JSON
// number, boolean or string.
type SetRequest struct {
	Value json.RawMessage `json:"value"`
}

// SetResponse echoes the saved key and its typed value
type SetResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// handlePutSetting saves a single key
func (ws *WebServer) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !prefs.IsKey(key) {
		writeError(w, http.StatusNotFound, "unknown key "+key)
		return
	}

	var req SetRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Value) == 0 {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	value, err := prefs.ParseValue(key, rawText(req.Value))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := ws.store.Save(r.Context(), key, value); err != nil {
		ws.log.Warn("Failed to save preference", zap.String("key", key), zap.Error(err))
		switch {
		case errors.Is(err, prefs.ErrUnknownKey):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, prefs.ErrInvalidValue):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to save "+key)
		}
		return
	}

	ws.log.Info("Preference set remotely", zap.String("key", key), zap.Any("value", value))
	writeJSON(w, http.StatusOK, SetResponse{Key: key, Value: value})
}

// rawText unwraps a JSON string and leaves numbers and booleans as written
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
