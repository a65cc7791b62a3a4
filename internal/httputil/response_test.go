package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/presence.report/internal/monitoring"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"message": "hello"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}
	if got := decodeBody(t, rec)["message"]; got != "hello" {
		t.Errorf("message = %v, want hello", got)
	}
}

func TestWriteJSONOK(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONOK(rec, map[string]int{"count": 42})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := decodeBody(t, rec)["count"]; got != float64(42) {
		t.Errorf("count = %v, want 42", got)
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantError  string
	}{
		{"WriteJSONError", func(w http.ResponseWriter) { WriteJSONError(w, http.StatusTeapot, "test error") }, http.StatusTeapot, "test error"},
		{"MethodNotAllowed", func(w http.ResponseWriter) { MethodNotAllowed(w) }, http.StatusMethodNotAllowed, "method not allowed"},
		{"BadRequest", func(w http.ResponseWriter) { BadRequest(w, "invalid input") }, http.StatusBadRequest, "invalid input"},
		{"InternalServerError", func(w http.ResponseWriter) { InternalServerError(w, "something went wrong") }, http.StatusInternalServerError, "something went wrong"},
		{"NotFound", func(w http.ResponseWriter) { NotFound(w, "resource not found") }, http.StatusNotFound, "resource not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type = %s, want application/json", ct)
			}
			if got := decodeBody(t, rec)["error"]; got != tt.wantError {
				t.Errorf("error = %v, want %q", got, tt.wantError)
			}
		})
	}
}

func TestEncodeFailureIsLogged(t *testing.T) {
	var logged int
	monitoring.SetLogger(func(format string, v ...interface{}) { logged++ })
	defer monitoring.SetLogger(nil)

	rec := httptest.NewRecorder()
	// Channels cannot be marshalled; the helper must log, not panic.
	WriteJSONOK(rec, map[string]interface{}{"bad": make(chan int)})

	if logged == 0 {
		t.Error("expected encode failure to be logged")
	}
}
