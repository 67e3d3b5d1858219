package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/objectstore"
	"fintrack/internal/services"
)

func TestResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		JSON(map[string]string{"ok": "yes"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"ok":"yes"}` {
		t.Errorf("Body = %q", got)
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should not be set without triggers")
	}
}

func TestResponseBuilder_EmptyBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Body.Len() != 0 || w.Header().Get("Content-Type") != "" {
		t.Errorf("expected empty response, got %q (%s)", w.Body.String(), w.Header().Get("Content-Type"))
	}
}

func TestResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()
	at := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

	NewResponse().
		Changed(events.NewChange(events.ResourceTransactions, "u1", at)).
		Changed(events.NewChange(events.ResourceCategories, "u1", at)).
		TriggerSuccessNotification("Listo").
		Write(w)

	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	for _, name := range []string{"transactions:changed", "categories:changed", "show-notification"} {
		if _, ok := triggers[name]; !ok {
			t.Errorf("HX-Trigger missing %q: %v", name, triggers)
		}
	}
	want := fmt.Sprintf(`{"version":%d}`, at.UnixNano())
	if got := string(triggers["transactions:changed"]); got != want {
		t.Errorf("transactions:changed = %s, want %s", got, want)
	}
	if !strings.Contains(string(triggers["show-notification"]), `"type":"success"`) {
		t.Errorf("notification payload = %s", triggers["show-notification"])
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *ResponseBuilder
		status  int
		message string
	}{
		{"bad request", BadRequestError("mal"), http.StatusBadRequest, "mal"},
		{"unprocessable", UnprocessableEntityError("inválido"), http.StatusUnprocessableEntity, "inválido"},
		{"internal", InternalServerError("falló"), http.StatusInternalServerError, "falló"},
		{"not found", NotFoundError("no está"), http.StatusNotFound, "no está"},
		{"method", MethodNotAllowedError("GET, POST"), http.StatusMethodNotAllowed, "Método no permitido"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var body errorBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.message {
				t.Errorf("error = %q, want %q", body.Error, tt.message)
			}
		})
	}

	w := httptest.NewRecorder()
	MethodNotAllowedError("GET, POST").Write(w)
	if got := w.Header().Get("Allow"); got != "GET, POST" {
		t.Errorf("Allow = %q", got)
	}
}

func TestViewFor(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{core.ErrUserNotResolved, http.StatusUnauthorized, msgUserNotResolved},
		{fmt.Errorf("parse: %w", core.ErrInvalidAmount), http.StatusUnprocessableEntity, msgInvalidAmount},
		{core.ErrInvalidFilter, http.StatusBadRequest, msgInvalidFilter},
		{core.ErrEmptyCategory, http.StatusUnprocessableEntity, msgEmptyCategory},
		{services.ErrCategoryExists, http.StatusConflict, msgCategoryExists},
		{auth.ErrEmailTaken, http.StatusConflict, msgEmailTaken},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized, msgBadCredentials},
		{fmt.Errorf("%w: %w", core.ErrUpload, objectstore.ErrTooLarge), http.StatusRequestEntityTooLarge, msgAvatarTooLarge},
		{fmt.Errorf("%w: disk", core.ErrUpload), http.StatusBadGateway, msgAvatarUpload},
		{services.ErrAvatarURL, http.StatusBadGateway, msgAvatarURL},
		{fmt.Errorf("%w: json", errBadRequest), http.StatusBadRequest, msgInvalidRequest},
		{errors.Join(errBadRequest, &http.MaxBytesError{Limit: 10}), http.StatusRequestEntityTooLarge, msgRequestTooLarge},
		{fmt.Errorf("%w: boom", core.ErrFetch), http.StatusInternalServerError, "fallback"},
	}
	for _, tt := range tests {
		got := viewFor(tt.err, "fallback")
		if got.status != tt.status || got.message != tt.message {
			t.Errorf("viewFor(%v) = %d %q, want %d %q", tt.err, got.status, got.message, tt.status, tt.message)
		}
	}
}
