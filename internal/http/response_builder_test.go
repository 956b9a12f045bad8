package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeTrigger(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := w.Header().Get("HX-Trigger")
	if raw == "" {
		t.Fatal("HX-Trigger header not set")
	}
	var events map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v (%s)", err, raw)
	}
	return events
}

func TestHTMXResponseBuilder_LedgerEvents(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		LedgerChanged(3).
		ResetForm().
		Notify(NoticeSuccess, "Imported 3 transactions").
		HTML([]byte("<p>ok</p>")).
		Write(w)

	events := decodeTrigger(t, w)
	for _, name := range []string{eventLedgerChanged, eventFormReset, eventNotice} {
		if _, ok := events[name]; !ok {
			t.Errorf("missing %s event: %v", name, events)
		}
	}
	if got := string(events[eventLedgerChanged]); got != `{"count":3}` {
		t.Errorf("ledger:changed detail = %s", got)
	}
	if w.Body.String() != "<p>ok</p>" {
		t.Errorf("body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHTMXResponseBuilder_NoticeDurations(t *testing.T) {
	tests := []struct {
		kind     NoticeKind
		duration int
	}{
		{NoticeSuccess, 3000},
		{NoticeInfo, 3000},
		{NoticeError, 5000},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHTMXResponse().Notify(tt.kind, "Progress unchanged").Write(w)

			var notice struct {
				Type     string `json:"type"`
				Message  string `json:"message"`
				Duration int    `json:"duration"`
			}
			if err := json.Unmarshal(decodeTrigger(t, w)[eventNotice], &notice); err != nil {
				t.Fatal(err)
			}
			if notice.Type != string(tt.kind) || notice.Duration != tt.duration || notice.Message != "Progress unchanged" {
				t.Errorf("unexpected notice %+v", notice)
			}
		})
	}
}

func TestHTMXResponseBuilder_LastNoticeWins(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		GoalsChanged().
		Notify(NoticeInfo, "first").
		Notify(NoticeSuccess, "Goal added").
		Write(w)

	events := decodeTrigger(t, w)
	if !strings.Contains(string(events[eventNotice]), "Goal added") {
		t.Errorf("expected the later notice, got %s", events[eventNotice])
	}
	if _, ok := events[eventGoalsChanged]; !ok {
		t.Error("missing goals:changed")
	}
}

func TestHTMXResponseBuilder_NoEvents(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Header("X-Custom", "value").Status(http.StatusCreated).Write(w)

	if got := w.Header().Get("HX-Trigger"); got != "" {
		t.Errorf("unexpected HX-Trigger %q", got)
	}
	if w.Header().Get("X-Custom") != "value" || w.Code != http.StatusCreated {
		t.Errorf("header=%q status=%d", w.Header().Get("X-Custom"), w.Code)
	}
}

func TestFailure(t *testing.T) {
	tests := []struct {
		status  int
		message string
	}{
		{http.StatusBadRequest, "Choose a file to import"},
		{http.StatusUnprocessableEntity, "amount: invalid amount"},
		{http.StatusNotImplemented, "google sheet import is not configured"},
		{http.StatusInternalServerError, "Could not save the goal"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			Failure(tt.status, tt.message).Write(w)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if want := `<div class="error">` + tt.message + `</div>`; w.Body.String() != want {
				t.Errorf("body = %q, want %q", w.Body.String(), want)
			}
			notice := string(decodeTrigger(t, w)[eventNotice])
			if !strings.Contains(notice, `"type":"error"`) || !strings.Contains(notice, tt.message) {
				t.Errorf("notice = %s", notice)
			}
		})
	}
}

func TestFailure_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()
	Failure(http.StatusBadRequest, "<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") || !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("message not escaped: %s", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowed(http.MethodGet, http.MethodPost).Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", w.Code)
	}
	if got := w.Header().Get("Allow"); got != "GET, POST" {
		t.Errorf("Allow = %q", got)
	}
}
