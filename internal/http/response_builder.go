package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
)

// htmx events the pages listen for.
const (
	eventLedgerChanged = "ledger:changed"
	eventGoalsChanged  = "goals:changed"
	eventFormReset     = "form:reset"
	eventNotice        = "show-notification"
)

// NoticeKind selects the toast style in app.js.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
	NoticeError   NoticeKind = "error"
)

// Errors stay on screen longer than confirmations.
var noticeDuration = map[NoticeKind]int{
	NoticeSuccess: 3000,
	NoticeInfo:    3000,
	NoticeError:   5000,
}

// HTMXResponseBuilder collects the HX-Trigger events, headers and body of
// one htmx response. The zero status is 200.
type HTMXResponseBuilder struct {
	status int
	events map[string]any
	header http.Header
	body   []byte
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status: http.StatusOK,
		events: make(map[string]any),
		header: make(http.Header),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Event adds an HX-Trigger entry. A later event with the same name wins.
func (b *HTMXResponseBuilder) Event(name string, detail any) *HTMXResponseBuilder {
	b.events[name] = detail
	return b
}

// LedgerChanged tells the summary and history panels to refresh.
func (b *HTMXResponseBuilder) LedgerChanged(count int) *HTMXResponseBuilder {
	return b.Event(eventLedgerChanged, map[string]int{"count": count})
}

func (b *HTMXResponseBuilder) GoalsChanged() *HTMXResponseBuilder {
	return b.Event(eventGoalsChanged, struct{}{})
}

func (b *HTMXResponseBuilder) ResetForm() *HTMXResponseBuilder {
	return b.Event(eventFormReset, struct{}{})
}

// Notify shows a toast. Only one notice is sent per response.
func (b *HTMXResponseBuilder) Notify(kind NoticeKind, message string) *HTMXResponseBuilder {
	return b.Event(eventNotice, map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": noticeDuration[kind],
	})
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

// HTML sets an HTML fragment as the body.
func (b *HTMXResponseBuilder) HTML(fragment []byte) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = fragment
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.header {
		w.Header()[name] = values
	}
	if len(b.events) > 0 {
		if payload, err := json.Marshal(b.events); err == nil {
			w.Header().Set("HX-Trigger", string(payload))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// Failure is an error response: the escaped message as the swapped
// fragment and the same message as an error notice.
func Failure(status int, message string) *HTMXResponseBuilder {
	fragment := `<div class="error">` + template.HTMLEscapeString(message) + `</div>`
	return NewHTMXResponse().
		Status(status).
		HTML([]byte(fragment)).
		Notify(NoticeError, message)
}

// MethodNotAllowed answers 405 with the Allow header set.
func MethodNotAllowed(allowed ...string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", strings.Join(allowed, ", "))
}
