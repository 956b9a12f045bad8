package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"moneybuddy/internal/core"
)

// currencySymbol prefixes every amount shown in the UI.
const currencySymbol = "₹"

var templateFuncs = template.FuncMap{
	"money":   formatMoney,
	"percent": func(p float64) string { return fmt.Sprintf("%.0f%%", p) },
	"width": func(p float64) string {
		if p < 0 {
			p = 0
		}
		return fmt.Sprintf("%.2f", p)
	},
}

// formatMoney formats an amount with two decimals and thousands separators (e.g., "₹1,234.50").
func formatMoney(a core.Amount) string {
	s := a.Format()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := currencySymbol + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// render executes a named template into memory so a failed execution
// never leaves a half-written page.
func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, fmt.Errorf("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// writePage renders a full page or a 500 on failure.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, name string, data any) {
	body, err := s.render(name, data)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", "template", name, "error", err)
		Failure(http.StatusInternalServerError, "Could not render page").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
