package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hola  ", "hola"},
		{"a\x00b\x07c", "abc"},
		{"línea\nsegunda\tcol", "línea\nsegunda\tcol"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTransactionInput_Form(t *testing.T) {
	form := url.Values{"amount": {"1.234,50"}, "type": {"gasto"}, "category": {" Comida\x00 "}, "description": {"súper"}}
	r := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, err := ParseTransactionInput(httptest.NewRecorder(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := core.TransactionInput{Amount: "1.234,50", Type: "gasto", Category: "Comida", Description: "súper"}
	if in != want {
		t.Errorf("got %+v, want %+v", in, want)
	}
}

func TestParseTransactionInput_JSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"amount": 12.5, "type": "income", "category": "Salario"}`))
	r.Header.Set("Content-Type", "application/json")

	in, err := ParseTransactionInput(httptest.NewRecorder(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Amount != "12.5" || in.Type != "income" || in.Category != "Salario" || in.Description != "" {
		t.Errorf("unexpected input %+v", in)
	}
}

func TestParseTransactionInput_JSONLargeNumber(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"amount": 123456789012.34, "type": "income"}`))
	r.Header.Set("Content-Type", "application/json")

	in, err := ParseTransactionInput(httptest.NewRecorder(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Amount != "123456789012.34" {
		t.Errorf("amount = %q, want the literal number", in.Amount)
	}
}

func TestParseTransactionInput_BadJSON(t *testing.T) {
	for _, body := range []string{`{"amount":`, `{"amount": "1"} {"x": 1}`, `[]`} {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")
		if _, err := ParseTransactionInput(httptest.NewRecorder(), r); !errors.Is(err, errBadRequest) {
			t.Errorf("body %q: expected errBadRequest, got %v", body, err)
		}
	}
}

func TestParseListParams(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    ListParams
		wantErr bool
	}{
		{"defaults", "", ListParams{Type: core.FilterAll}, false},
		{"all fields", "type=expense&q=+cafe+&limit=20", ListParams{Type: core.FilterExpense, Search: "cafe", Limit: 20}, false},
		{"clamped limit", "limit=100000", ListParams{Type: core.FilterAll, Limit: maxQueryLimit}, false},
		{"ignored limit", "limit=-3", ListParams{Type: core.FilterAll}, false},
		{"bad type", "type=transfer", ListParams{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseListParams(q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
