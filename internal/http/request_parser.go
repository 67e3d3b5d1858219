// This file implements utilities for parsing and validating request data.
// Bodies may be JSON or form-encoded so plain HTML forms keep working.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

const (
	maxJSONBody   = 1 << 20
	maxMultipart  = 6 << 20
	defaultLimit  = 0
	maxQueryLimit = 500
)

var errBadRequest = errors.New("bad request")

// sanitizeInput removes control characters except tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// decodeJSON reads a single JSON object into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode json: %w", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: trailing data after json object", errBadRequest)
	}
	return nil
}

// parseFields reads a form-encoded or JSON body into string fields. JSON
// numbers keep their literal text.
func parseFields(w http.ResponseWriter, r *http.Request, names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if isJSON(r) {
		raw := make(map[string]any)
		if err := decodeJSON(w, r, &raw); err != nil {
			return nil, err
		}
		for _, n := range names {
			if v, ok := raw[n]; ok && v != nil {
				out[n] = sanitizeInput(fmt.Sprint(v))
			}
		}
		return out, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: parse form: %w", errBadRequest, err)
	}
	for _, n := range names {
		out[n] = sanitizeInput(r.PostForm.Get(n))
	}
	return out, nil
}

// ParseTransactionInput extracts a transaction submission. Amounts sent as
// JSON numbers are accepted too.
func ParseTransactionInput(w http.ResponseWriter, r *http.Request) (core.TransactionInput, error) {
	f, err := parseFields(w, r, "amount", "type", "category", "description")
	if err != nil {
		return core.TransactionInput{}, err
	}
	return core.TransactionInput{
		Amount:      f["amount"],
		Type:        f["type"],
		Category:    f["category"],
		Description: f["description"],
	}, nil
}

// ListParams are the query parameters of a transaction listing.
type ListParams struct {
	Type   core.TypeFilter
	Search string
	Limit  int
}

// ParseListParams reads type, q and limit. A missing or invalid limit means
// no limit; values above maxQueryLimit are clamped.
func ParseListParams(query url.Values) (ListParams, error) {
	filter, err := core.ParseTypeFilter(query.Get("type"))
	if err != nil {
		return ListParams{}, err
	}
	params := ListParams{
		Type:   filter,
		Search: sanitizeInput(query.Get("q")),
		Limit:  defaultLimit,
	}
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			params.Limit = min(n, maxQueryLimit)
		}
	}
	return params, nil
}
