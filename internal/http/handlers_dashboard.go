package http

import (
	"errors"
	"net/http"

	applog "fintrack/internal/log"
	"fintrack/internal/summary"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r, applog.OpRead)
	if !ok {
		return
	}
	d, err := s.txs.Dashboard(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, applog.OpRead, msgLoadDashboard)
		return
	}
	NewResponse().JSON(newDashboardView(d)).Write(w)
}

// handleSummary generates the AI analysis. Failures carry the summary
// package's own user message.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r, applog.OpGenerate)
	if !ok {
		return
	}
	if s.summary == nil {
		ErrorResponse(http.StatusServiceUnavailable, msgSummaryDisabled).Write(w)
		return
	}

	res, err := s.summary.Generate(r.Context(), userID)
	if err != nil {
		status := summaryStatus(err)
		applog.FromContext(r.Context()).LogAt(r.Context(), levelFor(status), "Summary generation failed",
			applog.NewFields().
				WithUser(userID).
				WithOperation(applog.OpGenerate).
				WithError(err).
				WithErrorType(errorType(err, status)).
				ToSlice()...)
		ErrorResponse(status, summary.UserMessage(err)).Write(w)
		return
	}
	NewResponse().JSON(res).Write(w)
}

func summaryStatus(err error) int {
	var statusErr *summary.StatusError
	switch {
	case errors.Is(err, summary.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, summary.ErrQuotaExceeded),
		errors.Is(err, summary.ErrEmptyContent),
		errors.As(err, &statusErr):
		return http.StatusBadGateway
	default:
		return viewFor(err, "").status
	}
}
