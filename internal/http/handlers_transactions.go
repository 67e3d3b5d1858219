package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/events"
	applog "fintrack/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r, applog.OpList)
	if !ok {
		return
	}
	params, err := ParseListParams(r.URL.Query())
	if err != nil {
		writeError(w, r, err, applog.OpList, msgInvalidFilter)
		return
	}

	txs, err := s.txs.ListTransactions(r.Context(), userID, params.Type, params.Search, params.Limit)
	if err != nil {
		writeError(w, r, err, applog.OpList, msgLoadTransactions)
		return
	}
	NewResponse().JSON(map[string]any{
		"transactions": newTransactionViews(txs),
		"count":        len(txs),
	}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r, applog.OpCreate)
	if !ok {
		return
	}
	in, err := ParseTransactionInput(w, r)
	if err != nil {
		writeError(w, r, err, applog.OpCreate, msgInvalidRequest)
		return
	}

	tx, err := s.txs.CreateTransaction(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err, applog.OpCreate, msgSaveTransaction)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		applog.NewFields().
			WithUser(userID).
			WithTransaction(tx.ID, string(tx.Type), tx.Amount, tx.Category).
			ToSlice()...)

	NewResponse().
		Status(http.StatusCreated).
		Changed(events.NewChange(events.ResourceTransactions, userID, tx.CreatedAt)).
		TriggerSuccessNotification(msgTransactionSaved).
		JSON(newTransactionView(tx)).
		Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r, applog.OpList)
	if !ok {
		return
	}
	t, err := core.ParseTransactionType(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, r, err, applog.OpList, msgInvalidType)
		return
	}
	list, err := s.txs.Categories(r.Context(), userID, t)
	if err != nil {
		writeError(w, r, err, applog.OpList, msgLoadCategories)
		return
	}
	NewResponse().JSON(map[string]any{
		"type":       t,
		"categories": list,
	}).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r, applog.OpCreate)
	if !ok {
		return
	}
	f, err := parseFields(w, r, "type", "name")
	if err != nil {
		writeError(w, r, err, applog.OpCreate, msgInvalidRequest)
		return
	}
	t, err := core.ParseTransactionType(f["type"])
	if err != nil {
		writeError(w, r, err, applog.OpCreate, msgInvalidType)
		return
	}

	res, err := s.txs.CreateCategory(r.Context(), userID, t, f["name"])
	if err != nil {
		writeError(w, r, err, applog.OpCreate, msgSaveCategory)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Changed(events.NewChange(events.ResourceCategories, userID, s.now())).
		TriggerSuccessNotification(msgCategorySaved).
		JSON(res).
		Write(w)
}
