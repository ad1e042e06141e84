package http

import (
	"net/http"
	"strings"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f storage.TransactionFilter

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		typ := core.TransactionType(v)
		if !typ.Valid() {
			badRequest(w, "invalid type "+v)
			return
		}
		f.Type = &typ
	}

	var err error
	for name, dst := range map[string]**int64{
		"mainCategoryId":  &f.MainCategoryID,
		"subCategoryId":   &f.SubCategoryID,
		"paymentMethodId": &f.PaymentMethodID,
		"budgetId":        &f.BudgetID,
	} {
		if *dst, err = queryInt64Ptr(q, name); err != nil {
			badRequest(w, err.Error())
			return
		}
	}
	if f.From, err = queryDatePtr(q, "from"); err != nil {
		badRequest(w, err.Error())
		return
	}
	if f.To, err = queryDatePtr(q, "to"); err != nil {
		badRequest(w, err.Error())
		return
	}
	f.SortBy = strings.TrimSpace(q.Get("sortBy"))
	f.SortOrder = strings.TrimSpace(q.Get("sortOrder"))
	if f.Limit, err = queryInt(q, "limit", 0); err != nil {
		badRequest(w, err.Error())
		return
	}
	if f.Offset, err = queryInt(q, "offset", 0); err != nil {
		badRequest(w, err.Error())
		return
	}

	page, err := s.transactions.List(r.Context(), f)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Transactions []transactionJSON `json:"transactions"`
		TotalCount   int64             `json:"totalCount"`
		HasMore      bool              `json:"hasMore"`
	}{toTransactionListJSON(page.Transactions), page.TotalCount, page.HasMore})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	t, err := s.transactions.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(t))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	date, err := parseAPIDate(req.Date)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	created, err := s.transactions.Create(r.Context(), core.Transaction{
		Amount:          core.Money{Yen: req.Amount},
		Type:            core.TransactionType(req.Type),
		Date:            date,
		MainCategoryID:  req.MainCategoryID,
		SubCategoryID:   req.SubCategoryID,
		BudgetID:        req.BudgetID,
		PaymentMethodID: req.PaymentMethodID,
		Description:     strings.TrimSpace(req.Description),
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req updateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	patch := core.TransactionPatch{
		MainCategoryID:   req.MainCategoryID,
		SubCategoryID:    req.SubCategoryID,
		ClearSubCategory: req.ClearSubCategory,
		BudgetID:         req.BudgetID,
		ClearBudget:      req.ClearBudget,
		PaymentMethodID:  req.PaymentMethodID,
		Description:      req.Description,
	}
	if req.Amount != nil {
		patch.Amount = &core.Money{Yen: *req.Amount}
	}
	if req.Type != nil {
		typ := core.TransactionType(*req.Type)
		patch.Type = &typ
	}
	if req.Date != nil {
		var date time.Time
		if date, err = parseAPIDate(*req.Date); err != nil {
			writeError(r.Context(), w, err)
			return
		}
		patch.Date = &date
	}

	updated, err := s.transactions.Update(r.Context(), id, patch)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.transactions.Delete(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	data, err := s.transactions.MonthlySummary(r.Context(), year, month)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleDayDetail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, month, err := yearMonth(q)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	day, err := queryInt(q, "day", time.Now().UTC().Day())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	detail, err := s.transactions.DayDetail(r.Context(), year, month, day)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDetailJSON(detail))
}

func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, month, err := yearMonth(q)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	mainCategoryID, err := queryInt64Ptr(q, "mainCategoryId")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	stats, err := s.transactions.MonthlyStats(r.Context(), year, month, mainCategoryID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
