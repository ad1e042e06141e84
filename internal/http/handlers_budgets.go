package http

import (
	"net/http"
	"strings"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f storage.BudgetFilter

	if v := strings.TrimSpace(q.Get("search")); v != "" {
		f.Search = &v
	}
	var err error
	if f.ActiveAt, err = queryDatePtr(q, "activeAt"); err != nil {
		badRequest(w, err.Error())
		return
	}
	if f.Limit, err = queryInt(q, "limit", 0); err != nil {
		badRequest(w, err.Error())
		return
	}
	if f.Offset, err = queryInt(q, "offset", 0); err != nil {
		badRequest(w, err.Error())
		return
	}

	page, err := s.budgets.List(r.Context(), f)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Budgets    []budgetJSON `json:"budgets"`
		TotalCount int64        `json:"totalCount"`
		HasMore    bool         `json:"hasMore"`
	}{toBudgetListJSON(page.Budgets), page.TotalCount, page.HasMore})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	b, err := s.budgets.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetJSON(b))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	start, err := parseAPIDate(req.StartDate)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	end, err := parseAPIDate(req.EndDate)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	created, err := s.budgets.Create(r.Context(), core.Budget{
		Name:        strings.TrimSpace(req.Name),
		TotalAmount: core.Money{Yen: req.TotalAmount},
		StartDate:   start,
		EndDate:     end,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetJSON(created))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req updateBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	patch := core.BudgetPatch{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.TotalAmount != nil {
		patch.TotalAmount = &core.Money{Yen: *req.TotalAmount}
	}
	if req.StartDate != nil {
		start, err := parseAPIDate(*req.StartDate)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		patch.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := parseAPIDate(*req.EndDate)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		patch.EndDate = &end
	}

	updated, err := s.budgets.Update(r.Context(), id, patch)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetJSON(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	detached, err := s.budgets.Delete(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		DetachedTransactions int64 `json:"detachedTransactions"`
	}{detached})
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	q := r.URL.Query()
	groupByCategory := q.Get("groupByCategory") == "true"

	ref := time.Now().UTC()
	if refPtr, err := queryDatePtr(q, "refDate"); err != nil {
		badRequest(w, err.Error())
		return
	} else if refPtr != nil {
		ref = *refPtr
	}

	progress, err := s.budgets.Progress(r.Context(), id, groupByCategory, ref)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleActiveBudgets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	includeProgress := q.Get("includeProgress") == "true"

	ref := time.Now().UTC()
	if refPtr, err := queryDatePtr(q, "date"); err != nil {
		badRequest(w, err.Error())
		return
	} else if refPtr != nil {
		ref = *refPtr
	}

	active, err := s.budgets.Active(r.Context(), ref, includeProgress)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	type activeBudgetJSON struct {
		Budget   budgetJSON           `json:"budget"`
		Progress *core.BudgetProgress `json:"progress,omitempty"`
	}
	out := make([]activeBudgetJSON, 0, len(active))
	for _, a := range active {
		out = append(out, activeBudgetJSON{Budget: toBudgetJSON(a.Budget), Progress: a.Progress})
	}
	writeJSON(w, http.StatusOK, struct {
		Budgets []activeBudgetJSON `json:"budgets"`
	}{out})
}
