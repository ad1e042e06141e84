package http

import (
	"net/http"
	"strings"

	"kakeibo/internal/core"
)

func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	var typ *core.PaymentMethodType
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		t := core.PaymentMethodType(v)
		typ = &t
	}

	methods, err := s.paymentMethods.List(r.Context(), typ)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	out := make([]paymentMethodJSON, 0, len(methods))
	for _, m := range methods {
		out = append(out, toPaymentMethodJSON(m))
	}
	writeJSON(w, http.StatusOK, struct {
		PaymentMethods []paymentMethodJSON `json:"paymentMethods"`
	}{out})
}

func (s *Server) handleGetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	m, err := s.paymentMethods.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentMethodJSON(m))
}

func (s *Server) handleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	created, err := s.paymentMethods.Create(r.Context(), core.PaymentMethod{
		Name:        strings.TrimSpace(req.Name),
		Type:        core.PaymentMethodType(req.Type),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentMethodJSON(created))
}

func (s *Server) handleUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req updatePaymentMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	patch := core.PaymentMethodPatch{Name: req.Name, Description: req.Description}
	if req.Type != nil {
		typ := core.PaymentMethodType(*req.Type)
		patch.Type = &typ
	}

	updated, err := s.paymentMethods.Update(r.Context(), id, patch)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentMethodJSON(updated))
}

func (s *Server) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.paymentMethods.Delete(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
