package http

import (
	"net/http"
	"strings"

	"kakeibo/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var typ *core.TransactionType
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		t := core.TransactionType(v)
		typ = &t
	}

	cats, err := s.categories.ListMain(r.Context(), typ)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	out := make([]mainCategoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, toMainCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, struct {
		Categories []mainCategoryJSON `json:"categories"`
	}{out})
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := s.categories.GetMain(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMainCategoryJSON(c))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	created, err := s.categories.CreateMain(r.Context(), core.MainCategory{
		Name: strings.TrimSpace(req.Name),
		Type: core.TransactionType(req.Type),
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMainCategoryJSON(created))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	patch := core.MainCategoryPatch{Name: req.Name}
	if req.Type != nil {
		typ := core.TransactionType(*req.Type)
		patch.Type = &typ
	}

	updated, err := s.categories.UpdateMain(r.Context(), id, patch)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMainCategoryJSON(updated))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.categories.DeleteMain(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSubCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	sub, err := s.categories.GetSub(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubCategoryJSON(sub))
}

func (s *Server) handleCreateSubCategory(w http.ResponseWriter, r *http.Request) {
	var req subCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	created, err := s.categories.CreateSub(r.Context(), core.SubCategory{
		MainCategoryID: req.MainCategoryID,
		Name:           strings.TrimSpace(req.Name),
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubCategoryJSON(created))
}

func (s *Server) handleUpdateSubCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req updateSubCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	updated, err := s.categories.UpdateSub(r.Context(), id, core.SubCategoryPatch{Name: req.Name})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubCategoryJSON(updated))
}

func (s *Server) handleDeleteSubCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.categories.DeleteSub(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
