package catalogs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"grooming-service/internal/domain/timewin"
	"grooming-service/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta el CRUD genérico bajo /catalogs/{kind}, donde kind es
// zones, treatment-types o medicines.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/catalogs/{kind}", func(cr chi.Router) {
		cr.Get("/", listEntriesHandler(svc))
		cr.Post("/", createEntryHandler(svc))
		cr.Patch("/{entryID}", updateEntryHandler(svc))
	})
}

type createEntryRequest struct {
	Name string `json:"name"`
}

type updateEntryRequest struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

type entryResponse struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind" enums:"zones,treatment-types,medicines"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// listEntriesHandler godoc
// @Summary Listar entradas de un catálogo
// @Tags catalogs
// @Produce json
// @Param kind path string true "zones | treatment-types | medicines"
// @Param include_inactive query bool false "Incluir entradas desactivadas"
// @Success 200 {array} entryResponse
// @Failure 400 {string} string "catálogo desconocido"
// @Router /catalogs/{kind} [get]
func listEntriesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		includeInactive := r.URL.Query().Get("include_inactive") == "true"
		items, err := svc.List(r.Context(), Kind(chi.URLParam(r, "kind")), includeInactive)
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		out := make([]entryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEntryResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createEntryHandler godoc
// @Summary Crear entrada de catálogo
// @Tags catalogs
// @Accept json
// @Produce json
// @Param kind path string true "zones | treatment-types | medicines"
// @Param payload body createEntryRequest true "Nombre de la entrada"
// @Success 201 {object} entryResponse
// @Failure 400 {string} string "invalid json / catálogo desconocido / nombre vacío"
// @Router /catalogs/{kind} [post]
func createEntryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		var req createEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		e, err := svc.Create(r.Context(), Kind(chi.URLParam(r, "kind")), req.Name)
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toEntryResponse(e))
	}
}

// updateEntryHandler godoc
// @Summary Actualizar entrada de catálogo
// @Tags catalogs
// @Accept json
// @Produce json
// @Param kind path string true "zones | treatment-types | medicines"
// @Param entryID path string true "ID de la entrada"
// @Param payload body updateEntryRequest true "Campos a tocar (nil = sin cambio)"
// @Success 200 {object} entryResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 404 {string} string "catalog entry not found"
// @Router /catalogs/{kind}/{entryID} [patch]
func updateEntryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		var req updateEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		e, err := svc.Update(r.Context(), Kind(chi.URLParam(r, "kind")), chi.URLParam(r, "entryID"), UpdateInput{
			Name:   req.Name,
			Active: req.Active,
		})
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toEntryResponse(e))
	}
}

func requireSession(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		ID:        e.ID,
		Kind:      e.Kind,
		Name:      e.Name,
		Active:    e.Active,
		CreatedAt: timewin.Format(e.CreatedAt),
		UpdatedAt: timewin.Format(e.UpdatedAt),
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo para
// no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
