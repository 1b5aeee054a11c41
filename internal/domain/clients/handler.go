package clients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"grooming-service/internal/domain/timewin"
	"grooming-service/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/clients", func(cr chi.Router) {
		cr.Post("/", createClientHandler(svc))
		cr.Get("/", listClientsHandler(svc))

		cr.Get("/{clientID}", getClientHandler(svc))
		cr.Patch("/{clientID}", updateClientHandler(svc))
	})
}

type createClientRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

type updateClientRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

type clientResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// createClientHandler godoc
// @Summary Registrar cliente
// @Tags clients
// @Accept json
// @Produce json
// @Param payload body createClientRequest true "Datos del cliente"
// @Success 201 {object} clientResponse
// @Failure 400 {string} string "invalid json / nombre vacío"
// @Router /clients [post]
func createClientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		var req createClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.Create(r.Context(), CreateInput{
			Name:    req.Name,
			Phone:   req.Phone,
			Email:   req.Email,
			Address: req.Address,
			Notes:   req.Notes,
		})
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toClientResponse(c))
	}
}

// getClientHandler godoc
// @Summary Detalle de cliente
// @Tags clients
// @Produce json
// @Param clientID path string true "ID del cliente"
// @Success 200 {object} clientResponse
// @Failure 404 {string} string "client not found"
// @Router /clients/{clientID} [get]
func getClientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		c, err := svc.GetByID(r.Context(), chi.URLParam(r, "clientID"))
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toClientResponse(c))
	}
}

// updateClientHandler godoc
// @Summary Actualizar cliente
// @Tags clients
// @Accept json
// @Produce json
// @Param clientID path string true "ID del cliente"
// @Param payload body updateClientRequest true "Campos a tocar (nil = sin cambio)"
// @Success 200 {object} clientResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 404 {string} string "client not found"
// @Router /clients/{clientID} [patch]
func updateClientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		var req updateClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.Update(r.Context(), chi.URLParam(r, "clientID"), UpdateInput{
			Name:    req.Name,
			Phone:   req.Phone,
			Email:   req.Email,
			Address: req.Address,
			Notes:   req.Notes,
		})
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toClientResponse(c))
	}
}

// listClientsHandler godoc
// @Summary Listar/buscar clientes
// @Description Sin q lista los clientes; con q busca por nombre o teléfono.
// @Tags clients
// @Produce json
// @Param q query string false "Texto de búsqueda (nombre o teléfono)"
// @Param limit query int false "Máximo de resultados"
// @Success 200 {array} clientResponse
// @Router /clients [get]
func listClientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}

		var (
			items []Client
			err   error
		)
		if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
			items, err = svc.Search(r.Context(), q, limit)
		} else {
			items, err = svc.List(r.Context(), limit)
		}
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		out := make([]clientResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toClientResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
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

func toClientResponse(c Client) clientResponse {
	return clientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		Notes:     c.Notes,
		CreatedAt: timewin.Format(c.CreatedAt),
		UpdatedAt: timewin.Format(c.UpdatedAt),
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo para
// no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
