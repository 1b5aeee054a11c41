package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grooming-service/internal/domain/timewin"
	"grooming-service/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", searchPetsHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
	})

	// Mascotas de un cliente (alimenta el flujo de reserva)
	r.Get("/clients/{clientID}/pets", listClientPetsHandler(svc))
}

type createPetRequest struct {
	ClientID  string `json:"client_id"`
	Name      string `json:"name"`
	Species   string `json:"species" enums:"dog,cat"`
	Breed     string `json:"breed"`
	Sex       string `json:"sex" enums:"male,female,unknown"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD opcional
	Notes     string `json:"notes"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name      *string `json:"name"`
	Species   *string `json:"species"`
	Breed     *string `json:"breed"`
	Sex       *string `json:"sex"`
	BirthDate *string `json:"birth_date"` // YYYY-MM-DD
	Notes     *string `json:"notes"`
}

type petResponse struct {
	ID        int64  `json:"id"`
	ClientID  string `json:"client_id"`
	Name      string `json:"name"`
	Species   string `json:"species"`
	Breed     string `json:"breed"`
	Sex       string `json:"sex"`
	BirthDate string `json:"birth_date,omitempty"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Tags pets
// @Accept json
// @Produce json
// @Param payload body createPetRequest true "Datos de la mascota; birth_date YYYY-MM-DD opcional"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var birth *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			d, err := timewin.ParseDate(strings.TrimSpace(req.BirthDate))
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			birth = &d
		}

		p, err := svc.Create(r.Context(), CreateInput{
			ClientID:  req.ClientID,
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: birth,
			Notes:     req.Notes,
		})
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// getPetHandler godoc
// @Summary Perfil de mascota
// @Tags pets
// @Produce json
// @Param petID path int true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "petID"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		p, err := svc.GetByID(r.Context(), id)
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path int true "ID de la mascota"
// @Param payload body updatePetRequest true "Campos a tocar (nil = sin cambio)"
// @Success 200 {object} petResponse
// @Failure 400 {string} string "invalid json / datos inválidos"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "petID"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		var req updatePetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Name:    req.Name,
			Species: req.Species,
			Breed:   req.Breed,
			Sex:     req.Sex,
			Notes:   req.Notes,
		}
		if req.BirthDate != nil && strings.TrimSpace(*req.BirthDate) != "" {
			d, err := timewin.ParseDate(strings.TrimSpace(*req.BirthDate))
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.BirthDate = &d
		}

		p, err := svc.Update(r.Context(), id, in)
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// listClientPetsHandler godoc
// @Summary Mascotas de un cliente
// @Tags pets
// @Produce json
// @Param clientID path string true "ID del cliente"
// @Success 200 {array} petResponse
// @Router /clients/{clientID}/pets [get]
func listClientPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		items, err := svc.ListByClient(r.Context(), chi.URLParam(r, "clientID"))
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// searchPetsHandler godoc
// @Summary Buscar mascotas por nombre
// @Tags pets
// @Produce json
// @Param q query string true "Texto de búsqueda"
// @Param limit query int false "Máximo de resultados (1-100, default 20)"
// @Success 200 {array} petResponse
// @Router /pets [get]
func searchPetsHandler(svc *Service) http.HandlerFunc {
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

		items, err := svc.Search(r.Context(), r.URL.Query().Get("q"), limit)
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
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

func toPetResponse(p Pet) petResponse {
	resp := petResponse{
		ID:        p.ID,
		ClientID:  p.ClientID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Sex:       p.Sex,
		Notes:     p.Notes,
		CreatedAt: timewin.Format(p.CreatedAt),
		UpdatedAt: timewin.Format(p.UpdatedAt),
	}
	if p.BirthDate != nil {
		resp.BirthDate = timewin.FormatDate(*p.BirthDate)
	}
	return resp
}

// writeJSON está duplicado a propósito en los handlers de cada módulo para
// no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
