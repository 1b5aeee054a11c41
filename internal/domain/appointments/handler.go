package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grooming-service/internal/domain/pets"
	"grooming-service/internal/domain/timewin"
	"grooming-service/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Route("/appointments", func(ar chi.Router) {
		ar.Post("/", createAppointmentHandler(svc, petsSvc))
		ar.Get("/", listAppointmentsHandler(svc))

		ar.Get("/{appointmentID}", getAppointmentHandler(svc))
		ar.Put("/{appointmentID}", editAppointmentHandler(svc))

		ar.Post("/{appointmentID}/reschedule", rescheduleAppointmentHandler(svc))
		ar.Post("/{appointmentID}/cancel", cancelAppointmentHandler(svc))
		ar.Post("/{appointmentID}/attend", attendAppointmentHandler(svc))

		ar.Get("/{appointmentID}/changes", listChangesHandler(svc))
	})
}

// scheduleRequest es el cuerpo para crear/editar una cita.
// Horarios en hora local naive YYYY-MM-DDTHH:mm:ss (sin zona).
type scheduleRequest struct {
	PetID    int64  `json:"pet_id,omitempty"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
	Notes    string `json:"notes"`
}

type rescheduleRequest struct {
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
	Reason   string `json:"reason"`
}

type cancelRequest struct {
	Reason       string   `json:"reason"`
	ChargeMethod *string  `json:"charge_method,omitempty" enums:"CASH,CARD,MOBILE_BANKING"`
	ChargeAmount *float64 `json:"charge_amount,omitempty"`
}

// appointmentResponse representa una cita devuelta por la API.
type appointmentResponse struct {
	ID           int64    `json:"id"`
	PetID        int64    `json:"pet_id"`
	StartsAt     string   `json:"starts_at"`
	EndsAt       string   `json:"ends_at"`
	Status       Status   `json:"status" enums:"PENDING,ATTENDED,CANCELED"`
	Notes        string   `json:"notes"`
	CancelReason string   `json:"cancel_reason,omitempty"`
	ChargeMethod *string  `json:"charge_method,omitempty"`
	ChargeAmount *float64 `json:"charge_amount,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

type changeResponse struct {
	ID           string `json:"id"`
	PrevStartsAt string `json:"prev_starts_at"`
	PrevEndsAt   string `json:"prev_ends_at"`
	NewStartsAt  string `json:"new_starts_at"`
	NewEndsAt    string `json:"new_ends_at"`
	Reason       string `json:"reason"`
	RecordedAt   string `json:"recorded_at"`
}

// createAppointmentHandler godoc
// @Summary Crear cita
// @Description Crea una cita PENDING para la mascota indicada. El store hace el chequeo de solape; con ?force=true se acepta la reserva aunque intersecte otra.
// @Tags appointments
// @Accept json
// @Produce json
// @Param force query bool false "Aceptar la reserva aunque el intervalo se solape"
// @Param payload body scheduleRequest true "Horarios en hora local naive"
// @Success 201 {object} appointmentResponse
// @Failure 400 {string} string "invalid json / intervalo inválido"
// @Failure 404 {string} string "pet not found"
// @Failure 409 {string} string "booking conflict"
// @Router /appointments [post]
func createAppointmentHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		startsAt, endsAt, err := parseInterval(req.StartsAt, req.EndsAt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// La mascota tiene que existir antes de reservar.
		if _, err := petsSvc.GetByID(r.Context(), req.PetID); err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		force := boolQuery(r, "force")
		a, err := svc.Create(r.Context(), CreateInput{
			PetID:        req.PetID,
			StartsAt:     startsAt,
			EndsAt:       endsAt,
			Notes:        req.Notes,
			ForceOverlap: force,
		})
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeData(w, http.StatusCreated, toAppointmentResponse(a), forceWarnings(force))
	}
}

// editAppointmentHandler godoc
// @Summary Editar cita
// @Description Reemplaza horario y notas de una cita PENDING. Mismas reglas de validación y conflicto que crear.
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointmentID path int true "ID de la cita"
// @Param force query bool false "Aceptar la reserva aunque el intervalo se solape"
// @Param payload body scheduleRequest true "Horarios en hora local naive"
// @Success 200 {object} appointmentResponse
// @Failure 400 {string} string "invalid json / intervalo inválido"
// @Failure 404 {string} string "appointment not found"
// @Failure 409 {string} string "booking conflict"
// @Router /appointments/{appointmentID} [put]
func editAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		startsAt, endsAt, err := parseInterval(req.StartsAt, req.EndsAt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		force := boolQuery(r, "force")
		a, err := svc.Edit(r.Context(), id, EditInput{
			StartsAt:     startsAt,
			EndsAt:       endsAt,
			Notes:        req.Notes,
			ForceOverlap: force,
		})
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeData(w, http.StatusOK, toAppointmentResponse(a), forceWarnings(force))
	}
}

// rescheduleAppointmentHandler godoc
// @Summary Reprogramar cita
// @Description Cambia el horario de una cita PENDING exigiendo un motivo; el store registra el cambio como auditoría.
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointmentID path int true "ID de la cita"
// @Param force query bool false "Aceptar la reserva aunque el intervalo se solape"
// @Param payload body rescheduleRequest true "Nuevo horario + motivo"
// @Success 200 {object} appointmentResponse
// @Failure 400 {string} string "invalid json / intervalo o motivo inválido"
// @Failure 404 {string} string "appointment not found"
// @Failure 409 {string} string "booking conflict"
// @Router /appointments/{appointmentID}/reschedule [post]
func rescheduleAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req rescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		startsAt, endsAt, err := parseInterval(req.StartsAt, req.EndsAt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		force := boolQuery(r, "force")
		a, err := svc.Reschedule(r.Context(), id, RescheduleInput{
			StartsAt:     startsAt,
			EndsAt:       endsAt,
			Reason:       req.Reason,
			ForceOverlap: force,
		})
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeData(w, http.StatusOK, toAppointmentResponse(a), forceWarnings(force))
	}
}

// cancelAppointmentHandler godoc
// @Summary Cancelar cita
// @Description Transiciona PENDING -> CANCELED. El motivo es obligatorio; método y monto de penalidad son opcionales e independientes.
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointmentID path int true "ID de la cita"
// @Param payload body cancelRequest true "Motivo + penalidad opcional"
// @Success 200 {object} appointmentResponse
// @Failure 400 {string} string "invalid json / motivo vacío"
// @Failure 404 {string} string "appointment not found"
// @Failure 409 {string} string "la cita ya está en estado terminal"
// @Router /appointments/{appointmentID}/cancel [post]
func cancelAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req cancelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var method *ChargeMethod
		if req.ChargeMethod != nil {
			m := ChargeMethod(strings.TrimSpace(*req.ChargeMethod))
			method = &m
		}

		a, err := svc.Cancel(r.Context(), id, CancelInput{
			Reason:       req.Reason,
			ChargeMethod: method,
			ChargeAmount: req.ChargeAmount,
		})
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeData(w, http.StatusOK, toAppointmentResponse(a), nil)
	}
}

// attendAppointmentHandler godoc
// @Summary Marcar cita atendida
// @Description Transiciona PENDING -> ATTENDED. Sin cuerpo. Un segundo attend sobre la misma cita falla.
// @Tags appointments
// @Produce json
// @Param appointmentID path int true "ID de la cita"
// @Success 200 {object} appointmentResponse
// @Failure 404 {string} string "appointment not found"
// @Failure 409 {string} string "la cita ya está en estado terminal"
// @Router /appointments/{appointmentID}/attend [post]
func attendAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		a, err := svc.Attend(r.Context(), id)
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeData(w, http.StatusOK, toAppointmentResponse(a), nil)
	}
}

// getAppointmentHandler godoc
// @Summary Detalle de cita
// @Tags appointments
// @Produce json
// @Param appointmentID path int true "ID de la cita"
// @Success 200 {object} appointmentResponse
// @Failure 404 {string} string "appointment not found"
// @Router /appointments/{appointmentID} [get]
func getAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		a, err := svc.GetByID(r.Context(), id)
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeData(w, http.StatusOK, toAppointmentResponse(a), nil)
	}
}

// listAppointmentsHandler godoc
// @Summary Listar citas por rango
// @Description Lista citas cuyo intervalo cae en [from, to], opcionalmente filtradas por estado o mascota. Los bordes típicos salen de las ventanas de día/semana/mes.
// @Tags appointments
// @Produce json
// @Param from query string true "Inicio del rango (YYYY-MM-DDTHH:mm:ss, hora local)"
// @Param to query string true "Fin del rango (YYYY-MM-DDTHH:mm:ss, hora local)"
// @Param status query string false "PENDING | ATTENDED | CANCELED"
// @Param pet_id query int false "Filtrar por mascota"
// @Success 200 {array} appointmentResponse
// @Failure 400 {string} string "rango o estado inválido"
// @Router /appointments [get]
func listAppointmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		from, err := timewin.Parse(strings.TrimSpace(r.URL.Query().Get("from")))
		if err != nil {
			http.Error(w, "from must be YYYY-MM-DDTHH:mm:ss", http.StatusBadRequest)
			return
		}
		to, err := timewin.Parse(strings.TrimSpace(r.URL.Query().Get("to")))
		if err != nil {
			http.Error(w, "to must be YYYY-MM-DDTHH:mm:ss", http.StatusBadRequest)
			return
		}

		f := ListFilter{From: from, To: to}
		if v := strings.TrimSpace(r.URL.Query().Get("status")); v != "" {
			st := Status(v)
			f.Status = &st
		}
		if v := strings.TrimSpace(r.URL.Query().Get("pet_id")); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "pet_id must be a positive integer", http.StatusBadRequest)
				return
			}
			f.PetID = &id
		}

		items, err := svc.List(r.Context(), f)
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		out := make([]appointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAppointmentResponse(a))
		}
		writeList(w, http.StatusOK, out, len(out))
	}
}

// listChangesHandler godoc
// @Summary Historial de reprogramaciones
// @Tags appointments
// @Produce json
// @Param appointmentID path int true "ID de la cita"
// @Success 200 {array} changeResponse
// @Failure 404 {string} string "appointment not found"
// @Router /appointments/{appointmentID}/changes [get]
func listChangesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		if _, err := svc.GetByID(r.Context(), id); err != nil {
			writeDomainErr(w, err)
			return
		}

		changes, err := svc.ListChanges(r.Context(), id)
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		out := make([]changeResponse, 0, len(changes))
		for _, c := range changes {
			out = append(out, changeResponse{
				ID:           c.ID,
				PrevStartsAt: timewin.Format(c.PrevStartsAt),
				PrevEndsAt:   timewin.Format(c.PrevEndsAt),
				NewStartsAt:  timewin.Format(c.NewStartsAt),
				NewEndsAt:    timewin.Format(c.NewEndsAt),
				Reason:       c.Reason,
				RecordedAt:   timewin.Format(c.RecordedAt),
			})
		}
		writeList(w, http.StatusOK, out, len(out))
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

func appointmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "appointmentID"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func parseInterval(startsAt, endsAt string) (time.Time, time.Time, error) {
	s, err := timewin.Parse(strings.TrimSpace(startsAt))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("starts_at must be YYYY-MM-DDTHH:mm:ss")
	}
	e, err := timewin.Parse(strings.TrimSpace(endsAt))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("ends_at must be YYYY-MM-DDTHH:mm:ss")
	}
	return s, e, nil
}

func boolQuery(r *http.Request, key string) bool {
	v := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key)))
	return v == "true" || v == "1"
}

func forceWarnings(force bool) []string {
	if !force {
		return nil
	}
	return []string{"overlap check bypassed (force)"}
}

func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	resp := appointmentResponse{
		ID:           a.ID,
		PetID:        a.PetID,
		StartsAt:     timewin.Format(a.StartsAt),
		EndsAt:       timewin.Format(a.EndsAt),
		Status:       a.Status,
		Notes:        a.Notes,
		CancelReason: a.CancelReason,
		ChargeAmount: a.ChargeAmount,
		CreatedAt:    timewin.Format(a.CreatedAt),
		UpdatedAt:    timewin.Format(a.UpdatedAt),
	}
	if a.ChargeMethod != nil {
		m := string(*a.ChargeMethod)
		resp.ChargeMethod = &m
	}
	return resp
}

// Envelope de respuesta: payload principal + metadata opcional + warnings
// que el caller debe mostrar pero no necesita accionar.
type envelope struct {
	Data     any           `json:"data"`
	Meta     *envelopeMeta `json:"meta,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

type envelopeMeta struct {
	Count int `json:"count"`
}

func writeData(w http.ResponseWriter, status int, v any, warnings []string) {
	writeJSON(w, status, envelope{Data: v, Warnings: warnings})
}

func writeList(w http.ResponseWriter, status int, v any, count int) {
	writeJSON(w, status, envelope{Data: v, Meta: &envelopeMeta{Count: count}})
}

// writeJSON está duplicado a propósito en los handlers de cada módulo para
// no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
