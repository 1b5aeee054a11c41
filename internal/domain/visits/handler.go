package visits

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"grooming-service/internal/domain/pets"
	"grooming-service/internal/domain/timewin"
	"grooming-service/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Route("/visits", func(vr chi.Router) {
		vr.Post("/", createVisitHandler(svc, petsSvc))
		vr.Get("/", listVisitsHandler(svc))

		vr.Get("/{visitID}", getVisitHandler(svc))
		vr.Put("/{visitID}", updateVisitHandler(svc))
	})
}

type treatmentDetailPayload struct {
	TreatmentTypeID   *string `json:"treatment_type_id,omitempty"`
	TreatmentTypeText string  `json:"treatment_type_text,omitempty"`
	MedicineID        *string `json:"medicine_id,omitempty"`
	MedicineText      string  `json:"medicine_text,omitempty"`
	NextVisitDate     *string `json:"next_visit_date,omitempty"` // YYYY-MM-DD
}

type itemPayload struct {
	Category  string                  `json:"category" enums:"BATH,HAIRCUT,TREATMENT,OTHER"`
	Price     float64                 `json:"price"`
	Treatment *treatmentDetailPayload `json:"treatment_detail,omitempty"`
}

type paymentPayload struct {
	Status     string   `json:"status" enums:"PENDING,PARTIAL,PAID"`
	Method     *string  `json:"method,omitempty" enums:"CASH,CARD,MOBILE_BANKING"`
	AmountPaid *float64 `json:"amount_paid,omitempty"`
}

// createVisitRequest es el cuerpo para registrar una visita completa.
type createVisitRequest struct {
	PetID                 int64           `json:"pet_id"`
	AppointmentID         *int64          `json:"appointment_id,omitempty"`
	AutoCreateAppointment bool            `json:"auto_create_appointment,omitempty"`
	VisitedAt             string          `json:"visited_at"` // YYYY-MM-DDTHH:mm:ss hora local
	Notes                 string          `json:"notes"`
	Items                 []itemPayload   `json:"items"`
	Payment               *paymentPayload `json:"payment,omitempty"`
}

type updateVisitRequest struct {
	VisitedAt string          `json:"visited_at"`
	Notes     string          `json:"notes"`
	Items     []itemPayload   `json:"items"`
	Payment   *paymentPayload `json:"payment,omitempty"`
}

type paymentResponse struct {
	Status     PaymentStatus `json:"status"`
	Method     *string       `json:"method,omitempty"`
	AmountPaid *float64      `json:"amount_paid,omitempty"`
	Balance    float64       `json:"balance"`
}

type itemResponse struct {
	Category  ItemCategory            `json:"category"`
	Price     float64                 `json:"price"`
	Treatment *treatmentDetailPayload `json:"treatment_detail,omitempty"`
}

// visitResponse representa una visita devuelta por la API.
type visitResponse struct {
	ID            int64            `json:"id"`
	PetID         int64            `json:"pet_id"`
	AppointmentID *int64           `json:"appointment_id,omitempty"`
	VisitedAt     string           `json:"visited_at"`
	Notes         string           `json:"notes"`
	Items         []itemResponse   `json:"items"`
	Payment       *paymentResponse `json:"payment,omitempty"`
	TotalAmount   float64          `json:"total_amount"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
}

// createVisitHandler godoc
// @Summary Registrar visita
// @Description Crea la visita con sus items y pago en una sola operación atómica. Con auto_create_appointment el store sintetiza además la cita de origen ya ATTENDED (walk-in); es excluyente con appointment_id.
// @Tags visits
// @Accept json
// @Produce json
// @Param payload body createVisitRequest true "Visita completa; visited_at en hora local naive"
// @Success 201 {object} visitResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 404 {string} string "pet not found / appointment not found"
// @Router /visits [post]
func createVisitHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		var req createVisitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		visitedAt, err := timewin.Parse(strings.TrimSpace(req.VisitedAt))
		if err != nil {
			http.Error(w, "visited_at must be YYYY-MM-DDTHH:mm:ss", http.StatusBadRequest)
			return
		}

		if _, err := petsSvc.GetByID(r.Context(), req.PetID); err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		items, err := toItems(req.Items)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		v, err := svc.Create(r.Context(), CreateInput{
			PetID:                 req.PetID,
			AppointmentID:         req.AppointmentID,
			AutoCreateAppointment: req.AutoCreateAppointment,
			VisitedAt:             visitedAt,
			Notes:                 req.Notes,
			Items:                 items,
			Payment:               toPayment(req.Payment),
		})
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		var warnings []string
		if req.AutoCreateAppointment && v.AppointmentID != nil {
			warnings = append(warnings, "appointment auto-created for walk-in visit")
		}
		writeData(w, http.StatusCreated, toVisitResponse(v), warnings)
	}
}

// updateVisitHandler godoc
// @Summary Actualizar visita
// @Description Reemplazo total: items y pago se sustituyen en bloque, nunca se mergean elemento a elemento.
// @Tags visits
// @Accept json
// @Produce json
// @Param visitID path int true "ID de la visita"
// @Param payload body updateVisitRequest true "Visita completa de reemplazo"
// @Success 200 {object} visitResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 404 {string} string "visit not found"
// @Router /visits/{visitID} [put]
func updateVisitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		id, ok := visitID(w, r)
		if !ok {
			return
		}

		var req updateVisitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		visitedAt, err := timewin.Parse(strings.TrimSpace(req.VisitedAt))
		if err != nil {
			http.Error(w, "visited_at must be YYYY-MM-DDTHH:mm:ss", http.StatusBadRequest)
			return
		}

		items, err := toItems(req.Items)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		v, err := svc.Update(r.Context(), id, UpdateInput{
			VisitedAt: visitedAt,
			Notes:     req.Notes,
			Items:     items,
			Payment:   toPayment(req.Payment),
		})
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeData(w, http.StatusOK, toVisitResponse(v), nil)
	}
}

// getVisitHandler godoc
// @Summary Detalle de visita
// @Tags visits
// @Produce json
// @Param visitID path int true "ID de la visita"
// @Success 200 {object} visitResponse
// @Failure 404 {string} string "visit not found"
// @Router /visits/{visitID} [get]
func getVisitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		id, ok := visitID(w, r)
		if !ok {
			return
		}

		v, err := svc.GetByID(r.Context(), id)
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		writeData(w, http.StatusOK, toVisitResponse(v), nil)
	}
}

// listVisitsHandler godoc
// @Summary Listar visitas
// @Description Con pet_id devuelve el historial completo de la mascota (ignora from/to por contrato) filtrable por categoría; sin pet_id lista por rango de fechas.
// @Tags visits
// @Produce json
// @Param pet_id query int false "Historial completo de la mascota"
// @Param category query string false "BATH | HAIRCUT | TREATMENT | OTHER (solo con pet_id)"
// @Param from query string false "Inicio del rango (YYYY-MM-DDTHH:mm:ss, hora local)"
// @Param to query string false "Fin del rango (YYYY-MM-DDTHH:mm:ss, hora local)"
// @Success 200 {array} visitResponse
// @Failure 400 {string} string "filtros inválidos"
// @Router /visits [get]
func listVisitsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireSession(w, r) {
			return
		}

		var f ListFilter

		if v := strings.TrimSpace(r.URL.Query().Get("pet_id")); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "pet_id must be a positive integer", http.StatusBadRequest)
				return
			}
			f.PetID = &id

			if c := strings.TrimSpace(r.URL.Query().Get("category")); c != "" {
				cat := ItemCategory(c)
				f.Category = &cat
			}
		} else {
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
			f.From = &from
			f.To = &to
		}

		items, err := svc.List(r.Context(), f)
		if err != nil {
			writeDomainErr(w, err)
			return
		}

		out := make([]visitResponse, 0, len(items))
		for _, v := range items {
			out = append(out, toVisitResponse(v))
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

func visitID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "visitID"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "visit not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func toItems(in []itemPayload) ([]Item, error) {
	out := make([]Item, 0, len(in))
	for _, p := range in {
		it := Item{
			Category: ItemCategory(strings.TrimSpace(p.Category)),
			Price:    p.Price,
		}
		if p.Treatment != nil {
			t := TreatmentDetail{
				TreatmentTypeID:   p.Treatment.TreatmentTypeID,
				TreatmentTypeText: p.Treatment.TreatmentTypeText,
				MedicineID:        p.Treatment.MedicineID,
				MedicineText:      p.Treatment.MedicineText,
			}
			if p.Treatment.NextVisitDate != nil && strings.TrimSpace(*p.Treatment.NextVisitDate) != "" {
				d, err := timewin.ParseDate(strings.TrimSpace(*p.Treatment.NextVisitDate))
				if err != nil {
					return nil, errors.New("next_visit_date must be YYYY-MM-DD")
				}
				t.NextVisitDate = &d
			}
			it.Treatment = &t
		}
		out = append(out, it)
	}
	return out, nil
}

func toPayment(p *paymentPayload) *Payment {
	if p == nil {
		return nil
	}
	out := &Payment{
		Status:     PaymentStatus(strings.TrimSpace(p.Status)),
		AmountPaid: p.AmountPaid,
	}
	if p.Method != nil {
		m := PaymentMethod(strings.TrimSpace(*p.Method))
		out.Method = &m
	}
	return out
}

func toVisitResponse(v Visit) visitResponse {
	items := make([]itemResponse, 0, len(v.Items))
	for _, it := range v.Items {
		ir := itemResponse{Category: it.Category, Price: it.Price}
		if it.Treatment != nil {
			t := &treatmentDetailPayload{
				TreatmentTypeID:   it.Treatment.TreatmentTypeID,
				TreatmentTypeText: it.Treatment.TreatmentTypeText,
				MedicineID:        it.Treatment.MedicineID,
				MedicineText:      it.Treatment.MedicineText,
			}
			if it.Treatment.NextVisitDate != nil {
				d := timewin.FormatDate(*it.Treatment.NextVisitDate)
				t.NextVisitDate = &d
			}
			ir.Treatment = t
		}
		items = append(items, ir)
	}

	resp := visitResponse{
		ID:            v.ID,
		PetID:         v.PetID,
		AppointmentID: v.AppointmentID,
		VisitedAt:     timewin.Format(v.VisitedAt),
		Notes:         v.Notes,
		Items:         items,
		TotalAmount:   v.TotalAmount,
		CreatedAt:     timewin.Format(v.CreatedAt),
		UpdatedAt:     timewin.Format(v.UpdatedAt),
	}
	if v.Payment != nil {
		pr := &paymentResponse{
			Status:     v.Payment.Status,
			AmountPaid: v.Payment.AmountPaid,
			Balance:    v.Payment.Balance,
		}
		if v.Payment.Method != nil {
			m := string(*v.Payment.Method)
			pr.Method = &m
		}
		resp.Payment = pr
	}
	return resp
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
