package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"grooming-service/internal/router"
)

const debugUser = "groomer-1"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_BookingLifecycle(t *testing.T) {
	ts := newServer(t)

	petID := seedPet(t, ts.URL)

	// 1) Crear cita => PENDING
	st, body := doReq(t, ts.URL, "POST", "/appointments", map[string]any{
		"pet_id":    petID,
		"starts_at": "2026-03-10T10:00:00",
		"ends_at":   "2026-03-10T11:00:00",
		"notes":     "baño y corte",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create appointment, got %d body=%s", st, string(body))
	}
	appt := decodeData(t, body)
	if appt["status"] != "PENDING" {
		t.Fatalf("expected PENDING, got %v", appt["status"])
	}
	apptID := int64(appt["id"].(float64))

	// 2) Reserva solapada => 409; reintento con force => 201 + warning
	st, _ = doReq(t, ts.URL, "POST", "/appointments", map[string]any{
		"pet_id":    petID,
		"starts_at": "2026-03-10T10:30:00",
		"ends_at":   "2026-03-10T11:30:00",
	})
	if st != http.StatusConflict {
		t.Fatalf("expected 409 for overlapping booking, got %d", st)
	}

	st, body = doReq(t, ts.URL, "POST", "/appointments?force=true", map[string]any{
		"pet_id":    petID,
		"starts_at": "2026-03-10T10:30:00",
		"ends_at":   "2026-03-10T11:30:00",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 forced booking, got %d body=%s", st, string(body))
	}
	var forced struct {
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(body, &forced); err != nil {
		t.Fatalf("unmarshal forced response: %v", err)
	}
	if len(forced.Warnings) == 0 {
		t.Fatalf("expected warning on forced booking, body=%s", string(body))
	}

	// 3) Reprogramar con motivo deja rastro
	st, body = doReq(t, ts.URL, "POST", pathID("/appointments/", apptID)+"/reschedule", map[string]any{
		"starts_at": "2026-03-11T15:00:00",
		"ends_at":   "2026-03-11T16:00:00",
		"reason":    "cliente pidió otro día",
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 reschedule, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "GET", pathID("/appointments/", apptID)+"/changes", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list changes, got %d body=%s", st, string(body))
	}
	var changes struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &changes); err != nil {
		t.Fatalf("unmarshal changes: %v", err)
	}
	if len(changes.Data) != 1 {
		t.Fatalf("expected 1 change record, got %d", len(changes.Data))
	}
	if changes.Data[0]["reason"] != "cliente pidió otro día" {
		t.Fatalf("wrong change reason: %v", changes.Data[0]["reason"])
	}

	// 4) Attend; segundo attend => 409
	st, body = doReq(t, ts.URL, "POST", pathID("/appointments/", apptID)+"/attend", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 attend, got %d body=%s", st, string(body))
	}
	if got := decodeData(t, body)["status"]; got != "ATTENDED" {
		t.Fatalf("expected ATTENDED, got %v", got)
	}

	st, _ = doReq(t, ts.URL, "POST", pathID("/appointments/", apptID)+"/attend", nil)
	if st != http.StatusConflict {
		t.Fatalf("expected 409 on second attend, got %d", st)
	}
}

func TestHTTP_Cancel_NoShowWithCharge(t *testing.T) {
	ts := newServer(t)

	petID := seedPet(t, ts.URL)

	st, body := doReq(t, ts.URL, "POST", "/appointments", map[string]any{
		"pet_id":    petID,
		"starts_at": "2026-03-12T09:00:00",
		"ends_at":   "2026-03-12T10:00:00",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", st, string(body))
	}
	apptID := int64(decodeData(t, body)["id"].(float64))

	// Cancelar sin motivo => 400
	st, _ = doReq(t, ts.URL, "POST", pathID("/appointments/", apptID)+"/cancel", map[string]any{
		"reason": "",
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty reason, got %d", st)
	}

	st, body = doReq(t, ts.URL, "POST", pathID("/appointments/", apptID)+"/cancel", map[string]any{
		"reason":        "cliente no llegó",
		"charge_method": "CASH",
		"charge_amount": 10,
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 cancel, got %d body=%s", st, string(body))
	}
	canceled := decodeData(t, body)
	if canceled["status"] != "CANCELED" {
		t.Fatalf("expected CANCELED, got %v", canceled["status"])
	}
	if canceled["cancel_reason"] != "cliente no llegó" {
		t.Fatalf("wrong cancel reason: %v", canceled["cancel_reason"])
	}
	if canceled["charge_method"] != "CASH" {
		t.Fatalf("wrong charge method: %v", canceled["charge_method"])
	}

	// El hueco liberado se reserva de nuevo sin conflicto
	st, _ = doReq(t, ts.URL, "POST", "/appointments", map[string]any{
		"pet_id":    petID,
		"starts_at": "2026-03-12T09:00:00",
		"ends_at":   "2026-03-12T10:00:00",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected canceled slot to be reusable, got %d", st)
	}
}

func TestHTTP_WalkInVisit_PaidInFull(t *testing.T) {
	ts := newServer(t)

	petID := seedPet(t, ts.URL)

	st, body := doReq(t, ts.URL, "POST", "/visits", map[string]any{
		"pet_id":                  petID,
		"auto_create_appointment": true,
		"visited_at":              "2026-03-10T10:00:00",
		"items": []map[string]any{
			{"category": "BATH", "price": 25},
			{"category": "HAIRCUT", "price": 15},
		},
		"payment": map[string]any{
			"status":      "PAID",
			"method":      "CASH",
			"amount_paid": 40,
		},
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 walk-in visit, got %d body=%s", st, string(body))
	}

	visit := decodeData(t, body)
	if visit["total_amount"].(float64) != 40 {
		t.Fatalf("expected total 40, got %v", visit["total_amount"])
	}
	payment := visit["payment"].(map[string]any)
	if payment["balance"].(float64) != 0 {
		t.Fatalf("expected balance 0, got %v", payment["balance"])
	}
	if visit["appointment_id"] == nil {
		t.Fatal("expected synthesized appointment for walk-in")
	}

	// La cita sintetizada existe y quedó ATTENDED
	apptID := int64(visit["appointment_id"].(float64))
	st, body = doReq(t, ts.URL, "GET", pathID("/appointments/", apptID), nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 get synthesized appointment, got %d body=%s", st, string(body))
	}
	if got := decodeData(t, body)["status"]; got != "ATTENDED" {
		t.Fatalf("expected synthesized appointment ATTENDED, got %v", got)
	}
}

func TestHTTP_Visit_PartialPayment(t *testing.T) {
	ts := newServer(t)

	petID := seedPet(t, ts.URL)

	st, body := doReq(t, ts.URL, "POST", "/visits", map[string]any{
		"pet_id":     petID,
		"visited_at": "2026-03-10T12:00:00",
		"items": []map[string]any{
			{"category": "TREATMENT", "price": 75, "treatment_detail": map[string]any{
				"treatment_type_text": "antipulgas",
				"next_visit_date":     "2026-04-10",
			}},
		},
		"payment": map[string]any{
			"status":      "PARTIAL",
			"method":      "CARD",
			"amount_paid": 30,
		},
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 visit, got %d body=%s", st, string(body))
	}

	visit := decodeData(t, body)
	payment := visit["payment"].(map[string]any)
	if payment["balance"].(float64) != 45 {
		t.Fatalf("expected balance 45, got %v", payment["balance"])
	}

	// appointment_id y auto_create juntos => 400
	st, _ = doReq(t, ts.URL, "POST", "/visits", map[string]any{
		"pet_id":                  petID,
		"appointment_id":          1,
		"auto_create_appointment": true,
		"visited_at":              "2026-03-10T13:00:00",
		"items":                   []map[string]any{{"category": "BATH", "price": 20}},
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for exclusive origin flags, got %d", st)
	}
}

func TestHTTP_Unauthenticated_Rejected(t *testing.T) {
	ts := newServer(t)

	req, err := http.NewRequest("GET", ts.URL+"/appointments?from=2026-03-10T00:00:00&to=2026-03-10T23:59:59", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", res.StatusCode)
	}
}

// -------------------------
// Helpers
// -------------------------

func seedPet(t *testing.T, baseURL string) int64 {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/clients", map[string]any{
		"name":  "María López",
		"phone": "555-0101",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create client, got %d body=%s", st, string(body))
	}
	var client struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &client)
	if client.ID == "" {
		t.Fatalf("create client: missing id body=%s", string(body))
	}

	st, body = doReq(t, baseURL, "POST", "/pets", map[string]any{
		"client_id": client.ID,
		"name":      "Milo",
		"species":   "dog",
		"breed":     "mixed",
		"sex":       "male",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}
	var pet struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(body, &pet)
	if pet.ID == 0 {
		t.Fatalf("create pet: missing id body=%s", string(body))
	}
	return pet.ID
}

func decodeData(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal envelope: %v body=%s", err, string(body))
	}
	if resp.Data == nil {
		t.Fatalf("missing data in envelope: %s", string(body))
	}
	return resp.Data
}

func pathID(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}

func doReq(t *testing.T, baseURL, method, path string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Debug-User-ID", debugUser)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
