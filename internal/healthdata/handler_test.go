package healthdata_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"healthmate-backend/internal/healthdata"
	"healthmate-backend/internal/shared/config"
	"healthmate-backend/internal/shared/server"
)

func newHealthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return server.NewRouter(server.RouterDeps{
		Config:        config.Config{CORSAllowOrigin: []string{"http://localhost:3000"}},
		HealthHandler: healthdata.NewHandler(healthdata.NewMemoryRepo()),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body, guestID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if guestID != "" {
		req.Header.Set("X-Guest-Id", guestID)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestProfileRoundTrip(t *testing.T) {
	router := newHealthRouter(t)

	resp := doJSON(t, router, http.MethodGet, "/api/v1/profile", "", "rosa")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before upsert, got %d", resp.Code)
	}

	body := `{"fullName":"Rosa Alvarez","dateOfBirth":"1948-03-02","conditions":"hypertension","allergies":"penicillin"}`
	resp = doJSON(t, router, http.MethodPut, "/api/v1/profile", body, "rosa")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on upsert, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/profile", "", "rosa")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 after upsert, got %d", resp.Code)
	}
	var got struct {
		FullName    string `json:"fullName"`
		DateOfBirth string `json:"dateOfBirth"`
		Conditions  string `json:"conditions"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.FullName != "Rosa Alvarez" || got.DateOfBirth != "1948-03-02" || got.Conditions != "hypertension" {
		t.Errorf("unexpected profile %+v", got)
	}
}

func TestProfileRejectsBadDate(t *testing.T) {
	router := newHealthRouter(t)

	resp := doJSON(t, router, http.MethodPut, "/api/v1/profile", `{"fullName":"Rosa","dateOfBirth":"03/02/1948"}`, "rosa")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestMedicationsCreateAndList(t *testing.T) {
	router := newHealthRouter(t)

	body := `{"name":"Lisinopril","dosage":"10mg","frequency":"daily","startDate":"2026-01-10"}`
	resp := doJSON(t, router, http.MethodPost, "/api/v1/medications", body, "rosa")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/medications", "", "rosa")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got struct {
		Medications []struct {
			Name      string `json:"name"`
			Dosage    string `json:"dosage"`
			StartDate string `json:"startDate"`
		} `json:"medications"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Medications) != 1 || got.Medications[0].Name != "Lisinopril" {
		t.Fatalf("unexpected medications %+v", got.Medications)
	}
	if got.Medications[0].StartDate != "2026-01-10" {
		t.Errorf("expected startDate 2026-01-10, got %q", got.Medications[0].StartDate)
	}
}

func TestMedicationRequiresName(t *testing.T) {
	router := newHealthRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/medications", `{"dosage":"10mg"}`, "rosa")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAppointmentsCreateAndList(t *testing.T) {
	router := newHealthRouter(t)

	body := `{"title":"Cardiology follow-up","doctorName":"Dr. Lee","location":"Room 4","when":"2026-09-15T14:30:00Z"}`
	resp := doJSON(t, router, http.MethodPost, "/api/v1/appointments", body, "rosa")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/appointments", "", "rosa")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got struct {
		Appointments []struct {
			Title string `json:"title"`
			When  string `json:"when"`
		} `json:"appointments"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Appointments) != 1 || got.Appointments[0].Title != "Cardiology follow-up" {
		t.Fatalf("unexpected appointments %+v", got.Appointments)
	}
	if got.Appointments[0].When != "2026-09-15T14:30:00Z" {
		t.Errorf("expected when 2026-09-15T14:30:00Z, got %q", got.Appointments[0].When)
	}
}

func TestAppointmentRejectsBadWhen(t *testing.T) {
	router := newHealthRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/appointments", `{"title":"Checkup","when":"tomorrow"}`, "rosa")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestHealthDataScopedByUser(t *testing.T) {
	router := newHealthRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/medications", `{"name":"Metformin"}`, "rosa")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/medications", "", "other")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got struct {
		Medications []json.RawMessage `json:"medications"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Medications) != 0 {
		t.Errorf("expected no medications for another user, got %d", len(got.Medications))
	}
}
