package healthdata

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"healthmate-backend/internal/shared/server/middleware"
	"healthmate-backend/internal/shared/server/respond"
)

const dateLayout = "2006-01-02"

// Handler exposes the health-context endpoints.
type Handler struct {
	Repo HealthRepo
}

// NewHandler constructs a Handler.
func NewHandler(repo HealthRepo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches health-context routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.getProfile)
	rg.PUT("/profile", h.putProfile)
	rg.GET("/medications", h.listMedications)
	rg.POST("/medications", h.createMedication)
	rg.GET("/appointments", h.listAppointments)
	rg.POST("/appointments", h.createAppointment)
}

type profileRequest struct {
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth"`
	Conditions  string `json:"conditions"`
	Allergies   string `json:"allergies"`
}

type profileResponse struct {
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Conditions  string `json:"conditions"`
	Allergies   string `json:"allergies"`
}

func (h *Handler) getProfile(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	p, err := h.Repo.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "profile not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch profile", nil)
		return
	}

	resp := profileResponse{
		FullName:   p.FullName,
		Conditions: p.Conditions,
		Allergies:  p.Allergies,
	}
	if p.DateOfBirth != nil {
		resp.DateOfBirth = p.DateOfBirth.Format(dateLayout)
	}
	respond.OK(c, resp)
}

func (h *Handler) putProfile(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	p := Profile{
		UserID:     userID,
		FullName:   strings.TrimSpace(req.FullName),
		Conditions: strings.TrimSpace(req.Conditions),
		Allergies:  strings.TrimSpace(req.Allergies),
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "dateOfBirth must be YYYY-MM-DD", nil)
			return
		}
		p.DateOfBirth = &dob
	}

	if err := h.Repo.UpsertProfile(c.Request.Context(), p); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save profile", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

type medicationRequest struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Doctor    string `json:"doctor"`
	Notes     string `json:"notes"`
}

type medicationResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Doctor    string `json:"doctor"`
	Notes     string `json:"notes"`
}

func toMedicationResponse(m Medication) medicationResponse {
	resp := medicationResponse{
		ID:        m.ID,
		Name:      m.Name,
		Dosage:    m.Dosage,
		Frequency: m.Frequency,
		Doctor:    m.Doctor,
		Notes:     m.Notes,
	}
	if m.StartDate != nil {
		resp.StartDate = m.StartDate.Format(dateLayout)
	}
	if m.EndDate != nil {
		resp.EndDate = m.EndDate.Format(dateLayout)
	}
	return resp
}

func (h *Handler) listMedications(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	meds, err := h.Repo.ListMedications(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list medications", nil)
		return
	}
	out := make([]medicationResponse, 0, len(meds))
	for _, m := range meds {
		out = append(out, toMedicationResponse(m))
	}
	respond.OK(c, gin.H{"medications": out})
}

func (h *Handler) createMedication(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req medicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}

	m := Medication{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(req.Name),
		Dosage:    strings.TrimSpace(req.Dosage),
		Frequency: strings.TrimSpace(req.Frequency),
		Doctor:    strings.TrimSpace(req.Doctor),
		Notes:     strings.TrimSpace(req.Notes),
		CreatedAt: time.Now().UTC(),
	}
	var parseErr error
	if m.StartDate, parseErr = parseOptionalDate(req.StartDate); parseErr != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "startDate must be YYYY-MM-DD", nil)
		return
	}
	if m.EndDate, parseErr = parseOptionalDate(req.EndDate); parseErr != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "endDate must be YYYY-MM-DD", nil)
		return
	}

	if err := h.Repo.CreateMedication(c.Request.Context(), m); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save medication", nil)
		return
	}
	respond.Created(c, gin.H{"id": m.ID})
}

type appointmentRequest struct {
	Title      string `json:"title"`
	DoctorName string `json:"doctorName"`
	Location   string `json:"location"`
	When       string `json:"when"`
	Notes      string `json:"notes"`
}

type appointmentResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	DoctorName string `json:"doctorName"`
	Location   string `json:"location"`
	When       string `json:"when,omitempty"`
	Notes      string `json:"notes"`
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	resp := appointmentResponse{
		ID:         a.ID,
		Title:      a.Title,
		DoctorName: a.DoctorName,
		Location:   a.Location,
		Notes:      a.Notes,
	}
	if a.When != nil {
		resp.When = a.When.Format(time.RFC3339)
	}
	return resp
}

func (h *Handler) listAppointments(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	apts, err := h.Repo.ListAppointments(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list appointments", nil)
		return
	}
	out := make([]appointmentResponse, 0, len(apts))
	for _, a := range apts {
		out = append(out, toAppointmentResponse(a))
	}
	respond.OK(c, gin.H{"appointments": out})
}

func (h *Handler) createAppointment(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req appointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	a := Appointment{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      strings.TrimSpace(req.Title),
		DoctorName: strings.TrimSpace(req.DoctorName),
		Location:   strings.TrimSpace(req.Location),
		Notes:      strings.TrimSpace(req.Notes),
		CreatedAt:  time.Now().UTC(),
	}
	if req.When != "" {
		when, err := time.Parse(time.RFC3339, req.When)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "when must be RFC3339", nil)
			return
		}
		a.When = &when
	}

	if err := h.Repo.CreateAppointment(c.Request.Context(), a); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save appointment", nil)
		return
	}
	respond.Created(c, gin.H{"id": a.ID})
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
