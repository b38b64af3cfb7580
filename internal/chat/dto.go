package chat

import (
	"time"

	"healthmate-backend/internal/healthdata"
	"healthmate-backend/internal/llm"
)

// turnRequest is the chat request body. Clients may carry their own history,
// a locally computed query embedding, and inline health data instead of
// having the server resolve them.
type turnRequest struct {
	Message   string           `json:"message"`
	Messages  []llm.Message    `json:"messages"`
	Embedding []float32        `json:"embedding,omitempty"`
	UserData  *userDataPayload `json:"userData,omitempty"`
}

type userDataPayload struct {
	Profile      *profilePayload      `json:"profile,omitempty"`
	Medications  []medicationPayload  `json:"medications,omitempty"`
	Appointments []appointmentPayload `json:"appointments,omitempty"`
}

type profilePayload struct {
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth"`
	Conditions  string `json:"conditions"`
	Allergies   string `json:"allergies"`
}

type medicationPayload struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Doctor    string `json:"doctor"`
	Notes     string `json:"notes"`
}

type appointmentPayload struct {
	Title      string `json:"title"`
	DoctorName string `json:"doctorName"`
	Location   string `json:"location"`
	When       string `json:"when"`
	Notes      string `json:"notes"`
}

func (p *userDataPayload) toHealthContext() *HealthContext {
	if p == nil {
		return nil
	}

	var health HealthContext
	if p.Profile != nil {
		health.Profile = healthdata.Profile{
			FullName:   p.Profile.FullName,
			Conditions: p.Profile.Conditions,
			Allergies:  p.Profile.Allergies,
		}
		if dob, err := time.Parse("2006-01-02", p.Profile.DateOfBirth); err == nil {
			health.Profile.DateOfBirth = &dob
		}
	}
	for _, m := range p.Medications {
		med := healthdata.Medication{
			Name:      m.Name,
			Dosage:    m.Dosage,
			Frequency: m.Frequency,
			Doctor:    m.Doctor,
			Notes:     m.Notes,
		}
		if start, err := time.Parse("2006-01-02", m.StartDate); err == nil {
			med.StartDate = &start
		}
		if end, err := time.Parse("2006-01-02", m.EndDate); err == nil {
			med.EndDate = &end
		}
		health.Medications = append(health.Medications, med)
	}
	for _, a := range p.Appointments {
		apt := healthdata.Appointment{
			Title:      a.Title,
			DoctorName: a.DoctorName,
			Location:   a.Location,
			Notes:      a.Notes,
		}
		if when, err := time.Parse(time.RFC3339, a.When); err == nil {
			apt.When = &when
		}
		health.Appointments = append(health.Appointments, apt)
	}
	return &health
}
