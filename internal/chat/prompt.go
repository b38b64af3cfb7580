package chat

import (
	"encoding/json"
	"strings"

	"healthmate-backend/internal/healthdata"
)

// NoDocumentsMarker is injected into the prompt when retrieval produced
// nothing, so the model never sees an empty context block.
const NoDocumentsMarker = "No documents found"

type promptProfile struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Conditions  string `json:"conditions,omitempty"`
	Allergies   string `json:"allergies,omitempty"`
}

type promptMedication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Doctor    string `json:"doctor,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type promptAppointment struct {
	Doctor   string `json:"doctor"`
	Purpose  string `json:"purpose"`
	Location string `json:"location"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Notes    string `json:"notes,omitempty"`
}

// BuildSystemPrompt assembles the system message from the user's health
// context and the retrieved document sections.
func BuildSystemPrompt(health HealthContext, injectedDocs string) string {
	var b strings.Builder

	b.WriteString("You are a helpful health assistant for elderly users. Your goal is to provide clear,\n")
	b.WriteString("compassionate guidance about their health, medications, and appointments.\n\n")

	b.WriteString("User Profile Information:\n")
	b.WriteString(formatProfile(health.Profile))
	b.WriteString("\n\n")

	b.WriteString("Medications:\n")
	if len(health.Medications) == 0 {
		b.WriteString("The user currently has no medications recorded in the system.")
	} else {
		b.WriteString(formatMedications(health.Medications))
	}
	b.WriteString("\n\n")

	b.WriteString("Appointments:\n")
	if len(health.Appointments) == 0 {
		b.WriteString("The user currently has no appointments scheduled in the system.")
	} else {
		b.WriteString(formatAppointments(health.Appointments))
	}
	b.WriteString("\n\n")

	b.WriteString("Relevant Documents:\n")
	if injectedDocs == "" {
		b.WriteString(NoDocumentsMarker)
	} else {
		b.WriteString(injectedDocs)
	}
	b.WriteString("\n\n")

	b.WriteString("When responding to the user:\n")
	b.WriteString("1. Be concise and clear - use simple language\n")
	b.WriteString("2. If they ask about their medications, provide specific details about their prescriptions, or let them know if they have no medications recorded\n")
	b.WriteString("3. If they ask about appointments, provide details about upcoming appointments, or let them know if they have no appointments scheduled\n")
	b.WriteString("4. If they ask something you don't have information about, kindly let them know\n")
	b.WriteString("5. Be warm and reassuring, as many users may be elderly or anxious about their health\n\n")
	b.WriteString("Keep responses relatively brief and focused on addressing their specific question.")

	return b.String()
}

func formatProfile(p healthdata.Profile) string {
	out := promptProfile{
		FullName:   p.FullName,
		Conditions: p.Conditions,
		Allergies:  p.Allergies,
	}
	if out.FullName == "" {
		out.FullName = "User"
	}
	if p.DateOfBirth != nil {
		out.DateOfBirth = p.DateOfBirth.Format("2006-01-02")
	}
	return marshalIndent(out)
}

func formatMedications(meds []healthdata.Medication) string {
	out := make([]promptMedication, 0, len(meds))
	for _, m := range meds {
		pm := promptMedication{
			Name:      m.Name,
			Dosage:    m.Dosage,
			Frequency: m.Frequency,
			Doctor:    m.Doctor,
			Notes:     m.Notes,
		}
		if m.StartDate != nil {
			pm.StartDate = m.StartDate.Format("2006-01-02")
		}
		if m.EndDate != nil {
			pm.EndDate = m.EndDate.Format("2006-01-02")
		}
		out = append(out, pm)
	}
	return marshalIndent(out)
}

func formatAppointments(apts []healthdata.Appointment) string {
	out := make([]promptAppointment, 0, len(apts))
	for _, a := range apts {
		pa := promptAppointment{
			Doctor:   a.DoctorName,
			Purpose:  a.Title,
			Location: a.Location,
			Date:     "No date specified",
			Time:     "No time specified",
			Notes:    a.Notes,
		}
		if pa.Doctor == "" {
			pa.Doctor = "No doctor specified"
		}
		if pa.Purpose == "" {
			pa.Purpose = "No purpose specified"
		}
		if pa.Location == "" {
			pa.Location = "No location specified"
		}
		if a.When != nil {
			pa.Date = a.When.UTC().Format("2006-01-02")
			pa.Time = a.When.UTC().Format("15:04")
		}
		out = append(out, pa)
	}
	return marshalIndent(out)
}

func marshalIndent(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(raw)
}
