package chat

import (
	"strings"
	"testing"

	"healthmate-backend/internal/healthdata"
)

func TestBuildSystemPromptFallbacksForSparseAppointment(t *testing.T) {
	health := HealthContext{
		Appointments: []healthdata.Appointment{{}},
	}

	prompt := BuildSystemPrompt(health, "")
	for _, want := range []string{
		"No doctor specified",
		"No purpose specified",
		"No location specified",
		"No date specified",
		"No time specified",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing fallback %q", want)
		}
	}
}

func TestBuildSystemPromptDefaultsProfileName(t *testing.T) {
	prompt := BuildSystemPrompt(HealthContext{}, "")
	if !strings.Contains(prompt, `"full_name": "User"`) {
		t.Error("expected default profile name")
	}
	if !strings.Contains(prompt, NoDocumentsMarker) {
		t.Error("expected no-documents marker for empty injection")
	}
	if !strings.Contains(prompt, "no appointments scheduled") {
		t.Error("expected empty-appointments sentence")
	}
}
