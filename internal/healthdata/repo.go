package healthdata

import (
	"context"
	"errors"
)

// ErrNotFound indicates the record does not exist.
var ErrNotFound = errors.New("not found")

// HealthRepo defines persistence for the user's health context.
type HealthRepo interface {
	GetProfile(ctx context.Context, userId string) (Profile, error)
	UpsertProfile(ctx context.Context, p Profile) error
	ListMedications(ctx context.Context, userId string) ([]Medication, error)
	CreateMedication(ctx context.Context, m Medication) error
	ListAppointments(ctx context.Context, userId string) ([]Appointment, error)
	CreateAppointment(ctx context.Context, a Appointment) error
}
