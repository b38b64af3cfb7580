package healthdata

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of HealthRepo.
type MemoryRepo struct {
	mu           sync.RWMutex
	profiles     map[string]Profile
	medications  map[string][]Medication
	appointments map[string][]Appointment
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		profiles:     make(map[string]Profile),
		medications:  make(map[string][]Medication),
		appointments: make(map[string][]Appointment),
	}
}

// GetProfile returns the profile for a user.
func (r *MemoryRepo) GetProfile(ctx context.Context, userId string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userId]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

// UpsertProfile creates or replaces the profile.
func (r *MemoryRepo) UpsertProfile(ctx context.Context, p Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p
	return nil
}

// ListMedications returns the user's medications in insertion order.
func (r *MemoryRepo) ListMedications(ctx context.Context, userId string) ([]Medication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Medication{}, r.medications[userId]...), nil
}

// CreateMedication records a medication.
func (r *MemoryRepo) CreateMedication(ctx context.Context, m Medication) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.medications[m.UserID] = append(r.medications[m.UserID], m)
	return nil
}

// ListAppointments returns the user's appointments in insertion order.
func (r *MemoryRepo) ListAppointments(ctx context.Context, userId string) ([]Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Appointment{}, r.appointments[userId]...), nil
}

// CreateAppointment records an appointment.
func (r *MemoryRepo) CreateAppointment(ctx context.Context, a Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appointments[a.UserID] = append(r.appointments[a.UserID], a)
	return nil
}

var _ HealthRepo = (*MemoryRepo)(nil)
