package healthdata

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements HealthRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetProfile returns the profile for a user.
func (r *PGRepo) GetProfile(ctx context.Context, userId string) (Profile, error) {
	const query = `
SELECT id, full_name, date_of_birth, conditions, allergies, created_at
FROM user_profiles
WHERE id = $1`

	var p Profile
	var dob sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, userId).Scan(
		&p.UserID,
		&p.FullName,
		&dob,
		&p.Conditions,
		&p.Allergies,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	if dob.Valid {
		p.DateOfBirth = &dob.Time
	}
	return p, nil
}

// UpsertProfile creates or replaces the profile.
func (r *PGRepo) UpsertProfile(ctx context.Context, p Profile) error {
	const query = `
INSERT INTO user_profiles (id, full_name, date_of_birth, conditions, allergies)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    full_name = EXCLUDED.full_name,
    date_of_birth = EXCLUDED.date_of_birth,
    conditions = EXCLUDED.conditions,
    allergies = EXCLUDED.allergies`

	var dob sql.NullTime
	if p.DateOfBirth != nil {
		dob = sql.NullTime{Time: *p.DateOfBirth, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query, p.UserID, p.FullName, dob, p.Conditions, p.Allergies)
	return err
}

// ListMedications returns the user's medications, oldest first.
func (r *PGRepo) ListMedications(ctx context.Context, userId string) ([]Medication, error) {
	const query = `
SELECT id, user_id, name, dosage, frequency, start_date, end_date, doctor, notes, created_at
FROM medications
WHERE user_id = $1
ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meds := []Medication{}
	for rows.Next() {
		var m Medication
		var start, end sql.NullTime
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Dosage, &m.Frequency, &start, &end, &m.Doctor, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		if start.Valid {
			m.StartDate = &start.Time
		}
		if end.Valid {
			m.EndDate = &end.Time
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

// CreateMedication records a medication.
func (r *PGRepo) CreateMedication(ctx context.Context, m Medication) error {
	const query = `
INSERT INTO medications (id, user_id, name, dosage, frequency, start_date, end_date, doctor, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var start, end sql.NullTime
	if m.StartDate != nil {
		start = sql.NullTime{Time: *m.StartDate, Valid: true}
	}
	if m.EndDate != nil {
		end = sql.NullTime{Time: *m.EndDate, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query, m.ID, m.UserID, m.Name, m.Dosage, m.Frequency, start, end, m.Doctor, m.Notes)
	return err
}

// ListAppointments returns the user's appointments, soonest first.
func (r *PGRepo) ListAppointments(ctx context.Context, userId string) ([]Appointment, error) {
	const query = `
SELECT id, user_id, title, doctor_name, location, appointment_date, notes, created_at
FROM appointments
WHERE user_id = $1
ORDER BY appointment_date ASC NULLS LAST`

	rows, err := r.DB.QueryContext(ctx, query, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apts := []Appointment{}
	for rows.Next() {
		var a Appointment
		var when sql.NullTime
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.DoctorName, &a.Location, &when, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		if when.Valid {
			a.When = &when.Time
		}
		apts = append(apts, a)
	}
	return apts, rows.Err()
}

// CreateAppointment records an appointment.
func (r *PGRepo) CreateAppointment(ctx context.Context, a Appointment) error {
	const query = `
INSERT INTO appointments (id, user_id, title, doctor_name, location, appointment_date, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var when sql.NullTime
	if a.When != nil {
		when = sql.NullTime{Time: *a.When, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query, a.ID, a.UserID, a.Title, a.DoctorName, a.Location, when, a.Notes)
	return err
}

var _ HealthRepo = (*PGRepo)(nil)
