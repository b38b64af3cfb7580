package healthdata

import "time"

// Profile holds the user's health profile.
type Profile struct {
	UserID      string
	FullName    string
	DateOfBirth *time.Time
	Conditions  string
	Allergies   string
	CreatedAt   time.Time
}

// Medication is one recorded prescription.
type Medication struct {
	ID        string
	UserID    string
	Name      string
	Dosage    string
	Frequency string
	StartDate *time.Time
	EndDate   *time.Time
	Doctor    string
	Notes     string
	CreatedAt time.Time
}

// Appointment is one scheduled visit.
type Appointment struct {
	ID         string
	UserID     string
	Title      string
	DoctorName string
	Location   string
	When       *time.Time
	Notes      string
	CreatedAt  time.Time
}
