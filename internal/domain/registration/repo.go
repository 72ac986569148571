package registration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PatientRepository persists patient identities keyed by mobile number.
type PatientRepository interface {
	// Upsert creates the patient or, when the mobile number is already known,
	// overwrites name, age and address. The resolved ID is written back.
	Upsert(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByMobile(ctx context.Context, mobile string) (*Patient, error)
}

// AppointmentRepository persists appointments and serves the joined listing.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// SetCheckin overwrites check-in status and time unconditionally.
	// Returns ErrAppointmentNotFound when the id is unknown.
	SetCheckin(ctx context.Context, id uuid.UUID, status string, at time.Time) error
	// ListVisits returns every appointment joined with patient, diagnosis and
	// billing progress, newest booking first.
	ListVisits(ctx context.Context) ([]*VisitView, error)
	// PatientMobile resolves the mobile number behind an appointment.
	PatientMobile(ctx context.Context, appointmentID uuid.UUID) (string, error)
}
