package consult

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists diagnosis rows keyed by appointment id.
type Repository interface {
	// Upsert replaces the entire row for the appointment.
	Upsert(ctx context.Context, d *Diagnosis) error
	// Get returns ErrDiagnosisNotFound when no row exists yet.
	Get(ctx context.Context, appointmentID uuid.UUID) (*Diagnosis, error)
}
