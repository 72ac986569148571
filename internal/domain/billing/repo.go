package billing

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists billing rows keyed by appointment id. The flag setters
// are separate from Update so a caller payload can never clear progress.
type Repository interface {
	// Ensure creates the placeholder row if none exists. Idempotent.
	Ensure(ctx context.Context, appointmentID uuid.UUID) error
	// Get returns ErrBillingNotFound when no row exists.
	Get(ctx context.Context, appointmentID uuid.UUID) (*Billing, error)
	// Update replaces the eleven caller-settable fields, leaving flags alone.
	Update(ctx context.Context, b *Billing) error
	SetPrepared(ctx context.Context, appointmentID uuid.UUID) error
	SetHandedOver(ctx context.Context, appointmentID uuid.UUID) error
	SetCouriered(ctx context.Context, appointmentID uuid.UUID) error
	SetCheckoutDone(ctx context.Context, appointmentID uuid.UUID) error
}
