package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const billCols = `appointment_id, consultation_charge, medicine_charge, courier_charge,
	delivery_type, delivered_to, courier_channel, courier_tracking,
	amount_paid, payment_date, payment_id, discount,
	medicines_prepared, medicines_handed_over, couriered, checkout_done, updated_at`

func (r *repoPG) scanBilling(row pgx.Row) (*Billing, error) {
	var b Billing
	err := row.Scan(&b.AppointmentID, &b.ConsultationCharge, &b.MedicineCharge, &b.CourierCharge,
		&b.DeliveryType, &b.DeliveredTo, &b.CourierChannel, &b.CourierTracking,
		&b.AmountPaid, &b.PaymentDate, &b.PaymentID, &b.Discount,
		&b.MedicinesPrepared, &b.MedicinesHandedOver, &b.Couriered, &b.CheckoutDone, &b.UpdatedAt)
	return &b, err
}

func (r *repoPG) Ensure(ctx context.Context, appointmentID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO billing (appointment_id) VALUES ($1)
		ON CONFLICT (appointment_id) DO NOTHING`, appointmentID)
	return err
}

func (r *repoPG) Get(ctx context.Context, appointmentID uuid.UUID) (*Billing, error) {
	b, err := r.scanBilling(r.conn(ctx).QueryRow(ctx,
		`SELECT `+billCols+` FROM billing WHERE appointment_id = $1`, appointmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBillingNotFound
	}
	return b, err
}

func (r *repoPG) Update(ctx context.Context, b *Billing) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE billing SET consultation_charge=$2, medicine_charge=$3, courier_charge=$4,
			delivery_type=$5, delivered_to=$6, courier_channel=$7, courier_tracking=$8,
			amount_paid=$9, payment_date=$10, payment_id=$11, discount=$12, updated_at=NOW()
		WHERE appointment_id = $1`,
		b.AppointmentID, b.ConsultationCharge, b.MedicineCharge, b.CourierCharge,
		b.DeliveryType, b.DeliveredTo, b.CourierChannel, b.CourierTracking,
		b.AmountPaid, b.PaymentDate, b.PaymentID, b.Discount)
	return err
}

func (r *repoPG) setFlag(ctx context.Context, appointmentID uuid.UUID, column string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE billing SET `+column+` = TRUE, updated_at = NOW() WHERE appointment_id = $1`,
		appointmentID)
	return err
}

func (r *repoPG) SetPrepared(ctx context.Context, appointmentID uuid.UUID) error {
	return r.setFlag(ctx, appointmentID, "medicines_prepared")
}

func (r *repoPG) SetHandedOver(ctx context.Context, appointmentID uuid.UUID) error {
	return r.setFlag(ctx, appointmentID, "medicines_handed_over")
}

func (r *repoPG) SetCouriered(ctx context.Context, appointmentID uuid.UUID) error {
	return r.setFlag(ctx, appointmentID, "couriered")
}

func (r *repoPG) SetCheckoutDone(ctx context.Context, appointmentID uuid.UUID) error {
	return r.setFlag(ctx, appointmentID, "checkout_done")
}
