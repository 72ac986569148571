package registration

import (
	"context"
	"errors"
	"time"

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

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `patient_id, name, mobile_number, age, address, created_at`

func (r *patientRepoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.MobileNumber, &p.Age, &p.Address, &p.CreatedAt)
	return &p, err
}

func (r *patientRepoPG) Upsert(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (patient_id, name, mobile_number, age, address)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (mobile_number)
		DO UPDATE SET name = EXCLUDED.name, age = EXCLUDED.age, address = EXCLUDED.address
		RETURNING patient_id`,
		p.ID, p.Name, p.MobileNumber, p.Age, p.Address).Scan(&p.ID)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE patient_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	return p, err
}

func (r *patientRepoPG) GetByMobile(ctx context.Context, mobile string) (*Patient, error) {
	p, err := r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE mobile_number = $1`, mobile))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	return p, err
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_id, reason, booking_date, appointment_date, booking_type,
	confirmed, checkin_status, checkin_time, created_at`

func (r *appointmentRepoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.Reason, &a.BookingDate, &a.AppointmentDate,
		&a.BookingType, &a.Confirmed, &a.CheckinStatus, &a.CheckinTime, &a.CreatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, reason, booking_date, appointment_date,
			booking_type, confirmed, checkin_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.PatientID, a.Reason, a.BookingDate, a.AppointmentDate,
		a.BookingType, a.Confirmed, a.CheckinStatus)
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := r.scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	return a, err
}

func (r *appointmentRepoPG) SetCheckin(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET checkin_status = $2, checkin_time = $3 WHERE id = $1`,
		id, status, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepoPG) ListVisits(ctx context.Context) ([]*VisitView, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, p.name, p.mobile_number, p.age, a.reason, a.appointment_date,
			a.booking_type, a.checkin_status, a.checkin_time,
			COALESCE(d.diagnosis, ''), COALESCE(d.medicines, ''),
			COALESCE(d.diagnosis_saved, FALSE), COALESCE(d.medicines_prescribed, FALSE),
			COALESCE(b.delivery_type, 'In-Person'),
			COALESCE(b.medicines_prepared, FALSE), COALESCE(b.medicines_handed_over, FALSE),
			COALESCE(b.couriered, FALSE), COALESCE(b.checkout_done, FALSE)
		FROM appointments a
		JOIN patients p ON p.patient_id = a.patient_id
		LEFT JOIN diagnoses d ON d.appointment_id = a.id
		LEFT JOIN billing b ON b.appointment_id = a.id
		ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*VisitView
	for rows.Next() {
		var v VisitView
		if err := rows.Scan(&v.AppointmentID, &v.PatientName, &v.MobileNumber, &v.Age,
			&v.Reason, &v.AppointmentDate, &v.BookingType, &v.CheckinStatus, &v.CheckinTime,
			&v.Diagnosis, &v.Medicines, &v.DiagnosisSaved, &v.MedicinesPrescribed,
			&v.DeliveryType, &v.MedicinesPrepared, &v.MedicinesHandedOver,
			&v.Couriered, &v.CheckoutDone); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) PatientMobile(ctx context.Context, appointmentID uuid.UUID) (string, error) {
	var mobile string
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT p.mobile_number FROM appointments a
		JOIN patients p ON p.patient_id = a.patient_id
		WHERE a.id = $1`, appointmentID).Scan(&mobile)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrAppointmentNotFound
	}
	return mobile, err
}
