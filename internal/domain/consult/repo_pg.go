package consult

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

const diagCols = `appointment_id, chief_complaints, symptoms, mind, psychology, diagnosis,
	medicines, tests, next_visit, diagnosis_saved, medicines_prescribed, updated_at`

func (r *repoPG) scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	var d Diagnosis
	err := row.Scan(&d.AppointmentID, &d.ChiefComplaints, &d.Symptoms, &d.Mind, &d.Psychology,
		&d.Diagnosis, &d.Medicines, &d.Tests, &d.NextVisit,
		&d.DiagnosisSaved, &d.MedicinesPrescribed, &d.UpdatedAt)
	return &d, err
}

func (r *repoPG) Upsert(ctx context.Context, d *Diagnosis) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO diagnoses (appointment_id, chief_complaints, symptoms, mind, psychology,
			diagnosis, medicines, tests, next_visit, diagnosis_saved, medicines_prescribed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (appointment_id) DO UPDATE SET
			chief_complaints = EXCLUDED.chief_complaints,
			symptoms = EXCLUDED.symptoms,
			mind = EXCLUDED.mind,
			psychology = EXCLUDED.psychology,
			diagnosis = EXCLUDED.diagnosis,
			medicines = EXCLUDED.medicines,
			tests = EXCLUDED.tests,
			next_visit = EXCLUDED.next_visit,
			diagnosis_saved = EXCLUDED.diagnosis_saved,
			medicines_prescribed = EXCLUDED.medicines_prescribed,
			updated_at = NOW()`,
		d.AppointmentID, d.ChiefComplaints, d.Symptoms, d.Mind, d.Psychology,
		d.Diagnosis, d.Medicines, d.Tests, d.NextVisit,
		d.DiagnosisSaved, d.MedicinesPrescribed)
	return err
}

func (r *repoPG) Get(ctx context.Context, appointmentID uuid.UUID) (*Diagnosis, error) {
	d, err := r.scanDiagnosis(r.conn(ctx).QueryRow(ctx,
		`SELECT `+diagCols+` FROM diagnoses WHERE appointment_id = $1`, appointmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDiagnosisNotFound
	}
	return d, err
}
