package consult

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/export"
	"github.com/clinicdesk/clinicdesk/internal/platform/notification"
)

// MobileDirectory resolves the patient mobile number behind an appointment.
// Satisfied by the registration service; returns that package's
// ErrAppointmentNotFound for unknown ids.
type MobileDirectory interface {
	PatientMobile(ctx context.Context, appointmentID uuid.UUID) (string, error)
}

// BillingGateway ensures the placeholder billing row exists.
type BillingGateway interface {
	Ensure(ctx context.Context, appointmentID uuid.UUID) error
}

// TxRunner executes fn inside one store transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo      Repository
	directory MobileDirectory
	billing   BillingGateway
	notifier  notification.Notifier
	exporter  export.Refresher
	logger    zerolog.Logger
	runTx     TxRunner
}

func NewService(repo Repository, directory MobileDirectory, billing BillingGateway,
	notifier notification.Notifier, exporter export.Refresher, logger zerolog.Logger, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{
		repo:      repo,
		directory: directory,
		billing:   billing,
		notifier:  notifier,
		exporter:  exporter,
		logger:    logger,
		runTx:     runTx,
	}
}

// Save replaces the diagnosis for an appointment wholesale. The prescribed
// flag is derived from the trimmed medicines text; when set, the patient is
// notified. The appointment must exist.
func (s *Service) Save(ctx context.Context, appointmentID uuid.UUID, req *SaveRequest) (*Diagnosis, error) {
	mobile, err := s.directory.PatientMobile(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if req.NextVisit != "" {
		if _, err := time.Parse("2006-01-02", req.NextVisit); err != nil {
			return nil, fmt.Errorf("next_visit must be YYYY-MM-DD")
		}
	}

	d := &Diagnosis{
		AppointmentID:       appointmentID,
		ChiefComplaints:     req.ChiefComplaints,
		Symptoms:            req.Symptoms,
		Mind:                req.Mind,
		Psychology:          req.Psychology,
		Diagnosis:           req.Diagnosis,
		Medicines:           req.Medicines,
		Tests:               req.Tests,
		NextVisit:           req.NextVisit,
		DiagnosisSaved:      true,
		MedicinesPrescribed: strings.TrimSpace(req.Medicines) != "",
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Upsert(ctx, d); err != nil {
			return fmt.Errorf("upsert diagnosis: %w", err)
		}
		return s.billing.Ensure(ctx, appointmentID)
	})
	if err != nil {
		return nil, err
	}

	if d.MedicinesPrescribed {
		if err := s.notifier.Notify(ctx, mobile, "Medicines prescribed"); err != nil {
			s.logger.Warn().Err(err).Str("mobile", mobile).Msg("notification failed")
		}
	}
	s.exporter.Refresh(ctx)
	return d, nil
}

// Get returns the diagnosis for an appointment, or a zero-valued payload when
// none has been saved yet. The read path never fails on absence.
func (s *Service) Get(ctx context.Context, appointmentID uuid.UUID) (*Diagnosis, error) {
	d, err := s.repo.Get(ctx, appointmentID)
	if errors.Is(err, ErrDiagnosisNotFound) {
		return &Diagnosis{AppointmentID: appointmentID}, nil
	}
	return d, err
}
