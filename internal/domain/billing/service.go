package billing

import (
	"context"
	"errors"
	"fmt"
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

// TxRunner executes fn inside one store transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo      Repository
	directory MobileDirectory
	notifier  notification.Notifier
	exporter  export.Refresher
	logger    zerolog.Logger
	runTx     TxRunner
}

func NewService(repo Repository, directory MobileDirectory, notifier notification.Notifier,
	exporter export.Refresher, logger zerolog.Logger, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		exporter:  exporter,
		logger:    logger,
		runTx:     runTx,
	}
}

// Ensure creates the placeholder billing row. Registration and consult call
// this through their BillingGateway interfaces.
func (s *Service) Ensure(ctx context.Context, appointmentID uuid.UUID) error {
	return s.repo.Ensure(ctx, appointmentID)
}

// Get returns the billing row, or all-zero defaults when none exists. The
// read path never fails on absence.
func (s *Service) Get(ctx context.Context, appointmentID uuid.UUID) (*Billing, error) {
	b, err := s.repo.Get(ctx, appointmentID)
	if errors.Is(err, ErrBillingNotFound) {
		return Defaults(appointmentID), nil
	}
	return b, err
}

// Update replaces every caller-settable billing field. Progress flags are
// untouched, so repeated identical calls converge to the same row.
func (s *Service) Update(ctx context.Context, appointmentID uuid.UUID, req *UpdateRequest) (*Billing, error) {
	if _, err := s.directory.PatientMobile(ctx, appointmentID); err != nil {
		return nil, err
	}
	if req.PaymentDate != "" {
		if _, err := time.Parse("2006-01-02", req.PaymentDate); err != nil {
			return nil, fmt.Errorf("payment_date must be YYYY-MM-DD")
		}
	}

	deliveryType := req.DeliveryType
	if deliveryType == "" {
		deliveryType = DeliveryInPerson
	}

	b := &Billing{
		AppointmentID:      appointmentID,
		ConsultationCharge: req.ConsultationCharge,
		MedicineCharge:     req.MedicineCharge,
		CourierCharge:      req.CourierCharge,
		DeliveryType:       deliveryType,
		DeliveredTo:        req.DeliveredTo,
		CourierChannel:     req.CourierChannel,
		CourierTracking:    req.CourierTracking,
		AmountPaid:         req.AmountPaid,
		PaymentDate:        req.PaymentDate,
		PaymentID:          req.PaymentID,
		Discount:           req.Discount,
	}

	err := s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Ensure(ctx, appointmentID); err != nil {
			return err
		}
		return s.repo.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.exporter.Refresh(ctx)
	return s.Get(ctx, appointmentID)
}

// PrepareMedicines marks the medicines ready for pickup and notifies the
// patient. Re-running re-sets the flag and re-notifies.
func (s *Service) PrepareMedicines(ctx context.Context, appointmentID uuid.UUID) error {
	mobile, err := s.directory.PatientMobile(ctx, appointmentID)
	if err != nil {
		return err
	}
	if mobile == "" {
		return ErrPatientMobileMissing
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Ensure(ctx, appointmentID); err != nil {
			return err
		}
		return s.repo.SetPrepared(ctx, appointmentID)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, mobile, "Medicines prepared")
	s.exporter.Refresh(ctx)
	return nil
}

// HandOver records in-person handover. Requires prepared medicines.
func (s *Service) HandOver(ctx context.Context, appointmentID uuid.UUID) error {
	mobile, err := s.directory.PatientMobile(ctx, appointmentID)
	if err != nil {
		return err
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Ensure(ctx, appointmentID); err != nil {
			return err
		}
		b, err := s.repo.Get(ctx, appointmentID)
		if err != nil {
			return err
		}
		if !b.MedicinesPrepared {
			return ErrNotPrepared
		}
		return s.repo.SetHandedOver(ctx, appointmentID)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, mobile, "Medicines handed over")
	s.exporter.Refresh(ctx)
	return nil
}

// CourierDone records courier dispatch. Requires prepared medicines and a
// Courier delivery type; the two unmet guards report distinct messages.
func (s *Service) CourierDone(ctx context.Context, appointmentID uuid.UUID) error {
	mobile, err := s.directory.PatientMobile(ctx, appointmentID)
	if err != nil {
		return err
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Ensure(ctx, appointmentID); err != nil {
			return err
		}
		b, err := s.repo.Get(ctx, appointmentID)
		if err != nil {
			return err
		}
		if !b.MedicinesPrepared {
			return ErrNotPrepared
		}
		if b.DeliveryType != DeliveryCourier {
			return ErrNotCourierDelivery
		}
		return s.repo.SetCouriered(ctx, appointmentID)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, mobile, "Medicines couriered")
	s.exporter.Refresh(ctx)
	return nil
}

// CompleteCheckout closes the visit once medicines were handed over or
// couriered. Underpayment is logged as outstanding credit and never blocks.
func (s *Service) CompleteCheckout(ctx context.Context, appointmentID uuid.UUID) error {
	mobile, err := s.directory.PatientMobile(ctx, appointmentID)
	if err != nil {
		return err
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Ensure(ctx, appointmentID); err != nil {
			return err
		}
		b, err := s.repo.Get(ctx, appointmentID)
		if err != nil {
			return err
		}
		if !b.MedicinesHandedOver && !b.Couriered {
			return ErrNotReadyForCheckout
		}
		if due := b.TotalDue(); b.AmountPaid < due {
			s.logger.Warn().
				Str("appointment_id", appointmentID.String()).
				Float64("total_due", due).
				Float64("amount_paid", b.AmountPaid).
				Float64("credit_due", due-b.AmountPaid).
				Msg("checkout with outstanding credit")
		}
		return s.repo.SetCheckoutDone(ctx, appointmentID)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, mobile, "Checkout completed")
	s.exporter.Refresh(ctx)
	return nil
}

func (s *Service) notify(ctx context.Context, mobile, message string) {
	if err := s.notifier.Notify(ctx, mobile, message); err != nil {
		s.logger.Warn().Err(err).Str("mobile", mobile).Msg("notification failed")
	}
}
