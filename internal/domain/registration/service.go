package registration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/export"
	"github.com/clinicdesk/clinicdesk/internal/platform/notification"
)

// BillingGateway creates the placeholder billing row for a fresh appointment.
// Satisfied by the billing service.
type BillingGateway interface {
	Ensure(ctx context.Context, appointmentID uuid.UUID) error
}

// TxRunner executes fn inside one store transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// BookingRequest is the JSON payload for POST /book_appointment and the
// receptionist dashboard form.
type BookingRequest struct {
	Name            string `json:"name" form:"name"`
	MobileNumber    string `json:"mobile_number" form:"mobile_number"`
	Age             int    `json:"age" form:"age"`
	Address         string `json:"address" form:"address"`
	Reason          string `json:"reason" form:"reason"`
	AppointmentDate string `json:"appointment_date" form:"appointment_date"`
	BookingType     string `json:"booking_type" form:"booking_type"`
}

type Service struct {
	patients     PatientRepository
	appointments AppointmentRepository
	billing      BillingGateway
	notifier     notification.Notifier
	exporter     export.Refresher
	logger       zerolog.Logger
	runTx        TxRunner

	now func() time.Time
}

func NewService(patients PatientRepository, appointments AppointmentRepository, billing BillingGateway,
	notifier notification.Notifier, exporter export.Refresher, logger zerolog.Logger, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{
		patients:     patients,
		appointments: appointments,
		billing:      billing,
		notifier:     notifier,
		exporter:     exporter,
		logger:       logger,
		runTx:        runTx,
		now:          time.Now,
	}
}

// Book upserts the patient by mobile number and creates a new appointment with
// a placeholder billing row. Booking is deliberately not idempotent: repeat
// calls create distinct appointments. Same-day Online Direct bookings are
// rejected before anything is written.
func (s *Service) Book(ctx context.Context, req *BookingRequest) (*Appointment, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.MobileNumber == "" {
		return nil, fmt.Errorf("mobile_number is required")
	}
	if req.Age < 0 {
		return nil, fmt.Errorf("age must not be negative")
	}
	if _, err := time.Parse("2006-01-02", req.AppointmentDate); err != nil {
		return nil, fmt.Errorf("appointment_date must be YYYY-MM-DD")
	}
	if !validBookingTypes[req.BookingType] {
		return nil, fmt.Errorf("invalid booking_type: %s", req.BookingType)
	}

	today := s.now().Format("2006-01-02")
	if req.BookingType == BookingOnlineDirect && req.AppointmentDate == today {
		return nil, ErrSameDayOnlineBooking
	}

	var appt *Appointment
	err := s.runTx(ctx, func(ctx context.Context) error {
		p := &Patient{
			Name:         req.Name,
			MobileNumber: req.MobileNumber,
			Age:          req.Age,
			Address:      req.Address,
		}
		if err := s.patients.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert patient: %w", err)
		}

		appt = &Appointment{
			PatientID:       p.ID,
			Reason:          req.Reason,
			BookingDate:     today,
			AppointmentDate: req.AppointmentDate,
			BookingType:     req.BookingType,
		}
		if err := s.appointments.Create(ctx, appt); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		if err := s.billing.Ensure(ctx, appt.ID); err != nil {
			return fmt.Errorf("ensure billing row: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, req.MobileNumber, "Appointment booked for "+req.AppointmentDate)
	if req.BookingType != BookingManualInClinic {
		s.notify(ctx, req.MobileNumber, "Appointment confirmation pending from clinic")
	}
	s.exporter.Refresh(ctx)
	return appt, nil
}

// CheckIn stamps the check-in status and time. The status is free text;
// callers conventionally send "Scheduled". No notification is sent.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID, status string) error {
	if err := s.appointments.SetCheckin(ctx, id, status, s.now().UTC()); err != nil {
		return err
	}
	s.exporter.Refresh(ctx)
	return nil
}

// ListVisits returns the joined dashboard listing, newest booking first.
func (s *Service) ListVisits(ctx context.Context) ([]*VisitView, error) {
	return s.appointments.ListVisits(ctx)
}

// PatientMobile resolves an appointment's patient mobile number for the
// consult and billing notification paths.
func (s *Service) PatientMobile(ctx context.Context, appointmentID uuid.UUID) (string, error) {
	return s.appointments.PatientMobile(ctx, appointmentID)
}

func (s *Service) notify(ctx context.Context, mobile, message string) {
	if err := s.notifier.Notify(ctx, mobile, message); err != nil {
		s.logger.Warn().Err(err).Str("mobile", mobile).Msg("notification failed")
	}
}
