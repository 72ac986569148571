// End-to-end front-desk workflow: booking through checkout, with the three
// services wired together over in-memory stores the way the server wires them
// over Postgres.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/consult"
	"github.com/clinicdesk/clinicdesk/internal/domain/registration"
	"github.com/clinicdesk/clinicdesk/internal/platform/export"
	"github.com/clinicdesk/clinicdesk/internal/platform/notification"
)

type memPatients struct {
	byMobile map[string]*registration.Patient
}

func (m *memPatients) Upsert(_ context.Context, p *registration.Patient) error {
	if existing, ok := m.byMobile[p.MobileNumber]; ok {
		p.ID = existing.ID
	} else {
		p.ID = uuid.New()
	}
	m.byMobile[p.MobileNumber] = p
	return nil
}

func (m *memPatients) GetByID(_ context.Context, id uuid.UUID) (*registration.Patient, error) {
	for _, p := range m.byMobile {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, registration.ErrPatientNotFound
}

func (m *memPatients) GetByMobile(_ context.Context, mobile string) (*registration.Patient, error) {
	p, ok := m.byMobile[mobile]
	if !ok {
		return nil, registration.ErrPatientNotFound
	}
	return p, nil
}

type memAppointments struct {
	patients *memPatients
	byID     map[uuid.UUID]*registration.Appointment
}

func (m *memAppointments) Create(_ context.Context, a *registration.Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.byID[a.ID] = a
	return nil
}

func (m *memAppointments) GetByID(_ context.Context, id uuid.UUID) (*registration.Appointment, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, registration.ErrAppointmentNotFound
	}
	return a, nil
}

func (m *memAppointments) SetCheckin(_ context.Context, id uuid.UUID, status string, at time.Time) error {
	a, ok := m.byID[id]
	if !ok {
		return registration.ErrAppointmentNotFound
	}
	a.CheckinStatus = status
	a.CheckinTime = &at
	return nil
}

func (m *memAppointments) ListVisits(_ context.Context) ([]*registration.VisitView, error) {
	var items []*registration.VisitView
	for _, a := range m.byID {
		items = append(items, &registration.VisitView{
			AppointmentID:   a.ID,
			AppointmentDate: a.AppointmentDate,
			BookingType:     a.BookingType,
			CheckinStatus:   a.CheckinStatus,
		})
	}
	return items, nil
}

func (m *memAppointments) PatientMobile(_ context.Context, id uuid.UUID) (string, error) {
	a, ok := m.byID[id]
	if !ok {
		return "", registration.ErrAppointmentNotFound
	}
	p, err := m.patients.GetByID(context.Background(), a.PatientID)
	if err != nil {
		return "", err
	}
	return p.MobileNumber, nil
}

type memDiagnoses struct {
	byID map[uuid.UUID]*consult.Diagnosis
}

func (m *memDiagnoses) Upsert(_ context.Context, d *consult.Diagnosis) error {
	d.UpdatedAt = time.Now()
	m.byID[d.AppointmentID] = d
	return nil
}

func (m *memDiagnoses) Get(_ context.Context, id uuid.UUID) (*consult.Diagnosis, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, consult.ErrDiagnosisNotFound
	}
	return d, nil
}

type memBilling struct {
	byID map[uuid.UUID]*billing.Billing
}

func (m *memBilling) Ensure(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		m.byID[id] = billing.Defaults(id)
	}
	return nil
}

func (m *memBilling) Get(_ context.Context, id uuid.UUID) (*billing.Billing, error) {
	b, ok := m.byID[id]
	if !ok {
		return nil, billing.ErrBillingNotFound
	}
	return b, nil
}

func (m *memBilling) Update(_ context.Context, b *billing.Billing) error {
	stored, ok := m.byID[b.AppointmentID]
	if !ok {
		return billing.ErrBillingNotFound
	}
	flags := [4]bool{stored.MedicinesPrepared, stored.MedicinesHandedOver, stored.Couriered, stored.CheckoutDone}
	*stored = *b
	stored.MedicinesPrepared, stored.MedicinesHandedOver, stored.Couriered, stored.CheckoutDone =
		flags[0], flags[1], flags[2], flags[3]
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *memBilling) setFlag(id uuid.UUID, set func(*billing.Billing)) error {
	b, ok := m.byID[id]
	if !ok {
		return billing.ErrBillingNotFound
	}
	set(b)
	return nil
}

func (m *memBilling) SetPrepared(_ context.Context, id uuid.UUID) error {
	return m.setFlag(id, func(b *billing.Billing) { b.MedicinesPrepared = true })
}

func (m *memBilling) SetHandedOver(_ context.Context, id uuid.UUID) error {
	return m.setFlag(id, func(b *billing.Billing) { b.MedicinesHandedOver = true })
}

func (m *memBilling) SetCouriered(_ context.Context, id uuid.UUID) error {
	return m.setFlag(id, func(b *billing.Billing) { b.Couriered = true })
}

func (m *memBilling) SetCheckoutDone(_ context.Context, id uuid.UUID) error {
	return m.setFlag(id, func(b *billing.Billing) { b.CheckoutDone = true })
}

type clinic struct {
	registration *registration.Service
	consult      *consult.Service
	billing      *billing.Service
	notifier     *notification.Mock
}

func newClinic() *clinic {
	patients := &memPatients{byMobile: map[string]*registration.Patient{}}
	appts := &memAppointments{patients: patients, byID: map[uuid.UUID]*registration.Appointment{}}
	diagnoses := &memDiagnoses{byID: map[uuid.UUID]*consult.Diagnosis{}}
	bills := &memBilling{byID: map[uuid.UUID]*billing.Billing{}}
	notifier := &notification.Mock{}
	logger := zerolog.Nop()

	billingSvc := billing.NewService(bills, appts, notifier, export.Noop{}, logger, nil)
	registrationSvc := registration.NewService(patients, appts, billingSvc, notifier, export.Noop{}, logger, nil)
	consultSvc := consult.NewService(diagnoses, registrationSvc, billingSvc, notifier, export.Noop{}, logger, nil)

	return &clinic{
		registration: registrationSvc,
		consult:      consultSvc,
		billing:      billingSvc,
		notifier:     notifier,
	}
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format("2006-01-02")
}

func TestVisitLifecycle_InPerson(t *testing.T) {
	ctx := context.Background()
	c := newClinic()

	appt, err := c.registration.Book(ctx, &registration.BookingRequest{
		Name:            "Asha Rao",
		MobileNumber:    "9000000001",
		Age:             34,
		Address:         "12 Lake Road",
		Reason:          "Fever",
		AppointmentDate: tomorrow(),
		BookingType:     registration.BookingManualInClinic,
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if err := c.registration.CheckIn(ctx, appt.ID, "Scheduled"); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	d, err := c.consult.Save(ctx, appt.ID, &consult.SaveRequest{
		Diagnosis: "Viral fever",
		Medicines: "Amoxicillin",
	})
	if err != nil {
		t.Fatalf("Save diagnosis: %v", err)
	}
	if !d.MedicinesPrescribed {
		t.Error("expected medicines_prescribed after non-blank medicines")
	}

	if _, err := c.billing.Update(ctx, appt.ID, &billing.UpdateRequest{
		ConsultationCharge: 500,
		MedicineCharge:     300,
		AmountPaid:         800,
	}); err != nil {
		t.Fatalf("Update billing: %v", err)
	}

	if err := c.billing.PrepareMedicines(ctx, appt.ID); err != nil {
		t.Fatalf("PrepareMedicines: %v", err)
	}
	if err := c.billing.HandOver(ctx, appt.ID); err != nil {
		t.Fatalf("HandOver: %v", err)
	}
	if err := c.billing.CompleteCheckout(ctx, appt.ID); err != nil {
		t.Fatalf("CompleteCheckout: %v", err)
	}

	b, err := c.billing.Get(ctx, appt.ID)
	if err != nil {
		t.Fatalf("Get billing: %v", err)
	}
	if !b.MedicinesPrepared || !b.MedicinesHandedOver || !b.CheckoutDone {
		t.Errorf("flags = prepared:%v handed:%v checkout:%v, want all true",
			b.MedicinesPrepared, b.MedicinesHandedOver, b.CheckoutDone)
	}
	if b.Couriered {
		t.Error("couriered should stay false for in-person delivery")
	}

	want := []string{
		"Appointment booked for " + tomorrow(),
		"Medicines prescribed",
		"Medicines prepared",
		"Medicines handed over",
		"Checkout completed",
	}
	calls := c.notifier.Calls()
	if len(calls) != len(want) {
		t.Fatalf("got %d notifications, want %d: %+v", len(calls), len(want), calls)
	}
	for i, msg := range want {
		if calls[i].Message != msg {
			t.Errorf("notification[%d] = %q, want %q", i, calls[i].Message, msg)
		}
		if calls[i].Mobile != "9000000001" {
			t.Errorf("notification[%d] went to %q", i, calls[i].Mobile)
		}
	}
}

func TestVisitLifecycle_Courier(t *testing.T) {
	ctx := context.Background()
	c := newClinic()

	appt, err := c.registration.Book(ctx, &registration.BookingRequest{
		Name:            "Vikram Shah",
		MobileNumber:    "9000000002",
		Age:             52,
		AppointmentDate: tomorrow(),
		BookingType:     registration.BookingOnlineManual,
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if _, err := c.consult.Save(ctx, appt.ID, &consult.SaveRequest{Medicines: "Paracetamol"}); err != nil {
		t.Fatalf("Save diagnosis: %v", err)
	}
	if _, err := c.billing.Update(ctx, appt.ID, &billing.UpdateRequest{
		MedicineCharge: 200,
		CourierCharge:  60,
		DeliveryType:   billing.DeliveryCourier,
		CourierChannel: "DTDC",
		AmountPaid:     260,
	}); err != nil {
		t.Fatalf("Update billing: %v", err)
	}

	// Courier before prepare must fail, and the guard ordering reports the
	// prepare failure first.
	if err := c.billing.CourierDone(ctx, appt.ID); err != billing.ErrNotPrepared {
		t.Fatalf("CourierDone before prepare = %v, want ErrNotPrepared", err)
	}
	if err := c.billing.CompleteCheckout(ctx, appt.ID); err != billing.ErrNotReadyForCheckout {
		t.Fatalf("CompleteCheckout before courier = %v, want ErrNotReadyForCheckout", err)
	}

	if err := c.billing.PrepareMedicines(ctx, appt.ID); err != nil {
		t.Fatalf("PrepareMedicines: %v", err)
	}
	if err := c.billing.CourierDone(ctx, appt.ID); err != nil {
		t.Fatalf("CourierDone: %v", err)
	}
	if err := c.billing.CompleteCheckout(ctx, appt.ID); err != nil {
		t.Fatalf("CompleteCheckout: %v", err)
	}

	b, _ := c.billing.Get(ctx, appt.ID)
	if !b.Couriered || !b.CheckoutDone {
		t.Errorf("couriered:%v checkout:%v, want both true", b.Couriered, b.CheckoutDone)
	}
	if b.MedicinesHandedOver {
		t.Error("handed over should stay false on the courier path")
	}
}

func TestBillingUpdatePreservesProgressFlags(t *testing.T) {
	ctx := context.Background()
	c := newClinic()

	appt, err := c.registration.Book(ctx, &registration.BookingRequest{
		Name:            "Meena Pillai",
		MobileNumber:    "9000000003",
		Age:             28,
		AppointmentDate: tomorrow(),
		BookingType:     registration.BookingManualInClinic,
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if err := c.billing.PrepareMedicines(ctx, appt.ID); err != nil {
		t.Fatalf("PrepareMedicines: %v", err)
	}
	if _, err := c.billing.Update(ctx, appt.ID, &billing.UpdateRequest{ConsultationCharge: 400}); err != nil {
		t.Fatalf("Update billing: %v", err)
	}

	b, _ := c.billing.Get(ctx, appt.ID)
	if !b.MedicinesPrepared {
		t.Error("billing update must not clear the prepared flag")
	}
}

func TestRebookingReusesPatientIdentity(t *testing.T) {
	ctx := context.Background()
	c := newClinic()

	first, err := c.registration.Book(ctx, &registration.BookingRequest{
		Name:            "Asha Rao",
		MobileNumber:    "9000000001",
		Age:             34,
		AppointmentDate: tomorrow(),
		BookingType:     registration.BookingManualInClinic,
	})
	if err != nil {
		t.Fatalf("first Book: %v", err)
	}

	second, err := c.registration.Book(ctx, &registration.BookingRequest{
		Name:            "Asha R.",
		MobileNumber:    "9000000001",
		Age:             35,
		AppointmentDate: tomorrow(),
		BookingType:     registration.BookingOnlineManual,
	})
	if err != nil {
		t.Fatalf("second Book: %v", err)
	}

	if first.PatientID != second.PatientID {
		t.Error("re-booking with the same mobile must reuse the patient")
	}
	if first.ID == second.ID {
		t.Error("each booking must create a distinct appointment")
	}
}

func TestSameDayOnlineDirectRejectedEndToEnd(t *testing.T) {
	ctx := context.Background()
	c := newClinic()

	_, err := c.registration.Book(ctx, &registration.BookingRequest{
		Name:            "Asha Rao",
		MobileNumber:    "9000000001",
		Age:             34,
		AppointmentDate: time.Now().Format("2006-01-02"),
		BookingType:     registration.BookingOnlineDirect,
	})
	if err != registration.ErrSameDayOnlineBooking {
		t.Fatalf("Book = %v, want ErrSameDayOnlineBooking", err)
	}
	if got := len(c.notifier.Calls()); got != 0 {
		t.Errorf("rejected booking sent %d notifications", got)
	}
}
