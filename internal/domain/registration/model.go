// Package registration covers the front desk: patient identity, appointment
// booking and check-in, and the joined visit listing the dashboards render.
package registration

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Booking channels. The same-day rule matches BookingOnlineDirect exactly.
const (
	BookingOnlineDirect   = "Online Direct"
	BookingOnlineManual   = "Online Manual"
	BookingManualInClinic = "Manual In-Clinic"
)

var validBookingTypes = map[string]bool{
	BookingOnlineDirect:   true,
	BookingOnlineManual:   true,
	BookingManualInClinic: true,
}

// Error texts double as API messages, so they are capitalized sentences.
var (
	ErrAppointmentNotFound  = errors.New("Appointment not found")
	ErrPatientNotFound      = errors.New("Patient not found")
	ErrSameDayOnlineBooking = errors.New("Same-day online bookings not allowed")
)

// Patient is one identity row, deduplicated by mobile number. Re-booking with
// a known mobile number overwrites name, age and address in place.
type Patient struct {
	ID           uuid.UUID `json:"patient_id" db:"patient_id"`
	Name         string    `json:"name" db:"name"`
	MobileNumber string    `json:"mobile_number" db:"mobile_number"`
	Age          int       `json:"age" db:"age"`
	Address      string    `json:"address" db:"address"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Appointment is one visit request. Dates are YYYY-MM-DD strings; the
// confirmed flag is persisted but no transition reads it.
type Appointment struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	PatientID       uuid.UUID  `json:"patient_id" db:"patient_id"`
	Reason          string     `json:"reason" db:"reason"`
	BookingDate     string     `json:"booking_date" db:"booking_date"`
	AppointmentDate string     `json:"appointment_date" db:"appointment_date"`
	BookingType     string     `json:"booking_type" db:"booking_type"`
	Confirmed       bool       `json:"confirmed" db:"confirmed"`
	CheckinStatus   string     `json:"checkin_status" db:"checkin_status"`
	CheckinTime     *time.Time `json:"checkin_time" db:"checkin_time"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// VisitView is one row of the dashboard listing: the appointment joined with
// its patient and the optional diagnosis and billing progress.
type VisitView struct {
	AppointmentID       uuid.UUID  `json:"appointment_id"`
	PatientName         string     `json:"patient_name"`
	MobileNumber        string     `json:"mobile_number"`
	Age                 int        `json:"age"`
	Reason              string     `json:"reason"`
	AppointmentDate     string     `json:"appointment_date"`
	BookingType         string     `json:"booking_type"`
	CheckinStatus       string     `json:"checkin_status"`
	CheckinTime         *time.Time `json:"checkin_time"`
	Diagnosis           string     `json:"diagnosis"`
	Medicines           string     `json:"medicines"`
	DiagnosisSaved      bool       `json:"diagnosis_saved"`
	MedicinesPrescribed bool       `json:"medicines_prescribed"`
	DeliveryType        string     `json:"delivery_type"`
	MedicinesPrepared   bool       `json:"medicines_prepared"`
	MedicinesHandedOver bool       `json:"medicines_handed_over"`
	Couriered           bool       `json:"couriered"`
	CheckoutDone        bool       `json:"checkout_done"`
}
