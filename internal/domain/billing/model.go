// Package billing tracks charges and the terminal progress flags of a visit:
// prepared, handed over or couriered, then checked out. Flags are monotonic;
// no transition ever clears one.
package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	DeliveryInPerson = "In-Person"
	DeliveryCourier  = "Courier"
)

// CourierChannels is the fixed choice list offered by the billing form.
var CourierChannels = []string{"Rapido", "Porter", "India Post", "DTDC", "BlueDart", "Others"}

// Guard and lookup failures. Texts double as API messages.
var (
	ErrBillingNotFound      = errors.New("billing row not found")
	ErrNotPrepared          = errors.New("Medicines not prepared yet")
	ErrNotCourierDelivery   = errors.New("Delivery type is not Courier")
	ErrNotReadyForCheckout  = errors.New("Medicines not handed over or couriered")
	ErrPatientMobileMissing = errors.New("patient mobile number missing")
)

// Billing is the money-and-progress row for one appointment. The four flags
// are only ever set by their transitions, never by the billing write.
type Billing struct {
	AppointmentID       uuid.UUID `json:"appointment_id" db:"appointment_id"`
	ConsultationCharge  float64   `json:"consultation_charge" db:"consultation_charge"`
	MedicineCharge      float64   `json:"medicine_charge" db:"medicine_charge"`
	CourierCharge       float64   `json:"courier_charge" db:"courier_charge"`
	DeliveryType        string    `json:"delivery_type" db:"delivery_type"`
	DeliveredTo         string    `json:"delivered_to" db:"delivered_to"`
	CourierChannel      string    `json:"courier_channel" db:"courier_channel"`
	CourierTracking     string    `json:"courier_tracking" db:"courier_tracking"`
	AmountPaid          float64   `json:"amount_paid" db:"amount_paid"`
	PaymentDate         string    `json:"payment_date" db:"payment_date"`
	PaymentID           string    `json:"payment_id" db:"payment_id"`
	Discount            float64   `json:"discount" db:"discount"`
	MedicinesPrepared   bool      `json:"medicines_prepared" db:"medicines_prepared"`
	MedicinesHandedOver bool      `json:"medicines_handed_over" db:"medicines_handed_over"`
	Couriered           bool      `json:"couriered" db:"couriered"`
	CheckoutDone        bool      `json:"checkout_done" db:"checkout_done"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// Defaults is what a billing read returns when no row exists yet.
func Defaults(appointmentID uuid.UUID) *Billing {
	return &Billing{
		AppointmentID: appointmentID,
		DeliveryType:  DeliveryInPerson,
	}
}

// TotalDue is the checkout amount: charges minus discount.
func (b *Billing) TotalDue() float64 {
	return b.ConsultationCharge + b.MedicineCharge + b.CourierCharge - b.Discount
}

// UpdateRequest is the JSON payload for POST /billing_prepare/:id. Omitted
// numerics stay zero and a blank delivery type falls back to In-Person.
type UpdateRequest struct {
	ConsultationCharge float64 `json:"consultation_charge" form:"consultation_charge"`
	MedicineCharge     float64 `json:"medicine_charge" form:"medicine_charge"`
	CourierCharge      float64 `json:"courier_charge" form:"courier_charge"`
	DeliveryType       string  `json:"delivery_type" form:"delivery_type"`
	DeliveredTo        string  `json:"delivered_to" form:"delivered_to"`
	CourierChannel     string  `json:"courier_channel" form:"courier_channel"`
	CourierTracking    string  `json:"courier_tracking" form:"courier_tracking"`
	AmountPaid         float64 `json:"amount_paid" form:"amount_paid"`
	PaymentDate        string  `json:"payment_date" form:"payment_date"`
	PaymentID          string  `json:"payment_id" form:"payment_id"`
	Discount           float64 `json:"discount" form:"discount"`
}
