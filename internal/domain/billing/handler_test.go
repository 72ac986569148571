package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func post(t *testing.T, h func(echo.Context) error, path, id, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return rec, h(c)
}

func TestGetBillingHandler_DefaultsWhenAbsent(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/billing/:id")
	c.SetParamNames("id")
	c.SetParamValues(f.apptID.String())

	if err := h.GetBilling(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var b Billing
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if b.DeliveryType != DeliveryInPerson {
		t.Errorf("expected In-Person default, got %s", b.DeliveryType)
	}
}

func TestUpdateBillingHandler_OK(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	body := `{"consultation_charge":300,"medicine_charge":450,"delivery_type":"Courier","courier_channel":"Porter"}`
	rec, err := post(t, h.UpdateBilling, "/billing_prepare/:id", f.apptID.String(), body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"delivery_type":"Courier"`) {
		t.Errorf("expected updated row in response, got %s", rec.Body.String())
	}
}

func TestHandOverHandler_PreconditionFailed(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	_, err := post(t, h.HandOver, "/hand_over_medicine/:id", f.apptID.String(), "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
	if msg, _ := httpErr.Message.(string); msg != "Medicines not prepared yet" {
		t.Errorf("unexpected message: %v", httpErr.Message)
	}
}

func TestCourierDoneHandler_DistinctGuardMessages(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	if err := f.svc.PrepareMedicines(context.Background(), f.apptID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := post(t, h.CourierDone, "/courier_done/:id", f.apptID.String(), "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	if msg, _ := httpErr.Message.(string); msg != "Delivery type is not Courier" {
		t.Errorf("unexpected message: %v", httpErr.Message)
	}
}

func TestPrepareMedicinesHandler_NotFound(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	_, err := post(t, h.PrepareMedicines, "/prepare_medicine/:id", uuid.New().String(), "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
	if msg, _ := httpErr.Message.(string); msg != "Appointment not found" {
		t.Errorf("unexpected message: %v", httpErr.Message)
	}
}

func TestPrepareMedicinesHandler_MissingMobileIs500(t *testing.T) {
	f := newFixture()
	f.dir.mobiles[f.apptID] = ""
	h := NewHandler(f.svc)

	_, err := post(t, h.PrepareMedicines, "/prepare_medicine/:id", f.apptID.String(), "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
}

func TestCompleteCheckoutHandler_Flow(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	if err := f.svc.PrepareMedicines(context.Background(), f.apptID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.HandOver(context.Background(), f.apptID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := post(t, h.CompleteCheckout, "/complete_checkout/:id", f.apptID.String(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"checkout_done":true`) {
		t.Errorf("expected checkout flag in response, got %s", rec.Body.String())
	}
}
