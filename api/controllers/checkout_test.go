package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	cartsvc "github.com/sweetdelights/bakery-backend/internal/cart"
	checkoutsvc "github.com/sweetdelights/bakery-backend/internal/checkout"
	"github.com/sweetdelights/bakery-backend/internal/orders"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
)

type stubCheckoutService struct {
	id    cartsvc.Identity
	input checkoutsvc.PlaceOrderInput
	err   error
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, id cartsvc.Identity, input checkoutsvc.PlaceOrderInput) (*checkoutsvc.Placement, error) {
	s.id = id
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &checkoutsvc.Placement{Order: orders.OrderDTO{ID: uuid.New(), Status: enums.OrderStatusPending}}, nil
}

func TestCheckoutPlacesGuestOrder(t *testing.T) {
	svc := &stubCheckoutService{}
	payload := `{"name":"Asha","email":"asha@example.com","phone":"98450","address":"12 MG Road","deliveryDate":"2030-01-02","notes":"ring twice","paymentMethod":"Card"}`
	req := asGuest(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(payload)), "guest-7")
	rec := httptest.NewRecorder()

	Checkout(svc, testLogger())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.id.GuestID != "guest-7" {
		t.Fatalf("expected guest identity, got %+v", svc.id)
	}
	if svc.input.PaymentMethod != enums.PaymentMethodCard {
		t.Fatalf("expected card payment, got %s", svc.input.PaymentMethod)
	}
	if svc.input.DeliveryDate == nil || svc.input.DeliveryDate.Format(dateLayout) != "2030-01-02" {
		t.Fatalf("unexpected delivery date %v", svc.input.DeliveryDate)
	}
	if svc.input.Customer.Address != "12 MG Road" || svc.input.Actor != nil {
		t.Fatalf("unexpected input %+v", svc.input)
	}
}

func TestCheckoutDefaultsPaymentAndRecordsActor(t *testing.T) {
	svc := &stubCheckoutService{}
	userID := uuid.New()
	payload := `{"name":"Asha","email":"asha@example.com","phone":"98450","address":"12 MG Road"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(payload)), userID, "customer")
	rec := httptest.NewRecorder()

	Checkout(svc, testLogger())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if svc.input.PaymentMethod != enums.PaymentMethodCash {
		t.Fatalf("expected cash default, got %s", svc.input.PaymentMethod)
	}
	if svc.input.Actor == nil || *svc.input.Actor.UserID != userID {
		t.Fatalf("expected actor to be recorded")
	}
	if svc.id.UserID != userID {
		t.Fatalf("expected user cart")
	}
}

func TestCheckoutRejectsBadDate(t *testing.T) {
	svc := &stubCheckoutService{}
	payload := `{"name":"Asha","deliveryDate":"tomorrow"}`
	req := asGuest(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(payload)), "guest-7")
	rec := httptest.NewRecorder()

	Checkout(svc, testLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCheckoutDependencyFailureIsRetryable(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeDependency, "could not place order, please try again")}
	payload := `{"name":"Asha","email":"asha@example.com","phone":"1","address":"x"}`
	req := asGuest(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(payload)), "guest-7")
	rec := httptest.NewRecorder()

	Checkout(svc, testLogger())(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}
