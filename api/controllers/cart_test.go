package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/sweetdelights/bakery-backend/internal/cart"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
)

type stubCartService struct {
	lastID    cartsvc.Identity
	lastAdd   cartsvc.AddInput
	lastLine  string
	lastQty   int
	mergeUser uuid.UUID
	mergeFrom string
	result    cartsvc.Result
	err       error
}

func (s *stubCartService) Get(ctx context.Context, id cartsvc.Identity) (cartsvc.Result, error) {
	s.lastID = id
	return s.result, s.err
}

func (s *stubCartService) Add(ctx context.Context, id cartsvc.Identity, input cartsvc.AddInput) (cartsvc.Result, error) {
	s.lastID = id
	s.lastAdd = input
	return s.result, s.err
}

func (s *stubCartService) SetQuantity(ctx context.Context, id cartsvc.Identity, lineID string, quantity int) (cartsvc.Result, error) {
	s.lastID = id
	s.lastLine = lineID
	s.lastQty = quantity
	return s.result, s.err
}

func (s *stubCartService) Remove(ctx context.Context, id cartsvc.Identity, lineID string) (cartsvc.Result, error) {
	s.lastID = id
	s.lastLine = lineID
	return s.result, s.err
}

func (s *stubCartService) Clear(ctx context.Context, id cartsvc.Identity) (cartsvc.Result, error) {
	s.lastID = id
	return s.result, s.err
}

func (s *stubCartService) Checkout(ctx context.Context, id cartsvc.Identity, place func(*cartsvc.Store) error) (cartsvc.Result, error) {
	s.lastID = id
	return s.result, s.err
}

func (s *stubCartService) MergeGuest(ctx context.Context, userID uuid.UUID, guestID string) (cartsvc.Result, error) {
	s.mergeUser = userID
	s.mergeFrom = guestID
	return s.result, s.err
}

func cartWithOneLine() cartsvc.Result {
	st := cartsvc.NewStore([]cartsvc.Line{{
		ID:        "line-1",
		ProductID: uuid.NewString(),
		Name:      "Chocolate Truffle",
		UnitPrice: decimal.NewFromInt(600),
		Quantity:  2,
		Size:      "1kg",
	}})
	return cartsvc.Result{Cart: st}
}

func TestGetCartRendersTotals(t *testing.T) {
	svc := &stubCartService{result: cartWithOneLine()}
	req := asGuest(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), "guest-1")
	rec := httptest.NewRecorder()

	GetCart(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastID.GuestID != "guest-1" || svc.lastID.SignedIn() {
		t.Fatalf("expected guest identity, got %+v", svc.lastID)
	}
	var body struct {
		Items  []cartsvc.Line `json:"items"`
		Totals struct {
			Subtotal    decimal.Decimal `json:"subtotal"`
			DeliveryFee decimal.Decimal `json:"deliveryFee"`
			Total       decimal.Decimal `json:"total"`
			ItemCount   int             `json:"itemCount"`
		} `json:"totals"`
	}
	decodeData(t, rec, &body)
	if len(body.Items) != 1 || body.Totals.ItemCount != 2 {
		t.Fatalf("unexpected cart body %+v", body)
	}
	if !body.Totals.Subtotal.Equal(decimal.NewFromInt(1200)) || !body.Totals.Total.Equal(decimal.NewFromInt(1250)) {
		t.Fatalf("unexpected totals %+v", body.Totals)
	}
}

func TestGetCartEmptyCartStillCarriesDeliveryFee(t *testing.T) {
	svc := &stubCartService{result: cartsvc.Result{Cart: cartsvc.NewStore(nil)}}
	req := asGuest(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), "guest-1")
	rec := httptest.NewRecorder()

	GetCart(svc, testLogger())(rec, req)

	var body struct {
		Items  []cartsvc.Line `json:"items"`
		Totals struct {
			Total decimal.Decimal `json:"total"`
		} `json:"totals"`
	}
	decodeData(t, rec, &body)
	if body.Items == nil || len(body.Items) != 0 {
		t.Fatalf("expected empty items array, got %v", body.Items)
	}
	if !body.Totals.Total.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected delivery fee only, got %s", body.Totals.Total)
	}
}

func TestAddCartItemUsesSignedInUser(t *testing.T) {
	svc := &stubCartService{result: cartWithOneLine()}
	userID := uuid.New()
	productID := uuid.New()
	payload := `{"productId":"` + productID.String() + `","size":" 1kg ","quantity":2,"customization":"Happy birthday"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(payload))
	req = asUser(asGuest(req, "guest-1"), userID, "customer")
	rec := httptest.NewRecorder()

	AddCartItem(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastID.UserID != userID {
		t.Fatalf("expected user cart, got %+v", svc.lastID)
	}
	if svc.lastAdd.ProductID != productID || svc.lastAdd.Size != "1kg" || svc.lastAdd.Quantity != 2 {
		t.Fatalf("unexpected add input %+v", svc.lastAdd)
	}
}

func TestAddCartItemRejectsZeroQuantity(t *testing.T) {
	svc := &stubCartService{}
	payload := `{"productId":"` + uuid.NewString() + `","quantity":0}`
	req := asGuest(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(payload)), "guest-1")
	rec := httptest.NewRecorder()

	AddCartItem(svc, testLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestSetCartItemQuantityPassesLine(t *testing.T) {
	svc := &stubCartService{result: cartWithOneLine()}
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/line-1", strings.NewReader(`{"quantity":0}`))
	req = withURLParams(asGuest(req, "guest-1"), "lineId", "line-1")
	rec := httptest.NewRecorder()

	SetCartItemQuantity(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastLine != "line-1" || svc.lastQty != 0 {
		t.Fatalf("unexpected set quantity call line=%s qty=%d", svc.lastLine, svc.lastQty)
	}
}

func TestCartWarningIsSurfaced(t *testing.T) {
	res := cartWithOneLine()
	res.Warning = "cart saved locally only"
	svc := &stubCartService{result: res}
	req := asGuest(httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil), "guest-1")
	rec := httptest.NewRecorder()

	ClearCart(svc, testLogger())(rec, req)

	var body struct {
		Warning string `json:"warning"`
	}
	decodeData(t, rec, &body)
	if body.Warning != res.Warning {
		t.Fatalf("expected warning, got %q", body.Warning)
	}
}

func TestMergeGuestCartRequiresUser(t *testing.T) {
	svc := &stubCartService{}
	req := asGuest(httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", nil), "guest-1")
	rec := httptest.NewRecorder()

	MergeGuestCart(svc, testLogger())(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	userID := uuid.New()
	req = asUser(asGuest(httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", nil), "guest-1"), userID, "customer")
	svc.result = cartWithOneLine()
	rec = httptest.NewRecorder()
	MergeGuestCart(svc, testLogger())(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.mergeUser != userID || svc.mergeFrom != "guest-1" {
		t.Fatalf("unexpected merge call %s %s", svc.mergeUser, svc.mergeFrom)
	}
}

func TestCartServiceErrorIsMapped(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	payload := `{"productId":"` + uuid.NewString() + `","quantity":1}`
	req := asGuest(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(payload)), "guest-1")
	rec := httptest.NewRecorder()

	AddCartItem(svc, testLogger())(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("unexpected code %s", code)
	}
}
