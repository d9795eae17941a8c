package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweetdelights/bakery-backend/api/middleware"
	"github.com/sweetdelights/bakery-backend/internal/analytics"
	"github.com/sweetdelights/bakery-backend/internal/analytics/types"
	"github.com/sweetdelights/bakery-backend/internal/auth"
	cartsvc "github.com/sweetdelights/bakery-backend/internal/cart"
	checkoutsvc "github.com/sweetdelights/bakery-backend/internal/checkout"
	"github.com/sweetdelights/bakery-backend/internal/orders"
	product "github.com/sweetdelights/bakery-backend/internal/products"
	pkgAuth "github.com/sweetdelights/bakery-backend/pkg/auth"
	"github.com/sweetdelights/bakery-backend/pkg/auth/session"
	"github.com/sweetdelights/bakery-backend/pkg/config"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/metrics"
	pkgredis "github.com/sweetdelights/bakery-backend/pkg/redis"
)

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type memoryRedis struct {
	mu     sync.Mutex
	data   map[string]string
	counts map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, counts: map[string]int64{}}
}

func (m *memoryRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memoryRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (m *memoryRedis) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryRedis) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryRedis) RateLimitKey(scope string) string { return "rl:" + scope }

func (m *memoryRedis) Ping(ctx context.Context) error { return nil }

var _ pkgredis.IdempotencyStore = (*memoryRedis)(nil)

type stubDashboard struct{}

func (stubDashboard) Dashboard(ctx context.Context, r types.SalesRange) (*analytics.Dashboard, error) {
	return &analytics.Dashboard{}, nil
}

type stubProducts struct{}

func (stubProducts) List(ctx context.Context, filters product.ListFilters) ([]product.ProductDTO, error) {
	return []product.ProductDTO{}, nil
}

func (stubProducts) Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: id}, nil
}

func (stubProducts) Create(ctx context.Context, input product.CreateProductInput) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: uuid.New(), Name: input.Name}, nil
}

func (stubProducts) Update(ctx context.Context, id uuid.UUID, input product.UpdateProductInput) (*product.ProductDTO, error) {
	return &product.ProductDTO{ID: id}, nil
}

func (stubProducts) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type stubCart struct {
	mu  sync.Mutex
	ids []cartsvc.Identity
}

func (s *stubCart) record(id cartsvc.Identity) (cartsvc.Result, error) {
	s.mu.Lock()
	s.ids = append(s.ids, id)
	s.mu.Unlock()
	return cartsvc.Result{Cart: cartsvc.NewStore(nil)}, nil
}

func (s *stubCart) Get(ctx context.Context, id cartsvc.Identity) (cartsvc.Result, error) {
	return s.record(id)
}

func (s *stubCart) Add(ctx context.Context, id cartsvc.Identity, input cartsvc.AddInput) (cartsvc.Result, error) {
	return s.record(id)
}

func (s *stubCart) SetQuantity(ctx context.Context, id cartsvc.Identity, lineID string, quantity int) (cartsvc.Result, error) {
	return s.record(id)
}

func (s *stubCart) Remove(ctx context.Context, id cartsvc.Identity, lineID string) (cartsvc.Result, error) {
	return s.record(id)
}

func (s *stubCart) Clear(ctx context.Context, id cartsvc.Identity) (cartsvc.Result, error) {
	return s.record(id)
}

func (s *stubCart) Checkout(ctx context.Context, id cartsvc.Identity, place func(*cartsvc.Store) error) (cartsvc.Result, error) {
	return s.record(id)
}

func (s *stubCart) MergeGuest(ctx context.Context, userID uuid.UUID, guestID string) (cartsvc.Result, error) {
	return s.record(cartsvc.ForUser(userID))
}

type countingCheckout struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCheckout) PlaceOrder(ctx context.Context, id cartsvc.Identity, input checkoutsvc.PlaceOrderInput) (*checkoutsvc.Placement, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return &checkoutsvc.Placement{Order: orders.OrderDTO{ID: uuid.New()}}, nil
}

type stubAuth struct {
	refreshedWith string
}

func (s *stubAuth) Register(ctx context.Context, req auth.RegisterRequest) (*auth.TokenResponse, error) {
	return &auth.TokenResponse{AccessToken: "a", RefreshToken: "r"}, nil
}

func (s *stubAuth) Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenResponse, error) {
	return &auth.TokenResponse{AccessToken: "a", RefreshToken: "r"}, nil
}

func (s *stubAuth) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenResponse, error) {
	s.refreshedWith = req.AccessID
	return &auth.TokenResponse{AccessToken: "a2", RefreshToken: "r2"}, nil
}

func (s *stubAuth) Logout(ctx context.Context, accessID string) error { return nil }

type testEnv struct {
	handler  http.Handler
	cfg      *config.Config
	cart     *stubCart
	checkout *countingCheckout
	auth     *stubAuth
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "sweetdelights", ExpirationMinutes: 15},
		RateLimit: config.RateLimitConfig{
			LoginWindow:     time.Minute,
			LoginIPLimit:    2,
			LoginEmailLimit: 5,
		},
		Storefront: config.StorefrontConfig{CurrencySymbol: "₹", CORSOrigins: []string{"http://localhost:3000"}},
		Media:      config.MediaConfig{MaxUploadMB: 1},
	}
	reg := prometheus.NewRegistry()
	metrics.NewStoreMetrics(reg)

	env := testEnv{cfg: cfg, cart: &stubCart{}, checkout: &countingCheckout{}, auth: &stubAuth{}}
	env.handler = NewRouter(cfg, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}), Dependencies{
		Redis:    newMemoryRedis(),
		Sessions: stubSessions{},
		Metrics:  reg,
		Auth:     env.auth,
		Products: stubProducts{},
		Cart:     env.cart,
		Checkout: env.checkout,

		Dashboard: stubDashboard{},
	})
	return env
}

func (e testEnv) token(t *testing.T, role enums.UserRole, now time.Time) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(e.cfg.JWT, now, pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "baker@example.com",
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func (e testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(httptest.NewRequest(http.MethodGet, "/health/live", nil)); rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", rec.Code)
	}
	if rec := env.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil)); rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d", rec.Code)
	}
	rec := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200 got %d", rec.Code)
	}
}

func TestPublicCatalogIsAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unwired service should answer 503, got %d", rec.Code)
	}
}

func TestCartIssuesGuestToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	guest := rec.Header().Get(middleware.GuestHeader)
	if _, err := uuid.Parse(guest); err != nil {
		t.Fatalf("expected guest token header, got %q", guest)
	}
	if len(env.cart.ids) != 1 || env.cart.ids[0].GuestID != guest {
		t.Fatalf("cart should be keyed by the issued guest token")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, enums.UserRoleCustomer, time.Now()))
	if rec := env.do(req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !env.cart.ids[1].SignedIn() {
		t.Fatalf("signed-in request should use the user cart")
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401 got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, enums.UserRoleCustomer, time.Now()))
	if rec := env.do(req); rec.Code != http.StatusForbidden {
		t.Fatalf("customer: expected 403 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, enums.UserRoleAdmin, time.Now()))
	if rec := env.do(req); rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200 got %d", rec.Code)
	}
}

func TestAdminDashboardRoute(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, enums.UserRoleCustomer, time.Now()))
	if rec := env.do(req); rec.Code != http.StatusForbidden {
		t.Fatalf("customer: expected 403 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard?preset=7d", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, enums.UserRoleAdmin, time.Now()))
	if rec := env.do(req); rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refreshToken":"r"}`))
	req.Header.Set("Authorization", "Bearer "+env.token(t, enums.UserRoleCustomer, time.Now().Add(-2*time.Hour)))
	rec := env.do(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if env.auth.refreshedWith == "" {
		t.Fatalf("refresh should receive the access id")
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.co","password":"pw"}`))
		req.Header.Set("X-Forwarded-For", "198.51.100.7")
		last = env.do(req).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected third login to be throttled, got %d", last)
	}
}

func TestCheckoutReplaysWithIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	guest := uuid.NewString()
	body := `{"name":"Asha","email":"asha@example.com","phone":"9845000000","address":"12 MG Road"}`

	var first, second *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req.Header.Set(middleware.GuestHeader, guest)
		req.Header.Set("Idempotency-Key", "order-1")
		rec := env.do(req)
		if i == 0 {
			first = rec
		} else {
			second = rec
		}
	}

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 twice, got %d and %d", first.Code, second.Code)
	}
	if env.checkout.calls != 1 {
		t.Fatalf("expected one order placement, got %d", env.checkout.calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs")
	}
}
