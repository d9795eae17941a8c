package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/internal/users"
	pkgAuth "github.com/sweetdelights/bakery-backend/pkg/auth"
	"github.com/sweetdelights/bakery-backend/pkg/auth/session"
	"github.com/sweetdelights/bakery-backend/pkg/config"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/security"
)

var (
	testJWT = config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "sweetdelights",
		ExpirationMinutes:      30,
		RefreshTokenTTLMinutes: 600,
	}
	testPassword = config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
)

type fakeUsers struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*models.UserProfile
	rehashed int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uuid.UUID]*models.UserProfile{}}
}

func (f *fakeUsers) Create(_ context.Context, dto users.CreateUserDTO) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := dto.ToModel()
	for _, existing := range f.byID {
		if existing.Email == user.Email {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
	}
	user.ID = uuid.New()
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byID {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].LastLoginAt = &at
	return nil
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].PasswordHash = hash
	f.rehashed++
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]session.Issued
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]session.Issued{}}
}

func (f *fakeSessions) Start(_ context.Context, userID uuid.UUID) (session.Issued, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issued := session.Issued{AccessID: uuid.NewString(), RefreshToken: uuid.NewString(), UserID: userID}
	f.sessions[issued.AccessID] = issued
	return issued, nil
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, provided string) (session.Issued, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.sessions[oldAccessID]
	if !ok || current.RefreshToken != provided {
		return session.Issued{}, session.ErrInvalidRefreshToken
	}
	delete(f.sessions, oldAccessID)
	next := session.Issued{AccessID: uuid.NewString(), RefreshToken: uuid.NewString(), UserID: current.UserID}
	f.sessions[next.AccessID] = next
	return next, nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, accessID)
	return nil
}

func buildTestService(t *testing.T, allowAdmin bool) (Service, *fakeUsers, *fakeSessions) {
	t.Helper()
	repo := newFakeUsers()
	sessions := newFakeSessions()
	svc, err := NewService(ServiceParams{
		UserRepo:           repo,
		SessionManager:     sessions,
		JWTConfig:          testJWT,
		PasswordConfig:     testPassword,
		AllowAdminRegister: allowAdmin,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo, sessions
}

func TestRegisterIssuesCustomerSession(t *testing.T) {
	svc, repo, sessions := buildTestService(t, false)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:       " Priya@Example.com",
		Password:    "sponge123",
		DisplayName: "Priya",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email != "priya@example.com" {
		t.Fatalf("expected normalized email, got %s", resp.User.Email)
	}
	if resp.User.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", resp.User.Role)
	}
	if resp.ExpiresIn != 1800 {
		t.Fatalf("expected 1800s expiry, got %d", resp.ExpiresIn)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Fatalf("claims user mismatch")
	}
	if _, ok := sessions.sessions[claims.ID]; !ok {
		t.Fatalf("expected session keyed by jti %s", claims.ID)
	}

	stored := repo.byID[resp.User.ID]
	if stored.PasswordHash == "sponge123" {
		t.Fatalf("password stored in clear")
	}

	_, err = svc.Register(context.Background(), RegisterRequest{Email: "priya@example.com", Password: "sponge123", DisplayName: "P"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := buildTestService(t, false)
	cases := map[string]RegisterRequest{
		"weak password": {Email: "a@example.com", Password: "short", DisplayName: "A"},
		"no digit":      {Email: "a@example.com", Password: "onlyletters", DisplayName: "A"},
		"no name":       {Email: "a@example.com", Password: "sponge123", DisplayName: "  "},
		"no email":      {Email: " ", Password: "sponge123", DisplayName: "A"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), req)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterAdminRequiresFlag(t *testing.T) {
	svc, _, _ := buildTestService(t, false)
	_, err := svc.Register(context.Background(), RegisterRequest{Email: "boss@example.com", Password: "sponge123", DisplayName: "Boss", Admin: true})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	svc, _, _ = buildTestService(t, true)
	resp, err := svc.Register(context.Background(), RegisterRequest{Email: "boss@example.com", Password: "sponge123", DisplayName: "Boss", Admin: true})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !claims.IsAdmin() {
		t.Fatalf("expected admin claims, got %s", claims.Role)
	}
}

func seedUser(t *testing.T, repo *fakeUsers, email, password string, cfg config.PasswordConfig) *models.UserProfile {
	t.Helper()
	hash, err := security.HashPassword(password, cfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := repo.Create(context.Background(), users.CreateUserDTO{Email: email, PasswordHash: hash, DisplayName: "Seed"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestLoginSuccessAndFailures(t *testing.T) {
	svc, repo, _ := buildTestService(t, false)
	user := seedUser(t, repo, "anya@example.com", "truffle99", testPassword)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "ANYA@example.com", Password: "truffle99"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.ID != user.ID {
		t.Fatalf("unexpected user %s", resp.User.ID)
	}
	if repo.byID[user.ID].LastLoginAt == nil {
		t.Fatalf("last login not recorded")
	}
	if repo.rehashed != 0 {
		t.Fatalf("hash with current params must not be rewritten")
	}

	for _, req := range []LoginRequest{
		{Email: "anya@example.com", Password: "wrong"},
		{Email: "ghost@example.com", Password: "truffle99"},
		{Email: "", Password: "truffle99"},
	} {
		_, err := svc.Login(context.Background(), req)
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("expected unauthorized for %+v, got %v", req, err)
		}
	}
}

func TestLoginRehashesWeakHash(t *testing.T) {
	svc, repo, _ := buildTestService(t, false)
	weak := testPassword
	weak.ArgonMemoryKB = 1024
	user := seedUser(t, repo, "old@example.com", "truffle99", weak)

	if _, err := svc.Login(context.Background(), LoginRequest{Email: "old@example.com", Password: "truffle99"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if repo.rehashed != 1 {
		t.Fatalf("expected one rehash, got %d", repo.rehashed)
	}
	ok, err := security.VerifyPassword("truffle99", repo.byID[user.ID].PasswordHash)
	if err != nil || !ok {
		t.Fatalf("rehashed password must verify: %v %v", ok, err)
	}
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	svc, repo, sessions := buildTestService(t, false)
	seedUser(t, repo, "dev@example.com", "truffle99", testPassword)
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginRequest{Email: "dev@example.com", Password: "truffle99"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, login.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	_, err = svc.Refresh(ctx, RefreshRequest{AccessID: claims.ID, RefreshToken: "bogus"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	refreshed, err := svc.Refresh(ctx, RefreshRequest{AccessID: claims.ID, RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	next, err := pkgAuth.ParseAccessToken(testJWT, refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse refreshed: %v", err)
	}
	if next.ID == claims.ID {
		t.Fatalf("refresh must rotate the jti")
	}
	if next.UserID != claims.UserID {
		t.Fatalf("refresh changed the user")
	}

	if err := svc.Logout(ctx, next.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("expected no sessions after logout, got %d", len(sessions.sessions))
	}
	if err := svc.Logout(ctx, ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for empty jti, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{SessionManager: newFakeSessions()}); err == nil {
		t.Fatal("expected error without repo")
	}
	if _, err := NewService(ServiceParams{UserRepo: newFakeUsers()}); err == nil {
		t.Fatal("expected error without session manager")
	}
}
