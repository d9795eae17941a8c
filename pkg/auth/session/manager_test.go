package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/sweetdelights/bakery-backend/pkg/config"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func testManager(t *testing.T) (*Manager, *mockStore) {
	t.Helper()
	store := newMockStore()
	manager, err := newManager(store, store, config.JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager, store
}

func TestManagerStartAndRotate(t *testing.T) {
	manager, store := testManager(t)
	ctx := context.Background()
	userID := uuid.New()

	issued, err := manager.Start(ctx, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	key := store.AccessSessionKey(issued.AccessID)
	stored, ok := store.data[key]
	if !ok {
		t.Fatalf("session not stored")
	}
	if stored == issued.RefreshToken {
		t.Fatalf("raw refresh token must not be stored")
	}
	if store.ttls[key] != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", store.ttls[key])
	}

	if _, err := manager.Rotate(ctx, issued.AccessID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	next, err := manager.Rotate(ctx, issued.AccessID, issued.RefreshToken)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if next.UserID != userID {
		t.Fatalf("expected user %s, got %s", userID, next.UserID)
	}
	if next.AccessID == issued.AccessID || next.RefreshToken == issued.RefreshToken {
		t.Fatalf("rotation must issue new credentials")
	}
	if _, exists := store.data[key]; exists {
		t.Fatalf("old access key left behind")
	}

	if _, err := manager.Rotate(ctx, issued.AccessID, issued.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("reusing rotated token should fail, got %v", err)
	}
}

func TestManagerRevokeAndHasSession(t *testing.T) {
	manager, _ := testManager(t)
	ctx := context.Background()

	issued, err := manager.Start(ctx, uuid.New())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ok, err := manager.HasSession(ctx, issued.AccessID)
	if err != nil || !ok {
		t.Fatalf("expected active session, got %v %v", ok, err)
	}
	if err := manager.Revoke(ctx, issued.AccessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, issued.AccessID)
	if err != nil || ok {
		t.Fatalf("expected revoked session, got %v %v", ok, err)
	}
}

func TestManagerRejectsCorruptRecord(t *testing.T) {
	manager, store := testManager(t)
	store.data[store.AccessSessionKey("acc")] = "not-json"
	if _, err := manager.Rotate(context.Background(), "acc", "token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token, got %v", err)
	}
}

func TestNewManagerValidatesTTL(t *testing.T) {
	store := newMockStore()
	if _, err := newManager(store, store, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30}); err == nil {
		t.Fatal("expected error when refresh ttl is shorter than access ttl")
	}
	if _, err := NewManager(nil, config.JWTConfig{}); err == nil {
		t.Fatal("expected error for nil redis client")
	}
}
