package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/redis"
)

// ProfileRepository stores signed-in carts on user_profiles.cart.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) LoadCart(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	var profile models.UserProfile
	err := r.db.WithContext(ctx).
		Select("id", "cart").
		Where("id = ?", userID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user profile not found")
	}
	if err != nil {
		return nil, err
	}
	return profile.Cart, nil
}

func (r *ProfileRepository) SaveCart(ctx context.Context, userID uuid.UUID, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	res := r.db.WithContext(ctx).
		Model(&models.UserProfile{ID: userID}).
		Select("cart", "updated_at").
		Updates(&models.UserProfile{Cart: lines, UpdatedAt: time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user profile not found")
	}
	return nil
}

// GuestRepository keeps anonymous carts as JSON blobs in redis.
type GuestRepository struct {
	kv  kvStore
	ttl time.Duration
}

func NewGuestRepository(kv kvStore, ttl time.Duration) (*GuestRepository, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &GuestRepository{kv: kv, ttl: ttl}, nil
}

func (r *GuestRepository) LoadGuestCart(ctx context.Context, guestID string) ([]Line, error) {
	blob, err := r.kv.Get(ctx, r.kv.GuestCartKey(guestID))
	if redis.IsNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []Line
	if err := json.Unmarshal([]byte(blob), &lines); err != nil {
		return nil, fmt.Errorf("decode guest cart: %w", err)
	}
	return lines, nil
}

func (r *GuestRepository) SaveGuestCart(ctx context.Context, guestID string, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	blob, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	return r.kv.Set(ctx, r.kv.GuestCartKey(guestID), string(blob), r.ttl)
}

func (r *GuestRepository) DeleteGuestCart(ctx context.Context, guestID string) error {
	return r.kv.Del(ctx, r.kv.GuestCartKey(guestID))
}
