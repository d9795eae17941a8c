package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
)

// ProfileService reads and edits the signed-in user's own profile.
type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
}

// UpdateProfileInput carries only the fields the caller sent. An empty string
// clears Phone or Address; DisplayName cannot be blanked.
type UpdateProfileInput struct {
	DisplayName *string
	Phone       *string
	Address     *string
}

type profileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, changes map[string]any) error
}

type profileService struct {
	repo profileRepository
}

func NewProfileService(repo profileRepository) (ProfileService, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &profileService{repo: repo}, nil
}

func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *profileService) Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	changes := map[string]any{}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "displayName cannot be empty")
		}
		changes["display_name"] = name
	}
	if input.Phone != nil {
		changes["phone"] = nullable(*input.Phone)
	}
	if input.Address != nil {
		changes["address"] = nullable(*input.Address)
	}

	if err := s.repo.UpdateProfile(ctx, userID, changes); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func nullable(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
