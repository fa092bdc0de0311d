package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pantry-hub/internal/model"
	"pantry-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// userService implements UserService.
type userService struct {
	userRepo       repository.UserRepository
	householdRepo  repository.HouseholdRepository
	invitationRepo repository.InvitationRepository
	logger         zerolog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	householdRepo repository.HouseholdRepository,
	invitationRepo repository.InvitationRepository,
	logger zerolog.Logger,
) UserService {
	return &userService{
		userRepo:       userRepo,
		householdRepo:  householdRepo,
		invitationRepo: invitationRepo,
		logger:         logger.With().Str("service", "user").Logger(),
	}
}

// Register creates a user and, unless an invitation is waiting for them,
// their own household.
func (s *userService) Register(ctx context.Context, req *model.RegisterUserRequest) (*model.RegisterUserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" {
		return nil, model.ErrInvalidEmail
	}
	if username == "" {
		return nil, model.Validation(model.ErrCodeMissingField, "Username is required")
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:        uuid.New(),
		Email:     email,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	resp := &model.RegisterUserResponse{User: user}

	err := inTx(ctx, s.userRepo, s.logger, func(tx pgx.Tx) error {
		pending, err := s.invitationRepo.HasUsableForEmail(ctx, tx, email, now)
		if err != nil {
			return fmt.Errorf("failed to check invitations: %w", err)
		}

		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}

		if pending {
			resp.PendingInvite = true
			return nil
		}

		household := newHousehold(model.DefaultHouseholdName, user, now)
		if err := s.householdRepo.Create(ctx, tx, household); err != nil {
			return err
		}
		if err := s.userRepo.SetHousehold(ctx, tx, user.ID, &household.ID); err != nil {
			return err
		}
		user.HouseholdID = &household.ID
		resp.Household = household
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("failed to register user")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Bool("pending_invitation", resp.PendingInvite).
		Msg("user registered successfully")

	return resp, nil
}

// GetUser retrieves a user by ID.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to get user")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

// newHousehold builds a household owned by user with default settings.
func newHousehold(name string, owner *model.User, now time.Time) *model.Household {
	return &model.Household{
		ID:      uuid.New(),
		Name:    name,
		OwnerID: owner.ID,
		Members: []model.HouseholdMember{{
			User:     model.Resolved(*owner),
			Role:     model.RoleOwner,
			JoinedAt: now,
		}},
		Settings:  model.DefaultHouseholdSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
