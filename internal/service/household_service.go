package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pantry-hub/internal/config"
	"pantry-hub/internal/email"
	"pantry-hub/internal/metrics"
	"pantry-hub/internal/model"
	"pantry-hub/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const emailWarning = "Invitation created but the email could not be sent; share the invite link instead"

// householdService implements HouseholdService.
type householdService struct {
	householdRepo  repository.HouseholdRepository
	userRepo       repository.UserRepository
	invitationRepo repository.InvitationRepository
	pantryRepo     repository.PantryRepository
	sender         email.Sender
	links          config.LinksConfig
	validate       *validator.Validate
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewHouseholdService creates a new household service.
func NewHouseholdService(
	householdRepo repository.HouseholdRepository,
	userRepo repository.UserRepository,
	invitationRepo repository.InvitationRepository,
	pantryRepo repository.PantryRepository,
	sender email.Sender,
	links config.LinksConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) HouseholdService {
	return &householdService{
		householdRepo:  householdRepo,
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		pantryRepo:     pantryRepo,
		sender:         sender,
		links:          links,
		validate:       validator.New(),
		metrics:        m,
		logger:         logger.With().Str("service", "household").Logger(),
	}
}

// Create creates a household owned by the actor.
func (s *householdService) Create(ctx context.Context, actor *model.User, name *string) (*model.Household, error) {
	var id uuid.UUID
	err := inTx(ctx, s.householdRepo, s.logger, func(tx pgx.Tx) error {
		user, err := s.lockUser(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if user.HouseholdID != nil {
			return model.ErrAlreadyMember
		}

		householdName := model.DefaultNameFor(user.Username)
		if name != nil && strings.TrimSpace(*name) != "" {
			householdName = strings.TrimSpace(*name)
		}

		household := newHousehold(householdName, user, time.Now().UTC())
		if err := s.householdRepo.Create(ctx, tx, household); err != nil {
			return err
		}
		id = household.ID
		return s.userRepo.SetHousehold(ctx, tx, user.ID, &household.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("household_id", id.String()).
		Str("owner_id", actor.ID.String()).
		Msg("household created successfully")
	return s.load(ctx, id)
}

// Get returns the actor's household. A dangling reference, to a deleted
// household or one that no longer lists the actor, is cleared.
func (s *householdService) Get(ctx context.Context, actor *model.User) (*model.Household, error) {
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	if user.HouseholdID == nil {
		return nil, nil
	}

	household, err := s.householdRepo.GetByID(ctx, *user.HouseholdID)
	if err != nil {
		s.logger.Error().Err(err).Str("household_id", user.HouseholdID.String()).Msg("failed to get household")
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	if household != nil && household.IsMember(user.ID) {
		return household, nil
	}

	s.logger.Warn().
		Str("user_id", user.ID.String()).
		Str("household_id", user.HouseholdID.String()).
		Msg("clearing dangling household reference")

	err = inTx(ctx, s.userRepo, s.logger, func(tx pgx.Tx) error {
		return s.userRepo.SetHousehold(ctx, tx, user.ID, nil)
	})
	if err != nil {
		return nil, err
	}
	actor.HouseholdID = nil
	return nil, nil
}

// Update changes the name or settings. Owner and admins only.
func (s *householdService) Update(ctx context.Context, actor *model.User, req *model.UpdateHouseholdRequest) (*model.Household, error) {
	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, model.Validation(model.ErrCodeMissingField, "Household name cannot be empty")
		}
	}

	var id uuid.UUID
	err := inTx(ctx, s.householdRepo, s.logger, func(tx pgx.Tx) error {
		_, household, err := s.lockActorHousehold(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if !household.CanManage(actor.ID) {
			return model.ErrForbidden
		}

		if req.Name != nil {
			household.Name = name
		}
		if req.Settings != nil {
			household.Settings = req.Settings.Apply(household.Settings)
		}
		id = household.ID
		return s.householdRepo.Update(ctx, tx, household)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Invite creates an invitation and emails it. A failed email does not undo
// the invitation; the response then carries a warning and the links.
func (s *householdService) Invite(ctx context.Context, actor *model.User, address string) (*model.InviteResponse, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if err := s.validate.Var(address, "required,email"); err != nil {
		return nil, model.ErrInvalidEmail
	}

	var (
		invitation *model.Invitation
		household  *model.Household
		inviter    *model.User
	)
	err := inTx(ctx, s.householdRepo, s.logger, func(tx pgx.Tx) error {
		var err error
		inviter, household, err = s.lockActorHousehold(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if !household.CanInvite(actor.ID) {
			return model.ErrForbidden
		}

		invitee, err := s.userRepo.GetByEmail(ctx, address)
		if err != nil {
			return fmt.Errorf("failed to look up invitee: %w", err)
		}
		if invitee != nil && household.IsMember(invitee.ID) {
			return model.ErrAlreadyMember
		}

		now := time.Now().UTC()
		if err := s.invitationRepo.ExpireStale(ctx, tx, address, household.ID, now); err != nil {
			return err
		}

		invitation = model.NewInvitation(address, household.ID, actor.ID, now)
		return s.invitationRepo.Create(ctx, tx, invitation)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Invitation("created")

	resp := &model.InviteResponse{
		Invitation: invitation,
		DeepLink:   s.links.AppURL + "accept-invite/" + invitation.Token.String(),
		InviteLink: s.links.WebURL + "/accept-invite/" + invitation.Token.String(),
	}

	err = s.sender.SendInvitation(ctx, email.Invitation{
		To:            address,
		HouseholdName: household.Name,
		InviterName:   inviter.Username,
		DeepLink:      resp.DeepLink,
		WebLink:       resp.InviteLink,
	})
	if err != nil {
		if !errors.Is(err, email.ErrNotConfigured) {
			s.metrics.UpstreamFailure("email")
		}
		s.logger.Warn().
			Err(err).
			Str("invitation_id", invitation.ID.String()).
			Msg("invitation email not sent")
		resp.Warning = emailWarning
	} else {
		resp.EmailSent = true
	}

	s.logger.Info().
		Str("invitation_id", invitation.ID.String()).
		Str("household_id", household.ID.String()).
		Bool("email_sent", resp.EmailSent).
		Msg("invitation created successfully")
	return resp, nil
}

// GetInvitation returns the public details of a usable invitation.
func (s *householdService) GetInvitation(ctx context.Context, token uuid.UUID) (*model.InvitationDetails, error) {
	invitation, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	if invitation == nil {
		return nil, model.ErrInvitationNotFound
	}
	if err := s.checkUsable(ctx, invitation); err != nil {
		return nil, err
	}

	household, err := s.householdRepo.GetByID(ctx, invitation.HouseholdID)
	if err != nil {
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	if household == nil {
		return nil, model.ErrInvalidOrExpired
	}

	details := &model.InvitationDetails{
		Email:         invitation.Email,
		HouseholdID:   household.ID,
		HouseholdName: household.Name,
		ExpiresAt:     invitation.ExpiresAt,
	}
	if inviter, err := s.userRepo.GetByID(ctx, invitation.InvitedBy); err == nil && inviter != nil {
		details.InvitedBy = inviter.Username
	}
	return details, nil
}

// Accept joins the actor to the invitation's household.
func (s *householdService) Accept(ctx context.Context, actor *model.User, token uuid.UUID) (*model.Household, error) {
	var (
		householdID uuid.UUID
		stale       *model.Invitation
	)
	err := inTx(ctx, s.householdRepo, s.logger, func(tx pgx.Tx) error {
		user, err := s.lockUser(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if user.HouseholdID != nil {
			return model.ErrAlreadyMember
		}

		invitation, err := s.invitationRepo.GetByTokenForUpdate(ctx, tx, token)
		if err != nil {
			return err
		}
		if invitation == nil {
			return model.ErrInvalidOrExpired
		}
		now := time.Now().UTC()
		if invitation.IsStale(now) {
			stale = invitation
			return model.ErrInvalidOrExpired
		}
		if !invitation.IsUsable(now) {
			return model.ErrInvalidOrExpired
		}

		if !strings.EqualFold(invitation.Email, user.Email) {
			s.logger.Warn().
				Str("invitation_id", invitation.ID.String()).
				Str("user_id", user.ID.String()).
				Msg("invitation accepted by a different email address")
		}

		household, err := s.householdRepo.GetForUpdate(ctx, tx, invitation.HouseholdID)
		if err != nil {
			return err
		}
		if household == nil {
			return model.ErrInvalidOrExpired
		}

		if err := s.householdRepo.AddMember(ctx, tx, household.ID, user.ID, model.RoleMember); err != nil {
			return err
		}

		invitation.Status = model.InvitationAccepted
		invitation.AcceptedAt = &now
		invitation.AcceptedBy = &user.ID
		if err := s.invitationRepo.UpdateStatus(ctx, tx, invitation); err != nil {
			return err
		}

		householdID = household.ID
		return s.userRepo.SetHousehold(ctx, tx, user.ID, &household.ID)
	})
	if stale != nil {
		s.expire(ctx, stale)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.Invitation("accepted")
	actor.HouseholdID = &householdID
	s.logger.Info().
		Str("household_id", householdID.String()).
		Str("user_id", actor.ID.String()).
		Msg("invitation accepted")
	return s.load(ctx, householdID)
}

// Decline marks a pending invitation declined.
func (s *householdService) Decline(ctx context.Context, actor *model.User, token uuid.UUID) error {
	var stale *model.Invitation
	err := inTx(ctx, s.householdRepo, s.logger, func(tx pgx.Tx) error {
		invitation, err := s.invitationRepo.GetByTokenForUpdate(ctx, tx, token)
		if err != nil {
			return err
		}
		if invitation == nil {
			return model.ErrInvalidOrExpired
		}
		if !strings.EqualFold(invitation.Email, strings.TrimSpace(actor.Email)) {
			return model.ErrForbidden
		}
		now := time.Now().UTC()
		if invitation.IsStale(now) {
			stale = invitation
			return model.ErrInvalidOrExpired
		}
		if !invitation.IsUsable(now) {
			return model.ErrInvalidOrExpired
		}

		invitation.Status = model.InvitationDeclined
		return s.invitationRepo.UpdateStatus(ctx, tx, invitation)
	})
	if stale != nil {
		s.expire(ctx, stale)
	}
	if err != nil {
		return err
	}

	s.metrics.Invitation("declined")
	s.logger.Info().Str("user_id", actor.ID.String()).Msg("invitation declined")
	return nil
}

// Leave removes a non-owner from their household. The household is deleted
// when its last member leaves.
func (s *householdService) Leave(ctx context.Context, actor *model.User) error {
	err := inTx(ctx, s.householdRepo, s.logger, func(tx pgx.Tx) error {
		user, household, err := s.lockActorHousehold(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if role, _ := household.RoleOf(user.ID); role == model.RoleOwner {
			return model.ErrOwnerCannotLeave
		}

		if err := s.householdRepo.RemoveMember(ctx, tx, household.ID, user.ID); err != nil {
			return err
		}
		if err := s.userRepo.SetHousehold(ctx, tx, user.ID, nil); err != nil {
			return err
		}

		remaining, err := s.householdRepo.CountMembers(ctx, tx, household.ID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			s.logger.Info().Str("household_id", household.ID.String()).Msg("last member left, deleting household")
			if err := s.pantryRepo.ReleaseHousehold(ctx, tx, household.ID, user.ID); err != nil {
				return err
			}
			return s.householdRepo.Delete(ctx, tx, household.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	actor.HouseholdID = nil
	s.logger.Info().Str("user_id", actor.ID.String()).Msg("user left household")
	return nil
}

// RemoveMember removes another member. Owner and admins only.
func (s *householdService) RemoveMember(ctx context.Context, actor *model.User, memberID uuid.UUID) (*model.Household, error) {
	var id uuid.UUID
	err := inTx(ctx, s.householdRepo, s.logger, func(tx pgx.Tx) error {
		_, household, err := s.lockActorHousehold(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if !household.CanManage(actor.ID) {
			return model.ErrForbidden
		}

		role, ok := household.RoleOf(memberID)
		if !ok {
			return model.ErrMemberNotFound
		}
		if role == model.RoleOwner {
			return model.ErrCannotRemoveOwner
		}

		if err := s.householdRepo.RemoveMember(ctx, tx, household.ID, memberID); err != nil {
			return err
		}
		id = household.ID
		return s.userRepo.SetHousehold(ctx, tx, memberID, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("household_id", id.String()).
		Str("member_id", memberID.String()).
		Msg("member removed")
	return s.load(ctx, id)
}

// UpdateMemberRole changes a member's role. Owner only.
func (s *householdService) UpdateMemberRole(ctx context.Context, actor *model.User, memberID uuid.UUID, role model.HouseholdRole) (*model.Household, error) {
	if !role.IsAssignable() {
		return nil, model.ErrInvalidMemberRole
	}

	var id uuid.UUID
	err := inTx(ctx, s.householdRepo, s.logger, func(tx pgx.Tx) error {
		_, household, err := s.lockActorHousehold(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if household.OwnerID != actor.ID {
			return model.ErrForbidden
		}

		current, ok := household.RoleOf(memberID)
		if !ok {
			return model.ErrMemberNotFound
		}
		if current == model.RoleOwner {
			return model.ErrCannotRemoveOwner
		}

		id = household.ID
		return s.householdRepo.UpdateMemberRole(ctx, tx, household.ID, memberID, role)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Delete removes the household and clears every member's reference. The
// shared pantry passes to the owner. Owner only.
func (s *householdService) Delete(ctx context.Context, actor *model.User) error {
	var id uuid.UUID
	err := inTx(ctx, s.householdRepo, s.logger, func(tx pgx.Tx) error {
		_, household, err := s.lockActorHousehold(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if household.OwnerID != actor.ID {
			return model.ErrForbidden
		}

		id = household.ID
		if err := s.userRepo.ClearHouseholdForAll(ctx, tx, household.ID); err != nil {
			return err
		}
		if err := s.pantryRepo.ReleaseHousehold(ctx, tx, household.ID, actor.ID); err != nil {
			return err
		}
		return s.householdRepo.Delete(ctx, tx, household.ID)
	})
	if err != nil {
		return err
	}

	actor.HouseholdID = nil
	s.logger.Info().Str("household_id", id.String()).Msg("household deleted")
	return nil
}

func (s *householdService) lockUser(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

// lockActorHousehold locks the actor and the household they belong to.
func (s *householdService) lockActorHousehold(ctx context.Context, tx pgx.Tx, actorID uuid.UUID) (*model.User, *model.Household, error) {
	user, err := s.lockUser(ctx, tx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if user.HouseholdID == nil {
		return nil, nil, model.ErrHouseholdNotFound
	}

	household, err := s.householdRepo.GetForUpdate(ctx, tx, *user.HouseholdID)
	if err != nil {
		return nil, nil, err
	}
	if household == nil || !household.IsMember(user.ID) {
		return nil, nil, model.ErrHouseholdNotFound
	}
	return user, household, nil
}

// checkUsable rejects invitations that are not pending or have expired,
// persisting the expiry of stale ones.
func (s *householdService) checkUsable(ctx context.Context, invitation *model.Invitation) error {
	now := time.Now().UTC()
	if invitation.IsStale(now) {
		s.expire(ctx, invitation)
		return model.ErrInvalidOrExpired
	}
	if !invitation.IsUsable(now) {
		return model.ErrInvalidOrExpired
	}
	return nil
}

func (s *householdService) expire(ctx context.Context, invitation *model.Invitation) {
	if err := s.invitationRepo.MarkExpired(ctx, invitation.ID); err != nil {
		s.logger.Error().Err(err).Str("invitation_id", invitation.ID.String()).Msg("failed to mark invitation expired")
		return
	}
	s.metrics.Invitation("expired")
}

func (s *householdService) load(ctx context.Context, id uuid.UUID) (*model.Household, error) {
	household, err := s.householdRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("household_id", id.String()).Msg("failed to get household")
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	if household == nil {
		return nil, model.ErrHouseholdNotFound
	}
	return household, nil
}
