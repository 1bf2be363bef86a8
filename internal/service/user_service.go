package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/models"
	"github.com/openreviews/review-square/internal/repository"
	"github.com/openreviews/review-square/pkg/logger"
)

// UserService covers the admin-gated /users surface and the self-scoped
// /users/me operations. Admin gating happens in the middleware; the
// service trusts its callers on that.
type UserService struct {
	userRepo *repository.UserRepository
	limits   config.Validation
}

func NewUserService(userRepo *repository.UserRepository, limits config.Validation) *UserService {
	return &UserService{
		userRepo: userRepo,
		limits:   limits,
	}
}

// UserInput is the admin create payload.
type UserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Bio       string
	Role      models.Role
}

// UserPatch carries partial updates; nil fields stay untouched.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *models.Role
}

func (s *UserService) ListUsers(_ context.Context, search string, limit, offset int) ([]models.User, int64, error) {
	return s.userRepo.ListUsers(search, limit, offset)
}

func (s *UserService) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) CreateUser(_ context.Context, input UserInput) (*models.User, error) {
	if err := validateIdentity(s.limits, input.Username, input.Email); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, invalidField("role", "must be one of: user, moderator, admin")
	}

	existing, err := s.userRepo.GetUserByUsername(input.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	existing, err = s.userRepo.GetUserByEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	user := &models.User{
		ID:        uuid.New(),
		Username:  input.Username,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Bio:       input.Bio,
		Role:      role,
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		logger.Log.Error("Failed to create user",
			zap.String("username", input.Username),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("User created by admin",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, username string, patch UserPatch) (*models.User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := s.applyPatch(user, patch, true); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateUser(user); err != nil {
		return nil, err
	}

	logger.Log.Info("User updated",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	return user, nil
}

// UpdateSelf applies a patch from /users/me. The role field of the
// patch is ignored: users cannot promote themselves.
func (s *UserService) UpdateSelf(_ context.Context, actor *models.User, patch UserPatch) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(actor.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.applyPatch(user, patch, false); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateUser(user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}

	if err := s.userRepo.DeleteUser(user.ID); err != nil {
		logger.Log.Error("Failed to delete user",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("User deleted",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	return nil
}

func (s *UserService) applyPatch(user *models.User, patch UserPatch, allowRole bool) error {
	if patch.Email != nil && *patch.Email != user.Email {
		if !emailRegex.MatchString(*patch.Email) {
			return invalidField("email", "invalid email format")
		}
		if utf8.RuneCountInString(*patch.Email) > s.limits.EmailMaxLength {
			return invalidField("email", fmt.Sprintf("must be at most %d characters", s.limits.EmailMaxLength))
		}
		existing, err := s.userRepo.GetUserByEmail(*patch.Email)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != user.ID {
			return ErrEmailTaken
		}
		user.Email = *patch.Email
	}
	if patch.FirstName != nil {
		if utf8.RuneCountInString(*patch.FirstName) > s.limits.UsernameMaxLength {
			return invalidField("first_name", "too long")
		}
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		if utf8.RuneCountInString(*patch.LastName) > s.limits.UsernameMaxLength {
			return invalidField("last_name", "too long")
		}
		user.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		if utf8.RuneCountInString(*patch.Bio) > s.limits.BioMaxLength {
			return invalidField("bio", "too long")
		}
		user.Bio = *patch.Bio
	}
	if patch.Role != nil && allowRole {
		if !patch.Role.Valid() {
			return invalidField("role", "must be one of: user, moderator, admin")
		}
		user.Role = *patch.Role
	}
	return nil
}
