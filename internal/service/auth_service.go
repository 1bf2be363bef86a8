package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/models"
	"github.com/openreviews/review-square/internal/notify"
	"github.com/openreviews/review-square/internal/repository"
	"github.com/openreviews/review-square/internal/utils"
	"github.com/openreviews/review-square/pkg/logger"
)

type AuthService struct {
	userRepo  *repository.UserRepository
	sender    notify.Sender
	jwtSecret string
	jwtExpiry time.Duration
	limits    config.Validation
}

func NewAuthService(
	userRepo *repository.UserRepository,
	sender notify.Sender,
	jwtSecret string,
	jwtExpiry time.Duration,
	limits config.Validation,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		sender:    sender,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		limits:    limits,
	}
}

// Signup registers (or re-registers) a user by (username, email) pair.
// The same pair is idempotent and keeps the user id; each call reissues
// the confirmation code, invalidating older ones, and dispatches the new
// code through the mail collaborator.
func (s *AuthService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	logger.Log.Debug("Processing signup",
		zap.String("username", username),
		zap.String("email", email),
	)

	if err := validateIdentity(s.limits, username, email); err != nil {
		logger.Log.Warn("Signup validation failed",
			zap.String("username", username),
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		logger.Log.Error("Failed to look up username",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, err
	}

	switch {
	case user != nil && user.Email != email:
		logger.Log.Warn("Username held by another email",
			zap.String("username", username),
		)
		return nil, ErrUsernameTaken
	case user == nil:
		existing, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			logger.Log.Error("Failed to look up email",
				zap.String("email", email),
				zap.Error(err),
			)
			return nil, err
		}
		if existing != nil {
			logger.Log.Warn("Email held by another username",
				zap.String("email", email),
			)
			return nil, ErrEmailTaken
		}

		user = &models.User{
			ID:       uuid.New(),
			Username: username,
			Email:    email,
			Role:     models.RoleUser,
		}
		if err := s.userRepo.CreateUser(user); err != nil {
			// The unique indexes backstop the pre-checks when two
			// signups race for the same identity
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if holder, lookErr := s.userRepo.GetUserByEmail(email); lookErr == nil && holder != nil {
					return nil, ErrEmailTaken
				}
				return nil, ErrUsernameTaken
			}
			logger.Log.Error("Failed to create user",
				zap.String("username", username),
				zap.Error(err),
			)
			return nil, err
		}
	}

	code, err := utils.GenerateConfirmationCode()
	if err != nil {
		return nil, err
	}

	codeHash, err := utils.HashConfirmationCode(code)
	if err != nil {
		logger.Log.Error("Failed to hash confirmation code", zap.Error(err))
		return nil, err
	}

	user.ConfirmationCodeHash = codeHash
	if err := s.userRepo.UpdateUser(user); err != nil {
		logger.Log.Error("Failed to store confirmation code",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	msg := notify.Message{
		Username: user.Username,
		Email:    user.Email,
		Code:     code,
		IssuedAt: time.Now(),
	}
	if err := s.sender.SendConfirmationCode(ctx, msg); err != nil {
		logger.Log.Error("Failed to dispatch confirmation code",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrCodeDelivery, err)
	}

	logger.Log.Info("Confirmation code issued",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	return user, nil
}

// IssueToken exchanges a confirmation code for an access token. The code
// must match the latest one issued for the username.
func (s *AuthService) IssueToken(_ context.Context, username, code string) (string, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		logger.Log.Error("Failed to look up username",
			zap.String("username", username),
			zap.Error(err),
		)
		return "", err
	}
	if user == nil {
		logger.Log.Warn("Token request for unknown username",
			zap.String("username", username),
		)
		return "", ErrUserNotFound
	}

	if user.ConfirmationCodeHash == "" {
		return "", ErrInvalidConfirmationCode
	}

	match, err := utils.VerifyConfirmationCode(code, user.ConfirmationCodeHash)
	if err != nil {
		logger.Log.Error("Failed to verify confirmation code",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return "", err
	}
	if !match {
		logger.Log.Warn("Confirmation code mismatch",
			zap.String("user_id", user.ID.String()),
		)
		return "", ErrInvalidConfirmationCode
	}

	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		logger.Log.Error("Failed to generate access token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return "", err
	}

	if user.ConfirmedAt == nil {
		now := time.Now()
		user.ConfirmedAt = &now
		if err := s.userRepo.UpdateUser(user); err != nil {
			logger.Log.Error("Failed to mark user confirmed",
				zap.String("user_id", user.ID.String()),
				zap.Error(err),
			)
			return "", err
		}
	}

	logger.Log.Info("Access token issued",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	return token, nil
}
