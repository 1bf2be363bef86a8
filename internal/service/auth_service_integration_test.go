package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/models"
	"github.com/openreviews/review-square/internal/repository"
	"github.com/openreviews/review-square/internal/service"
	"github.com/openreviews/review-square/internal/testutil"
	"github.com/openreviews/review-square/internal/utils"
	"github.com/openreviews/review-square/pkg/logger"
)

const testJWTSecret = "integration-test-secret"

// AuthServiceIntegrationTestSuite defines test suite
type AuthServiceIntegrationTestSuite struct {
	suite.Suite
	testDB      *testutil.TestDatabase
	sender      *testutil.RecordingSender
	authService *service.AuthService
	userRepo    *repository.UserRepository
}

// SetupSuite runs before all tests
func (s *AuthServiceIntegrationTestSuite) SetupSuite() {
	// Initialize logger (required for the services)
	logger.Init(false)

	// Start in-memory SQLite (migrations run automatically)
	s.testDB = testutil.SetupTestDatabase(s.T())
}

// TearDownSuite runs after all tests
func (s *AuthServiceIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

// SetupTest runs before each test
func (s *AuthServiceIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)

	s.sender = testutil.NewRecordingSender()
	s.userRepo = repository.NewUserRepository(s.testDB.DB)
	s.authService = service.NewAuthService(
		s.userRepo,
		s.sender,
		testJWTSecret,
		72*time.Hour,
		config.DefaultValidation(),
	)
}

// TestSignup_NewUser tests the first signup: user row created, code sent
func (s *AuthServiceIntegrationTestSuite) TestSignup_NewUser() {
	user, err := s.authService.Signup(context.Background(), "reader", "reader@example.com")
	assert.NoError(s.T(), err)
	assert.NotNil(s.T(), user)
	assert.Equal(s.T(), models.RoleUser, user.Role)
	assert.NotEmpty(s.T(), user.ConfirmationCodeHash, "Stored user should carry a code hash")

	// The plaintext code goes out through the sender, never the response
	assert.Len(s.T(), s.sender.Messages, 1)
	assert.Equal(s.T(), "reader@example.com", s.sender.Messages[0].Email)
	assert.NotEmpty(s.T(), s.sender.LastCode())
	assert.NotContains(s.T(), user.ConfirmationCodeHash, s.sender.LastCode(), "Code must be stored hashed")
}

// TestSignup_RepeatKeepsIdentity tests that re-signup reuses the row and
// reissues the code
func (s *AuthServiceIntegrationTestSuite) TestSignup_RepeatKeepsIdentity() {
	first, err := s.authService.Signup(context.Background(), "reader", "reader@example.com")
	assert.NoError(s.T(), err)
	firstCode := s.sender.LastCode()

	second, err := s.authService.Signup(context.Background(), "reader", "reader@example.com")
	assert.NoError(s.T(), err)

	assert.Equal(s.T(), first.ID, second.ID, "Repeat signup must not create a second user")
	assert.Len(s.T(), s.sender.Messages, 2, "Each signup dispatches a fresh code")
	assert.NotEqual(s.T(), firstCode, s.sender.LastCode(), "Reissued code should differ")
}

// TestSignup_UsernameTaken tests the username/email cross checks
func (s *AuthServiceIntegrationTestSuite) TestSignup_UsernameTaken() {
	_, err := s.authService.Signup(context.Background(), "reader", "reader@example.com")
	assert.NoError(s.T(), err)

	// Same username, different email
	_, err = s.authService.Signup(context.Background(), "reader", "other@example.com")
	assert.ErrorIs(s.T(), err, service.ErrUsernameTaken)

	// Same email, different username
	_, err = s.authService.Signup(context.Background(), "other", "reader@example.com")
	assert.ErrorIs(s.T(), err, service.ErrEmailTaken)
}

// TestSignup_ReservedUsername tests that "me" cannot register
func (s *AuthServiceIntegrationTestSuite) TestSignup_ReservedUsername() {
	_, err := s.authService.Signup(context.Background(), "me", "me@example.com")

	var verr *service.ValidationError
	assert.ErrorAs(s.T(), err, &verr)
	assert.Equal(s.T(), "username", verr.Field)
}

// TestSignup_InvalidInput tests field validation
func (s *AuthServiceIntegrationTestSuite) TestSignup_InvalidInput() {
	cases := []struct {
		name     string
		username string
		email    string
		field    string
	}{
		{"empty username", "", "a@example.com", "username"},
		{"bad characters", "has spaces", "a@example.com", "username"},
		{"empty email", "reader", "", "email"},
		{"not an email", "reader", "not-an-email", "email"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.authService.Signup(context.Background(), tc.username, tc.email)

			var verr *service.ValidationError
			assert.ErrorAs(s.T(), err, &verr)
			assert.Equal(s.T(), tc.field, verr.Field)
		})
	}
}

// TestIssueToken_Success tests the code-for-token exchange
func (s *AuthServiceIntegrationTestSuite) TestIssueToken_Success() {
	_, err := s.authService.Signup(context.Background(), "reader", "reader@example.com")
	assert.NoError(s.T(), err)

	token, err := s.authService.IssueToken(context.Background(), "reader", s.sender.LastCode())
	assert.NoError(s.T(), err)
	assert.NotEmpty(s.T(), token)

	claims, err := utils.ValidateToken(token, testJWTSecret)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "reader", claims.Username)
	assert.Equal(s.T(), models.RoleUser, claims.Role)
}

// TestIssueToken_CodeReusable tests that the exchange does not consume
// the code before it is rotated
func (s *AuthServiceIntegrationTestSuite) TestIssueToken_CodeReusable() {
	_, err := s.authService.Signup(context.Background(), "reader", "reader@example.com")
	assert.NoError(s.T(), err)
	code := s.sender.LastCode()

	_, err = s.authService.IssueToken(context.Background(), "reader", code)
	assert.NoError(s.T(), err)

	_, err = s.authService.IssueToken(context.Background(), "reader", code)
	assert.NoError(s.T(), err, "Code stays valid until the next signup rotates it")
}

// TestIssueToken_OldCodeInvalidated tests that re-signup rotates the code
func (s *AuthServiceIntegrationTestSuite) TestIssueToken_OldCodeInvalidated() {
	_, err := s.authService.Signup(context.Background(), "reader", "reader@example.com")
	assert.NoError(s.T(), err)
	oldCode := s.sender.LastCode()

	_, err = s.authService.Signup(context.Background(), "reader", "reader@example.com")
	assert.NoError(s.T(), err)

	_, err = s.authService.IssueToken(context.Background(), "reader", oldCode)
	assert.ErrorIs(s.T(), err, service.ErrInvalidConfirmationCode)

	token, err := s.authService.IssueToken(context.Background(), "reader", s.sender.LastCode())
	assert.NoError(s.T(), err)
	assert.NotEmpty(s.T(), token)
}

// TestIssueToken_WrongCode tests rejection of a bad code
func (s *AuthServiceIntegrationTestSuite) TestIssueToken_WrongCode() {
	_, err := s.authService.Signup(context.Background(), "reader", "reader@example.com")
	assert.NoError(s.T(), err)

	token, err := s.authService.IssueToken(context.Background(), "reader", "definitely-wrong")
	assert.ErrorIs(s.T(), err, service.ErrInvalidConfirmationCode)
	assert.Empty(s.T(), token)
}

// TestIssueToken_UnknownUser tests that a missing user is a 404 case,
// not a 400 one
func (s *AuthServiceIntegrationTestSuite) TestIssueToken_UnknownUser() {
	token, err := s.authService.IssueToken(context.Background(), "ghost", "any-code")
	assert.ErrorIs(s.T(), err, service.ErrUserNotFound)
	assert.Empty(s.T(), token)
}

// TestSignup_AfterDelete tests that a deleted user's identity pair is
// reusable: the row is gone from the unique indexes, so the same
// username/email can register again
func (s *AuthServiceIntegrationTestSuite) TestSignup_AfterDelete() {
	first, err := s.authService.Signup(context.Background(), "reader", "reader@example.com")
	assert.NoError(s.T(), err)

	err = s.userRepo.DeleteUser(first.ID)
	assert.NoError(s.T(), err)

	second, err := s.authService.Signup(context.Background(), "reader", "reader@example.com")
	assert.NoError(s.T(), err, "Identity must be reusable after deletion")
	assert.NotEqual(s.T(), first.ID, second.ID, "Re-registration creates a fresh user")

	token, err := s.authService.IssueToken(context.Background(), "reader", s.sender.LastCode())
	assert.NoError(s.T(), err)
	assert.NotEmpty(s.T(), token)
}

// TestSignup_SenderFailure tests that delivery trouble surfaces as a
// dedicated error
func (s *AuthServiceIntegrationTestSuite) TestSignup_SenderFailure() {
	s.sender.Err = assert.AnError

	_, err := s.authService.Signup(context.Background(), "reader", "reader@example.com")
	assert.ErrorIs(s.T(), err, service.ErrCodeDelivery)
}

func TestAuthServiceIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceIntegrationTestSuite))
}
