package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openreviews/review-square/internal/models"
)

// Test constants
const (
	testSecret          = "test-secret-key-for-jwt-testing"
	testWrongSecret     = "wrong-secret-key-for-jwt-testing"
	testTokenDuration   = 72 * time.Hour
	testExpiredDuration = -1 * time.Hour
)

// Helper function to create test user
func createTestUser(role models.Role) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "testuser",
		Email:    "test@example.com",
		Role:     role,
	}
}

func TestGenerateToken_Success(t *testing.T) {
	// Arrange
	user := createTestUser(models.RoleUser)

	// Act
	token, err := GenerateToken(user, testSecret, testTokenDuration)

	// Assert
	require.NoError(t, err, "GenerateToken should not return error for valid input")
	assert.NotEmpty(t, token, "Token should not be empty")
	assert.Contains(t, token, ".", "JWT token should contain dots")
}

func TestGenerateToken_AllRoles(t *testing.T) {
	roles := []models.Role{models.RoleUser, models.RoleModerator, models.RoleAdmin}

	for _, role := range roles {
		t.Run(string(role), func(t *testing.T) {
			// Arrange
			user := createTestUser(role)

			// Act
			token, err := GenerateToken(user, testSecret, testTokenDuration)

			// Assert
			require.NoError(t, err, "GenerateToken should work for all roles")
			assert.NotEmpty(t, token)

			claims, err := ValidateToken(token, testSecret)
			require.NoError(t, err)
			assert.Equal(t, role, claims.Role, "Token should carry the role")
		})
	}
}

func TestValidateToken_Success(t *testing.T) {
	// Arrange
	user := createTestUser(models.RoleUser)
	token, err := GenerateToken(user, testSecret, testTokenDuration)
	require.NoError(t, err, "Setup: GenerateToken should not fail")

	// Act
	claims, err := ValidateToken(token, testSecret)

	// Assert
	require.NoError(t, err, "ValidateToken should not return error for valid token")
	assert.NotNil(t, claims, "Claims should not be nil")
	assert.Equal(t, user.ID, claims.UserID, "UserID should match")
	assert.Equal(t, user.Username, claims.Username, "Username should match")
	assert.Equal(t, user.Role, claims.Role, "Role should match")
	assert.True(t, claims.ExpiresAt.Time.After(time.Now()), "Token should not be expired")
}

func TestValidateToken_ThreeDayLifetime(t *testing.T) {
	// Arrange
	user := createTestUser(models.RoleUser)
	token, err := GenerateToken(user, testSecret, testTokenDuration)
	require.NoError(t, err, "Setup: GenerateToken should not fail")

	// Act
	claims, err := ValidateToken(token, testSecret)

	// Assert
	require.NoError(t, err)
	lifetime := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 72*time.Hour, lifetime, "Issued tokens should live for three days")
}

func TestValidateToken_ExpiredToken(t *testing.T) {
	// Arrange
	user := createTestUser(models.RoleUser)
	token, err := GenerateToken(user, testSecret, testExpiredDuration)
	require.NoError(t, err, "Setup: GenerateToken should not fail")

	// Act
	claims, err := ValidateToken(token, testSecret)

	// Assert
	assert.Error(t, err, "ValidateToken should return error for expired token")
	assert.Nil(t, claims, "Claims should be nil for expired token")
}

func TestValidateToken_InvalidToken(t *testing.T) {
	// Arrange
	invalidTokens := []string{
		"",                   // Empty
		"invalid.token.here", // Invalid format
		"not-a-jwt-token",    // Plain text
		"a.b",                // Incomplete JWT
	}

	for _, invalidToken := range invalidTokens {
		t.Run(invalidToken, func(t *testing.T) {
			// Act
			claims, err := ValidateToken(invalidToken, testSecret)

			// Assert
			assert.Error(t, err, "ValidateToken should return error for invalid token")
			assert.Nil(t, claims, "Claims should be nil for invalid token")
		})
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	// Arrange
	user := createTestUser(models.RoleUser)
	token, err := GenerateToken(user, testSecret, testTokenDuration)
	require.NoError(t, err, "Setup: GenerateToken should not fail")

	// Act
	claims, err := ValidateToken(token, testWrongSecret)

	// Assert
	assert.Error(t, err, "ValidateToken should return error for wrong secret")
	assert.Nil(t, claims, "Claims should be nil when secret is wrong")
}

func TestValidateToken_TamperedToken(t *testing.T) {
	// Arrange
	user := createTestUser(models.RoleAdmin)
	token, err := GenerateToken(user, testSecret, testTokenDuration)
	require.NoError(t, err, "Setup: GenerateToken should not fail")

	// Tamper with the token by modifying the signature
	tamperedToken := token[:len(token)-5] + "XXXXX"

	// Act
	claims, err := ValidateToken(tamperedToken, testSecret)

	// Assert
	assert.Error(t, err, "ValidateToken should return error for tampered token")
	assert.Nil(t, claims, "Claims should be nil for tampered token")
}
