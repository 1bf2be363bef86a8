package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/handler"
	"github.com/openreviews/review-square/internal/repository"
	"github.com/openreviews/review-square/internal/service"
	"github.com/openreviews/review-square/internal/testutil"
	"github.com/openreviews/review-square/pkg/logger"
)

// AuthHandlerIntegrationTestSuite defines test suite
type AuthHandlerIntegrationTestSuite struct {
	suite.Suite
	testDB *testutil.TestDatabase
	sender *testutil.RecordingSender
	router *gin.Engine
}

// SetupSuite runs before all tests
func (s *AuthHandlerIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	// Initialize logger (required for handlers)
	logger.Init(false)

	// Start in-memory SQLite test database (migrations run automatically)
	s.testDB = testutil.SetupTestDatabase(s.T())
}

// TearDownSuite runs after all tests
func (s *AuthHandlerIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

// SetupTest runs before each test (clean database, fresh sender)
func (s *AuthHandlerIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)

	s.sender = testutil.NewRecordingSender()

	userRepo := repository.NewUserRepository(s.testDB.DB)
	authService := service.NewAuthService(userRepo, s.sender, "test-secret-key", 72*time.Hour, config.DefaultValidation())
	authHandler := handler.NewAuthHandler(authService)

	s.router = gin.New()
	s.router.POST("/api/v1/auth/signup", authHandler.Signup)
	s.router.POST("/api/v1/auth/token", authHandler.Token)
}

// postJSON sends a JSON body and returns the recorder
func (s *AuthHandlerIntegrationTestSuite) postJSON(path string, body map[string]string) *httptest.ResponseRecorder {
	bodyBytes, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// TestSignupSuccess tests the happy signup path
func (s *AuthHandlerIntegrationTestSuite) TestSignupSuccess() {
	w := s.postJSON("/api/v1/auth/signup", map[string]string{
		"username": "newuser",
		"email":    "newuser@example.com",
	})

	assert.Equal(s.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "newuser", response["username"])
	assert.Equal(s.T(), "newuser@example.com", response["email"])

	// The code travels through the mail collaborator, not the response
	assert.NotContains(s.T(), w.Body.String(), s.sender.LastCode())
	assert.Len(s.T(), s.sender.Messages, 1)
}

// TestSignupRepeatSameIdentity tests that a repeated signup reissues a code
func (s *AuthHandlerIntegrationTestSuite) TestSignupRepeatSameIdentity() {
	first := s.postJSON("/api/v1/auth/signup", map[string]string{
		"username": "newuser", "email": "newuser@example.com",
	})
	assert.Equal(s.T(), http.StatusOK, first.Code)

	second := s.postJSON("/api/v1/auth/signup", map[string]string{
		"username": "newuser", "email": "newuser@example.com",
	})
	assert.Equal(s.T(), http.StatusOK, second.Code)
	assert.Len(s.T(), s.sender.Messages, 2)
}

// TestSignupDuplicateUsername tests the duplicate username message
func (s *AuthHandlerIntegrationTestSuite) TestSignupDuplicateUsername() {
	s.postJSON("/api/v1/auth/signup", map[string]string{
		"username": "newuser", "email": "newuser@example.com",
	})

	w := s.postJSON("/api/v1/auth/signup", map[string]string{
		"username": "newuser", "email": "other@example.com",
	})

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Contains(s.T(), w.Body.String(), "username already taken")
}

// TestSignupDuplicateEmail tests the duplicate email message
func (s *AuthHandlerIntegrationTestSuite) TestSignupDuplicateEmail() {
	s.postJSON("/api/v1/auth/signup", map[string]string{
		"username": "newuser", "email": "newuser@example.com",
	})

	w := s.postJSON("/api/v1/auth/signup", map[string]string{
		"username": "other", "email": "newuser@example.com",
	})
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Contains(s.T(), w.Body.String(), "email already taken")
}

// TestSignupReservedUsername tests that "me" is rejected
func (s *AuthHandlerIntegrationTestSuite) TestSignupReservedUsername() {
	w := s.postJSON("/api/v1/auth/signup", map[string]string{
		"username": "me", "email": "me@example.com",
	})

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(s.T(), "username", response["field"])
}

// TestSignupMissingFields tests body binding
func (s *AuthHandlerIntegrationTestSuite) TestSignupMissingFields() {
	w := s.postJSON("/api/v1/auth/signup", map[string]string{
		"username": "newuser",
	})

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Contains(s.T(), w.Body.String(), "Invalid request body")
}

// TestTokenSuccess tests the full signup-then-token exchange
func (s *AuthHandlerIntegrationTestSuite) TestTokenSuccess() {
	s.postJSON("/api/v1/auth/signup", map[string]string{
		"username": "newuser", "email": "newuser@example.com",
	})

	w := s.postJSON("/api/v1/auth/token", map[string]string{
		"username":          "newuser",
		"confirmation_code": s.sender.LastCode(),
	})

	assert.Equal(s.T(), http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(s.T(), err)
	assert.NotEmpty(s.T(), response["access_token"])
}

// TestTokenWrongCode tests rejection of a bad code
func (s *AuthHandlerIntegrationTestSuite) TestTokenWrongCode() {
	s.postJSON("/api/v1/auth/signup", map[string]string{
		"username": "newuser", "email": "newuser@example.com",
	})

	w := s.postJSON("/api/v1/auth/token", map[string]string{
		"username":          "newuser",
		"confirmation_code": "totally-wrong",
	})

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

// TestTokenUnknownUser tests the 404 contract for a missing username
func (s *AuthHandlerIntegrationTestSuite) TestTokenUnknownUser() {
	w := s.postJSON("/api/v1/auth/token", map[string]string{
		"username":          "ghost",
		"confirmation_code": "whatever",
	})

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func TestAuthHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerIntegrationTestSuite))
}
