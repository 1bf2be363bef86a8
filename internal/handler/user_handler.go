package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/middleware"
	"github.com/openreviews/review-square/internal/models"
	"github.com/openreviews/review-square/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	limits      config.Validation
}

func NewUserHandler(userService *service.UserService, limits config.Validation) *UserHandler {
	return &UserHandler{
		userService: userService,
		limits:      limits,
	}
}

type CreateUserRequest struct {
	Username  string      `json:"username" binding:"required"`
	Email     string      `json:"email" binding:"required"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role"`
}

type PatchUserRequest struct {
	Email     *string      `json:"email"`
	FirstName *string      `json:"first_name"`
	LastName  *string      `json:"last_name"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role"`
}

type userResponse struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
		Role:      user.Role,
	}
}

// List returns users filtered by username substring.
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c, h.limits)

	users, total, err := h.userService.ListUsers(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]userResponse, 0, len(users))
	for i := range users {
		results = append(results, toUserResponse(&users[i]))
	}

	c.JSON(http.StatusOK, page(total, results))
}

// Create adds a user with an assignable role.
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), service.UserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Get returns one user by username.
// GET /api/v1/users/:username
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// Update partially updates one user.
// PATCH /api/v1/users/:username
func (h *UserHandler) Update(c *gin.Context) {
	var req PatchUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), c.Param("username"), service.UserPatch{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete removes one user.
// DELETE /api/v1/users/:username
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Me returns the caller's own profile.
// GET /api/v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, toUserResponse(actor))
}

// UpdateMe updates the caller's own profile; the role field is ignored.
// PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req PatchUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actor := middleware.CurrentUser(c)
	user, err := h.userService.UpdateSelf(c.Request.Context(), actor, service.UserPatch{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}
