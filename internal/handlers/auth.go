package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxcyking/ngo-library-sub001/internal/middleware"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	BlacklistToken(ctx context.Context, tokenString string) error
	ChangePassword(ctx context.Context, userID int32, req models.ChangePasswordRequest) error
}

type UserServiceInterface interface {
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	GetUserByID(ctx context.Context, id int32) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

type AuthHandler struct {
	authService AuthServiceInterface
	userService UserServiceInterface
}

func NewAuthHandler(authService AuthServiceInterface, userService UserServiceInterface) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// Login exchanges staff credentials for a bearer token
// @Summary Staff login
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Username and password"
// @Success 200 {object} SuccessResponse{data=models.LoginResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, "Login failed")
		return
	}

	respondSuccess(c, http.StatusOK, resp, "Login successful")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.GetToken(c)
	if token != "" {
		if err := h.authService.BlacklistToken(c.Request.Context(), token); err != nil {
			// The token still expires on its own
			slog.Warn("Failed to revoke token on logout",
				"user_id", middleware.GetUserID(c),
				"request_id", middleware.GetRequestID(c),
				"error", err,
			)
		}
	}

	respondSuccess(c, http.StatusOK, nil, "Logged out successfully")
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve profile")
		return
	}

	respondSuccess(c, http.StatusOK, user, "")
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), middleware.GetUserID(c), req); err != nil {
		writeServiceError(c, err, "Failed to change password")
		return
	}

	respondSuccess(c, http.StatusOK, nil, "Password changed successfully")
}

// CreateUser adds a staff account
// @Summary Create a staff user
// @Tags users
// @Accept json
// @Produce json
// @Param user body models.CreateUserRequest true "User data"
// @Success 201 {object} SuccessResponse{data=models.User}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/users [post]
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, "Failed to create user")
		return
	}

	respondSuccess(c, http.StatusCreated, user, "User created successfully")
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "Failed to list users")
		return
	}

	respondSuccess(c, http.StatusOK, users, "")
}
