package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/pkg/response"
	"github.com/eventbuddy/backend/pkg/utils"
)

// UserStore is the user persistence the auth flow needs.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProviderLoginRequest is the body for POST /auth/provider. The provider
// subject and profile come from an already-verified external identity token.
type ProviderLoginRequest struct {
	ProviderID string `json:"provider_id" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Name       string `json:"name" binding:"required"`
	AvatarURL  string `json:"avatar_url"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	users  UserStore
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users UserStore, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{users: users, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.users.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user := &models.User{
		Email:    req.Email,
		Password: hash,
		Name:     req.Name,
		Role:     models.RoleUser,
		Settings: models.DefaultUserSettings(),
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if user.Password == "" || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	c.JSON(http.StatusOK, response.Body{Success: true, Data: TokenResponse{Token: token, User: user}})
}

// ProviderLogin handles POST /auth/provider. Creates the user on first login.
func (h *Handler) ProviderLogin(c *gin.Context) {
	var req ProviderLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.users.GetByProviderID(c.Request.Context(), req.ProviderID)
	if models.IsNotFound(err) {
		user = &models.User{
			ProviderID: req.ProviderID,
			Email:      req.Email,
			Name:       req.Name,
			AvatarURL:  req.AvatarURL,
			Role:       models.RoleUser,
			Settings:   models.DefaultUserSettings(),
		}
		if err := h.users.Create(c.Request.Context(), user); err != nil {
			h.logger.Error("create provider user failed", zap.Error(err))
			response.Internal(c, "failed to create user")
			return
		}
	} else if err != nil {
		response.Internal(c, "failed to load user")
		return
	}

	token, err := h.jwt.Generate(user)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	c.JSON(http.StatusOK, response.Body{Success: true, Data: TokenResponse{Token: token, User: user}})
}
