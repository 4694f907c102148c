package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ayushrkl/ratehub/internal/config"
	"github.com/ayushrkl/ratehub/internal/domain/user"
	"github.com/ayushrkl/ratehub/internal/security"
	"github.com/ayushrkl/ratehub/internal/validate"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, name, email, passwordHash, address string, role user.Role) (user.User, error)
}

// TokenIssuer is implemented by auth.Manager; tests fake it.
type TokenIssuer interface {
	IssueToken(userID, email string, role user.Role) (string, error)
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	jwt        TokenIssuer
}

func NewAuthHandler(users UserReader, userWriter UserWriter, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwt,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Address  string `json:"address" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register is the public signup path. The role is always "user" here; only
// admins mint other roles.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := validate.Registration(req.Name, req.Email, req.Password, req.Address); err != nil {
		RespondBadRequest(ctx, CodeValidationFailed, "Validation failed")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.userWriter.Create(cctx, req.Name, req.Email, hash, req.Address, user.RoleUser)

	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			RespondBadRequest(ctx, CodeEmailExists, "Email already registered")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := h.jwt.IssueToken(u.ID, u.Email, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate token")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user":  u.Public(),
		"token": token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		RespondError(ctx, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password", nil)
		return
	}

	err = security.VerifyPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondError(ctx, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password", nil)
		return
	}

	token, err := h.jwt.IssueToken(foundUser.ID, foundUser.Email, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":  foundUser.Public(),
		"token": token,
	})
}
