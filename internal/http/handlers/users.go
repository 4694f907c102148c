package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ayushrkl/ratehub/internal/config"
	"github.com/ayushrkl/ratehub/internal/domain/rating"
	"github.com/ayushrkl/ratehub/internal/domain/store"
	"github.com/ayushrkl/ratehub/internal/domain/user"
	"github.com/ayushrkl/ratehub/internal/http/middlewares"
	"github.com/ayushrkl/ratehub/internal/security"
	"github.com/ayushrkl/ratehub/internal/validate"
	"github.com/gin-gonic/gin"
)

type UserAccountStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type StoreBrowser interface {
	BrowseForUser(ctx context.Context, userID string, search *string) ([]store.BrowseItem, error)
}

type RatingSubmitter interface {
	Upsert(ctx context.Context, userID, storeID string, score int) (rating.Rating, bool, error)
}

type UsersHandler struct {
	accounts UserAccountStore
	stores   StoreBrowser
	ratings  RatingSubmitter
}

func NewUsersHandler(accounts UserAccountStore, stores StoreBrowser, ratings RatingSubmitter) *UsersHandler {
	return &UsersHandler{
		accounts: accounts,
		stores:   stores,
		ratings:  ratings,
	}
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// Rating carries no required tag: a zero or missing rating must reach the
// range check so the client sees the 1-5 message, not a binding error.
type SubmitRatingRequest struct {
	StoreID string `json:"store_id" binding:"required"`
	Rating  int    `json:"rating"`
}

// ChangePassword for the user role.
func (h *UsersHandler) ChangePassword(ctx *gin.Context) {
	changePassword(ctx, h.accounts, nil)
}

// changePassword is shared with the store-owner endpoint, which passes the
// role it expects the caller to hold.
func changePassword(ctx *gin.Context, accounts UserAccountStore, expectRole *user.Role) {
	var req ChangePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := accounts.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnAuthorized(ctx, "Unknown account")
			return
		}

		RespondInternal(ctx, "Could not change password")
		return
	}

	if expectRole != nil && u.Role != *expectRole {
		RespondForbidden(ctx, "Access denied")
		return
	}

	err = security.VerifyPassword(u.PasswordHash, req.OldPassword)

	if err != nil {
		RespondBadRequest(ctx, CodeInvalidCredentials, "Old password incorrect")
		return
	}

	if !validate.Password(req.NewPassword) {
		RespondBadRequest(ctx, CodeValidationFailed, "Password must be 8-16 chars, include uppercase and special char")
		return
	}

	hash, err := security.HashPassword(req.NewPassword)

	if err != nil {
		RespondInternal(ctx, "Could not change password")
		return
	}

	err = accounts.UpdatePassword(cctx, u.ID, hash)

	if err != nil {
		RespondInternal(ctx, "Could not change password")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// BrowseStores lists every store with its average rating and the caller's
// own rating, optionally narrowed by ?search= on name or address.
func (h *UsersHandler) BrowseStores(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Missing identity context")
		return
	}

	var search *string

	if s := ctx.Query("search"); s != "" {
		search = &s
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.stores.BrowseForUser(cctx, userID, search)

	if err != nil {
		RespondInternal(ctx, "Could not list stores")
		return
	}

	ctx.JSON(http.StatusOK, items)
}

// SubmitRating creates or revises the caller's rating for a store.
// 201 on first submission, 200 on revision.
func (h *UsersHandler) SubmitRating(ctx *gin.Context) {
	var req SubmitRatingRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !rating.InRange(req.Rating) {
		RespondBadRequest(ctx, CodeInvalidRating, "Rating must be 1-5")
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	_, created, err := h.ratings.Upsert(cctx, userID, req.StoreID, req.Rating)

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			RespondNotFound(ctx, "Store not found")
			return
		}

		RespondInternal(ctx, "Could not submit rating")
		return
	}

	if created {
		ctx.JSON(http.StatusCreated, gin.H{"message": "Rating submitted"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Rating updated"})
}
