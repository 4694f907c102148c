package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ayushrkl/ratehub/internal/config"
	"github.com/ayushrkl/ratehub/internal/domain/rating"
	"github.com/ayushrkl/ratehub/internal/domain/store"
	"github.com/ayushrkl/ratehub/internal/domain/user"
	"github.com/ayushrkl/ratehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type OwnerStoreReader interface {
	GetByOwner(ctx context.Context, ownerID string) (store.Store, error)
}

type StoreRatingsReader interface {
	AverageForStore(ctx context.Context, storeID string) (float64, error)
	ListForStore(ctx context.Context, storeID string) ([]rating.StoreEntry, error)
}

type StoreOwnerHandler struct {
	accounts UserAccountStore
	stores   OwnerStoreReader
	ratings  StoreRatingsReader
}

func NewStoreOwnerHandler(accounts UserAccountStore, stores OwnerStoreReader, ratings StoreRatingsReader) *StoreOwnerHandler {
	return &StoreOwnerHandler{
		accounts: accounts,
		stores:   stores,
		ratings:  ratings,
	}
}

// ChangePassword re-checks the stored role on top of the route guard, so a
// stale token for a reassigned account still gets a 403.
func (h *StoreOwnerHandler) ChangePassword(ctx *gin.Context) {
	role := user.RoleStoreOwner

	changePassword(ctx, h.accounts, &role)
}

// Dashboard returns the owner's store, its average rating rendered with two
// decimals, and every individual rating with the rater's identity.
func (h *StoreOwnerHandler) Dashboard(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	s, err := h.stores.GetByOwner(cctx, ownerID)

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			RespondNotFound(ctx, "No stores found for this owner")
			return
		}

		RespondInternal(ctx, "Could not load dashboard")
		return
	}

	avg, err := h.ratings.AverageForStore(cctx, s.ID)

	if err != nil {
		RespondInternal(ctx, "Could not load dashboard")
		return
	}

	entries, err := h.ratings.ListForStore(cctx, s.ID)

	if err != nil {
		RespondInternal(ctx, "Could not load dashboard")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"store": gin.H{
			"id":      s.ID,
			"name":    s.Name,
			"address": s.Address,
		},
		"average_rating": fmt.Sprintf("%.2f", avg),
		"ratings":        entries,
	})
}
