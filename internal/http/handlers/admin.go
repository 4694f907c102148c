package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ayushrkl/ratehub/internal/config"
	"github.com/ayushrkl/ratehub/internal/domain/store"
	"github.com/ayushrkl/ratehub/internal/domain/user"
	"github.com/ayushrkl/ratehub/internal/repo/postgres"
	"github.com/ayushrkl/ratehub/internal/security"
	"github.com/ayushrkl/ratehub/internal/validate"
	"github.com/gin-gonic/gin"
)

type UserLister interface {
	List(ctx context.Context, filter user.ListFilter) ([]user.ListItem, error)
}

type StoreWriter interface {
	Create(ctx context.Context, name, email, address string, ownerID *string) (store.Store, error)
}

type StoreLister interface {
	List(ctx context.Context, filter store.ListFilter) ([]store.ListItem, error)
}

type StatsReader interface {
	Counts(ctx context.Context) (postgres.Counts, error)
}

type AdminHandler struct {
	userWriter  UserWriter
	userLister  UserLister
	storeWriter StoreWriter
	storeLister StoreLister
	stats       StatsReader
}

func NewAdminHandler(userWriter UserWriter, userLister UserLister, storeWriter StoreWriter, storeLister StoreLister, stats StatsReader) *AdminHandler {
	return &AdminHandler{
		userWriter:  userWriter,
		userLister:  userLister,
		storeWriter: storeWriter,
		storeLister: storeLister,
		stats:       stats,
	}
}

type AddUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Address  string `json:"address" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type AddStoreRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   string  `json:"email" binding:"required"`
	Address string  `json:"address" binding:"required"`
	OwnerID *string `json:"owner_id"`
}

// AddUser creates an account with any valid role.
func (h *AdminHandler) AddUser(ctx *gin.Context) {
	var req AddUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role, ok := user.ParseRole(req.Role)

	if !ok {
		RespondBadRequest(ctx, CodeValidationFailed, "Validation failed")
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

	u, err := h.userWriter.Create(cctx, req.Name, req.Email, hash, req.Address, role)

	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			RespondBadRequest(ctx, CodeEmailExists, "Email already exists")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u.Public())
}

// AddStore creates a store, optionally bound to a store_owner account.
func (h *AdminHandler) AddStore(ctx *gin.Context) {
	var req AddStoreRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := validate.StoreFields(req.Name, req.Email, req.Address); err != nil {
		RespondBadRequest(ctx, CodeValidationFailed, "Validation failed")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	s, err := h.storeWriter.Create(cctx, req.Name, req.Email, req.Address, req.OwnerID)

	if err != nil {
		if errors.Is(err, store.ErrOwnerInvalid) {
			RespondBadRequest(ctx, CodeOwnerInvalid, "Owner not found or not a store_owner")
			return
		}

		RespondInternal(ctx, "Could not create store")
		return
	}

	ctx.JSON(http.StatusCreated, s)
}

func (h *AdminHandler) Dashboard(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	counts, err := h.stats.Counts(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load dashboard")
		return
	}

	ctx.JSON(http.StatusOK, counts)
}

func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	filter := user.ListFilter{
		Name:      optionalQuery(ctx, "name"),
		Email:     optionalQuery(ctx, "email"),
		Address:   optionalQuery(ctx, "address"),
		SortBy:    ctx.DefaultQuery("sortBy", "name"),
		SortOrder: ctx.DefaultQuery("sortOrder", "asc"),
	}

	if s := ctx.Query("role"); s != "" {
		role, ok := user.ParseRole(s)

		if !ok {
			RespondBadRequest(ctx, CodeValidationFailed, "Validation failed")
			return
		}

		filter.Role = &role
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.userLister.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, items)
}

func (h *AdminHandler) ListStores(ctx *gin.Context) {
	filter := store.ListFilter{
		Name:      optionalQuery(ctx, "name"),
		Email:     optionalQuery(ctx, "email"),
		Address:   optionalQuery(ctx, "address"),
		SortBy:    ctx.DefaultQuery("sortBy", "name"),
		SortOrder: ctx.DefaultQuery("sortOrder", "asc"),
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.storeLister.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list stores")
		return
	}

	ctx.JSON(http.StatusOK, items)
}

func optionalQuery(ctx *gin.Context, key string) *string {
	if s := ctx.Query(key); s != "" {
		return &s
	}

	return nil
}
