package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AnubisArt/PVA-Model-Banky/internal/config"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/user"
	"github.com/AnubisArt/PVA-Model-Banky/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, firstName, lastName, passwordHash string, role user.Role) (user.User, error)
	ChangeRole(ctx context.Context, id int64, role user.Role) error
	Delete(ctx context.Context, id int64) error
	ListByRole(ctx context.Context, role user.Role) ([]user.Listing, error)
}

type UsersHandler struct {
	users UserStore
}

func NewUsersHandler(users UserStore) *UsersHandler {
	return &UsersHandler{users: users}
}

type CreateUserRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"required,oneof=Admin Banker User"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=Admin Banker User"`
}

// Create registers a new client. A checking account is provisioned with
// the user in the same transaction.
func (h *UsersHandler) Create(ctx *gin.Context) {
	var req CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role, err := user.ParseRole(req.Role)

	if err != nil {
		RespondBadRequest(ctx, "Unknown role", gin.H{"role": req.Role})
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, req.FirstName, req.LastName, hash, role)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *UsersHandler) ChangeRole(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req ChangeRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role, err := user.ParseRole(req.Role)

	if err != nil {
		RespondBadRequest(ctx, "Unknown role", gin.H{"role": req.Role})
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err = h.users.ChangeRole(cctx, id, role)

	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			RespondNotFound(ctx, "user_not_found", "No such user.")
			return
		}

		RespondInternal(ctx, "Could not change role")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"id": id, "role": role})
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.users.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			RespondNotFound(ctx, "user_not_found", "No such user.")
			return
		}

		if errors.Is(err, user.ErrCannotDeleteAdmin) {
			RespondConflict(ctx, "cannot_delete_admin", "Admin users cannot be deleted.")
			return
		}

		RespondInternal(ctx, "Could not delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *UsersHandler) ListByRole(ctx *gin.Context) {
	role, err := user.ParseRole(ctx.Query("role"))

	if err != nil {
		RespondBadRequest(ctx, "Unknown role", gin.H{"role": ctx.Query("role")})
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	listings, err := h.users.ListByRole(cctx, role)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"users": listings, "role": role})
}

// pathID parses the :id route param, responding with a 400 on garbage.
func pathID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid user id", gin.H{"id": ctx.Param("id")})
		return 0, false
	}

	return id, true
}
