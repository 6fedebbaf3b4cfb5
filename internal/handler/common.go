// Package handler defines the HTTP handlers for the charging-station API.
// Handlers depend on small store interfaces rather than concrete repositories
// so the moderation and ownership rules can be exercised in tests without a
// database.
package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecovolt/ecovolt-backend/internal/model"
	"github.com/ecovolt/ecovolt-backend/internal/repository"
)

// UserStore is the account persistence surface used by AuthHandler.
type UserStore interface {
	Create(ctx context.Context, name, email, password, role string, cost int) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, current, next string, cost int) error
}

// TokenStore persists and validates refresh-token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// StationStore is the station persistence surface used by StationHandler.
// Approve/Reject carry the conditional-update contract: sql.ErrNoRows when
// the station is missing or already resolved, with no side effect.
type StationStore interface {
	Create(ctx context.Context, st *model.Station) error
	GetByID(ctx context.Context, id uint64) (model.Station, error)
	ListApproved(ctx context.Context, f repository.StationFilter) ([]model.Station, error)
	ListPending(ctx context.Context) ([]model.Station, error)
	Update(ctx context.Context, id uint64, in repository.StationUpdate) (model.Station, error)
	Approve(ctx context.Context, id, adminID uint64) (model.Station, error)
	Reject(ctx context.Context, id, adminID uint64) (model.Station, error)
	Delete(ctx context.Context, id uint64) error
}

// DeletionStore is the deletion-request persistence surface.  Approve deletes
// the target station in the same transaction that resolves the request.
type DeletionStore interface {
	Create(ctx context.Context, dr *model.DeletionRequest) error
	FindPendingByStation(ctx context.Context, stationID uint64) (model.DeletionRequest, error)
	ListPending(ctx context.Context) ([]model.DeletionRequest, error)
	Approve(ctx context.Context, id, adminID uint64) (model.DeletionRequest, error)
	Reject(ctx context.Context, id, adminID uint64) (model.DeletionRequest, error)
}

// dbTimeout bounds every store call issued from a handler.
const dbTimeout = 5 * time.Second

// getUserID extracts the user_id claim from the echo context and converts it
// to uint64.  JWT numeric claims arrive as float64; other representations
// are tolerated for the sake of tests and middleware variations.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the authenticated account carries the admin role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleAdmin
}

// paramID parses the :id route parameter.
func paramID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// ok and fail write the response envelope used across the API:
// {"success": bool, "message": string, "data": ...}.
func ok(c echo.Context, code int, message string, data any) error {
	body := echo.Map{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(code, body)
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, echo.Map{"success": false, "message": message})
}
