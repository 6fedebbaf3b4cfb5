package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by load balancers: plain "ok", no
// dependencies touched.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// HealthHandler serves the deeper database health check.
type HealthHandler struct {
	DB *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler { return &HealthHandler{DB: db} }

// DBHealth pings the database and reports row counts per table, which is
// enough to tell a connectivity failure from an empty or unmigrated schema.
func (h *HealthHandler) DBHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		return fail(c, http.StatusServiceUnavailable, "database unreachable")
	}

	counts := echo.Map{}
	for _, table := range []string{"users", "charging_stations", "deletion_requests"} {
		var n int64
		if err := h.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return fail(c, http.StatusServiceUnavailable, "database query failed")
		}
		counts[table] = n
	}

	return ok(c, http.StatusOK, "", echo.Map{
		"database": "connected",
		"counts":   counts,
	})
}
