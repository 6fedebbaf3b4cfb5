package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecovolt/ecovolt-backend/internal/geocode"
	"github.com/ecovolt/ecovolt-backend/internal/metrics"
)

// Geocoder is the lookup surface backed by the Nominatim client.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]geocode.Location, error)
	Coordinates(ctx context.Context, name string) (*geocode.Location, error)
	Reverse(ctx context.Context, lat, lng float64) (*geocode.Location, error)
}

// GeoHandler proxies geocoding lookups so the frontend never talks to the
// upstream service directly.  All routes sit behind JWT auth to keep the
// proxy from becoming a free public Nominatim mirror.
type GeoHandler struct {
	Geo Geocoder
}

func NewGeoHandler(g Geocoder) *GeoHandler { return &GeoHandler{Geo: g} }

// Search returns location suggestions for a free-form query.
// GET /api/geocoding/search?q=...&limit=5
func (h *GeoHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if len(q) < 2 {
		return fail(c, http.StatusBadRequest, "query must be at least 2 characters")
	}

	limit := 5
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 10 {
			return fail(c, http.StatusBadRequest, "limit must be between 1 and 10")
		}
		limit = n
	}

	locations, err := h.Geo.Search(c.Request().Context(), q, limit)
	if err != nil {
		metrics.IncGeocode("search", "error")
		return geoError(c, err)
	}
	metrics.IncGeocode("search", "success")
	return ok(c, http.StatusOK, "", echo.Map{
		"locations": locations,
		"count":     len(locations),
	})
}

// Coordinates resolves a location name to its best match.
// GET /api/geocoding/coordinates?location=...
func (h *GeoHandler) Coordinates(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("location"))
	if len(name) < 2 {
		return fail(c, http.StatusBadRequest, "location must be at least 2 characters")
	}

	loc, err := h.Geo.Coordinates(c.Request().Context(), name)
	if err != nil {
		metrics.IncGeocode("coordinates", "error")
		return geoError(c, err)
	}
	metrics.IncGeocode("coordinates", "success")
	if loc == nil {
		return fail(c, http.StatusNotFound, "location not found")
	}
	return ok(c, http.StatusOK, "", echo.Map{"location": loc})
}

// Reverse returns the location at the given coordinates.
// GET /api/geocoding/reverse?lat=...&lng=...
func (h *GeoHandler) Reverse(c echo.Context) error {
	lat, lng, msg := parseLatLng(c)
	if msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	loc, err := h.Geo.Reverse(c.Request().Context(), lat, lng)
	if err != nil {
		metrics.IncGeocode("reverse", "error")
		return geoError(c, err)
	}
	metrics.IncGeocode("reverse", "success")
	if loc == nil {
		return fail(c, http.StatusNotFound, "no address found at these coordinates")
	}
	return ok(c, http.StatusOK, "", echo.Map{"location": loc})
}

// Validate checks a coordinate pair without touching the upstream service.
// GET /api/geocoding/validate?lat=...&lng=...
func (h *GeoHandler) Validate(c echo.Context) error {
	latRaw := strings.TrimSpace(c.QueryParam("lat"))
	lngRaw := strings.TrimSpace(c.QueryParam("lng"))
	if latRaw == "" || lngRaw == "" {
		return fail(c, http.StatusBadRequest, "lat and lng are required")
	}
	lat, errLat := strconv.ParseFloat(latRaw, 64)
	lng, errLng := strconv.ParseFloat(lngRaw, 64)
	if errLat != nil || errLng != nil {
		return fail(c, http.StatusBadRequest, "lat and lng must be numbers")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"valid":     geocode.ValidateCoordinates(lat, lng),
		"latitude":  lat,
		"longitude": lng,
	})
}

func parseLatLng(c echo.Context) (lat, lng float64, msg string) {
	latRaw := strings.TrimSpace(c.QueryParam("lat"))
	lngRaw := strings.TrimSpace(c.QueryParam("lng"))
	if latRaw == "" || lngRaw == "" {
		return 0, 0, "lat and lng are required"
	}
	lat, errLat := strconv.ParseFloat(latRaw, 64)
	lng, errLng := strconv.ParseFloat(lngRaw, 64)
	if errLat != nil || errLng != nil {
		return 0, 0, "lat and lng must be numbers"
	}
	if !geocode.ValidateCoordinates(lat, lng) {
		return 0, 0, "coordinates out of range"
	}
	return lat, lng, ""
}

// geoError maps upstream failures to gateway status codes: the upstream's
// own error becomes 502, a timeout 504, and a network-level failure 503.
func geoError(c echo.Context, err error) error {
	var se *geocode.StatusError
	switch {
	case errors.As(err, &se):
		return fail(c, http.StatusBadGateway, "geocoding service returned an error")
	case errors.Is(err, context.DeadlineExceeded):
		return fail(c, http.StatusGatewayTimeout, "geocoding service timed out")
	case errors.Is(err, geocode.ErrUnavailable):
		return fail(c, http.StatusServiceUnavailable, "geocoding service unavailable")
	default:
		return fail(c, http.StatusInternalServerError, "geocoding lookup failed")
	}
}
