package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/ecovolt/ecovolt-backend/internal/geocode"
)

type stubGeocoder struct {
	locations []geocode.Location
	err       error
}

func (s *stubGeocoder) Search(_ context.Context, _ string, limit int) ([]geocode.Location, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.locations) > limit {
		return s.locations[:limit], nil
	}
	return s.locations, nil
}

func (s *stubGeocoder) Coordinates(_ context.Context, _ string) (*geocode.Location, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.locations) == 0 {
		return nil, nil
	}
	return &s.locations[0], nil
}

func (s *stubGeocoder) Reverse(_ context.Context, _, _ float64) (*geocode.Location, error) {
	return s.Coordinates(nil, "")
}

var berlin = geocode.Location{
	Name:      "Berlin",
	Country:   "Deutschland",
	Latitude:  52.517,
	Longitude: 13.389,
}

func TestGeoSearch(t *testing.T) {
	h := NewGeoHandler(&stubGeocoder{locations: []geocode.Location{berlin}})

	c, rec := newContext(t, http.MethodGet, "/api/geocoding/search?q=Berlin", "")
	if err := h.Search(c); err != nil {
		t.Fatalf("search: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := dataField(t, rec)["count"].(float64); got != 1 {
		t.Fatalf("expected 1 location, got %v", got)
	}
}

func TestGeoSearch_Validation(t *testing.T) {
	h := NewGeoHandler(&stubGeocoder{locations: []geocode.Location{berlin}})

	for name, target := range map[string]string{
		"missing q":     "/api/geocoding/search",
		"short q":       "/api/geocoding/search?q=B",
		"limit zero":    "/api/geocoding/search?q=Berlin&limit=0",
		"limit too big": "/api/geocoding/search?q=Berlin&limit=11",
		"limit garbage": "/api/geocoding/search?q=Berlin&limit=many",
	} {
		c, rec := newContext(t, http.MethodGet, target, "")
		if err := h.Search(c); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestGeoCoordinates_NotFound(t *testing.T) {
	h := NewGeoHandler(&stubGeocoder{})

	c, rec := newContext(t, http.MethodGet, "/api/geocoding/coordinates?location=Atlantis", "")
	if err := h.Coordinates(c); err != nil {
		t.Fatalf("coordinates: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGeoReverse_Validation(t *testing.T) {
	h := NewGeoHandler(&stubGeocoder{locations: []geocode.Location{berlin}})

	for name, target := range map[string]string{
		"missing params": "/api/geocoding/reverse",
		"garbage":        "/api/geocoding/reverse?lat=abc&lng=13",
		"out of range":   "/api/geocoding/reverse?lat=91&lng=13",
	} {
		c, rec := newContext(t, http.MethodGet, target, "")
		if err := h.Reverse(c); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}

	c, rec := newContext(t, http.MethodGet, "/api/geocoding/reverse?lat=52.517&lng=13.389", "")
	if err := h.Reverse(c); err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGeoValidate(t *testing.T) {
	h := NewGeoHandler(&stubGeocoder{})

	c, rec := newContext(t, http.MethodGet, "/api/geocoding/validate?lat=90&lng=-180", "")
	if err := h.Validate(c); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := dataField(t, rec)["valid"].(bool); !got {
		t.Fatalf("boundary coordinates must validate")
	}

	c, rec = newContext(t, http.MethodGet, "/api/geocoding/validate?lat=90.5&lng=0", "")
	if err := h.Validate(c); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := dataField(t, rec)["valid"].(bool); got {
		t.Fatalf("out-of-range coordinates must not validate")
	}

	c, rec = newContext(t, http.MethodGet, "/api/geocoding/validate?lat=x&lng=0", "")
	if err := h.Validate(c); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric input, got %d", rec.Code)
	}
}

func TestGeoErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&geocode.StatusError{Code: 500}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{geocode.ErrUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		h := NewGeoHandler(&stubGeocoder{err: tc.err})
		c, rec := newContext(t, http.MethodGet, "/api/geocoding/search?q=Berlin", "")
		if err := h.Search(c); err != nil {
			t.Fatalf("search: %v", err)
		}
		if rec.Code != tc.code {
			t.Fatalf("err %v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
	}
}
