// Package geocode is a thin client for the OpenStreetMap Nominatim API.  The
// application proxies location search and reverse geocoding through it so the
// frontend never talks to the third-party service directly and the Nominatim
// usage policy (identifying User-Agent, modest request rates) is honored in
// one place.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const userAgent = "EcoVolt-ChargingStation-App/1.0 (contact@ecovolt.com)"

// maxAttempts bounds the retry loop for transient upstream failures
// (network errors, 429 and 5xx responses).
const maxAttempts = 3

// ErrUnavailable wraps network-level failures talking to Nominatim.
var ErrUnavailable = errors.New("geocoding service unavailable")

// StatusError reports a non-2xx response from the upstream service after
// retries were exhausted.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("geocoding service error: %d", e.Code)
}

// Location is the normalized shape returned to API clients for both search
// and reverse lookups.
type Location struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	State       *string `json:"state"`
	City        *string `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
	FullAddress string  `json:"fullAddress"`
	Type        string  `json:"type,omitempty"`
	Importance  float64 `json:"importance,omitempty"`
}

// nominatimPlace mirrors the fields we consume from Nominatim responses.
// Coordinates arrive as strings.
type nominatimPlace struct {
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
	Address     struct {
		Country  string `json:"country"`
		State    string `json:"state"`
		Province string `json:"province"`
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
	} `json:"address"`
}

// Client issues requests against a Nominatim base URL.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient constructs a client for the given base URL (no trailing slash
// required).  The underlying http.Client carries a generous timeout because
// the public Nominatim instance can be slow under load.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ValidateCoordinates reports whether the pair lies inside the valid
// latitude/longitude ranges, boundaries included.
func ValidateCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Search returns up to limit location suggestions for a free-form query.
// Queries shorter than two characters return an empty slice without calling
// the upstream service.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Location, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []Location{}, nil
	}
	if limit < 1 {
		limit = 5
	}
	if limit > 10 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("addressdetails", "1")

	var places []nominatimPlace
	if err := c.getJSON(ctx, "/search", params, &places); err != nil {
		return nil, err
	}

	out := make([]Location, 0, len(places))
	for _, p := range places {
		out = append(out, toLocation(p))
	}
	return out, nil
}

// Coordinates resolves a location name to its best match, or nil when the
// name is unknown.
func (c *Client) Coordinates(ctx context.Context, name string) (*Location, error) {
	results, err := c.Search(ctx, name, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// Reverse returns the location at the given coordinates, or nil when
// Nominatim has nothing there.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Location, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	var place nominatimPlace
	if err := c.getJSON(ctx, "/reverse", params, &place); err != nil {
		return nil, err
	}
	if place.DisplayName == "" {
		return nil, nil
	}
	loc := toLocation(place)
	return &loc, nil
}

// getJSON performs a GET with retry/backoff on transient failures and
// decodes the response body into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	backoff := time.Second
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = &StatusError{Code: resp.StatusCode}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			return &StatusError{Code: resp.StatusCode}
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	}
	return lastErr
}

func toLocation(p nominatimPlace) Location {
	lat, _ := strconv.ParseFloat(p.Lat, 64)
	lon, _ := strconv.ParseFloat(p.Lon, 64)

	state := firstNonEmpty(p.Address.State, p.Address.Province)
	city := firstNonEmpty(p.Address.City, p.Address.Town, p.Address.Village)

	loc := Location{
		Name:        strings.TrimSpace(strings.SplitN(p.DisplayName, ",", 2)[0]),
		Country:     p.Address.Country,
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: shortDisplayName(p.DisplayName),
		FullAddress: p.DisplayName,
		Type:        p.Type,
		Importance:  p.Importance,
	}
	if state != "" {
		loc.State = &state
	}
	if city != "" {
		loc.City = &city
	}
	return loc
}

// shortDisplayName keeps the first three comma-separated parts of a full
// Nominatim display name for a cleaner suggestion label.
func shortDisplayName(full string) string {
	parts := strings.Split(full, ",")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
