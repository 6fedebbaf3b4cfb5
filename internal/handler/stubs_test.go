package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecovolt/ecovolt-backend/internal/model"
	"github.com/ecovolt/ecovolt-backend/internal/repository"
	"github.com/ecovolt/ecovolt-backend/internal/utils"
)

// In-memory stores implementing the handler interfaces with the same
// contracts as the SQL repositories: sql.ErrNoRows for missing or
// already-resolved records, and resolve-at-most-once semantics.

type stubStationStore struct {
	nextID   uint64
	stations map[uint64]model.Station
}

func newStubStationStore() *stubStationStore {
	return &stubStationStore{stations: map[uint64]model.Station{}}
}

func (s *stubStationStore) Create(_ context.Context, st *model.Station) error {
	s.nextID++
	st.ID = s.nextID
	st.CreatedAt = time.Now().UTC()
	st.UpdatedAt = st.CreatedAt
	s.stations[st.ID] = *st
	return nil
}

func (s *stubStationStore) GetByID(_ context.Context, id uint64) (model.Station, error) {
	st, ok := s.stations[id]
	if !ok {
		return model.Station{}, sql.ErrNoRows
	}
	return st, nil
}

func (s *stubStationStore) ListApproved(_ context.Context, f repository.StationFilter) ([]model.Station, error) {
	out := []model.Station{}
	for _, st := range s.stations {
		if st.ApprovalStatus != model.ApprovalApproved {
			continue
		}
		if f.Status != "" && st.Status != f.Status {
			continue
		}
		if f.MinPower > 0 && st.PowerOutput < f.MinPower {
			continue
		}
		if f.ConnectorType != "" && st.ConnectorType != f.ConnectorType {
			continue
		}
		if f.UserID > 0 && st.UserID != f.UserID {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *stubStationStore) ListPending(_ context.Context) ([]model.Station, error) {
	out := []model.Station{}
	for _, st := range s.stations {
		if st.ApprovalStatus == model.ApprovalPending {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *stubStationStore) Update(_ context.Context, id uint64, in repository.StationUpdate) (model.Station, error) {
	st, ok := s.stations[id]
	if !ok {
		return model.Station{}, sql.ErrNoRows
	}
	st.Name = in.Name
	st.Latitude = in.Latitude
	st.Longitude = in.Longitude
	st.Status = in.Status
	st.PowerOutput = in.PowerOutput
	st.ConnectorType = in.ConnectorType
	st.UpdatedAt = time.Now().UTC()
	s.stations[id] = st
	return st, nil
}

func (s *stubStationStore) Approve(ctx context.Context, id, adminID uint64) (model.Station, error) {
	return s.resolve(id, adminID, model.ApprovalApproved)
}

func (s *stubStationStore) Reject(ctx context.Context, id, adminID uint64) (model.Station, error) {
	return s.resolve(id, adminID, model.ApprovalRejected)
}

func (s *stubStationStore) resolve(id, adminID uint64, status string) (model.Station, error) {
	st, ok := s.stations[id]
	if !ok || st.ApprovalStatus != model.ApprovalPending {
		return model.Station{}, sql.ErrNoRows
	}
	st.ApprovalStatus = status
	st.ApprovedBy = &adminID
	s.stations[id] = st
	return st, nil
}

func (s *stubStationStore) Delete(_ context.Context, id uint64) error {
	if _, ok := s.stations[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.stations, id)
	return nil
}

type stubDeletionStore struct {
	nextID   uint64
	requests map[uint64]model.DeletionRequest
	stations *stubStationStore
}

func newStubDeletionStore(st *stubStationStore) *stubDeletionStore {
	return &stubDeletionStore{requests: map[uint64]model.DeletionRequest{}, stations: st}
}

func (s *stubDeletionStore) Create(_ context.Context, dr *model.DeletionRequest) error {
	s.nextID++
	dr.ID = s.nextID
	dr.Status = model.ApprovalPending
	dr.CreatedAt = time.Now().UTC()
	dr.UpdatedAt = dr.CreatedAt
	s.requests[dr.ID] = *dr
	return nil
}

func (s *stubDeletionStore) FindPendingByStation(_ context.Context, stationID uint64) (model.DeletionRequest, error) {
	for _, dr := range s.requests {
		if dr.StationID == stationID && dr.Status == model.ApprovalPending {
			return dr, nil
		}
	}
	return model.DeletionRequest{}, sql.ErrNoRows
}

func (s *stubDeletionStore) ListPending(_ context.Context) ([]model.DeletionRequest, error) {
	out := []model.DeletionRequest{}
	for _, dr := range s.requests {
		if dr.Status == model.ApprovalPending {
			out = append(out, dr)
		}
	}
	return out, nil
}

// Approve mirrors the repository transaction: when the target station is
// gone, the whole operation aborts and the request stays pending.
func (s *stubDeletionStore) Approve(_ context.Context, id, adminID uint64) (model.DeletionRequest, error) {
	dr, ok := s.requests[id]
	if !ok || dr.Status != model.ApprovalPending {
		return model.DeletionRequest{}, sql.ErrNoRows
	}
	if _, exists := s.stations.stations[dr.StationID]; !exists {
		return model.DeletionRequest{}, sql.ErrNoRows
	}
	dr.Status = model.ApprovalApproved
	dr.ReviewedBy = &adminID
	s.requests[id] = dr
	delete(s.stations.stations, dr.StationID)
	return dr, nil
}

func (s *stubDeletionStore) Reject(_ context.Context, id, adminID uint64) (model.DeletionRequest, error) {
	dr, ok := s.requests[id]
	if !ok || dr.Status != model.ApprovalPending {
		return model.DeletionRequest{}, sql.ErrNoRows
	}
	dr.Status = model.ApprovalRejected
	dr.ReviewedBy = &adminID
	s.requests[id] = dr
	return dr, nil
}

type refreshEntry struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type stubTokenStore struct {
	tokens map[string]*refreshEntry
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{tokens: map[string]*refreshEntry{}}
}

func (s *stubTokenStore) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	s.tokens[hash] = &refreshEntry{userID: userID, exp: exp}
	return nil
}

func (s *stubTokenStore) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	e, ok := s.tokens[hash]
	if !ok || e.revoked || time.Now().UTC().After(e.exp) {
		return 0, sql.ErrNoRows
	}
	return e.userID, nil
}

func (s *stubTokenStore) RevokeByHash(_ context.Context, hash string) error {
	if e, ok := s.tokens[hash]; ok {
		e.revoked = true
	}
	return nil
}

func (s *stubTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	for _, e := range s.tokens {
		if e.userID == userID {
			e.revoked = true
		}
	}
	return nil
}

type stubUserStore struct {
	nextID uint64
	users  map[uint64]model.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: map[uint64]model.User{}}
}

func (s *stubUserStore) Create(_ context.Context, name, email, password, role string, cost int) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	if role != model.RoleAdmin {
		role = model.RoleUser
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	s.nextID++
	u := model.User{
		ID:           s.nextID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *stubUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *stubUserStore) UpdatePassword(_ context.Context, id uint64, current, next string, cost int) error {
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return repository.ErrInvalidPassword
	}
	hash, err := utils.HashPassword(next, cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

// ----- request helpers -----

func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func asUser(c echo.Context, id uint64) {
	// Claims arrive as float64 after JWT decoding.
	c.Set("user_id", float64(id))
	c.Set("role", model.RoleUser)
}

func asAdmin(c echo.Context, id uint64) {
	c.Set("user_id", float64(id))
	c.Set("role", model.RoleAdmin)
}

func setID(c echo.Context, id string) {
	c.SetParamNames("id")
	c.SetParamValues(id)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := decodeBody(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %s", rec.Body.String())
	}
	return data
}
