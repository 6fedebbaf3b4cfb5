package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecovolt/ecovolt-backend/internal/model"
	"github.com/ecovolt/ecovolt-backend/internal/queue"
	"github.com/ecovolt/ecovolt-backend/internal/repository"
)

// StationHandler serves the charger CRUD endpoints and, in moderation.go,
// the admin review queue.  Publish is invoked after a successful moderation
// resolution; it may be nil.
type StationHandler struct {
	Stations  StationStore
	Deletions DeletionStore
	Publish   func(queue.ModerationEvent)
}

func NewStationHandler(s StationStore, d DeletionStore, publish func(queue.ModerationEvent)) *StationHandler {
	return &StationHandler{Stations: s, Deletions: d, Publish: publish}
}

// ----- DTOs -----

type stationReq struct {
	Name          string   `json:"name"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Status        string   `json:"status"`
	PowerOutput   *uint32  `json:"power_output"`
	ConnectorType string   `json:"connector_type"`
}

type deleteReq struct {
	Reason string `json:"reason"`
}

// validate normalizes the payload and returns an error message, or "" when
// the payload is acceptable.  Pointers distinguish absent fields from zero
// values so "latitude": 0 is valid while a missing latitude is not.
func (r *stationReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	r.ConnectorType = strings.TrimSpace(r.ConnectorType)
	if r.Name == "" {
		return "name is required"
	}
	if r.Latitude == nil || r.Longitude == nil {
		return "latitude and longitude are required"
	}
	if *r.Latitude < -90 || *r.Latitude > 90 {
		return "latitude must be between -90 and 90"
	}
	if *r.Longitude < -180 || *r.Longitude > 180 {
		return "longitude must be between -180 and 180"
	}
	if r.PowerOutput == nil || *r.PowerOutput == 0 {
		return "power_output must be a positive number"
	}
	if r.ConnectorType == "" {
		return "connector_type is required"
	}
	if r.Status == "" {
		r.Status = model.StationActive
	}
	if r.Status != model.StationActive && r.Status != model.StationInactive {
		return "status must be Active or Inactive"
	}
	return ""
}

// List returns approved stations, optionally filtered by operational status,
// minimum power output, connector type and owner.  Pending and rejected
// stations never appear here regardless of the filters.
func (h *StationHandler) List(c echo.Context) error {
	var f repository.StationFilter
	f.Status = strings.TrimSpace(c.QueryParam("status"))
	f.ConnectorType = strings.TrimSpace(c.QueryParam("connector_type"))

	if raw := c.QueryParam("power_output"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return fail(c, http.StatusBadRequest, "power_output must be a number")
		}
		f.MinPower = uint32(n)
	}
	if raw := c.QueryParam("user_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "user_id must be a number")
		}
		f.UserID = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	stations, err := h.Stations.ListApproved(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list stations failed")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"stations": stations,
		"count":    len(stations),
	})
}

// Get returns a single station by id.
func (h *StationHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid station id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	st, err := h.Stations.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return fail(c, http.StatusNotFound, "station not found")
		}
		return fail(c, http.StatusInternalServerError, "load station failed")
	}
	return ok(c, http.StatusOK, "", echo.Map{"station": st})
}

// Create submits a new station.  Admin submissions go live immediately with
// the admin recorded as approver; user submissions start pending and stay
// invisible to the public listing until an admin approves them.
func (h *StationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	var req stationReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	st := model.Station{
		Name:          req.Name,
		Latitude:      *req.Latitude,
		Longitude:     *req.Longitude,
		Status:        req.Status,
		PowerOutput:   *req.PowerOutput,
		ConnectorType: req.ConnectorType,
		UserID:        uid,
	}
	if isAdmin(c) {
		st.ApprovalStatus = model.ApprovalApproved
		st.ApprovedBy = &uid
	} else {
		st.ApprovalStatus = model.ApprovalPending
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Stations.Create(ctx, &st); err != nil {
		return fail(c, http.StatusInternalServerError, "create station failed")
	}

	message := "station created and pending approval"
	if st.ApprovalStatus == model.ApprovalApproved {
		message = "station created"
	}
	return ok(c, http.StatusCreated, message, echo.Map{"station": st})
}

// Update overwrites the editable fields of a station.  Only the owner or an
// admin may edit; moderation state is never touched here, so an approved
// station stays approved after an edit.
func (h *StationHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid station id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	st, err := h.Stations.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return fail(c, http.StatusNotFound, "station not found")
		}
		return fail(c, http.StatusInternalServerError, "load station failed")
	}
	if st.UserID != uid && !isAdmin(c) {
		return fail(c, http.StatusForbidden, "you can only edit your own stations")
	}

	var req stationReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	updated, err := h.Stations.Update(ctx, id, repository.StationUpdate{
		Name:          req.Name,
		Latitude:      *req.Latitude,
		Longitude:     *req.Longitude,
		Status:        req.Status,
		PowerOutput:   *req.PowerOutput,
		ConnectorType: req.ConnectorType,
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return fail(c, http.StatusNotFound, "station not found")
		}
		return fail(c, http.StatusInternalServerError, "update station failed")
	}
	return ok(c, http.StatusOK, "station updated", echo.Map{"station": updated})
}

// Delete removes a station.  Admins delete directly; owners file a deletion
// request that an admin must approve, with at most one pending request per
// station.  Anyone else gets 403.
func (h *StationHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid station id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	st, err := h.Stations.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return fail(c, http.StatusNotFound, "station not found")
		}
		return fail(c, http.StatusInternalServerError, "load station failed")
	}

	if isAdmin(c) {
		if err := h.Stations.Delete(ctx, id); err != nil {
			if err == sql.ErrNoRows {
				return fail(c, http.StatusNotFound, "station not found")
			}
			return fail(c, http.StatusInternalServerError, "delete station failed")
		}
		return ok(c, http.StatusOK, "station deleted", nil)
	}

	if st.UserID != uid {
		return fail(c, http.StatusForbidden, "you can only delete your own stations")
	}

	// At most one open request per station.
	if _, err := h.Deletions.FindPendingByStation(ctx, id); err == nil {
		return fail(c, http.StatusBadRequest, "a deletion request for this station is already pending")
	} else if err != sql.ErrNoRows {
		return fail(c, http.StatusInternalServerError, "check deletion requests failed")
	}

	var req deleteReq
	_ = c.Bind(&req)
	dr := model.DeletionRequest{StationID: id, RequestedBy: uid}
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		dr.Reason = &reason
	}
	if err := h.Deletions.Create(ctx, &dr); err != nil {
		return fail(c, http.StatusInternalServerError, "create deletion request failed")
	}
	return ok(c, http.StatusOK, "deletion request submitted for admin approval", echo.Map{
		"deletion_request": dr,
	})
}
