package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecovolt/ecovolt-backend/internal/metrics"
	"github.com/ecovolt/ecovolt-backend/internal/model"
	"github.com/ecovolt/ecovolt-backend/internal/queue"
)

// Moderation endpoints.  All of these sit behind the admin role middleware;
// the conditional updates in the stores guarantee each pending record is
// resolved at most once even when two admins race, and the loser of the race
// sees the same 404 as for a record that never existed.

// ListPending returns the station review queue, oldest first.
func (h *StationHandler) ListPending(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	stations, err := h.Stations.ListPending(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list pending stations failed")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"stations": stations,
		"count":    len(stations),
	})
}

// PendingCounts returns the size of both review queues for the admin
// dashboard badge.
func (h *StationHandler) PendingCounts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	stations, err := h.Stations.ListPending(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "count pending stations failed")
	}
	requests, err := h.Deletions.ListPending(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "count deletion requests failed")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"stations":  len(stations),
		"deletions": len(requests),
		"total":     len(stations) + len(requests),
	})
}

// Approve transitions a pending station to approved.  404 covers both "no
// such station" and "already resolved": the conditional update cannot tell
// them apart and neither should leak more than the other.
func (h *StationHandler) Approve(c echo.Context) error {
	return h.resolveStation(c, model.ApprovalApproved)
}

// Reject transitions a pending station to rejected.  The station row is
// kept so the owner can see the outcome.
func (h *StationHandler) Reject(c echo.Context) error {
	return h.resolveStation(c, model.ApprovalRejected)
}

func (h *StationHandler) resolveStation(c echo.Context, action string) error {
	adminID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid station id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	var st model.Station
	if action == model.ApprovalApproved {
		st, err = h.Stations.Approve(ctx, id, adminID)
	} else {
		st, err = h.Stations.Reject(ctx, id, adminID)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return fail(c, http.StatusNotFound, "station not found or already reviewed")
		}
		return fail(c, http.StatusInternalServerError, "resolve station failed")
	}

	metrics.IncModeration(queue.KindStation, action)
	h.publish(queue.ModerationEvent{
		Kind:        queue.KindStation,
		Action:      action,
		StationID:   st.ID,
		StationName: st.Name,
		OwnerID:     st.UserID,
		AdminID:     adminID,
		ResolvedAt:  time.Now().UTC().Format(time.RFC3339),
	})
	return ok(c, http.StatusOK, "station "+action, echo.Map{"station": st})
}

// ListDeletionRequests returns the pending deletion-request queue, oldest
// first, with station and requester identity joined in.
func (h *StationHandler) ListDeletionRequests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	requests, err := h.Deletions.ListPending(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list deletion requests failed")
	}
	return ok(c, http.StatusOK, "", echo.Map{
		"deletion_requests": requests,
		"count":             len(requests),
	})
}

// ApproveDeletion resolves a pending deletion request and removes the target
// station; the store does both in one transaction, so there is no state in
// which the request is approved but the station survives.
func (h *StationHandler) ApproveDeletion(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid request id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	dr, err := h.Deletions.Approve(ctx, id, adminID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fail(c, http.StatusNotFound, "deletion request not found or already reviewed")
		}
		return fail(c, http.StatusInternalServerError, "approve deletion request failed")
	}

	metrics.IncModeration(queue.KindDeletion, model.ApprovalApproved)
	ev := queue.ModerationEvent{
		Kind:        queue.KindDeletion,
		Action:      model.ApprovalApproved,
		StationID:   dr.StationID,
		RequestID:   dr.ID,
		RequestedBy: dr.RequestedBy,
		AdminID:     adminID,
		ResolvedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if dr.StationName != nil {
		ev.StationName = *dr.StationName
	}
	h.publish(ev)
	return ok(c, http.StatusOK, "deletion request approved, station deleted", echo.Map{
		"deletion_request": dr,
	})
}

// RejectDeletion resolves a pending deletion request without touching the
// station.
func (h *StationHandler) RejectDeletion(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, err := paramID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid request id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	dr, err := h.Deletions.Reject(ctx, id, adminID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fail(c, http.StatusNotFound, "deletion request not found or already reviewed")
		}
		return fail(c, http.StatusInternalServerError, "reject deletion request failed")
	}

	metrics.IncModeration(queue.KindDeletion, model.ApprovalRejected)
	ev := queue.ModerationEvent{
		Kind:        queue.KindDeletion,
		Action:      model.ApprovalRejected,
		StationID:   dr.StationID,
		RequestID:   dr.ID,
		RequestedBy: dr.RequestedBy,
		AdminID:     adminID,
		ResolvedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if dr.StationName != nil {
		ev.StationName = *dr.StationName
	}
	h.publish(ev)
	return ok(c, http.StatusOK, "deletion request rejected", echo.Map{
		"deletion_request": dr,
	})
}

func (h *StationHandler) publish(ev queue.ModerationEvent) {
	if h.Publish != nil {
		h.Publish(ev)
	}
}
