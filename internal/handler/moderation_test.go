package handler

import (
	"net/http"
	"testing"

	"github.com/ecovolt/ecovolt-backend/internal/model"
	"github.com/ecovolt/ecovolt-backend/internal/queue"
)

func submitAsUser(t *testing.T, h *StationHandler, ownerID uint64, body string) {
	t.Helper()
	c, rec := newContext(t, http.MethodPost, "/api/chargers", body)
	asUser(c, ownerID)
	if err := h.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
}

func TestApproveStation_ExactlyOnce(t *testing.T) {
	h, stations, _ := newStationHandler()
	var events []queue.ModerationEvent
	h.Publish = func(ev queue.ModerationEvent) { events = append(events, ev) }

	submitAsUser(t, h, 7, validStation)

	// First admin wins.
	c, rec := newContext(t, http.MethodPost, "/api/chargers/1/approve", "")
	asAdmin(c, 1)
	setID(c, "1")
	if err := h.Approve(c); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	st := stations.stations[1]
	if st.ApprovalStatus != model.ApprovalApproved {
		t.Fatalf("expected approved, got %q", st.ApprovalStatus)
	}
	if st.ApprovedBy == nil || *st.ApprovedBy != 1 {
		t.Fatalf("expected approver 1, got %v", st.ApprovedBy)
	}

	// Second admin loses: 404, no state change.
	c, rec = newContext(t, http.MethodPost, "/api/chargers/1/approve", "")
	asAdmin(c, 2)
	setID(c, "1")
	if err := h.Approve(c); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for already-resolved station, got %d", rec.Code)
	}
	if got := *stations.stations[1].ApprovedBy; got != 1 {
		t.Fatalf("approver must stay 1, got %d", got)
	}

	// Rejecting after approval is likewise a no-op.
	c, rec = newContext(t, http.MethodPost, "/api/chargers/1/reject", "")
	asAdmin(c, 2)
	setID(c, "1")
	if err := h.Reject(c); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if stations.stations[1].ApprovalStatus != model.ApprovalApproved {
		t.Fatalf("terminal state must not change")
	}

	// Exactly one event for the single successful resolution.
	if len(events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(events))
	}
	if events[0].Kind != queue.KindStation || events[0].Action != model.ApprovalApproved || events[0].AdminID != 1 {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestRejectStation_KeepsRow(t *testing.T) {
	h, stations, _ := newStationHandler()

	submitAsUser(t, h, 7, validStation)

	c, rec := newContext(t, http.MethodPost, "/api/chargers/1/reject", "")
	asAdmin(c, 3)
	setID(c, "1")
	if err := h.Reject(c); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	st, okRow := stations.stations[1]
	if !okRow {
		t.Fatalf("rejected station must remain stored")
	}
	if st.ApprovalStatus != model.ApprovalRejected {
		t.Fatalf("expected rejected, got %q", st.ApprovalStatus)
	}

	// Rejected stations never reach the public listing.
	c, rec = newContext(t, http.MethodGet, "/api/chargers", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := dataField(t, rec)["count"].(float64); got != 0 {
		t.Fatalf("rejected station leaked into the listing")
	}
}

func TestApproveStation_Unknown(t *testing.T) {
	h, _, _ := newStationHandler()

	c, rec := newContext(t, http.MethodPost, "/api/chargers/5/approve", "")
	asAdmin(c, 1)
	setID(c, "5")
	if err := h.Approve(c); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPendingCounts(t *testing.T) {
	h, _, _ := newStationHandler()

	submitAsUser(t, h, 7, validStation)
	submitAsUser(t, h, 8, `{"name":"Second","latitude":1,"longitude":1,"power_output":22,"connector_type":"Type 2"}`)

	c, rec := newContext(t, http.MethodGet, "/api/chargers/pending-counts", "")
	asAdmin(c, 1)
	if err := h.PendingCounts(c); err != nil {
		t.Fatalf("pending counts: %v", err)
	}
	data := dataField(t, rec)
	if got := data["stations"].(float64); got != 2 {
		t.Fatalf("expected 2 pending stations, got %v", got)
	}
	if got := data["deletions"].(float64); got != 0 {
		t.Fatalf("expected 0 pending requests, got %v", got)
	}
	if got := data["total"].(float64); got != 2 {
		t.Fatalf("expected total 2, got %v", got)
	}
}

func TestApproveDeletion_RemovesStationAtomically(t *testing.T) {
	h, stations, deletions := newStationHandler()
	var events []queue.ModerationEvent
	h.Publish = func(ev queue.ModerationEvent) { events = append(events, ev) }

	submitAsUser(t, h, 7, validStation)

	// Approve the station, then the owner files a deletion request.
	c, _ := newContext(t, http.MethodPost, "/api/chargers/1/approve", "")
	asAdmin(c, 1)
	setID(c, "1")
	if err := h.Approve(c); err != nil {
		t.Fatalf("approve: %v", err)
	}
	c, rec := newContext(t, http.MethodDelete, "/api/chargers/1", "")
	asUser(c, 7)
	setID(c, "1")
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, rec = newContext(t, http.MethodPost, "/api/chargers/deletion-requests/1/approve", "")
	asAdmin(c, 2)
	setID(c, "1")
	if err := h.ApproveDeletion(c); err != nil {
		t.Fatalf("approve deletion: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(stations.stations) != 0 {
		t.Fatalf("station must be deleted with the approval")
	}
	dr := deletions.requests[1]
	if dr.Status != model.ApprovalApproved {
		t.Fatalf("expected approved request, got %q", dr.Status)
	}
	if dr.ReviewedBy == nil || *dr.ReviewedBy != 2 {
		t.Fatalf("expected reviewer 2, got %v", dr.ReviewedBy)
	}

	// Approving the same request again is a no-op 404.
	c, rec = newContext(t, http.MethodPost, "/api/chargers/deletion-requests/1/approve", "")
	asAdmin(c, 3)
	setID(c, "1")
	if err := h.ApproveDeletion(c); err != nil {
		t.Fatalf("approve deletion: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for resolved request, got %d", rec.Code)
	}

	last := events[len(events)-1]
	if last.Kind != queue.KindDeletion || last.Action != model.ApprovalApproved {
		t.Fatalf("unexpected event: %+v", last)
	}
}

func TestApproveDeletion_MissingStationAborts(t *testing.T) {
	h, stations, deletions := newStationHandler()

	submitAsUser(t, h, 7, validStation)
	c, _ := newContext(t, http.MethodDelete, "/api/chargers/1", "")
	asUser(c, 7)
	setID(c, "1")
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Station vanishes before the admin gets to the request.
	delete(stations.stations, 1)

	c, rec := newContext(t, http.MethodPost, "/api/chargers/deletion-requests/1/approve", "")
	asAdmin(c, 1)
	setID(c, "1")
	if err := h.ApproveDeletion(c); err != nil {
		t.Fatalf("approve deletion: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	// The whole transaction rolled back: the request is still pending.
	if deletions.requests[1].Status != model.ApprovalPending {
		t.Fatalf("request must stay pending after rollback, got %q", deletions.requests[1].Status)
	}
}

func TestRejectDeletion_StationSurvives(t *testing.T) {
	h, stations, deletions := newStationHandler()

	submitAsUser(t, h, 7, validStation)
	c, _ := newContext(t, http.MethodDelete, "/api/chargers/1", "")
	asUser(c, 7)
	setID(c, "1")
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}

	c, rec := newContext(t, http.MethodPost, "/api/chargers/deletion-requests/1/reject", "")
	asAdmin(c, 1)
	setID(c, "1")
	if err := h.RejectDeletion(c); err != nil {
		t.Fatalf("reject deletion: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(stations.stations) != 1 {
		t.Fatalf("station must survive a rejected deletion request")
	}
	if deletions.requests[1].Status != model.ApprovalRejected {
		t.Fatalf("expected rejected request")
	}

	// The station is free for a new request afterwards.
	c, rec = newContext(t, http.MethodDelete, "/api/chargers/1", "")
	asUser(c, 7)
	setID(c, "1")
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected a fresh request after rejection, got %d", rec.Code)
	}
}

// Full submission lifecycle: submit, invisible, approve, visible, deletion
// request, approve, gone.
func TestModerationLifecycle(t *testing.T) {
	h, stations, _ := newStationHandler()

	submitAsUser(t, h, 7, validStation)

	c, rec := newContext(t, http.MethodGet, "/api/chargers", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := dataField(t, rec)["count"].(float64); got != 0 {
		t.Fatalf("pending station visible to the public")
	}

	c, _ = newContext(t, http.MethodPost, "/api/chargers/1/approve", "")
	asAdmin(c, 1)
	setID(c, "1")
	if err := h.Approve(c); err != nil {
		t.Fatalf("approve: %v", err)
	}

	c, rec = newContext(t, http.MethodGet, "/api/chargers", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := dataField(t, rec)["count"].(float64); got != 1 {
		t.Fatalf("approved station missing from the public listing")
	}

	c, _ = newContext(t, http.MethodDelete, "/api/chargers/1", `{"reason":"decommissioned"}`)
	asUser(c, 7)
	setID(c, "1")
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}

	c, _ = newContext(t, http.MethodPost, "/api/chargers/deletion-requests/1/approve", "")
	asAdmin(c, 1)
	setID(c, "1")
	if err := h.ApproveDeletion(c); err != nil {
		t.Fatalf("approve deletion: %v", err)
	}

	if len(stations.stations) != 0 {
		t.Fatalf("lifecycle should end with no stations")
	}
	c, rec = newContext(t, http.MethodGet, "/api/chargers", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := dataField(t, rec)["count"].(float64); got != 0 {
		t.Fatalf("deleted station still listed")
	}
}
