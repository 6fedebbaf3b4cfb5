// Package queue defines message payloads exchanged over the message broker.
package queue

// Moderation event kinds carried in ModerationEvent.Kind.
const (
    KindStation  = "station"
    KindDeletion = "deletion"
)

// ModerationEvent is published whenever an admin resolves a pending record:
// a station approval/rejection, or a deletion-request approval/rejection.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.  For deletion
// approvals the station fields describe the station that was removed.
type ModerationEvent struct {
    Kind        string `json:"kind"`                 // station | deletion
    Action      string `json:"action"`               // approved | rejected
    StationID   uint64 `json:"station_id"`
    StationName string `json:"station_name,omitempty"`
    RequestID   uint64 `json:"request_id,omitempty"` // set for deletion events
    OwnerID     uint64 `json:"owner_id,omitempty"`   // set for station events
    RequestedBy uint64 `json:"requested_by,omitempty"`
    AdminID     uint64 `json:"admin_id"`
    ResolvedAt  string `json:"resolved_at"`
}
