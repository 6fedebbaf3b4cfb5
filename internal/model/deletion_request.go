package model

import "time"

// DeletionRequest represents a non-admin owner's petition to remove one of
// their stations, as stored in the `deletion_requests` table.  Requests share
// the moderation state machine with stations: pending until an admin approves
// or rejects them, and at most one pending request may exist per station.
// Approval deletes the target station in the same transaction.
//
// Fields:
//  ID             – primary key identifier.
//  StationID      – target station; requests are cascade-deleted with it.
//  RequestedBy    – account that filed the request; cascade-deleted with it.
//  Status         – moderation state (pending/approved/rejected).
//  ReviewedBy     – admin who resolved the request (null while pending).
//  Reason         – optional free-text justification, stored verbatim.
//  StationName    – joined charging_stations.name for admin display.
//  RequesterName  – joined users.name for admin display.
//  RequesterEmail – joined users.email for admin display.
type DeletionRequest struct {
    ID             uint64    `json:"id"`           // deletion_requests.id
    StationID      uint64    `json:"station_id"`   // deletion_requests.station_id
    RequestedBy    uint64    `json:"requested_by"` // deletion_requests.requested_by
    Status         string    `json:"status"`       // deletion_requests.status
    ReviewedBy     *uint64   `json:"reviewed_by"`  // deletion_requests.reviewed_by (nullable)
    Reason         *string   `json:"reason"`       // deletion_requests.reason (nullable)
    CreatedAt      time.Time `json:"created_at"`   // deletion_requests.created_at
    UpdatedAt      time.Time `json:"updated_at"`   // deletion_requests.updated_at
    StationName    *string   `json:"station_name,omitempty"`    // charging_stations.name (joined)
    RequesterName  *string   `json:"requester_name,omitempty"`  // users.name (joined)
    RequesterEmail *string   `json:"requester_email,omitempty"` // users.email (joined)
}
