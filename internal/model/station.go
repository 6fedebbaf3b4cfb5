package model

import "time"

// Operational status values stored in charging_stations.status.  This is the
// station's own on/off state and is unrelated to moderation.
const (
    StationActive   = "Active"
    StationInactive = "Inactive"
)

// Moderation states shared by charging_stations.approval_status and
// deletion_requests.status.  pending is the only non-terminal state; records
// move pending→approved or pending→rejected exactly once and never back.
const (
    ApprovalPending  = "pending"
    ApprovalApproved = "approved"
    ApprovalRejected = "rejected"
)

// Station represents a charging-station listing as stored in the
// `charging_stations` table, optionally joined with its owner's identity for
// display.  JSON tags match the wire format of the public API.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – station display name.
//  Latitude       – decimal degrees in [-90, 90].
//  Longitude      – decimal degrees in [-180, 180].
//  Status         – operational status, Active or Inactive.
//  PowerOutput    – output in kW, strictly positive.
//  ConnectorType  – free-form connector label (e.g. "CCS").
//  ApprovalStatus – moderation state (pending/approved/rejected).
//  ApprovedBy     – admin who resolved the station (null while pending).
//  UserID         – owning account; stations are cascade-deleted with it.
//  OwnerName      – joined users.name of the owner (listing/detail reads only).
//  OwnerEmail     – joined users.email of the owner (listing/detail reads only).
type Station struct {
    ID             uint64    `json:"id"`              // charging_stations.id
    Name           string    `json:"name"`            // charging_stations.name
    Latitude       float64   `json:"latitude"`        // charging_stations.latitude
    Longitude      float64   `json:"longitude"`       // charging_stations.longitude
    Status         string    `json:"status"`          // charging_stations.status
    PowerOutput    uint32    `json:"power_output"`    // charging_stations.power_output
    ConnectorType  string    `json:"connector_type"`  // charging_stations.connector_type
    ApprovalStatus string    `json:"approval_status"` // charging_stations.approval_status
    ApprovedBy     *uint64   `json:"approved_by"`     // charging_stations.approved_by (nullable)
    UserID         uint64    `json:"user_id"`         // charging_stations.user_id
    CreatedAt      time.Time `json:"created_at"`      // charging_stations.created_at
    UpdatedAt      time.Time `json:"updated_at"`      // charging_stations.updated_at
    OwnerName      *string   `json:"owner_name,omitempty"`  // users.name (joined)
    OwnerEmail     *string   `json:"owner_email,omitempty"` // users.email (joined)
}
