package repository

import (
	"context"
	"database/sql"

	"github.com/ecovolt/ecovolt-backend/internal/model"
)

// DeletionRequestRepo provides persistence for deletion requests, the
// moderated path by which non-admin owners remove their stations.  Approval
// is the one multi-statement transaction in the system: the request's
// conditional status update and the station delete must commit or roll back
// together, because "approved deletion request" and "station no longer
// exists" are synonymous.
type DeletionRequestRepo struct{ DB *sql.DB }

func NewDeletionRequestRepo(db *sql.DB) *DeletionRequestRepo { return &DeletionRequestRepo{DB: db} }

const deletionRequestSelect = `SELECT
	dr.id, dr.station_id, dr.requested_by, dr.status, dr.reviewed_by, dr.reason,
	dr.created_at, dr.updated_at,
	cs.name, u.name, u.email
FROM deletion_requests dr
LEFT JOIN charging_stations cs ON dr.station_id = cs.id
LEFT JOIN users u ON dr.requested_by = u.id`

func scanDeletionRequest(row stationScanner) (model.DeletionRequest, error) {
	var (
		dr             model.DeletionRequest
		reviewedBy     sql.NullInt64
		reason         sql.NullString
		stationName    sql.NullString
		requesterName  sql.NullString
		requesterEmail sql.NullString
	)
	err := row.Scan(
		&dr.ID, &dr.StationID, &dr.RequestedBy, &dr.Status, &reviewedBy, &reason,
		&dr.CreatedAt, &dr.UpdatedAt,
		&stationName, &requesterName, &requesterEmail,
	)
	if err != nil {
		return model.DeletionRequest{}, err
	}
	if reviewedBy.Valid {
		v := uint64(reviewedBy.Int64)
		dr.ReviewedBy = &v
	}
	if reason.Valid {
		dr.Reason = &reason.String
	}
	if stationName.Valid {
		dr.StationName = &stationName.String
	}
	if requesterName.Valid {
		dr.RequesterName = &requesterName.String
	}
	if requesterEmail.Valid {
		dr.RequesterEmail = &requesterEmail.String
	}
	return dr, nil
}

// Create inserts a pending request and reads the stored row back into dr.
func (r *DeletionRequestRepo) Create(ctx context.Context, dr *model.DeletionRequest) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO deletion_requests (station_id, requested_by, reason) VALUES (?,?,?)",
		dr.StationID, dr.RequestedBy, nullableString(dr.Reason))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*dr = stored
	return nil
}

// GetByID returns a single request joined with station and requester names.
func (r *DeletionRequestRepo) GetByID(ctx context.Context, id uint64) (model.DeletionRequest, error) {
	row := r.DB.QueryRowContext(ctx, deletionRequestSelect+" WHERE dr.id=?", id)
	return scanDeletionRequest(row)
}

// FindPendingByStation returns the pending request for a station, or
// sql.ErrNoRows when none exists.  The handler uses this to enforce the
// at-most-one-pending-request-per-station rule before inserting.
func (r *DeletionRequestRepo) FindPendingByStation(ctx context.Context, stationID uint64) (model.DeletionRequest, error) {
	row := r.DB.QueryRowContext(ctx,
		deletionRequestSelect+" WHERE dr.station_id=? AND dr.status='pending' LIMIT 1", stationID)
	return scanDeletionRequest(row)
}

// ListPending returns pending requests oldest first, joined with station
// name and requester identity for the admin review queue.
func (r *DeletionRequestRepo) ListPending(ctx context.Context) ([]model.DeletionRequest, error) {
	rows, err := r.DB.QueryContext(ctx,
		deletionRequestSelect+" WHERE dr.status='pending' ORDER BY dr.created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.DeletionRequest, 0)
	for rows.Next() {
		dr, err := scanDeletionRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, dr)
	}
	return out, rows.Err()
}

// Approve resolves a pending request and deletes the target station in one
// transaction.  Steps, all inside the same sql.Tx:
//
//  1. conditional UPDATE pending→approved recording the reviewer; zero
//     affected rows aborts with sql.ErrNoRows and no side effects,
//  2. read the resolved request row (the cascade in step 3 will erase it),
//  3. DELETE the referenced station; zero affected rows means the station
//     vanished out from under the request, which also aborts the whole
//     transaction so the request is not left approved with nothing deleted.
//
// The deferred rollback is a no-op after commit and guarantees release on
// every other exit path.
func (r *DeletionRequestRepo) Approve(ctx context.Context, id, adminID uint64) (model.DeletionRequest, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.DeletionRequest{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE deletion_requests
		 SET status='approved', reviewed_by=?, updated_at=NOW()
		 WHERE id=? AND status='pending'`,
		adminID, id)
	if err != nil {
		return model.DeletionRequest{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.DeletionRequest{}, err
	}
	if n == 0 {
		return model.DeletionRequest{}, sql.ErrNoRows
	}

	row := tx.QueryRowContext(ctx, deletionRequestSelect+" WHERE dr.id=?", id)
	dr, err := scanDeletionRequest(row)
	if err != nil {
		return model.DeletionRequest{}, err
	}

	res, err = tx.ExecContext(ctx, "DELETE FROM charging_stations WHERE id=?", dr.StationID)
	if err != nil {
		return model.DeletionRequest{}, err
	}
	n, err = res.RowsAffected()
	if err != nil {
		return model.DeletionRequest{}, err
	}
	if n == 0 {
		return model.DeletionRequest{}, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return model.DeletionRequest{}, err
	}
	return dr, nil
}

// Reject resolves a pending request without touching the station, under the
// same conditional-update discipline as station moderation.  The station
// remains and may receive future deletion requests.
func (r *DeletionRequestRepo) Reject(ctx context.Context, id, adminID uint64) (model.DeletionRequest, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE deletion_requests
		 SET status='rejected', reviewed_by=?, updated_at=NOW()
		 WHERE id=? AND status='pending'`,
		adminID, id)
	if err != nil {
		return model.DeletionRequest{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.DeletionRequest{}, err
	}
	if n == 0 {
		return model.DeletionRequest{}, sql.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
