package repository

import (
	"context"
	"database/sql"

	"github.com/ecovolt/ecovolt-backend/internal/model"
)

// StationRepo provides CRUD and moderation operations for charging stations.
// Moderation transitions are expressed as single conditional UPDATE
// statements (WHERE approval_status='pending'); the affected-row count is
// the concurrency guard, so two admins racing to resolve the same station
// cannot both win and no application-level locking is needed.
type StationRepo struct{ DB *sql.DB }

func NewStationRepo(db *sql.DB) *StationRepo { return &StationRepo{DB: db} }

// StationFilter narrows ListApproved.  Zero values mean "no constraint".
type StationFilter struct {
	Status        string // exact operational status match
	MinPower      uint32 // minimum power output in kW
	ConnectorType string // exact connector type match
	UserID        uint64 // owner account id
}

const stationSelect = `SELECT
	cs.id, cs.name, cs.latitude, cs.longitude, cs.status,
	cs.power_output, cs.connector_type, cs.approval_status, cs.approved_by,
	cs.user_id, cs.created_at, cs.updated_at,
	u.name, u.email
FROM charging_stations cs
LEFT JOIN users u ON cs.user_id = u.id`

type stationScanner interface{ Scan(dest ...any) error }

func scanStation(row stationScanner) (model.Station, error) {
	var (
		st         model.Station
		approvedBy sql.NullInt64
		ownerName  sql.NullString
		ownerEmail sql.NullString
	)
	err := row.Scan(
		&st.ID, &st.Name, &st.Latitude, &st.Longitude, &st.Status,
		&st.PowerOutput, &st.ConnectorType, &st.ApprovalStatus, &approvedBy,
		&st.UserID, &st.CreatedAt, &st.UpdatedAt,
		&ownerName, &ownerEmail,
	)
	if err != nil {
		return model.Station{}, err
	}
	if approvedBy.Valid {
		v := uint64(approvedBy.Int64)
		st.ApprovedBy = &v
	}
	if ownerName.Valid {
		st.OwnerName = &ownerName.String
	}
	if ownerEmail.Valid {
		st.OwnerEmail = &ownerEmail.String
	}
	return st, nil
}

// Create inserts a station and reads the stored row back into st, populating
// the generated id and timestamps.  The caller decides approval status and
// approver from the creator's role; this method persists exactly what it is
// given.
func (r *StationRepo) Create(ctx context.Context, st *model.Station) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO charging_stations
		 (name, latitude, longitude, status, power_output, connector_type, approval_status, approved_by, user_id)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		st.Name, st.Latitude, st.Longitude, st.Status,
		st.PowerOutput, st.ConnectorType, st.ApprovalStatus, nullableID(st.ApprovedBy), st.UserID)
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
	*st = stored
	return nil
}

// GetByID returns a single station joined with its owner's identity.
func (r *StationRepo) GetByID(ctx context.Context, id uint64) (model.Station, error) {
	row := r.DB.QueryRowContext(ctx, stationSelect+" WHERE cs.id=?", id)
	return scanStation(row)
}

// ListApproved returns approved stations matching the filter, newest first.
// This backs the public listing, so the approval predicate is baked into the
// query rather than left to callers: pending and rejected stations can never
// leak through any filter combination.
func (r *StationRepo) ListApproved(ctx context.Context, f StationFilter) ([]model.Station, error) {
	query := stationSelect + " WHERE cs.approval_status='approved'"
	args := []any{}
	if f.Status != "" {
		query += " AND cs.status=?"
		args = append(args, f.Status)
	}
	if f.MinPower > 0 {
		query += " AND cs.power_output>=?"
		args = append(args, f.MinPower)
	}
	if f.ConnectorType != "" {
		query += " AND cs.connector_type=?"
		args = append(args, f.ConnectorType)
	}
	if f.UserID > 0 {
		query += " AND cs.user_id=?"
		args = append(args, f.UserID)
	}
	query += " ORDER BY cs.created_at DESC"
	return r.queryStations(ctx, query, args...)
}

// ListPending returns pending stations oldest first, a FIFO review queue for
// admins.
func (r *StationRepo) ListPending(ctx context.Context) ([]model.Station, error) {
	return r.queryStations(ctx,
		stationSelect+" WHERE cs.approval_status='pending' ORDER BY cs.created_at ASC")
}

func (r *StationRepo) queryStations(ctx context.Context, query string, args ...any) ([]model.Station, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Station, 0)
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// StationUpdate carries the editable station fields.  Approval status is
// deliberately absent: editing never moves a station through moderation.
type StationUpdate struct {
	Name          string
	Latitude      float64
	Longitude     float64
	Status        string
	PowerOutput   uint32
	ConnectorType string
}

// Update overwrites the editable fields and returns the stored row.
// Ownership is checked by the handler before calling; sql.ErrNoRows means
// the station vanished in between.
func (r *StationRepo) Update(ctx context.Context, id uint64, in StationUpdate) (model.Station, error) {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE charging_stations
		 SET name=?, latitude=?, longitude=?, status=?, power_output=?, connector_type=?, updated_at=NOW()
		 WHERE id=?`,
		in.Name, in.Latitude, in.Longitude, in.Status, in.PowerOutput, in.ConnectorType, id)
	if err != nil {
		return model.Station{}, err
	}
	// MySQL reports 0 affected rows for both "no such row" and "row
	// unchanged", so existence is settled by the read-back instead.
	return r.GetByID(ctx, id)
}

// Approve transitions a pending station to approved and records the admin
// who resolved it.  The WHERE clause matches only pending rows; a zero
// affected-row count (already resolved, or never existed) is reported as
// sql.ErrNoRows with no side effect.
func (r *StationRepo) Approve(ctx context.Context, id, adminID uint64) (model.Station, error) {
	return r.resolve(ctx, id, adminID, model.ApprovalApproved)
}

// Reject is symmetric to Approve: pending→rejected under the same
// conditional-update discipline.
func (r *StationRepo) Reject(ctx context.Context, id, adminID uint64) (model.Station, error) {
	return r.resolve(ctx, id, adminID, model.ApprovalRejected)
}

func (r *StationRepo) resolve(ctx context.Context, id, adminID uint64, status string) (model.Station, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE charging_stations
		 SET approval_status=?, approved_by=?, updated_at=NOW()
		 WHERE id=? AND approval_status='pending'`,
		status, adminID, id)
	if err != nil {
		return model.Station{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Station{}, err
	}
	if n == 0 {
		return model.Station{}, sql.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

// Delete removes a station outright (admin path).  Dependent deletion
// requests go with it via ON DELETE CASCADE.  sql.ErrNoRows when nothing was
// deleted.
func (r *StationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM charging_stations WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullableID(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}
