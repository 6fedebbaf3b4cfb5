package database

// schema.go owns the DDL for the application tables.  InitSchema is run at
// startup and is idempotent: every statement is CREATE TABLE IF NOT EXISTS,
// so repeated boots against an existing database are harmless.  The check
// constraints mirror the enumerations the application enforces in code:
// account roles, station operational status, and the shared
// pending/approved/rejected moderation states.

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT chk_users_role CHECK (role IN ('admin','user'))
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		revoked_at TIMESTAMP NULL DEFAULT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS charging_stations (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		latitude DECIMAL(10,8) NOT NULL,
		longitude DECIMAL(11,8) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'Active',
		power_output INT UNSIGNED NOT NULL,
		connector_type VARCHAR(50) NOT NULL,
		approval_status VARCHAR(20) NOT NULL DEFAULT 'approved',
		approved_by BIGINT UNSIGNED NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_charging_stations_user_id (user_id),
		KEY idx_charging_stations_status (status),
		KEY idx_charging_stations_approval_status (approval_status),
		CONSTRAINT chk_stations_status CHECK (status IN ('Active','Inactive')),
		CONSTRAINT chk_stations_approval CHECK (approval_status IN ('pending','approved','rejected')),
		CONSTRAINT fk_stations_approver FOREIGN KEY (approved_by) REFERENCES users(id),
		CONSTRAINT fk_stations_owner FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS deletion_requests (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		station_id BIGINT UNSIGNED NOT NULL,
		requested_by BIGINT UNSIGNED NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		reviewed_by BIGINT UNSIGNED NULL,
		reason TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_deletion_requests_status (status),
		KEY idx_deletion_requests_station (station_id),
		CONSTRAINT chk_deletion_requests_status CHECK (status IN ('pending','approved','rejected')),
		CONSTRAINT fk_deletion_requests_station FOREIGN KEY (station_id) REFERENCES charging_stations(id) ON DELETE CASCADE,
		CONSTRAINT fk_deletion_requests_requester FOREIGN KEY (requested_by) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_deletion_requests_reviewer FOREIGN KEY (reviewed_by) REFERENCES users(id)
	)`,
}

// InitSchema creates the application tables if they do not exist yet.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// SeedAdmin inserts an admin account with the given credentials unless the
// email is already taken.  An existing account keeps its password; only the
// role is lifted to admin so a reused email cannot demote the seed.
func SeedAdmin(ctx context.Context, db *sql.DB, name, email, password string, bcryptCost int) error {
	if email == "" || password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,'admin')
		 ON DUPLICATE KEY UPDATE role='admin'`,
		name, email, string(hash))
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
