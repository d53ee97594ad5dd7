package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chenzhe/smart-parking/internal/model"
)

// DDL mirrors what the camera-side uploader creates, so a database seeded
// here is interchangeable with one the detection pipeline bootstrapped.

func floorTableDDL(f model.Floor) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INT AUTO_INCREMENT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		total_slots INT NOT NULL,
		free_slots INT NOT NULL,
		free_positions JSON,
		parking_rows INT,
		parking_columns INT,
		reservation JSON NULL,
		source_type ENUM('image', 'video', 'camera') NOT NULL
	)`, f.TableName())
}

const historyTableDDL = `CREATE TABLE IF NOT EXISTS reservation_history (
	id INT AUTO_INCREMENT PRIMARY KEY,
	table_name VARCHAR(20) NOT NULL,
	slot_number VARCHAR(10) NOT NULL,
	phone VARCHAR(20) NOT NULL,
	action ENUM('reserve', 'cancel') NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
) CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci`

const usersTableDDL = `CREATE TABLE IF NOT EXISTS users (
	id INT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(50) NOT NULL,
	phone VARCHAR(20) NOT NULL UNIQUE,
	password VARCHAR(255) NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
) CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci`

const refreshTokensTableDDL = `CREATE TABLE IF NOT EXISTS refresh_tokens (
	id INT AUTO_INCREMENT PRIMARY KEY,
	user_id INT NOT NULL,
	token_hash CHAR(64) NOT NULL,
	expires_at DATETIME NOT NULL,
	revoked_at DATETIME NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_refresh_tokens_hash (token_hash)
) CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci`

// EnsureSchema creates every table the service needs. Statements are
// idempotent; running the seed tool against a live database is safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{historyTableDDL, usersTableDDL, refreshTokensTableDDL}
	for _, f := range model.AllFloors() {
		stmts = append(stmts, floorTableDDL(f))
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
