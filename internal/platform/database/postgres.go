package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

func NewPostgresDB(cfg Config, log *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error
	maxRetries := 10

	for i := 1; i <= maxRetries; i++ {
		log.Info("connecting to database", zap.Int("attempt", i), zap.Int("max_attempts", maxRetries))
		db, err = sql.Open("postgres", cfg.DSN())
		if err == nil {
			err = db.Ping()
		}

		if err == nil {
			log.Info("database connected")
			db.SetMaxOpenConns(10)
			db.SetMaxIdleConns(10)
			db.SetConnMaxLifetime(5 * time.Minute)
			return db, nil
		}

		if db != nil {
			_ = db.Close()
		}
		log.Warn("database not ready yet, waiting 2 seconds", zap.Error(err))
		time.Sleep(2 * time.Second)
	}

	return nil, fmt.Errorf("connect database: %w", err)
}

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id              INTEGER PRIMARY KEY,
	number          TEXT NOT NULL,
	type            TEXT NOT NULL CHECK (type IN ('STANDARD', 'DELUXE', 'SUITE')),
	price_per_night NUMERIC(12, 2) NOT NULL CHECK (price_per_night >= 0)
);

CREATE TABLE IF NOT EXISTS reservations (
	id             BIGINT PRIMARY KEY,
	room_id        INTEGER NOT NULL,
	guest_name     TEXT NOT NULL,
	check_in       DATE NOT NULL,
	check_out      DATE NOT NULL,
	total_amount   NUMERIC(14, 2) NOT NULL CHECK (total_amount >= 0),
	created_at     TIMESTAMPTZ NOT NULL,
	payment_txn_id TEXT,
	payment_status TEXT NOT NULL,
	status         TEXT NOT NULL,
	refund_txn_id  TEXT
);

CREATE INDEX IF NOT EXISTS reservations_room_id_idx ON reservations (room_id);
`

// EnsureSchema creates the tables used by the postgres repositories.
// Reservations may reference rooms that are gone, so there is no foreign key.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
