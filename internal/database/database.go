package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coupon-service/internal/config"
	"coupon-service/internal/logger"

	_ "github.com/lib/pq"
)

// DB оборачивает *sql.DB пулом соединений к PostgreSQL.
type DB struct {
	*sql.DB
}

// Connect открывает пул соединений и проверяет доступность базы.
func Connect(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"host": cfg.Host,
		"db":   cfg.DBName,
	}).Info("Successfully connected to PostgreSQL")

	return &DB{DB: sqlDB}, nil
}

// Close закрывает пул соединений
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// Health проверяет доступность базы
func (db *DB) Health() error {
	if db == nil || db.DB == nil {
		return errors.New("database is not initialized")
	}
	return db.Ping()
}

const schema = `
CREATE TABLE IF NOT EXISTS coupons (
	id              UUID PRIMARY KEY,
	code            VARCHAR(6) NOT NULL,
	description     TEXT NOT NULL,
	discount_value  NUMERIC NOT NULL,
	expiration_date TIMESTAMPTZ NOT NULL,
	published       BOOLEAN NOT NULL DEFAULT FALSE,
	redeemed        BOOLEAN NOT NULL DEFAULT FALSE,
	status          VARCHAR(16) NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	deleted_at      TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS coupons_code_key ON coupons (code);
`

// EnsureSchema создаёт таблицу купонов и уникальный индекс по коду.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
