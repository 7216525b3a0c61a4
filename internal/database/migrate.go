package database

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Every collection shares one table; the primary key (collection, id) is
// what makes Create an atomic "insert if absent".
const mysqlDocumentsDDL = `
CREATE TABLE IF NOT EXISTS documents (
	collection VARCHAR(64)  NOT NULL,
	id         VARCHAR(191) NOT NULL,
	data       JSON         NOT NULL,
	created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (collection, id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const postgresDocumentsDDL = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	data       JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
)`

// MigrateMySQL creates the documents table when missing.
func MigrateMySQL(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, mysqlDocumentsDDL)
	return err
}

// MigratePostgres creates the documents table when missing.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, postgresDocumentsDDL)
	return err
}
