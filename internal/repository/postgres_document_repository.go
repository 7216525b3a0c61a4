package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE raised when a primary key already exists.
const pgUniqueViolation = "23505"

// PostgresDocs is the PostgreSQL driver. It mirrors MySQLDocs but keeps the
// body in a JSONB column, which lets Update merge server side with `||`.
type PostgresDocs struct {
	pool *pgxpool.Pool
}

// NewPostgresDocs wraps an open pgx pool.
func NewPostgresDocs(pool *pgxpool.Pool) *PostgresDocs {
	return &PostgresDocs{pool: pool}
}

// Pool returns the underlying pgxpool.Pool.
func (r *PostgresDocs) Pool() *pgxpool.Pool {
	return r.pool
}

func (r *PostgresDocs) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return decodeDocument(raw)
}

func (r *PostgresDocs) Create(ctx context.Context, collection, id string, doc Document) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, string(raw),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDocumentExists
		}
		return err
	}
	return nil
}

func (r *PostgresDocs) Set(ctx context.Context, collection, id string, doc Document) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		collection, id, string(raw),
	)
	return err
}

// Update is a single statement: jsonb `||` replaces top-level keys present
// in the patch and keeps the rest.
func (r *PostgresDocs) Update(ctx context.Context, collection, id string, fields Document) error {
	raw, err := encodeDocument(fields)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
		 WHERE collection = $1 AND id = $2`,
		collection, id, string(raw),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *PostgresDocs) Delete(ctx context.Context, collection, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *PostgresDocs) List(ctx context.Context, collection string) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY id`,
		collection,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, Snapshot{ID: id, Data: doc})
	}
	return out, rows.Err()
}

// Transact runs under SERIALIZABLE isolation. Concurrent creators of the
// same missing row get a serialization failure (40001) instead of both
// succeeding.
func (r *PostgresDocs) Transact(ctx context.Context, collection, id string, fn TransactFunc) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		raw []byte
		cur Document
	)
	err = tx.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
		collection, id,
	).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return err
	default:
		if cur, err = decodeDocument(raw); err != nil {
			return err
		}
	}

	next, err := fn(cur, cur != nil)
	if err != nil {
		return err
	}
	body, err := encodeDocument(next)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		collection, id, string(body),
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PostgresDocs) Close() error {
	r.pool.Close()
	return nil
}
