package repository

import (
	"context"      // context carries deadlines into every query
	"database/sql" // sql provides the pooled MySQL handle and transactions
	"errors"       // errors matches sentinel and driver errors

	"github.com/go-sql-driver/mysql" // mysql exposes *MySQLError for duplicate-key detection
)

// mysqlDuplicateEntry is the MySQL error number for a primary key collision.
const mysqlDuplicateEntry = 1062

// MySQLDocs stores every collection in the single `documents` table keyed by
// (collection, id) with the document body in a JSON column.
type MySQLDocs struct {
	db *sql.DB // db is the underlying connection pool
}

// NewMySQLDocs constructs a MySQLDocs with the provided DB handle. The
// schema must already exist (see database.MigrateMySQL).
func NewMySQLDocs(db *sql.DB) *MySQLDocs {
	return &MySQLDocs{db: db}
}

// DB exposes the pool so callers can run migrations or health checks.
func (r *MySQLDocs) DB() *sql.DB {
	return r.db
}

// Get fetches one document. It returns ErrDocumentNotFound if no row matches.
func (r *MySQLDocs) Get(ctx context.Context, collection, id string) (Document, error) {
	const q = `SELECT data FROM documents WHERE collection = ? AND id = ?`
	var raw []byte
	if err := r.db.QueryRowContext(ctx, q, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return decodeDocument(raw)
}

// Create inserts a new document. A duplicate primary key is reported as
// ErrDocumentExists so the check and the insert are one atomic statement.
func (r *MySQLDocs) Create(ctx context.Context, collection, id string, doc Document) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	const q = `INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, collection, id, raw); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrDocumentExists
		}
		return err
	}
	return nil
}

// Set replaces the whole document, inserting it when absent.
func (r *MySQLDocs) Set(ctx context.Context, collection, id string, doc Document) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	const q = `INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = CURRENT_TIMESTAMP`
	_, err = r.db.ExecContext(ctx, q, collection, id, raw)
	return err
}

// Update merges fields into the stored document. The row is locked while
// the merged body is computed so concurrent updates never lose fields.
func (r *MySQLDocs) Update(ctx context.Context, collection, id string, fields Document) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := selectForUpdate(ctx, tx, collection, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrDocumentNotFound
		}
		for k, v := range fields {
			cur[k] = v
		}
		raw, err := encodeDocument(cur)
		if err != nil {
			return err
		}
		const q = `UPDATE documents SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?`
		_, err = tx.ExecContext(ctx, q, raw, collection, id)
		return err
	})
}

// Delete removes one document. It returns ErrDocumentNotFound when no row
// is affected.
func (r *MySQLDocs) Delete(ctx context.Context, collection, id string) error {
	const q = `DELETE FROM documents WHERE collection = ? AND id = ?`
	res, err := r.db.ExecContext(ctx, q, collection, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// List returns every document of a collection ordered by id.
func (r *MySQLDocs) List(ctx context.Context, collection string) ([]Snapshot, error) {
	const q = `SELECT id, data FROM documents WHERE collection = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, collection)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Transact locks the row with SELECT ... FOR UPDATE inside a serializable
// transaction, hands the current body to fn and writes the result back.
// When two transactions race to create the same missing row InnoDB aborts
// one of them with a deadlock error; that error is returned as-is.
func (r *MySQLDocs) Transact(ctx context.Context, collection, id string, fn TransactFunc) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := selectForUpdate(ctx, tx, collection, id)
		if err != nil {
			return err
		}
		next, err := fn(cur, cur != nil)
		if err != nil {
			return err
		}
		raw, err := encodeDocument(next)
		if err != nil {
			return err
		}
		const q = `INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
		           ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = CURRENT_TIMESTAMP`
		_, err = tx.ExecContext(ctx, q, collection, id, raw)
		return err
	})
}

// Close closes the connection pool.
func (r *MySQLDocs) Close() error {
	return r.db.Close()
}

// withTx runs fn in a serializable transaction, committing on success and
// rolling back on any error.
func (r *MySQLDocs) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// selectForUpdate reads and locks a row. A missing row yields (nil, nil).
func selectForUpdate(ctx context.Context, tx *sql.Tx, collection, id string) (Document, error) {
	const q = `SELECT data FROM documents WHERE collection = ? AND id = ? FOR UPDATE`
	var raw []byte
	if err := tx.QueryRowContext(ctx, q, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return decodeDocument(raw)
}
