package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// SQLiteRepository implements Repository with SQLite storage.
type SQLiteRepository struct {
	dbPath string
	db     *sql.DB
	schema *schema.Schema
	mu     sync.Mutex
}

// SQLiteOption configures the repository.
type SQLiteOption func(*SQLiteRepository)

// WithSQLiteSchema sets the schema stored layers are validated against.
func WithSQLiteSchema(s *schema.Schema) SQLiteOption {
	return func(r *SQLiteRepository) {
		r.schema = s
	}
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath.
func NewSQLiteRepository(dbPath string, opts ...SQLiteOption) (*SQLiteRepository, error) {
	r := &SQLiteRepository{
		dbPath: dbPath,
		schema: schema.Correction(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	r.db = db

	if err := r.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return r, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) migrate() error {
	var version int
	if err := r.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		// Table doesn't exist yet
		version = 0
	}
	if version < 1 {
		if _, err := r.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetDocument(ctx context.Context, id string) (Document, error) {
	var (
		doc      Document
		features sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, type_code, subtype_code, features, updated_at
		FROM documents WHERE id = ?
	`, id).Scan(&doc.ID, &doc.Title, &doc.TypeCode, &doc.SubtypeCode, &features, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, core.ErrNotFound("document", id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("querying document %s: %w", id, err)
	}
	if features.Valid && features.String != "" {
		var f detect.Features
		if err := json.Unmarshal([]byte(features.String), &f); err != nil {
			return Document{}, fmt.Errorf("unmarshaling features of %s: %w", id, err)
		}
		doc.Features = &f
	}
	return doc, nil
}

func (r *SQLiteRepository) PutDocument(ctx context.Context, doc Document) error {
	if err := ValidateDocumentID(doc.ID); err != nil {
		return err
	}
	var features any
	if doc.Features != nil {
		b, err := json.Marshal(doc.Features)
		if err != nil {
			return fmt.Errorf("marshaling features: %w", err)
		}
		features = string(b)
	}
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, type_code, subtype_code, features, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			type_code = excluded.type_code,
			subtype_code = excluded.subtype_code,
			features = excluded.features,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, doc.TypeCode, doc.SubtypeCode, features, now, now)
	if err != nil {
		return fmt.Errorf("upserting document %s: %w", doc.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, type_code, subtype_code, updated_at
		FROM documents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.TypeCode, &doc.SubtypeCode, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteRepository) LoadLayer(ctx context.Context, scope core.Scope) (*layer.Layer, error) {
	return r.loadLayer(ctx, r.db, scope)
}

func (r *SQLiteRepository) loadLayer(ctx context.Context, q queryer, scope core.Scope) (*layer.Layer, error) {
	var (
		raw string
		err error
	)
	if scope.Kind() == core.ScopeDocument {
		err = q.QueryRowContext(ctx,
			"SELECT layer FROM document_customizations WHERE document_id = ?",
			scope.DocumentID).Scan(&raw)
	} else {
		err = q.QueryRowContext(ctx,
			"SELECT layer FROM type_overrides WHERE type_code = ? AND subtype_code = ?",
			scope.TypeCode, scope.SubtypeCode).Scan(&raw)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying layer %s: %w", scope, err)
	}
	l, err := unmarshalLayerJSON(r.schema, LayerName(scope), raw)
	if err != nil {
		return nil, fmt.Errorf("decoding layer %s: %w", scope, err)
	}
	return l, nil
}

func (r *SQLiteRepository) UpdateLayer(ctx context.Context, scope core.Scope, fn func(*layer.Layer) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if scope.Kind() == core.ScopeDocument {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE id = ?", scope.DocumentID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound("document", scope.DocumentID)
		}
		if err != nil {
			return fmt.Errorf("checking document %s: %w", scope.DocumentID, err)
		}
	}

	l, err := r.loadLayer(ctx, tx, scope)
	if err != nil {
		return err
	}
	if l == nil {
		l = layer.New(LayerName(scope), "")
	}
	if err := fn(l); err != nil {
		return err
	}

	if l.IsEmpty() {
		if _, err := deleteLayer(ctx, tx, scope); err != nil {
			return err
		}
		return tx.Commit()
	}

	raw, err := marshalLayerJSON(l)
	if err != nil {
		return err
	}
	now := time.Now()
	if scope.Kind() == core.ScopeDocument {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO document_customizations (document_id, layer, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(document_id) DO UPDATE SET
				layer = excluded.layer,
				updated_at = excluded.updated_at
		`, scope.DocumentID, raw, now)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO type_overrides (type_code, subtype_code, layer, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(type_code, subtype_code) DO UPDATE SET
				layer = excluded.layer,
				updated_at = excluded.updated_at
		`, scope.TypeCode, scope.SubtypeCode, raw, now)
	}
	if err != nil {
		return fmt.Errorf("upserting layer %s: %w", scope, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing layer %s: %w", scope, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteLayer(ctx context.Context, scope core.Scope) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return deleteLayer(ctx, r.db, scope)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func deleteLayer(ctx context.Context, e execer, scope core.Scope) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if scope.Kind() == core.ScopeDocument {
		res, err = e.ExecContext(ctx, "DELETE FROM document_customizations WHERE document_id = ?", scope.DocumentID)
	} else {
		res, err = e.ExecContext(ctx,
			"DELETE FROM type_overrides WHERE type_code = ? AND subtype_code = ?",
			scope.TypeCode, scope.SubtypeCode)
	}
	if err != nil {
		return false, fmt.Errorf("deleting layer %s: %w", scope, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting layer %s: %w", scope, err)
	}
	return n > 0, nil
}
