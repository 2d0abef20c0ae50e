package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	// ErrNotFound is returned when no document matches the key.
	ErrNotFound = errors.New("document not found")
	// ErrVersionMismatch is returned by UpdateDocument when the stored version
	// differs from the expected one.
	ErrVersionMismatch = errors.New("document version mismatch")
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Storage keeps every entity as a JSON document in one table, keyed by
// collection and id and scoped by company and optional parent (a ship).
type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Open connects to the database behind driver and dsn.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer; in-memory databases also live and die with their connection
		conn.SetMaxOpenConns(1)
	}
	return conn, nil
}

// DB exposes the underlying handle for migrations.
func (s *Storage) DB() *sqlx.DB { return s.db }

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Document is one stored entity. Payload is the JSON encoding of the entity;
// the other columns are authoritative copies of its key and metadata.
type Document struct {
	Collection string `db:"collection"`
	ID         string `db:"id"`
	CompanyID  string `db:"company_id"`
	ParentID   string `db:"parent_id"`
	Payload    []byte `db:"payload"`
	Version    int64  `db:"version"`
	CreatedMS  int64  `db:"created_ms"`
	UpdatedMS  int64  `db:"updated_ms"`
}

// Query selects documents of one collection for one company. A non-empty
// ParentID restricts the result to that parent's children.
type Query struct {
	Collection string
	CompanyID  string
	ParentID   string
}

const documentColumns = `collection, id, company_id, parent_id, payload, version, created_ms, updated_ms`

func (s *Storage) InsertDocument(ctx context.Context, d *Document) error {
	query := s.db.Rebind(`
        INSERT INTO documents (` + documentColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		d.Collection, d.ID, d.CompanyID, d.ParentID, string(d.Payload), d.Version, d.CreatedMS, d.UpdatedMS)
	return err
}

func (s *Storage) GetDocument(ctx context.Context, collection, id string) (*Document, error) {
	d := &Document{}
	query := s.db.Rebind(`SELECT ` + documentColumns + ` FROM documents WHERE collection = ? AND id = ?`)
	err := s.db.GetContext(ctx, d, query, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Storage) ListDocuments(ctx context.Context, q Query) ([]Document, error) {
	var (
		where = []string{"collection = ?", "company_id = ?"}
		args  = []interface{}{q.Collection, q.CompanyID}
	)
	if q.ParentID != "" {
		where = append(where, "parent_id = ?")
		args = append(args, q.ParentID)
	}
	query := s.db.Rebind(`SELECT ` + documentColumns + ` FROM documents WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_ms DESC, id DESC`)

	docs := []Document{}
	if err := s.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, err
	}
	return docs, nil
}

// UpdateDocument replaces payload, version and updated_ms of d provided the
// stored version still equals expectedVersion.
func (s *Storage) UpdateDocument(ctx context.Context, d *Document, expectedVersion int64) error {
	query := s.db.Rebind(`
        UPDATE documents
        SET payload = ?, version = ?, updated_ms = ?
        WHERE collection = ? AND id = ? AND version = ?`)
	res, err := s.db.ExecContext(ctx, query,
		string(d.Payload), d.Version, d.UpdatedMS, d.Collection, d.ID, expectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := s.GetDocument(ctx, d.Collection, d.ID); err != nil {
		return err
	}
	return ErrVersionMismatch
}

func (s *Storage) DeleteDocument(ctx context.Context, collection, id string) error {
	query := s.db.Rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`)
	res, err := s.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// NextSequence atomically increments the named counter of a company and
// returns the new value, starting at 1.
func (s *Storage) NextSequence(ctx context.Context, companyID, name string) (int64, error) {
	increment := "sequences.value + 1"
	if s.db.DriverName() == DriverSQLite {
		increment = "value + 1"
	}
	query := s.db.Rebind(`
        INSERT INTO sequences (company_id, name, value)
        VALUES (?, ?, 1)
        ON CONFLICT (company_id, name) DO UPDATE SET value = ` + increment + `
        RETURNING value`)
	var value int64
	if err := s.db.QueryRowxContext(ctx, query, companyID, name).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
