// Package store persists serialized decision graphs in SQLite. Each
// saved graph becomes a revision: one row per node triple (node_id,
// node_type, node_state), ordered so the record list round-trips
// through the decision codec unchanged.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/mallornproject/mallorn/internal/decision"
)

// Revision identifies one saved graph version. IDs are ULIDs, so
// listing sorts oldest-first by construction.
type Revision struct {
	ID          string
	Description string
	CreatedAt   time.Time
}

type SqliteStore struct {
	db *sql.DB
}

// Open opens or creates the revision database at path and ensures the
// schema exists.
func Open(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS revisions (
			revision_id TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS nodes (
			revision_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			node_id TEXT NOT NULL,
			node_type TEXT NOT NULL,
			node_state TEXT NOT NULL,
			PRIMARY KEY (revision_id, position),
			FOREIGN KEY (revision_id) REFERENCES revisions(revision_id)
		);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// SaveGraph serializes the graph and stores it as a new revision,
// returning the revision id.
func (s *SqliteStore) SaveGraph(g *decision.Graph, description string) (string, error) {
	records, err := decision.Encode(g)
	if err != nil {
		return "", fmt.Errorf("encode graph: %w", err)
	}

	revisionID := ulid.Make().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO revisions (revision_id, description, created_at) VALUES (?, ?, ?)`,
		revisionID, description, createdAt,
	); err != nil {
		return "", fmt.Errorf("insert revision: %w", err)
	}

	for position, rec := range records {
		if _, err := tx.Exec(
			`INSERT INTO nodes (revision_id, position, node_id, node_type, node_state) VALUES (?, ?, ?, ?, ?)`,
			revisionID, position, string(rec.ID), rec.Kind, string(rec.Payload),
		); err != nil {
			return "", fmt.Errorf("insert node %q: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return revisionID, nil
}

// LoadGraph reads a revision's node rows in order and decodes them
// back into a graph.
func (s *SqliteStore) LoadGraph(revisionID string) (*decision.Graph, error) {
	rows, err := s.db.Query(
		`SELECT node_id, node_type, node_state FROM nodes WHERE revision_id = ? ORDER BY position`,
		revisionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var records []decision.Record
	for rows.Next() {
		var nodeID, nodeType, nodeState string
		if err := rows.Scan(&nodeID, &nodeType, &nodeState); err != nil {
			return nil, fmt.Errorf("scan node row: %w", err)
		}
		records = append(records, decision.Record{
			ID:      decision.NodeID(nodeID),
			Kind:    nodeType,
			Payload: json.RawMessage(nodeState),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate node rows: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("revision %q: %w", revisionID, ErrRevisionNotFound)
	}

	g, err := decision.Decode(records)
	if err != nil {
		return nil, fmt.Errorf("decode revision %q: %w", revisionID, err)
	}
	return g, nil
}

// Revisions lists all saved revisions, oldest first.
func (s *SqliteStore) Revisions() ([]Revision, error) {
	rows, err := s.db.Query(
		`SELECT revision_id, description, created_at FROM revisions ORDER BY revision_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var rev Revision
		var createdAt string
		if err := rows.Scan(&rev.ID, &rev.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan revision row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		rev.CreatedAt = ts
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revision rows: %w", err)
	}
	return out, nil
}

// ErrRevisionNotFound is returned by LoadGraph for unknown revision
// ids.
var ErrRevisionNotFound = errors.New("revision not found")
