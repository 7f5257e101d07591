package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/bcnf/internal/normalize"
	"github.com/roach88/bcnf/internal/schema"
)

// Decomposition is one stored decomposition run.
type Decomposition struct {
	ID              string
	SchemaHash      string
	Schema          schema.Schema
	ProjectFromRoot bool
	Seq             int64
	EngineVersion   string
	Tree            *normalize.Node
}

// WriteDecomposition stores a run and every node of its tree in a single
// transaction. Seq is assigned as max+1 and written back into d.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency - writing the same run ID
// twice leaves the first run untouched.
func (s *Store) WriteDecomposition(ctx context.Context, d *Decomposition) error {
	if d.Tree == nil {
		return fmt.Errorf("write decomposition %s: nil tree", d.ID)
	}
	if d.SchemaHash == "" {
		d.SchemaHash = schema.Hash(d.Schema)
	}
	if d.EngineVersion == "" {
		d.EngineVersion = normalize.EngineVersion
	}

	depsJSON, err := marshalDependencies(d.Schema.Dependencies)
	if err != nil {
		return fmt.Errorf("write decomposition: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write decomposition: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM decompositions`).Scan(&seq); err != nil {
		return fmt.Errorf("write decomposition: next seq: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO decompositions
		(id, schema_hash, relation, dependencies, project_from_root, seq, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		d.ID,
		d.SchemaHash,
		d.Schema.Relation.String(),
		depsJSON,
		d.ProjectFromRoot,
		seq,
		d.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write decomposition: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("write decomposition: %w", err)
	} else if n == 0 {
		return nil
	}

	if err := writeNodes(ctx, tx, d.ID, "", d.Tree); err != nil {
		return fmt.Errorf("write decomposition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write decomposition: commit: %w", err)
	}
	d.Seq = seq
	return nil
}

// writeNodes inserts n and its descendants. Children extend the parent's
// path with "L" or "R".
func writeNodes(ctx context.Context, tx *sql.Tx, runID, path string, n *normalize.Node) error {
	if n == nil {
		return nil
	}

	attrsJSON, err := marshalAttributes(n.Relation.Attributes)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO nodes
		(decomposition_id, path, name, attributes, depth, violation, is_leaf)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		path,
		n.Relation.Name,
		attrsJSON,
		n.Depth,
		marshalViolation(n.Violation),
		n.IsLeaf(),
	)
	if err != nil {
		return fmt.Errorf("insert node %q: %w", path, err)
	}

	if err := writeNodes(ctx, tx, runID, path+"L", n.Left); err != nil {
		return err
	}
	return writeNodes(ctx, tx, runID, path+"R", n.Right)
}
