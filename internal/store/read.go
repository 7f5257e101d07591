package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/bcnf/internal/normalize"
	"github.com/roach88/bcnf/internal/schema"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("decomposition not found")

// Summary is a listing row for a stored run.
type Summary struct {
	ID              string `json:"id"`
	SchemaHash      string `json:"schema_hash"`
	Name            string `json:"name"`
	Relation        string `json:"relation"`
	ProjectFromRoot bool   `json:"project_from_root"`
	Seq             int64  `json:"seq"`
	Leaves          int    `json:"leaves"`
}

// ReadDecomposition loads a run and rebuilds its tree.
// Returns ErrNotFound (wrapped) if no run has the given ID.
func (s *Store) ReadDecomposition(ctx context.Context, id string) (*Decomposition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, schema_hash, relation, dependencies, project_from_root, seq, engine_version
		FROM decompositions
		WHERE id = ?
	`, id)

	d, err := scanDecomposition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read decomposition %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read decomposition %s: %w", id, err)
	}

	tree, err := s.readTree(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read decomposition %s: %w", id, err)
	}
	d.Tree = tree
	return d, nil
}

// FindBySchemaHash returns the most recent run for a schema hash and
// projection mode computed by the current engine version, or nil if none
// is stored.
func (s *Store) FindBySchemaHash(ctx context.Context, hash string, projectFromRoot bool) (*Decomposition, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM decompositions
		WHERE schema_hash = ? AND project_from_root = ? AND engine_version = ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, hash, projectFromRoot, normalize.EngineVersion).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by schema hash: %w", err)
	}
	return s.ReadDecomposition(ctx, id)
}

// ListDecompositions returns every stored run.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListDecompositions(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.schema_hash, r.name, d.relation, d.project_from_root, d.seq,
		       (SELECT COUNT(*) FROM nodes n WHERE n.decomposition_id = d.id AND n.is_leaf = 1)
		FROM decompositions d
		JOIN nodes r ON r.decomposition_id = d.id AND r.path = ''
		ORDER BY d.seq ASC, d.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query decompositions: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.SchemaHash, &sum.Name, &sum.Relation, &sum.ProjectFromRoot, &sum.Seq, &sum.Leaves); err != nil {
			return nil, fmt.Errorf("scan decomposition: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decompositions: %w", err)
	}
	return summaries, nil
}

// readTree loads all nodes of a run and links them by path.
// Paths sort parents before children when ordered by length.
func (s *Store) readTree(ctx context.Context, runID string) (*normalize.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, name, attributes, depth, violation
		FROM nodes
		WHERE decomposition_id = ?
		ORDER BY length(path) ASC, path COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	byPath := make(map[string]*normalize.Node)
	for rows.Next() {
		var (
			path, name, attrsJSON, violation string
			depth                            int
		)
		if err := rows.Scan(&path, &name, &attrsJSON, &depth, &violation); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}

		attrs, err := unmarshalAttributes(attrsJSON)
		if err != nil {
			return nil, err
		}
		fd, err := unmarshalViolation(violation)
		if err != nil {
			return nil, err
		}

		node := &normalize.Node{
			Relation:  schema.Relation{Name: name, Attributes: attrs},
			Depth:     depth,
			Violation: fd,
		}
		byPath[path] = node

		if path == "" {
			continue
		}
		parent, ok := byPath[path[:len(path)-1]]
		if !ok {
			return nil, fmt.Errorf("node %q has no parent", path)
		}
		switch path[len(path)-1] {
		case 'L':
			parent.Left = node
		case 'R':
			parent.Right = node
		default:
			return nil, fmt.Errorf("node %q: invalid path", path)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	root, ok := byPath[""]
	if !ok {
		return nil, errors.New("missing root node")
	}
	return root, nil
}

// scanDecomposition scans a decompositions row without its tree.
func scanDecomposition(row *sql.Row) (*Decomposition, error) {
	var (
		d        Decomposition
		relation string
		depsJSON string
	)
	if err := row.Scan(&d.ID, &d.SchemaHash, &relation, &depsJSON, &d.ProjectFromRoot, &d.Seq, &d.EngineVersion); err != nil {
		return nil, err
	}

	rel, err := schema.ParseRelation(relation)
	if err != nil {
		return nil, fmt.Errorf("parse relation: %w", err)
	}
	deps, err := unmarshalDependencies(depsJSON)
	if err != nil {
		return nil, err
	}
	d.Schema = schema.Schema{Relation: rel, Dependencies: deps}
	return &d, nil
}
