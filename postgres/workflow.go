package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/goyalsons/hierarchy"
)

// SaveWorkflow stores a full workflow (roles + connections) in one
// transaction with replace semantics: any previously saved state for the
// workflowID is dropped first. Records without ids get auto-generated UUIDs.
// The connection set is validated before writing: every connection must
// reference a role in the batch, and the whole set must be acyclic — this is
// the bulk-import path of the DAG invariant.
func (s *PGStore) SaveWorkflow(ctx context.Context, workflowID string, w *hierarchy.Workflow) error {
	roleIDs := make(map[string]bool, len(w.Roles))
	for i := range w.Roles {
		r := &w.Roles[i]
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("save workflow %s: role %q: %w", workflowID, r.ID, hierarchy.ErrNameRequired)
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		roleIDs[r.ID] = true
	}

	for i := range w.Connections {
		c := &w.Connections[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		// A connection with an endpoint outside the batch would come back as
		// a dangling edge on reload; fail fast instead.
		if !roleIDs[c.Source] {
			return fmt.Errorf("save workflow %s: connection %s: source %q: %w", workflowID, c.ID, c.Source, hierarchy.ErrNodeNotFound)
		}
		if !roleIDs[c.Target] {
			return fmt.Errorf("save workflow %s: connection %s: target %q: %w", workflowID, c.ID, c.Target, hierarchy.ErrNodeNotFound)
		}
	}

	if err := validateAcyclic(w.Roles, w.Connections); err != nil {
		return fmt.Errorf("save workflow %s: %w", workflowID, err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save workflow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM workflow_connections WHERE workflow_id = $1`, workflowID); err != nil {
		return fmt.Errorf("save workflow: delete connections: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM workflow_roles WHERE workflow_id = $1`, workflowID); err != nil {
		return fmt.Errorf("save workflow: delete roles: %w", err)
	}

	for _, r := range w.Roles {
		if _, err := tx.Exec(ctx,
			`INSERT INTO workflow_roles (id, workflow_id, name, description, role_type, pos_x, pos_y)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.ID, workflowID, r.Name, r.Description, r.RoleType, r.Position.X, r.Position.Y,
		); err != nil {
			return fmt.Errorf("save workflow: insert role %s: %w", r.ID, err)
		}
	}

	for _, c := range w.Connections {
		if _, err := tx.Exec(ctx,
			`INSERT INTO workflow_connections (id, workflow_id, source_id, target_id)
			 VALUES ($1, $2, $3, $4)`,
			c.ID, workflowID, c.Source, c.Target,
		); err != nil {
			return fmt.Errorf("save workflow: insert connection %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("save workflow: commit: %w", err)
	}

	return nil
}

// LoadWorkflow retrieves a saved workflow by its ID, roles and connections
// in insertion order. Returns nil, nil if no roles exist for the workflowID.
func (s *PGStore) LoadWorkflow(ctx context.Context, workflowID string) (*hierarchy.Workflow, error) {
	w := &hierarchy.Workflow{}

	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, role_type, pos_x, pos_y
		 FROM workflow_roles WHERE workflow_id = $1 ORDER BY created_at`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("load workflow: query roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r hierarchy.RoleNode
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.RoleType, &r.Position.X, &r.Position.Y); err != nil {
			return nil, fmt.Errorf("load workflow: scan role: %w", err)
		}
		w.Roles = append(w.Roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load workflow: rows roles: %w", err)
	}

	if len(w.Roles) == 0 {
		return nil, nil
	}

	rows, err = s.db.Query(ctx,
		`SELECT id, source_id, target_id
		 FROM workflow_connections WHERE workflow_id = $1 ORDER BY created_at`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("load workflow: query connections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c hierarchy.SupervisionEdge
		if err := rows.Scan(&c.ID, &c.Source, &c.Target); err != nil {
			return nil, fmt.Errorf("load workflow: scan connection: %w", err)
		}
		w.Connections = append(w.Connections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load workflow: rows connections: %w", err)
	}

	return w, nil
}

// DeleteWorkflow removes all saved state for a workflowID.
// No error if the workflowID doesn't exist.
func (s *PGStore) DeleteWorkflow(ctx context.Context, workflowID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete workflow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM workflow_connections WHERE workflow_id = $1`, workflowID); err != nil {
		return fmt.Errorf("delete workflow: delete connections: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM workflow_roles WHERE workflow_id = $1`, workflowID); err != nil {
		return fmt.Errorf("delete workflow: delete roles: %w", err)
	}

	return tx.Commit(ctx)
}

// validateAcyclic checks that the connections don't form a cycle using a
// three-color DFS over the adjacency list.
func validateAcyclic(roles []hierarchy.RoleNode, conns []hierarchy.SupervisionEdge) error {
	adj := make(map[string][]string)
	for _, c := range conns {
		adj[c.Source] = append(adj[c.Source], c.Target)
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]int)
	for _, r := range roles {
		state[r.ID] = unvisited
	}
	for _, c := range conns {
		if _, ok := state[c.Source]; !ok {
			state[c.Source] = unvisited
		}
		if _, ok := state[c.Target]; !ok {
			state[c.Target] = unvisited
		}
	}

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = visiting
		for _, next := range adj[id] {
			switch state[next] {
			case visiting:
				return true
			case unvisited:
				if dfs(next) {
					return true
				}
			}
		}
		state[id] = visited
		return false
	}

	for id, st := range state {
		if st == unvisited {
			if dfs(id) {
				return hierarchy.ErrCycleDetected
			}
		}
	}

	return nil
}
