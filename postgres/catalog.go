package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/goyalsons/hierarchy"
)

// SeedRoles upserts a batch of catalog roles in one transaction. Roles
// without IDs get auto-generated UUIDs. The catalog is the fallback input to
// graph construction when no workflow has been saved yet.
func (s *PGStore) SeedRoles(ctx context.Context, roles []hierarchy.Role) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("seed roles: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range roles {
		r := &roles[i]
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("seed roles: role %q: %w", r.ID, hierarchy.ErrNameRequired)
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO roles (id, name, description, role_type) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET name = $2, description = $3, role_type = $4`,
			r.ID, r.Name, r.Description, r.RoleType,
		); err != nil {
			return fmt.Errorf("seed roles: upsert role %s: %w", r.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// ListRoles returns the full role catalog ordered by creation time.
// Returns an empty slice (not nil) if the catalog is empty.
func (s *PGStore) ListRoles(ctx context.Context) ([]hierarchy.Role, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, role_type FROM roles ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := []hierarchy.Role{}
	for rows.Next() {
		var r hierarchy.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.RoleType); err != nil {
			return nil, fmt.Errorf("list roles: scan: %w", err)
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roles: rows: %w", err)
	}

	return roles, nil
}

// GetRole fetches a single catalog role by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetRole(ctx context.Context, roleID string) (*hierarchy.Role, error) {
	var r hierarchy.Role
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, role_type FROM roles WHERE id = $1`, roleID,
	).Scan(&r.ID, &r.Name, &r.Description, &r.RoleType)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role: %w", err)
	}

	return &r, nil
}
