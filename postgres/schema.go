package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS roles (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    role_type   TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS workflow_roles (
    id          TEXT PRIMARY KEY,
    workflow_id TEXT NOT NULL,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    role_type   TEXT NOT NULL DEFAULT '',
    pos_x       DOUBLE PRECISION NOT NULL DEFAULT 0,
    pos_y       DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS workflow_connections (
    id          TEXT PRIMARY KEY,
    workflow_id TEXT NOT NULL,
    source_id   TEXT NOT NULL REFERENCES workflow_roles(id) ON DELETE CASCADE,
    target_id   TEXT NOT NULL REFERENCES workflow_roles(id) ON DELETE CASCADE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_workflow_roles_wf       ON workflow_roles(workflow_id);
CREATE INDEX IF NOT EXISTS idx_workflow_connections_wf ON workflow_connections(workflow_id);
CREATE INDEX IF NOT EXISTS idx_workflow_connections_src ON workflow_connections(source_id);
CREATE INDEX IF NOT EXISTS idx_workflow_connections_tgt ON workflow_connections(target_id);
`

// CreateSchema creates the catalog and workflow tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the workflow and catalog tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS workflow_connections, workflow_roles, roles CASCADE;`)
	return err
}
