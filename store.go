package hierarchy

import (
	"context"
	"errors"
)

var (
	ErrCycleDetected  = errors.New("hierarchy: would create a cycle")
	ErrNodeNotFound   = errors.New("hierarchy: role node not found")
	ErrEdgeNotFound   = errors.New("hierarchy: supervision edge not found")
	ErrNameRequired   = errors.New("hierarchy: role name is required")
	ErrNoRoles        = errors.New("hierarchy: no roles to build a graph from")
	ErrSaveInProgress = errors.New("hierarchy: a save is already in progress")
)

// Gateway is the persistence boundary the editor saves through. The gateway
// owns durable storage; the editor issues one call per save and surfaces any
// failure verbatim, without retrying.
type Gateway interface {
	SaveWorkflow(ctx context.Context, workflowID string, w *Workflow) error
}

// Store defines the contract for persisting workflows and the role catalog.
type Store interface {
	Gateway

	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Workflows
	LoadWorkflow(ctx context.Context, workflowID string) (*Workflow, error)
	DeleteWorkflow(ctx context.Context, workflowID string) error

	// Role catalog
	SeedRoles(ctx context.Context, roles []Role) error
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, roleID string) (*Role, error)
}
