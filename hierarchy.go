package hierarchy

// Role is an entry in the host application's role catalog.
// It carries no layout information; the graph assigns positions on load.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	RoleType    string `json:"roleType,omitempty"`
}

// Position is a 2D layout coordinate. It is persisted for rendering only
// and has no effect on graph semantics.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RoleNode is a vertex in the hierarchy graph: a catalog role plus its
// layout position. Nodes are never deleted once created.
type RoleNode struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	RoleType    string   `json:"roleType,omitempty"`
	Position    Position `json:"position"`
}

// SupervisionEdge is a directed supervision relationship: Source supervises
// Target. The edge set must remain acyclic at all times.
type SupervisionEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Workflow is the persisted representation of a hierarchy: the role layout
// plus the connection list. It is the shape exchanged with the persistence
// gateway in both directions.
type Workflow struct {
	Roles       []RoleNode        `json:"roles"`
	Connections []SupervisionEdge `json:"connections"`
}

// Empty reports whether the workflow holds no roles. An empty workflow is
// never authoritative on load; construction falls back to the role catalog.
func (w *Workflow) Empty() bool {
	return w == nil || len(w.Roles) == 0
}
