package hierarchy

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Grid layout used when constructing from the catalog: roles fill fixed-width
// columns left to right, wrapping to a new row every gridColumns entries.
const (
	gridColumns = 4
	columnWidth = 250.0
	rowHeight   = 150.0
)

// Graph is the in-memory role hierarchy: a directed acyclic graph of role
// nodes and supervision edges, plus transient selection state. It is not
// safe for concurrent use; a single owner must serialize all mutations
// (see Editor).
type Graph struct {
	nodes map[string]*RoleNode
	order []string // node insertion order, for stable serialization
	edges []SupervisionEdge

	// At most one of these is non-empty at any time.
	selectedNode string
	selectedEdge string
}

// NewGraph builds a graph from the role catalog and an optional previously
// saved workflow. A saved workflow with at least one role is authoritative:
// its roles and connections are taken verbatim, positions included.
// Otherwise each catalog role is placed on a deterministic grid and the
// graph starts with no edges. Returns ErrNoRoles if both inputs are empty.
func NewGraph(catalog []Role, saved *Workflow) (*Graph, error) {
	g := &Graph{nodes: make(map[string]*RoleNode)}

	if !saved.Empty() {
		for _, r := range saved.Roles {
			n := r
			g.nodes[n.ID] = &n
			g.order = append(g.order, n.ID)
		}
		g.edges = append(g.edges, saved.Connections...)
		return g, nil
	}

	if len(catalog) == 0 {
		return nil, ErrNoRoles
	}

	for i, r := range catalog {
		n := &RoleNode{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			RoleType:    r.RoleType,
			Position: Position{
				X: float64(i%gridColumns) * columnWidth,
				Y: float64(i/gridColumns) * rowHeight,
			},
		}
		g.nodes[n.ID] = n
		g.order = append(g.order, n.ID)
	}

	return g, nil
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (RoleNode, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return RoleNode{}, false
	}
	return *n, true
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []RoleNode {
	nodes := make([]RoleNode, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, *g.nodes[id])
	}
	return nodes
}

// Edges returns a copy of the current edge set. The result is never nil so
// it serializes as an empty list rather than null.
func (g *Graph) Edges() []SupervisionEdge {
	edges := make([]SupervisionEdge, 0, len(g.edges))
	return append(edges, g.edges...)
}

// Connect inserts a supervision edge from source to target. Both ids must
// refer to existing nodes. The insertion is gated by WouldCreateCycle; on
// rejection no mutation occurs and the error wraps ErrCycleDetected.
func (g *Graph) Connect(sourceID, targetID string) (*SupervisionEdge, error) {
	if _, ok := g.nodes[sourceID]; !ok {
		return nil, fmt.Errorf("connect: source %q: %w", sourceID, ErrNodeNotFound)
	}
	if _, ok := g.nodes[targetID]; !ok {
		return nil, fmt.Errorf("connect: target %q: %w", targetID, ErrNodeNotFound)
	}

	if g.WouldCreateCycle(sourceID, targetID) {
		return nil, fmt.Errorf("connect %s -> %s: %w", sourceID, targetID, ErrCycleDetected)
	}

	edge := SupervisionEdge{
		ID:     uuid.NewString(),
		Source: sourceID,
		Target: targetID,
	}
	g.edges = append(g.edges, edge)
	return &edge, nil
}

// AddChildRole creates a new role supervised by parentID, placed one row
// below the parent, and connects it through the same gated path as Connect.
// The name must be non-empty after trimming. Returns the new node's id.
func (g *Graph) AddChildRole(parentID, name, roleType string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	parent, ok := g.nodes[parentID]
	if !ok {
		return "", fmt.Errorf("add child: parent %q: %w", parentID, ErrNodeNotFound)
	}

	node := &RoleNode{
		ID:       uuid.NewString(),
		Name:     name,
		RoleType: roleType,
		Position: Position{
			X: parent.Position.X,
			Y: parent.Position.Y + rowHeight,
		},
	}
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)

	// A fresh node cannot be an ancestor of its parent, so this cannot fail,
	// but the edge still goes through the gated insertion path.
	if _, err := g.Connect(parentID, node.ID); err != nil {
		delete(g.nodes, node.ID)
		g.order = g.order[:len(g.order)-1]
		return "", err
	}

	return node.ID, nil
}

// WouldCreateCycle reports whether adding the edge source -> target would
// make source reachable from target, i.e. close a directed cycle. It walks
// forward edges from target with an explicit stack and a visited set;
// source == target is a zero-length cycle caught by the same traversal.
func (g *Graph) WouldCreateCycle(sourceID, targetID string) bool {
	visited := make(map[string]bool)
	frontier := []string{targetID}

	for len(frontier) > 0 {
		current := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		if current == sourceID {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, e := range g.edges {
			if e.Source == current && !visited[e.Target] {
				frontier = append(frontier, e.Target)
			}
		}
	}

	return false
}

// SelectNode marks the node as selected, clearing any edge selection.
// The add-child affordance shows only on the selected node.
func (g *Graph) SelectNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("select node %q: %w", id, ErrNodeNotFound)
	}
	g.selectedNode = id
	g.selectedEdge = ""
	return nil
}

// SelectEdge marks the edge as selected, clearing any node selection.
func (g *Graph) SelectEdge(id string) error {
	if !g.hasEdge(id) {
		return fmt.Errorf("select edge %q: %w", id, ErrEdgeNotFound)
	}
	g.selectedEdge = id
	g.selectedNode = ""
	return nil
}

// ClearSelection returns the selection state machine to idle.
func (g *Graph) ClearSelection() {
	g.selectedNode = ""
	g.selectedEdge = ""
}

// SelectedNode returns the currently selected node id, if any.
func (g *Graph) SelectedNode() (string, bool) {
	return g.selectedNode, g.selectedNode != ""
}

// SelectedEdge returns the currently selected edge id, if any.
func (g *Graph) SelectedEdge() (string, bool) {
	return g.selectedEdge, g.selectedEdge != ""
}

// ShowsAddAffordance reports whether the add-child affordance is visible on
// the given node. It follows the selection: selected node only.
func (g *Graph) ShowsAddAffordance(id string) bool {
	return g.selectedNode != "" && g.selectedNode == id
}

// DeleteEdge removes the edge with the given id. Deleting an id that no
// longer exists is a no-op. If the edge was selected, selection returns to
// idle.
func (g *Graph) DeleteEdge(id string) {
	for i, e := range g.edges {
		if e.ID == id {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			break
		}
	}
	if g.selectedEdge == id {
		g.selectedEdge = ""
	}
}

// DeleteEdges removes every listed edge. Each removal is independent and
// idempotent; ids with no matching edge are ignored.
func (g *Graph) DeleteEdges(ids []string) {
	for _, id := range ids {
		g.DeleteEdge(id)
	}
}

// Serialize snapshots the current graph as a persistable workflow. It is a
// pure function of graph state: positions reflect current coordinates,
// selection is untouched, and every connection carries the concrete source
// and target it was created with.
func (g *Graph) Serialize() *Workflow {
	return &Workflow{
		Roles:       g.Nodes(),
		Connections: g.Edges(),
	}
}

func (g *Graph) hasEdge(id string) bool {
	for _, e := range g.edges {
		if e.ID == id {
			return true
		}
	}
	return false
}
