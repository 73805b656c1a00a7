package hierarchy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Editor is the single owner of a graph being edited. Every gesture the
// presentation layer forwards goes through one mutex, making the
// single-writer contract explicit. Saves snapshot the graph and hand the
// snapshot to the gateway; the graph stays editable while a save is in
// flight, and a failed save never touches local state.
type Editor struct {
	workflowID string
	gateway    Gateway

	mu     sync.Mutex
	graph  *Graph
	saving atomic.Bool
}

// NewEditor wraps an already constructed graph. The gateway may be nil for
// a purely in-memory session; Save then fails.
func NewEditor(workflowID string, g *Graph, gw Gateway) *Editor {
	return &Editor{workflowID: workflowID, graph: g, gateway: gw}
}

// Connect forwards the connect gesture.
func (ed *Editor) Connect(sourceID, targetID string) (*SupervisionEdge, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.graph.Connect(sourceID, targetID)
}

// AddChildRole forwards the add-child gesture.
func (ed *Editor) AddChildRole(parentID, name, roleType string) (string, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.graph.AddChildRole(parentID, name, roleType)
}

// SelectNode forwards the node-selection gesture.
func (ed *Editor) SelectNode(id string) error {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.graph.SelectNode(id)
}

// SelectEdge forwards the edge-selection gesture.
func (ed *Editor) SelectEdge(id string) error {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.graph.SelectEdge(id)
}

// ClearSelection forwards the deselect gesture.
func (ed *Editor) ClearSelection() {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.graph.ClearSelection()
}

// Selection returns the current node and edge selection; at most one of the
// two ids is non-empty.
func (ed *Editor) Selection() (nodeID, edgeID string) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	nodeID, _ = ed.graph.SelectedNode()
	edgeID, _ = ed.graph.SelectedEdge()
	return nodeID, edgeID
}

// DeleteEdge forwards a single edge deletion.
func (ed *Editor) DeleteEdge(id string) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.graph.DeleteEdge(id)
}

// DeleteEdges forwards a bulk edge deletion.
func (ed *Editor) DeleteEdges(ids []string) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.graph.DeleteEdges(ids)
}

// Serialize snapshots the current graph state.
func (ed *Editor) Serialize() *Workflow {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.graph.Serialize()
}

// Save snapshots the graph and issues one gateway call. Only one save may be
// in flight at a time; a re-entrant attempt returns ErrSaveInProgress without
// touching the gateway. Edits made while a save is in flight are simply
// picked up by the next save. Gateway failures are surfaced verbatim.
func (ed *Editor) Save(ctx context.Context) error {
	if ed.gateway == nil {
		return fmt.Errorf("save workflow %s: no gateway configured", ed.workflowID)
	}
	if !ed.saving.CompareAndSwap(false, true) {
		return ErrSaveInProgress
	}
	defer ed.saving.Store(false)

	snapshot := ed.Serialize()
	return ed.gateway.SaveWorkflow(ctx, ed.workflowID, snapshot)
}
