package hierarchy

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogOf(names ...string) []Role {
	roles := make([]Role, len(names))
	for i, n := range names {
		roles[i] = Role{ID: fmt.Sprintf("r%d", i), Name: n}
	}
	return roles
}

// isAcyclic is an independent verifier: three-color DFS over the edge set,
// deliberately not sharing code with Graph.WouldCreateCycle.
func isAcyclic(edges []SupervisionEdge) bool {
	adj := make(map[string][]string)
	state := make(map[string]int)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
		state[e.Source] = 0
		state[e.Target] = 0
	}

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = 1
		for _, next := range adj[id] {
			switch state[next] {
			case 1:
				return true
			case 0:
				if dfs(next) {
					return true
				}
			}
		}
		state[id] = 2
		return false
	}

	for id, st := range state {
		if st == 0 && dfs(id) {
			return false
		}
	}
	return true
}

func TestNewGraphGridFallback(t *testing.T) {
	g, err := NewGraph(catalogOf("A", "B", "C", "D", "E", "F"), nil)
	require.NoError(t, err)

	nodes := g.Nodes()
	require.Len(t, nodes, 6)
	assert.Empty(t, g.Edges())

	// 4 columns, wrapping to a second row at index 4.
	assert.Equal(t, Position{X: 0, Y: 0}, nodes[0].Position)
	assert.Equal(t, Position{X: 250, Y: 0}, nodes[1].Position)
	assert.Equal(t, Position{X: 750, Y: 0}, nodes[3].Position)
	assert.Equal(t, Position{X: 0, Y: 150}, nodes[4].Position)
	assert.Equal(t, Position{X: 250, Y: 150}, nodes[5].Position)
}

func TestNewGraphSavedWorkflowIsAuthoritative(t *testing.T) {
	saved := &Workflow{
		Roles: []RoleNode{
			{ID: "a", Name: "CEO", Position: Position{X: 42, Y: 7}},
			{ID: "b", Name: "Manager", Position: Position{X: 13, Y: 99}},
		},
		Connections: []SupervisionEdge{{ID: "e1", Source: "a", Target: "b"}},
	}

	// The catalog is ignored when a non-empty workflow is supplied.
	g, err := NewGraph(catalogOf("X", "Y", "Z"), saved)
	require.NoError(t, err)

	require.Len(t, g.Nodes(), 2)
	require.Len(t, g.Edges(), 1)
	n, ok := g.Node("a")
	require.True(t, ok)
	assert.Equal(t, Position{X: 42, Y: 7}, n.Position)
}

func TestNewGraphEmptyState(t *testing.T) {
	_, err := NewGraph(nil, nil)
	require.ErrorIs(t, err, ErrNoRoles)

	_, err = NewGraph([]Role{}, &Workflow{})
	require.ErrorIs(t, err, ErrNoRoles)
}

func TestConnectScenario(t *testing.T) {
	g, err := NewGraph([]Role{
		{ID: "A", Name: "CEO"},
		{ID: "B", Name: "Manager"},
		{ID: "C", Name: "Staff"},
	}, nil)
	require.NoError(t, err)

	e1, err := g.Connect("A", "B")
	require.NoError(t, err)
	assert.Equal(t, "A", e1.Source)
	assert.Equal(t, "B", e1.Target)

	_, err = g.Connect("B", "C")
	require.NoError(t, err)

	_, err = g.Connect("C", "A")
	require.ErrorIs(t, err, ErrCycleDetected)

	w := g.Serialize()
	require.Len(t, w.Roles, 3)
	require.Len(t, w.Connections, 2)
}

func TestConnectAllowsParallelPaths(t *testing.T) {
	g, err := NewGraph(catalogOf("A", "B", "C"), nil)
	require.NoError(t, err)

	_, err = g.Connect("r0", "r1")
	require.NoError(t, err)
	_, err = g.Connect("r1", "r2")
	require.NoError(t, err)

	// A path r0 -> r2 already exists; a direct edge is still legal.
	_, err = g.Connect("r0", "r2")
	require.NoError(t, err)
	assert.Len(t, g.Edges(), 3)
}

func TestConnectRejectsSelfLoop(t *testing.T) {
	g, err := NewGraph(catalogOf("A", "B"), nil)
	require.NoError(t, err)

	_, err = g.Connect("r0", "r0")
	require.ErrorIs(t, err, ErrCycleDetected)
	assert.Empty(t, g.Edges())
}

func TestConnectUnknownNodeIsNoOp(t *testing.T) {
	g, err := NewGraph(catalogOf("A"), nil)
	require.NoError(t, err)

	_, err = g.Connect("r0", "ghost")
	require.ErrorIs(t, err, ErrNodeNotFound)
	_, err = g.Connect("ghost", "r0")
	require.ErrorIs(t, err, ErrNodeNotFound)
	assert.Empty(t, g.Edges())
}

func TestConnectUniqueEdgeIDs(t *testing.T) {
	g, err := NewGraph(catalogOf("A", "B"), nil)
	require.NoError(t, err)

	e1, err := g.Connect("r0", "r1")
	require.NoError(t, err)
	e2, err := g.Connect("r0", "r1")
	require.NoError(t, err)
	assert.NotEqual(t, e1.ID, e2.ID)
}

func TestRandomConnectSequencesStayAcyclic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for round := 0; round < 20; round++ {
		g, err := NewGraph(catalogOf("A", "B", "C", "D", "E", "F", "G", "H"), nil)
		require.NoError(t, err)

		for i := 0; i < 200; i++ {
			src := fmt.Sprintf("r%d", rng.Intn(8))
			dst := fmt.Sprintf("r%d", rng.Intn(8))
			_, err := g.Connect(src, dst)
			if err != nil {
				require.ErrorIs(t, err, ErrCycleDetected)
			}
		}

		require.True(t, isAcyclic(g.Edges()), "round %d produced a cycle", round)
	}
}

func TestAddChildRole(t *testing.T) {
	g, err := NewGraph(catalogOf("CEO", "Manager"), nil)
	require.NoError(t, err)
	_, err = g.Connect("r0", "r1")
	require.NoError(t, err)

	childID, err := g.AddChildRole("r1", "Cashier", "employee")
	require.NoError(t, err)

	child, ok := g.Node(childID)
	require.True(t, ok)
	assert.Equal(t, "Cashier", child.Name)
	assert.Equal(t, "employee", child.RoleType)

	parent, _ := g.Node("r1")
	assert.Equal(t, parent.Position.X, child.Position.X)
	assert.Equal(t, parent.Position.Y+150, child.Position.Y)

	// Exactly one incoming edge, from the parent.
	incoming := 0
	for _, e := range g.Edges() {
		if e.Target == childID {
			incoming++
			assert.Equal(t, "r1", e.Source)
		}
	}
	assert.Equal(t, 1, incoming)
	assert.True(t, isAcyclic(g.Edges()))

	// Closing back to any ancestor of the parent would now cycle.
	assert.True(t, g.WouldCreateCycle(childID, "r0"))
	assert.True(t, g.WouldCreateCycle(childID, "r1"))
}

func TestAddChildRoleValidation(t *testing.T) {
	g, err := NewGraph(catalogOf("CEO"), nil)
	require.NoError(t, err)

	_, err = g.AddChildRole("r0", "   ", "")
	require.ErrorIs(t, err, ErrNameRequired)

	_, err = g.AddChildRole("ghost", "Cashier", "")
	require.ErrorIs(t, err, ErrNodeNotFound)

	assert.Len(t, g.Nodes(), 1)
	assert.Empty(t, g.Edges())
}

func TestSelectionExclusivity(t *testing.T) {
	g, err := NewGraph(catalogOf("A", "B"), nil)
	require.NoError(t, err)
	edge, err := g.Connect("r0", "r1")
	require.NoError(t, err)

	require.NoError(t, g.SelectNode("r0"))
	nodeID, ok := g.SelectedNode()
	assert.True(t, ok)
	assert.Equal(t, "r0", nodeID)
	assert.True(t, g.ShowsAddAffordance("r0"))
	assert.False(t, g.ShowsAddAffordance("r1"))

	// Selecting an edge clears the node selection.
	require.NoError(t, g.SelectEdge(edge.ID))
	_, ok = g.SelectedNode()
	assert.False(t, ok)
	edgeID, ok := g.SelectedEdge()
	assert.True(t, ok)
	assert.Equal(t, edge.ID, edgeID)
	assert.False(t, g.ShowsAddAffordance("r0"))

	// And vice versa.
	require.NoError(t, g.SelectNode("r1"))
	_, ok = g.SelectedEdge()
	assert.False(t, ok)

	g.ClearSelection()
	_, ok = g.SelectedNode()
	assert.False(t, ok)
	_, ok = g.SelectedEdge()
	assert.False(t, ok)
}

func TestSelectUnknown(t *testing.T) {
	g, err := NewGraph(catalogOf("A"), nil)
	require.NoError(t, err)

	require.True(t, errors.Is(g.SelectNode("ghost"), ErrNodeNotFound))
	require.True(t, errors.Is(g.SelectEdge("ghost"), ErrEdgeNotFound))
}

func TestDeleteEdgeIdempotent(t *testing.T) {
	g, err := NewGraph(catalogOf("A", "B", "C"), nil)
	require.NoError(t, err)
	e1, err := g.Connect("r0", "r1")
	require.NoError(t, err)
	e2, err := g.Connect("r1", "r2")
	require.NoError(t, err)

	g.DeleteEdges([]string{e1.ID})
	g.DeleteEdges([]string{e1.ID})
	g.DeleteEdges([]string{"ghost"})

	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, e2.ID, edges[0].ID)
}

func TestDeleteSelectedEdgeReturnsToIdle(t *testing.T) {
	g, err := NewGraph(catalogOf("A", "B"), nil)
	require.NoError(t, err)
	edge, err := g.Connect("r0", "r1")
	require.NoError(t, err)

	require.NoError(t, g.SelectEdge(edge.ID))
	g.DeleteEdge(edge.ID)

	_, ok := g.SelectedEdge()
	assert.False(t, ok)
	assert.Empty(t, g.Edges())
}

func TestSerializeRoundTrip(t *testing.T) {
	g, err := NewGraph(catalogOf("CEO", "Manager", "Staff"), nil)
	require.NoError(t, err)
	_, err = g.Connect("r0", "r1")
	require.NoError(t, err)
	_, err = g.Connect("r1", "r2")
	require.NoError(t, err)
	_, err = g.AddChildRole("r1", "Cashier", "employee")
	require.NoError(t, err)

	first := g.Serialize()

	reloaded, err := NewGraph(nil, first)
	require.NoError(t, err)
	second := reloaded.Serialize()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestSerializeDoesNotTouchSelection(t *testing.T) {
	g, err := NewGraph(catalogOf("A", "B"), nil)
	require.NoError(t, err)
	require.NoError(t, g.SelectNode("r0"))

	_ = g.Serialize()

	nodeID, ok := g.SelectedNode()
	assert.True(t, ok)
	assert.Equal(t, "r0", nodeID)
}
