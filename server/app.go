package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/goyalsons/hierarchy"
)

// workflowAPI serves the hierarchy edit surface. It keeps one editor per
// workflow id; the editor is the single owner serializing all edits for that
// workflow, so handlers never touch a graph directly.
type workflowAPI struct {
	store hierarchy.Store

	mu      sync.Mutex
	editors map[string]*hierarchy.Editor
}

// editor returns the open editor for workflowID, constructing it on first
// use from the saved workflow (authoritative when present) or the role
// catalog. Returns hierarchy.ErrNoRoles when there is nothing to build from.
func (api *workflowAPI) editor(ctx context.Context, workflowID string) (*hierarchy.Editor, error) {
	api.mu.Lock()
	defer api.mu.Unlock()

	if ed, ok := api.editors[workflowID]; ok {
		return ed, nil
	}

	saved, err := api.store.LoadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	catalog, err := api.store.ListRoles(ctx)
	if err != nil {
		return nil, err
	}

	g, err := hierarchy.NewGraph(catalog, saved)
	if err != nil {
		return nil, err
	}

	ed := hierarchy.NewEditor(workflowID, g, api.store)
	api.editors[workflowID] = ed
	return ed, nil
}

// drop discards the open editor for workflowID, if any.
func (api *workflowAPI) drop(workflowID string) {
	api.mu.Lock()
	defer api.mu.Unlock()
	delete(api.editors, workflowID)
}

func newApp(store hierarchy.Store) *fiber.App {
	api := &workflowAPI{
		store:   store,
		editors: make(map[string]*hierarchy.Editor),
	}

	app := fiber.New()

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := store.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := store.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Role catalog ──────────────────────────────────────────────────
	app.Get("/roles", func(c fiber.Ctx) error {
		roles, err := store.ListRoles(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(roles)
	})

	app.Post("/roles", func(c fiber.Ctx) error {
		var roles []hierarchy.Role
		if err := c.Bind().JSON(&roles); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		err := store.SeedRoles(c.Context(), roles)
		if errors.Is(err, hierarchy.ErrNameRequired) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(roles)
	})

	// ── Workflow graph ────────────────────────────────────────────────
	app.Get("/workflows/:id", func(c fiber.Ctx) error {
		ed, err := api.editor(c.Context(), c.Params("id"))
		if err != nil {
			return editorError(c, err)
		}
		return c.JSON(ed.Serialize())
	})

	app.Delete("/workflows/:id", func(c fiber.Ctx) error {
		id := c.Params("id")
		if err := store.DeleteWorkflow(c.Context(), id); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		api.drop(id)
		return c.SendStatus(204)
	})

	// ── Gestures ──────────────────────────────────────────────────────
	app.Post("/workflows/:id/connections", func(c fiber.Ctx) error {
		var body struct {
			Source string `json:"source"`
			Target string `json:"target"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		ed, err := api.editor(c.Context(), c.Params("id"))
		if err != nil {
			return editorError(c, err)
		}
		edge, err := ed.Connect(body.Source, body.Target)
		if errors.Is(err, hierarchy.ErrCycleDetected) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if errors.Is(err, hierarchy.ErrNodeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(edge)
	})

	app.Post("/workflows/:id/roles", func(c fiber.Ctx) error {
		var body struct {
			ParentID string `json:"parentId"`
			Name     string `json:"name"`
			RoleType string `json:"roleType"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		ed, err := api.editor(c.Context(), c.Params("id"))
		if err != nil {
			return editorError(c, err)
		}
		nodeID, err := ed.AddChildRole(body.ParentID, body.Name, body.RoleType)
		if errors.Is(err, hierarchy.ErrNameRequired) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if errors.Is(err, hierarchy.ErrNodeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": nodeID})
	})

	app.Put("/workflows/:id/selection", func(c fiber.Ctx) error {
		var body struct {
			Node string `json:"node"`
			Edge string `json:"edge"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		ed, err := api.editor(c.Context(), c.Params("id"))
		if err != nil {
			return editorError(c, err)
		}
		switch {
		case body.Node != "":
			err = ed.SelectNode(body.Node)
		case body.Edge != "":
			err = ed.SelectEdge(body.Edge)
		default:
			ed.ClearSelection()
		}
		if errors.Is(err, hierarchy.ErrNodeNotFound) || errors.Is(err, hierarchy.ErrEdgeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		node, edge := ed.Selection()
		return c.JSON(fiber.Map{"node": node, "edge": edge})
	})

	app.Delete("/workflows/:id/connections/:connID", func(c fiber.Ctx) error {
		ed, err := api.editor(c.Context(), c.Params("id"))
		if err != nil {
			return editorError(c, err)
		}
		ed.DeleteEdge(c.Params("connID"))
		return c.SendStatus(204)
	})

	app.Delete("/workflows/:id/connections", func(c fiber.Ctx) error {
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		ed, err := api.editor(c.Context(), c.Params("id"))
		if err != nil {
			return editorError(c, err)
		}
		ed.DeleteEdges(body.IDs)
		return c.SendStatus(204)
	})

	app.Post("/workflows/:id/save", func(c fiber.Ctx) error {
		ed, err := api.editor(c.Context(), c.Params("id"))
		if err != nil {
			return editorError(c, err)
		}
		err = ed.Save(c.Context())
		if errors.Is(err, hierarchy.ErrSaveInProgress) {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			slog.Error("workflow save failed", "workflow", c.Params("id"), "error", err)
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	return app
}

// editorError maps editor-construction failures onto the response taxonomy.
func editorError(c fiber.Ctx, err error) error {
	if errors.Is(err, hierarchy.ErrNoRoles) {
		return c.Status(404).JSON(fiber.Map{"error": "no roles to display"})
	}
	return c.Status(500).JSON(fiber.Map{"error": err.Error()})
}
