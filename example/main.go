package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/goyalsons/hierarchy"
	"github.com/goyalsons/hierarchy/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	// Wire up the postgres implementation behind the Store interface.
	var store hierarchy.Store = postgres.New(pool)

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Seed the role catalog ─────────────────────────────────────────
	catalog := []hierarchy.Role{
		{ID: "ceo", Name: "CEO", RoleType: "admin"},
		{ID: "mgr", Name: "Store Manager", RoleType: "manager"},
		{ID: "staff", Name: "Sales Staff", RoleType: "employee"},
	}
	if err := store.SeedRoles(ctx, catalog); err != nil {
		log.Fatalf("seed roles: %v", err)
	}
	fmt.Println("catalog seeded")

	// ── Build a graph from the catalog (no saved workflow yet) ────────
	g, err := hierarchy.NewGraph(catalog, nil)
	if err != nil {
		log.Fatalf("new graph: %v", err)
	}
	ed := hierarchy.NewEditor("org-chart", g, store)

	// ── Draw the hierarchy ────────────────────────────────────────────
	if _, err := ed.Connect("ceo", "mgr"); err != nil {
		log.Fatalf("connect: %v", err)
	}
	if _, err := ed.Connect("mgr", "staff"); err != nil {
		log.Fatalf("connect: %v", err)
	}

	// Closing the loop is rejected; the graph is untouched.
	if _, err := ed.Connect("staff", "ceo"); err != nil {
		fmt.Printf("rejected as expected: %v\n", err)
	}

	// ── Grow the tree with an add-child gesture ───────────────────────
	cashierID, err := ed.AddChildRole("mgr", "Cashier", "employee")
	if err != nil {
		log.Fatalf("add child: %v", err)
	}
	fmt.Printf("added child role: %s\n", cashierID)

	// ── Persist ───────────────────────────────────────────────────────
	if err := ed.Save(ctx); err != nil {
		log.Fatalf("save: %v", err)
	}
	fmt.Println("workflow saved")

	// ── Round-trip: the saved workflow is authoritative on reload ─────
	saved, err := store.LoadWorkflow(ctx, "org-chart")
	if err != nil {
		log.Fatalf("load workflow: %v", err)
	}
	fmt.Println("\nworkflow reloaded:")
	printJSON(saved)

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteWorkflow(ctx, "org-chart"); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\nworkflow deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
