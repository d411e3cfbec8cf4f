package engine

import (
	"context"
	"testing"

	"github.com/brinewood-games/worldstream/physics"
	"github.com/brinewood-games/worldstream/structure"
	"github.com/brinewood-games/worldstream/terrain"
	"github.com/brinewood-games/worldstream/types"
)

func newTestEngine(t *testing.T, cellSize float32, radius int32) *Engine {
	t.Helper()
	terr := terrain.NewHeightmapTerrain(42, cellSize, 8)
	world := structure.NewWorld(terr)
	cfg := types.DefaultConfig()
	cfg.CellSize = cellSize
	cfg.ActivationRadius = radius
	return New(cfg, world, physics.NewReference())
}

func TestRegisterUnregisterParticipantCount(t *testing.T) {
	e := newTestEngine(t, 10, 2)
	e.RegisterParticipant("alice", types.NewVec3(0, 0, 0))
	e.RegisterParticipant("bob", types.NewVec3(1, 1, 0))
	if e.ParticipantCount() != 2 {
		t.Fatalf("expected 2 participants, got %d", e.ParticipantCount())
	}
	e.UnregisterParticipant("alice")
	if e.ParticipantCount() != 1 {
		t.Fatalf("expected 1 participant, got %d", e.ParticipantCount())
	}
}

// S2: activation window.
func TestTickActivationWindow(t *testing.T) {
	e := newTestEngine(t, 10, 2)
	e.RegisterParticipant("alice", types.NewVec3(0, 0, 0))

	events, err := e.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(events.Activated) != 25 {
		t.Fatalf("expected 25 activated cells, got %d", len(events.Activated))
	}
	if len(e.activeCells) != 25 {
		t.Fatalf("expected 25 active cells, got %d", len(e.activeCells))
	}
	for _, ca := range events.Activated {
		if ca.CX < -2 || ca.CX > 2 || ca.CY < -2 || ca.CY > 2 {
			t.Fatalf("activated cell out of expected disc: %+v", ca)
		}
	}
}

// S3: cell churn.
func TestTickCellChurn(t *testing.T) {
	e := newTestEngine(t, 10, 2)
	e.RegisterParticipant("alice", types.NewVec3(0, 0, 0))
	if _, err := e.Tick(context.Background()); err != nil {
		t.Fatalf("first tick: %v", err)
	}

	e.RegisterParticipant("alice", types.NewVec3(100, 0, 0))
	events, err := e.Tick(context.Background())
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if len(events.Deactivated) != 25 {
		t.Fatalf("expected 25 deactivated, got %d", len(events.Deactivated))
	}
	if len(events.Activated) != 25 {
		t.Fatalf("expected 25 activated, got %d", len(events.Activated))
	}
	if len(e.activeCells) != 25 {
		t.Fatalf("expected active set to stay at 25, got %d", len(e.activeCells))
	}
}

func TestTickCountIncreasesByOne(t *testing.T) {
	e := newTestEngine(t, 10, 1)
	e.RegisterParticipant("alice", types.NewVec3(0, 0, 0))
	for i := uint64(1); i <= 3; i++ {
		events, err := e.Tick(context.Background())
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if events.Tick != i {
			t.Fatalf("expected tick_count %d, got %d", i, events.Tick)
		}
	}
}

// S4: snapshot reply.
func TestBuildSnapshot(t *testing.T) {
	e := newTestEngine(t, 10, 0) // radius 0 -> exactly 1 active cell per participant
	e.RegisterParticipant("alice", types.NewVec3(0, 0, 0))
	if _, err := e.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	snap := e.BuildSnapshot("sess")
	if len(snap.ActiveChunks) != 1 {
		t.Fatalf("expected 1 active chunk, got %d", len(snap.ActiveChunks))
	}
	if len(snap.Entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(snap.Entities))
	}
	if snap.Entities[0].Archetype != "participant" {
		t.Fatalf("expected archetype 'participant', got %q", snap.Entities[0].Archetype)
	}
}

func TestStats(t *testing.T) {
	e := newTestEngine(t, 10, 0)
	e.RegisterParticipant("alice", types.NewVec3(0, 0, 0))
	e.Tick(context.Background())

	stats := e.Stats()
	if stats.ActiveCells != 1 {
		t.Errorf("expected 1 active cell, got %d", stats.ActiveCells)
	}
	if stats.TrackedParticipants != 1 {
		t.Errorf("expected 1 tracked participant, got %d", stats.TrackedParticipants)
	}
	if stats.TotalTicks != 1 {
		t.Errorf("expected 1 total tick, got %d", stats.TotalTicks)
	}
}

func TestEntityTransformsCarryParticipantPositions(t *testing.T) {
	e := newTestEngine(t, 10, 0)
	e.RegisterParticipant("alice", types.NewVec3(3, 4, 5))
	events, err := e.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(events.EntityTransforms) != 1 {
		t.Fatalf("expected 1 transform, got %d", len(events.EntityTransforms))
	}
	tr := events.EntityTransforms[0]
	if tr.EntityID != "alice" || tr.X != 3 || tr.Y != 4 || tr.Z != 5 {
		t.Fatalf("unexpected transform: %+v", tr)
	}
}

func TestTickEvictsDistantTerrainChunks(t *testing.T) {
	cellSize := float32(10)
	terr := terrain.NewHeightmapTerrain(42, cellSize, 8)
	world := structure.NewWorld(terr)
	cfg := types.DefaultConfig()
	cfg.CellSize = cellSize
	cfg.ActivationRadius = 1
	cfg.EvictionMargin = 1
	e := New(cfg, world, physics.NewReference())

	distant := terr.GetOrGenerateChunk(50, 50, 0)

	e.RegisterParticipant("alice", types.NewVec3(0, 0, 0))
	if _, err := e.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	regenerated := terr.GetOrGenerateChunk(50, 50, 0)
	if distant == regenerated {
		t.Fatalf("expected distant chunk (50,50) to be evicted from the terrain cache during Tick")
	}
}

func TestUnregisterParticipantDeactivatesNextTick(t *testing.T) {
	e := newTestEngine(t, 10, 0)
	e.RegisterParticipant("alice", types.NewVec3(0, 0, 0))
	e.Tick(context.Background())

	e.UnregisterParticipant("alice")
	events, err := e.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(events.Deactivated) != 1 {
		t.Fatalf("expected 1 deactivated cell after unregister, got %d", len(events.Deactivated))
	}
	if len(e.activeCells) != 0 {
		t.Fatalf("expected 0 active cells, got %d", len(e.activeCells))
	}
}
