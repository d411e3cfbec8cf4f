package mirror

import (
	"fmt"
	"testing"

	"github.com/brinewood-games/worldstream/types"
)

func TestActivateAndDeactivateChunk(t *testing.T) {
	c := NewCache()
	if c.ChunkCount() != 0 {
		t.Fatalf("expected empty cache")
	}
	c.ActivateChunk(Chunk{ChunkID: "0:0", CX: 0, CY: 0, Seed: 42, LOD: 0, ChunkSize: 10})
	if c.ChunkCount() != 1 || !c.IsChunkActive("0:0") {
		t.Fatalf("expected chunk active")
	}
	c.DeactivateChunk("0:0")
	if c.ChunkCount() != 0 || c.IsChunkActive("0:0") {
		t.Fatalf("expected chunk removed")
	}
}

func TestActivateSameChunkTwiceReplaces(t *testing.T) {
	c := NewCache()
	c.ActivateChunk(Chunk{ChunkID: "0:0", Seed: 42, LOD: 0})
	c.ActivateChunk(Chunk{ChunkID: "0:0", Seed: 99, LOD: 1})
	if c.ChunkCount() != 1 {
		t.Fatalf("expected replace not duplicate")
	}
	if c.Chunks["0:0"].Seed != 99 || c.Chunks["0:0"].LOD != 1 {
		t.Fatalf("expected latest values to win")
	}
}

func TestDeactivateNonexistentChunkIsNoop(t *testing.T) {
	c := NewCache()
	c.DeactivateChunk("does-not-exist")
	if c.ChunkCount() != 0 {
		t.Fatalf("expected no-op")
	}
}

func TestSpawnAndRemoveStructure(t *testing.T) {
	c := NewCache()
	c.SpawnStructure(Structure{StructureID: "s1", TypeID: "tree"})
	if c.StructureCount() != 1 || c.Structures["s1"].TypeID != "tree" {
		t.Fatalf("expected structure spawned")
	}
	c.RemoveStructure("s1")
	if c.StructureCount() != 0 {
		t.Fatalf("expected structure removed")
	}
}

func TestSpawnAndRemoveEntity(t *testing.T) {
	c := NewCache()
	c.SpawnEntity(Entity{EntityID: "e1", Archetype: "creature/wolf", Position: types.NewVec3(5, 0, 10)})
	if c.EntityCount() != 1 || c.Entities["e1"].Archetype != "creature/wolf" {
		t.Fatalf("expected entity spawned")
	}
	c.RemoveEntity("e1")
	if c.EntityCount() != 0 {
		t.Fatalf("expected entity removed")
	}
}

func TestUpdateEntityTransform(t *testing.T) {
	c := NewCache()
	c.SpawnEntity(Entity{EntityID: "e1", Archetype: "npc"})
	c.UpdateEntityTransform("e1", types.NewVec3(10, 1, 20), 3.14, types.NewVec3(2, 0, 1), 100, 0.033)

	e := c.Entities["e1"]
	if e.Position.X != 10 || e.Position.Z != 20 || e.Frame != 100 || e.Velocity.X != 2 {
		t.Fatalf("unexpected entity state: %+v", e)
	}
	if c.LastFrame != 100 {
		t.Fatalf("expected last_frame 100, got %d", c.LastFrame)
	}
}

func TestUpdateMissingEntityIsNoop(t *testing.T) {
	c := NewCache()
	c.UpdateEntityTransform("ghost", types.NewVec3(1, 2, 3), 0, types.Vec3{}, 1, 0.033)
	if c.EntityCount() != 0 {
		t.Fatalf("expected no-op on missing entity")
	}
}

func TestExtrapolateEntityPosition(t *testing.T) {
	e := Entity{Position: types.NewVec3(10, 0, 20), Velocity: types.NewVec3(2, 0, -1)}
	pos := e.Extrapolated(0.5)
	if pos.X != 11 || pos.Z != 19.5 {
		t.Fatalf("unexpected extrapolated position: %+v", pos)
	}
}

func TestExtrapolateZeroElapsed(t *testing.T) {
	e := Entity{Position: types.NewVec3(5, 0, 5), Velocity: types.NewVec3(100, 0, 100)}
	pos := e.Extrapolated(0)
	if pos.X != 5 || pos.Z != 5 {
		t.Fatalf("expected unchanged position at t=0, got %+v", pos)
	}
}

func TestExtrapolateUnknownEntityIsZero(t *testing.T) {
	c := NewCache()
	pos := c.Extrapolate("ghost", 1.0)
	if pos != (types.Vec3{}) {
		t.Fatalf("expected zero vector for unknown entity, got %+v", pos)
	}
}

func TestClearResetsEverything(t *testing.T) {
	c := NewCache()
	c.ActivateChunk(Chunk{ChunkID: "c1"})
	c.SpawnStructure(Structure{StructureID: "s1"})
	c.SpawnEntity(Entity{EntityID: "e1"})
	c.LastFrame = 42
	c.InSnapshot = true

	c.Clear()

	if c.ChunkCount() != 0 || c.StructureCount() != 0 || c.EntityCount() != 0 {
		t.Fatalf("expected all maps cleared")
	}
	if c.LastFrame != 0 || c.InSnapshot {
		t.Fatalf("expected last_frame and in_snapshot reset")
	}
}

func TestMultipleEntities(t *testing.T) {
	c := NewCache()
	for i := 0; i < 100; i++ {
		c.SpawnEntity(Entity{EntityID: fmt.Sprintf("e%d", i), Archetype: "npc"})
	}
	if c.EntityCount() != 100 {
		t.Fatalf("expected 100 entities, got %d", c.EntityCount())
	}
	c.Clear()
	if c.EntityCount() != 0 {
		t.Fatalf("expected 0 entities after clear")
	}
}

// S5: client mirror snapshot hydration.
func TestSnapshotHydrationSequence(t *testing.T) {
	c := NewCache()

	signals := c.Apply(Event{Kind: EventSnapshotBegin, Frame: 7})
	if len(signals) != 1 || signals[0].Kind != SignalSnapshotBegin {
		t.Fatalf("expected single snapshot_begin signal, got %+v", signals)
	}
	if !c.InSnapshot {
		t.Fatalf("expected in_snapshot=true")
	}

	if sig := c.Apply(Event{Kind: EventChunkActivated, Chunk: Chunk{ChunkID: "0:0"}}); sig != nil {
		t.Fatalf("expected no signal during snapshot, got %+v", sig)
	}
	if sig := c.Apply(Event{Kind: EventChunkActivated, Chunk: Chunk{ChunkID: "1:0"}}); sig != nil {
		t.Fatalf("expected no signal during snapshot, got %+v", sig)
	}

	endSignals := c.Apply(Event{Kind: EventSnapshotEnd})
	if c.InSnapshot {
		t.Fatalf("expected in_snapshot=false after SnapshotEnd")
	}
	if c.ChunkCount() != 2 {
		t.Fatalf("expected 2 chunks cached, got %d", c.ChunkCount())
	}
	if endSignals[0].Kind != SignalSnapshotEnd {
		t.Fatalf("expected first end signal to be snapshot_end, got %+v", endSignals[0])
	}

	chunkSignalCount := 0
	for _, s := range endSignals[1:] {
		if s.Kind == SignalChunkActivated {
			chunkSignalCount++
		}
	}
	if chunkSignalCount != 2 {
		t.Fatalf("expected 2 synthesized chunk_activated signals, got %d", chunkSignalCount)
	}
}

func TestEntityTransformAlwaysEmitsEvenDuringSnapshot(t *testing.T) {
	c := NewCache()
	c.Apply(Event{Kind: EventSnapshotBegin})
	c.SpawnEntity(Entity{EntityID: "e1"})

	signals := c.Apply(Event{Kind: EventEntityTransform, Entity: Entity{EntityID: "e1"}, Frame: 3})
	if len(signals) != 1 || signals[0].Kind != SignalEntityTransform {
		t.Fatalf("expected entity_transform signal even during snapshot, got %+v", signals)
	}
}
