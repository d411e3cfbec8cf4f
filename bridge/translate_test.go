package bridge

import (
	"testing"

	"github.com/brinewood-games/worldstream/mirror"
	"github.com/brinewood-games/worldstream/protocol"
)

func wrap(t *testing.T, frame uint64, payload interface{}) []byte {
	t.Helper()
	env, err := protocol.Wrap("sess", frame, payload)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return raw
}

func TestTranslateChunkActivated(t *testing.T) {
	raw := wrap(t, 5, protocol.ChunkActivated{ChunkID: "1:2", CX: 1, CY: 2, Seed: 42, LOD: 1, ChunkSize: 10})
	events := translateMessage(protocol.SubjectChunkActivated, raw)
	if len(events) != 1 || events[0].Kind != mirror.EventChunkActivated {
		t.Fatalf("expected single ChunkActivated event, got %+v", events)
	}
	if events[0].Chunk.ChunkID != "1:2" || events[0].Frame != 5 {
		t.Fatalf("unexpected chunk payload: %+v", events[0])
	}
}

func TestTranslateEntityTransform(t *testing.T) {
	raw := wrap(t, 9, protocol.EntityTransform{EntityID: "alice", X: 1, Y: 2, Z: 3, VX: 0.5})
	events := translateMessage(protocol.SubjectEntityTransform, raw)
	if len(events) != 1 || events[0].Kind != mirror.EventEntityTransform {
		t.Fatalf("expected single EntityTransform event, got %+v", events)
	}
	if events[0].Entity.EntityID != "alice" || events[0].Entity.Velocity.X != 0.5 {
		t.Fatalf("unexpected entity payload: %+v", events[0].Entity)
	}
}

func TestTranslateSnapshotExpandsToBeginEndAndItems(t *testing.T) {
	snap := protocol.WorldSnapshot{
		ActiveChunks: []protocol.ChunkActivated{{ChunkID: "0:0"}, {ChunkID: "1:0"}},
		Structures:   []protocol.StructureSpawned{{StructureID: "s1"}},
		Entities:     []protocol.EntitySpawned{{EntityID: "alice", Archetype: "participant"}},
	}
	raw := wrap(t, 3, snap)
	events := translateMessage(protocol.SubjectSnapshot, raw)

	if events[0].Kind != mirror.EventSnapshotBegin {
		t.Fatalf("expected first event SnapshotBegin, got %+v", events[0])
	}
	if events[len(events)-1].Kind != mirror.EventSnapshotEnd {
		t.Fatalf("expected last event SnapshotEnd, got %+v", events[len(events)-1])
	}
	if len(events) != 1+2+1+1+1 {
		t.Fatalf("expected 6 events (begin+2 chunks+1 structure+1 entity+end), got %d", len(events))
	}
}

func TestTranslateUnknownSubjectReturnsNil(t *testing.T) {
	raw := wrap(t, 1, protocol.ChunkDeactivated{ChunkID: "x"})
	events := translateMessage("world.bogus.subject", raw)
	if events != nil {
		t.Fatalf("expected nil for unrecognised subject, got %+v", events)
	}
}

func TestTranslateMalformedPayloadReturnsNil(t *testing.T) {
	events := translateMessage(protocol.SubjectChunkActivated, []byte("not json"))
	if events != nil {
		t.Fatalf("expected nil for malformed payload, got %+v", events)
	}
}
