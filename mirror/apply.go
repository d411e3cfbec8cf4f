package mirror

// EventKind enumerates the bridge-level events the mirror ingests (spec
// §4.5). Connected/Disconnected are bridge lifecycle events, not wire
// payloads; everything else corresponds 1:1 to a protocol subject.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventChunkActivated
	EventChunkDeactivated
	EventStructureSpawned
	EventStructureRemoved
	EventEntitySpawned
	EventEntityRemoved
	EventEntityTransform
	EventSnapshotBegin
	EventSnapshotEnd
)

// Event is one ingestible item from the bridge's drained event queue.
type Event struct {
	Kind             EventKind
	Frame            uint64
	Chunk            Chunk
	Structure        Structure
	Entity           Entity
	ChunkID          string
	StructureID      string
	EntityID         string
	DisconnectReason string
}

// SignalKind is what the mirror tells its consumer happened, so the
// consumer (UI, render loop) can react without re-deriving it from cache
// diffs.
type SignalKind string

const (
	SignalChunkActivated     SignalKind = "chunk_activated"
	SignalChunkDeactivated   SignalKind = "chunk_deactivated"
	SignalStructureSpawned   SignalKind = "structure_spawned"
	SignalStructureRemoved   SignalKind = "structure_removed"
	SignalEntitySpawned      SignalKind = "entity_spawned"
	SignalEntityRemoved      SignalKind = "entity_removed"
	SignalEntityTransform    SignalKind = "entity_transform"
	SignalSnapshotBegin      SignalKind = "snapshot_begin"
	SignalSnapshotEnd        SignalKind = "snapshot_end"
	SignalConnectionActive   SignalKind = "connection_active"
	SignalConnectionDropped  SignalKind = "connection_disconnected"
)

type Signal struct {
	Kind        SignalKind
	ChunkID     string
	StructureID string
	EntityID    string
}

// Apply ingests one event, mutates the cache, and returns the signals the
// consumer should react to (possibly none, if suppressed by in_snapshot).
func (c *Cache) Apply(e Event) []Signal {
	switch e.Kind {
	case EventConnected:
		return []Signal{{Kind: SignalConnectionActive}}

	case EventDisconnected:
		c.Clear()
		return []Signal{{Kind: SignalConnectionDropped}}

	case EventChunkActivated:
		c.ActivateChunk(e.Chunk)
		if c.InSnapshot {
			return nil
		}
		return []Signal{{Kind: SignalChunkActivated, ChunkID: e.Chunk.ChunkID}}

	case EventChunkDeactivated:
		c.DeactivateChunk(e.ChunkID)
		if c.InSnapshot {
			return nil
		}
		return []Signal{{Kind: SignalChunkDeactivated, ChunkID: e.ChunkID}}

	case EventStructureSpawned:
		c.SpawnStructure(e.Structure)
		if c.InSnapshot {
			return nil
		}
		return []Signal{{Kind: SignalStructureSpawned, StructureID: e.Structure.StructureID}}

	case EventStructureRemoved:
		c.RemoveStructure(e.StructureID)
		if c.InSnapshot {
			return nil
		}
		return []Signal{{Kind: SignalStructureRemoved, StructureID: e.StructureID}}

	case EventEntitySpawned:
		c.SpawnEntity(e.Entity)
		if c.InSnapshot {
			return nil
		}
		return []Signal{{Kind: SignalEntitySpawned, EntityID: e.Entity.EntityID}}

	case EventEntityRemoved:
		c.RemoveEntity(e.EntityID)
		if c.InSnapshot {
			return nil
		}
		return []Signal{{Kind: SignalEntityRemoved, EntityID: e.EntityID}}

	case EventEntityTransform:
		c.UpdateEntityTransform(e.Entity.EntityID, e.Entity.Position, e.Entity.RotationY, e.Entity.Velocity, e.Frame, e.Entity.DT)
		// Always emitted, never suppressed by in_snapshot.
		return []Signal{{Kind: SignalEntityTransform, EntityID: e.Entity.EntityID}}

	case EventSnapshotBegin:
		c.Clear()
		c.InSnapshot = true
		return []Signal{{Kind: SignalSnapshotBegin}}

	case EventSnapshotEnd:
		c.InSnapshot = false
		signals := []Signal{{Kind: SignalSnapshotEnd}}
		for id := range c.Chunks {
			signals = append(signals, Signal{Kind: SignalChunkActivated, ChunkID: id})
		}
		for id := range c.Structures {
			signals = append(signals, Signal{Kind: SignalStructureSpawned, StructureID: id})
		}
		for id := range c.Entities {
			signals = append(signals, Signal{Kind: SignalEntitySpawned, EntityID: id})
		}
		return signals
	}
	return nil
}
