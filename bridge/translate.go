// Package bridge implements the client-side bridges that speak the bus's
// line-oriented text sub-protocol: a native bridge for desktop/server
// processes using real goroutines, and a browser bridge for WASM builds
// using a cooperative poll loop. Both share the subject-to-event
// translation in this file rather than duplicating the parsing.
package bridge

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/brinewood-games/worldstream/mirror"
	"github.com/brinewood-games/worldstream/protocol"
	"github.com/brinewood-games/worldstream/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func vec3(x, y, z float32) types.Vec3 {
	return types.NewVec3(x, y, z)
}

// translateMessage turns one bus MSG payload into zero or more mirror
// Events. world.snapshot messages expand into a SnapshotBegin, one
// event per active chunk/structure/entity, and a SnapshotEnd.
func translateMessage(subject string, raw []byte) []mirror.Event {
	frame, payload, err := protocol.Unwrap(raw)
	if err != nil {
		return nil
	}

	switch {
	case strings.HasPrefix(subject, protocol.SubjectChunkActivated):
		var p protocol.ChunkActivated
		if json.Unmarshal(payload, &p) != nil {
			return nil
		}
		return []mirror.Event{{Kind: mirror.EventChunkActivated, Frame: frame, Chunk: chunkFromWire(p)}}

	case strings.HasPrefix(subject, protocol.SubjectChunkDeactivated):
		var p protocol.ChunkDeactivated
		if json.Unmarshal(payload, &p) != nil {
			return nil
		}
		return []mirror.Event{{Kind: mirror.EventChunkDeactivated, Frame: frame, ChunkID: p.ChunkID}}

	case strings.HasPrefix(subject, protocol.SubjectStructureSpawned):
		var p protocol.StructureSpawned
		if json.Unmarshal(payload, &p) != nil {
			return nil
		}
		return []mirror.Event{{Kind: mirror.EventStructureSpawned, Frame: frame, Structure: structureFromWire(p)}}

	case strings.HasPrefix(subject, protocol.SubjectStructureRemoved):
		var p protocol.StructureRemoved
		if json.Unmarshal(payload, &p) != nil {
			return nil
		}
		return []mirror.Event{{Kind: mirror.EventStructureRemoved, Frame: frame, StructureID: p.StructureID}}

	case strings.HasPrefix(subject, protocol.SubjectEntitySpawned):
		var p protocol.EntitySpawned
		if json.Unmarshal(payload, &p) != nil {
			return nil
		}
		return []mirror.Event{{Kind: mirror.EventEntitySpawned, Frame: frame, Entity: entitySpawnedFromWire(p)}}

	case strings.HasPrefix(subject, protocol.SubjectEntityRemoved):
		var p protocol.EntityRemoved
		if json.Unmarshal(payload, &p) != nil {
			return nil
		}
		return []mirror.Event{{Kind: mirror.EventEntityRemoved, Frame: frame, EntityID: p.EntityID}}

	case strings.HasPrefix(subject, protocol.SubjectEntityTransform):
		var p protocol.EntityTransform
		if json.Unmarshal(payload, &p) != nil {
			return nil
		}
		return []mirror.Event{{Kind: mirror.EventEntityTransform, Frame: frame, Entity: entityTransformFromWire(p)}}

	case strings.HasPrefix(subject, protocol.SubjectSnapshot):
		var snap protocol.WorldSnapshot
		if json.Unmarshal(payload, &snap) != nil {
			return nil
		}
		events := make([]mirror.Event, 0, len(snap.ActiveChunks)+len(snap.Structures)+len(snap.Entities)+2)
		events = append(events, mirror.Event{Kind: mirror.EventSnapshotBegin, Frame: frame})
		for _, c := range snap.ActiveChunks {
			events = append(events, mirror.Event{Kind: mirror.EventChunkActivated, Frame: frame, Chunk: chunkFromWire(c)})
		}
		for _, s := range snap.Structures {
			events = append(events, mirror.Event{Kind: mirror.EventStructureSpawned, Frame: frame, Structure: structureFromWire(s)})
		}
		for _, e := range snap.Entities {
			events = append(events, mirror.Event{Kind: mirror.EventEntitySpawned, Frame: frame, Entity: entitySpawnedFromWire(e)})
		}
		events = append(events, mirror.Event{Kind: mirror.EventSnapshotEnd, Frame: frame})
		return events
	}

	return nil
}

func chunkFromWire(p protocol.ChunkActivated) mirror.Chunk {
	return mirror.Chunk{ChunkID: p.ChunkID, CX: p.CX, CY: p.CY, Seed: p.Seed, LOD: p.LOD, ChunkSize: p.ChunkSize}
}

func structureFromWire(p protocol.StructureSpawned) mirror.Structure {
	return mirror.Structure{
		StructureID: p.StructureID,
		TypeID:      p.TypeID,
		Position:    vec3(p.X, p.Y, p.Z),
		RotationY:   p.RotationY,
	}
}

func entitySpawnedFromWire(p protocol.EntitySpawned) mirror.Entity {
	return mirror.Entity{
		EntityID:  p.EntityID,
		Archetype: p.Archetype,
		Position:  vec3(p.X, p.Y, p.Z),
		RotationY: p.RotationY,
	}
}

func entityTransformFromWire(p protocol.EntityTransform) mirror.Entity {
	return mirror.Entity{
		EntityID:  p.EntityID,
		Position:  vec3(p.X, p.Y, p.Z),
		RotationY: p.RotationY,
		Velocity:  vec3(p.VX, p.VY, p.VZ),
		DT:        p.DT,
	}
}
