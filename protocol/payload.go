// Package protocol defines the wire schemas and subject namespace that join
// the streaming engine to the bus and to clients, plus the NATS-style line
// codec shared by both bridges.
package protocol

import (
	jsoniter "github.com/json-iterator/go"
)

// json is jsoniter configured for drop-in compatibility with encoding/json;
// worldstream's payload types are plain structs with standard json tags, so
// no custom field/type encoders are registered.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope wraps every published message. Clients must also tolerate an
// unwrapped payload object (frame=0, payload=whole object).
type Envelope struct {
	Session string              `json:"session"`
	Frame   uint64              `json:"frame"`
	Payload jsoniter.RawMessage `json:"payload"`
}

// Wrap marshals payload and wraps it in an Envelope ready to publish.
func Wrap(session string, frame uint64, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Session: session, Frame: frame, Payload: raw}, nil
}

// ChunkActivated is published when the engine registers a terrain body for
// a newly active cell.
type ChunkActivated struct {
	ChunkID   string  `json:"chunk_id"`
	CX        int32   `json:"cx"`
	CY        int32   `json:"cy"`
	Seed      int64   `json:"seed"`
	LOD       uint8   `json:"lod"`
	ChunkSize float32 `json:"chunk_size"`
}

// ChunkDeactivated is published when a cell drops out of the active set.
type ChunkDeactivated struct {
	ChunkID string `json:"chunk_id"`
}

// StructureSpawned is reserved wire surface; the current tick loop does not
// emit it.
type StructureSpawned struct {
	StructureID string                 `json:"structure_id"`
	TypeID      string                 `json:"type_id"`
	X           float32                `json:"x"`
	Y           float32                `json:"y"`
	Z           float32                `json:"z"`
	RotationY   float32                `json:"rotation_y"`
	Metadata    map[string]string      `json:"metadata,omitempty"`
}

// StructureRemoved is reserved wire surface, not emitted by the tick loop.
type StructureRemoved struct {
	StructureID string `json:"structure_id"`
}

// EntitySpawned is reserved wire surface; build_snapshot uses it with
// archetype "participant" to hydrate participants into a fresh mirror.
type EntitySpawned struct {
	EntityID  string            `json:"entity_id"`
	Archetype string            `json:"archetype"`
	X         float32           `json:"x"`
	Y         float32           `json:"y"`
	Z         float32           `json:"z"`
	RotationY float32           `json:"rotation_y"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EntityRemoved is reserved wire surface, not emitted by the tick loop.
type EntityRemoved struct {
	EntityID string `json:"entity_id"`
}

// EntityTransform carries a participant's authoritative position every
// tick. It has no frame field of its own — frame is sourced from the
// envelope that wraps it.
type EntityTransform struct {
	EntityID  string  `json:"entity_id"`
	X         float32 `json:"x"`
	Y         float32 `json:"y"`
	Z         float32 `json:"z"`
	RotationY float32 `json:"rotation_y"`
	VX        float32 `json:"vx"`
	VY        float32 `json:"vy"`
	VZ        float32 `json:"vz"`
	DT        float32 `json:"dt"`
}

// WorldSnapshot is the full-state hydration payload returned by
// world.cmd.snapshot. Not an event envelope payload in the usual sense —
// the caller wraps it in a reply, not a publish.
type WorldSnapshot struct {
	ActiveChunks []ChunkActivated   `json:"active_chunks"`
	Structures   []StructureSpawned `json:"structures"`
	Entities     []EntitySpawned    `json:"entities"`
}

// WorldStats is the reply payload for world.cmd.stats / world.command.stats.
type WorldStats struct {
	ActiveCells         int    `json:"active_cells"`
	TotalObjects        int    `json:"total_objects"`
	TrackedParticipants int    `json:"tracked_participants"`
	TotalTicks          uint64 `json:"total_ticks"`
}

// ConnectionState is the client-visible connection lifecycle published on
// world.connection.status.
type ConnectionState string

const (
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionHandshaking  ConnectionState = "handshaking"
	ConnectionActive       ConnectionState = "active"
	ConnectionDegraded     ConnectionState = "degraded"
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionError        ConnectionState = "error"
)

// ConnectionStatus is the payload published on world.connection.status.
type ConnectionStatus struct {
	State         ConnectionState `json:"state"`
	Session       string          `json:"session"`
	ParticipantID string          `json:"participant_id"`
	Error         string          `json:"error,omitempty"`
	Frame         uint64          `json:"frame"`
}

// Intent payloads, client/coordinator -> server, request/reply.
type IntentMove struct {
	ID string  `json:"id"`
	DX float32 `json:"dx"`
	DY float32 `json:"dy"`
	DZ float32 `json:"dz"`
}

type IntentInteract struct {
	ID       string `json:"id"`
	TargetID string `json:"target_id"`
	Verb     string `json:"verb"`
}

type IntentTeleport struct {
	ID string  `json:"id"`
	X  float32 `json:"x"`
	Y  float32 `json:"y"`
	Z  float32 `json:"z"`
}

type IntentViewRadius struct {
	ID     string  `json:"id"`
	Radius float32 `json:"radius"`
}

type CmdStats struct{}

type CmdRequestSnapshot struct {
	ID     string  `json:"id"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Z      float32 `json:"z"`
	Radius float32 `json:"radius"`
}

// Management payloads, coordinator -> server.
type ParticipantJoin struct {
	ID string  `json:"id"`
	X  float32 `json:"x"`
	Y  float32 `json:"y"`
	Z  float32 `json:"z"`
}

type ParticipantLeave struct {
	ID string `json:"id"`
}

type CommandTeleport struct {
	ID string  `json:"id"`
	X  float32 `json:"x"`
	Y  float32 `json:"y"`
	Z  float32 `json:"z"`
}
