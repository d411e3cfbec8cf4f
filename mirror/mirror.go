// Package mirror implements the Client Mirror: a single-writer local cache
// of active chunks, structures, and entities, kept current by applying the
// protocol event stream.
package mirror

import (
	"github.com/brinewood-games/worldstream/types"
)

// Chunk is a cached terrain chunk descriptor.
type Chunk struct {
	ChunkID   string
	CX, CY    int32
	Seed      int64
	LOD       uint8
	ChunkSize float32
}

// Structure is a cached static structure.
type Structure struct {
	StructureID string
	TypeID      string
	Position    types.Vec3
	RotationY   float32
}

// Entity is a cached dynamic entity, including the velocity needed for
// dead-reckoning between authoritative transforms.
type Entity struct {
	EntityID  string
	Archetype string
	Position  types.Vec3
	RotationY float32
	Velocity  types.Vec3
	Frame     uint64
	DT        float32
}

// Extrapolated returns the entity's dead-reckoned position elapsed seconds
// beyond its last known transform: p + v*elapsed.
func (e Entity) Extrapolated(elapsed float32) types.Vec3 {
	return e.Position.Add(e.Velocity.Scale(elapsed))
}

// Cache is the local world-state mirror. It's only ever touched from one
// goroutine — the render/consumer loop that owns it — so it carries no
// internal locking, matching the single-writer assumption cache.rs states
// explicitly for its JS-main-thread usage.
type Cache struct {
	Chunks     map[string]Chunk
	Structures map[string]Structure
	Entities   map[string]Entity
	LastFrame  uint64
	InSnapshot bool
}

func NewCache() *Cache {
	return &Cache{
		Chunks:     make(map[string]Chunk),
		Structures: make(map[string]Structure),
		Entities:   make(map[string]Entity),
	}
}

func (c *Cache) ActivateChunk(chunk Chunk) {
	c.Chunks[chunk.ChunkID] = chunk
}

func (c *Cache) DeactivateChunk(chunkID string) {
	delete(c.Chunks, chunkID)
}

func (c *Cache) IsChunkActive(chunkID string) bool {
	_, ok := c.Chunks[chunkID]
	return ok
}

func (c *Cache) SpawnStructure(s Structure) {
	c.Structures[s.StructureID] = s
}

func (c *Cache) RemoveStructure(structureID string) {
	delete(c.Structures, structureID)
}

func (c *Cache) SpawnEntity(e Entity) {
	c.Entities[e.EntityID] = e
}

func (c *Cache) RemoveEntity(entityID string) {
	delete(c.Entities, entityID)
}

// UpdateEntityTransform overwrites a cached entity's kinematic state. A
// missing entity id is a no-op, matching cache.rs's update_entity_transform.
func (c *Cache) UpdateEntityTransform(entityID string, pos types.Vec3, rotationY float32, vel types.Vec3, frame uint64, dt float32) {
	e, ok := c.Entities[entityID]
	if !ok {
		return
	}
	e.Position = pos
	e.RotationY = rotationY
	e.Velocity = vel
	e.Frame = frame
	e.DT = dt
	c.Entities[entityID] = e

	if frame > c.LastFrame {
		c.LastFrame = frame
	}
}

func (c *Cache) ChunkCount() int     { return len(c.Chunks) }
func (c *Cache) StructureCount() int { return len(c.Structures) }
func (c *Cache) EntityCount() int    { return len(c.Entities) }

// Extrapolate returns the dead-reckoned position of entityID elapsed
// seconds beyond its last known transform, or the zero vector if unknown.
func (c *Cache) Extrapolate(entityID string, elapsed float32) types.Vec3 {
	e, ok := c.Entities[entityID]
	if !ok {
		return types.Vec3{}
	}
	return e.Extrapolated(elapsed)
}

// Clear resets all state, called on disconnect.
func (c *Cache) Clear() {
	c.Chunks = make(map[string]Chunk)
	c.Structures = make(map[string]Structure)
	c.Entities = make(map[string]Entity)
	c.LastFrame = 0
	c.InSnapshot = false
}
