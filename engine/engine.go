// Package engine implements the Streaming Engine (WorldService): the
// authoritative per-tick reconciliation between participant activation
// windows, the terrain/structure world data, and the physics backend.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/chewxy/math32"

	"github.com/brinewood-games/worldstream/physics"
	"github.com/brinewood-games/worldstream/protocol"
	"github.com/brinewood-games/worldstream/structure"
	"github.com/brinewood-games/worldstream/types"
)

var logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)

// ErrBodyRegisterFailed wraps a physics.Adapter.RegisterBody failure during
// cell activation. The cell is left out of the active set and the next
// tick will retry it.
var ErrBodyRegisterFailed = errors.New("engine: body register failed")

// TickEvents is the per-tick delta produced by Tick, ordered for emission:
// all ChunkActivated, then all ChunkDeactivated, then all EntityTransform.
type TickEvents struct {
	Tick             uint64
	Activated        []protocol.ChunkActivated
	Deactivated      []protocol.ChunkDeactivated
	EntityTransforms []protocol.EntityTransform
}

// Engine is the authoritative per-tick state machine: it tracks which
// cells are active around each participant and activates and deactivates
// them by registering and unregistering terrain bodies. It does not step
// the physics adapter.
type Engine struct {
	config  types.Config
	world   *structure.World
	physics physics.Adapter

	mu                    sync.Mutex
	activeCells           map[types.CellCoord]struct{}
	terrainBodies         map[types.CellCoord]string
	cellObjects           map[types.CellCoord][]string
	participantPositions  map[string]types.Vec3
	tickCount             uint64
}

// New constructs an Engine bound to world and adapter, with the given
// config (see types.DefaultConfig for baseline tunables).
func New(config types.Config, world *structure.World, adapter physics.Adapter) *Engine {
	return &Engine{
		config:               config,
		world:                world,
		physics:              adapter,
		activeCells:          make(map[types.CellCoord]struct{}),
		terrainBodies:        make(map[types.CellCoord]string),
		cellObjects:          make(map[types.CellCoord][]string),
		participantPositions: make(map[string]types.Vec3),
	}
}

// RegisterParticipant inserts or overwrites a participant's position.
func (e *Engine) RegisterParticipant(id string, pos types.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.participantPositions[id] = pos
}

// UnregisterParticipant removes a participant. It does not itself deactivate
// cells; the next tick reconciles the active set.
func (e *Engine) UnregisterParticipant(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.participantPositions, id)
}

// ParticipantCount reports the number of currently tracked participants.
func (e *Engine) ParticipantCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.participantPositions)
}

// ChunkID renders a CellCoord in the wire format "{cx}:{cy}".
func ChunkID(c types.CellCoord) string {
	return fmt.Sprintf("%d:%d", c.X, c.Y)
}

func terrainBodyID(c types.CellCoord) string {
	return fmt.Sprintf("terrain.%d.%d", c.X, c.Y)
}

// Tick advances the engine by one step: syncs positions from physics,
// reconciles the active cell set, and collects entity transforms. The
// returned error is non-nil only if at least one cell activation's
// RegisterBody call failed; cells that did activate are still reflected in
// the returned TickEvents and in the active set — only the failed cells are
// held back for retry next tick.
func (e *Engine) Tick(ctx context.Context) (TickEvents, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tickCount++

	e.syncPositionsFromPhysics(ctx)

	desired := e.computeDesiredCells()

	var deactivated []protocol.ChunkDeactivated
	for cell := range e.activeCells {
		if _, stillDesired := desired[cell]; stillDesired {
			continue
		}
		e.deactivateCell(ctx, cell)
		deactivated = append(deactivated, protocol.ChunkDeactivated{ChunkID: ChunkID(cell)})
	}

	var activated []protocol.ChunkActivated
	var activationErr error
	for cell := range desired {
		if _, alreadyActive := e.activeCells[cell]; alreadyActive {
			continue
		}
		chunkActivated, err := e.activateCell(ctx, cell)
		if err != nil {
			logger.Printf("activate cell %s: %v", cell, err)
			activationErr = fmt.Errorf("%w: cell %s: %v", ErrBodyRegisterFailed, cell, err)
			continue
		}
		activated = append(activated, chunkActivated)
	}

	for _, pos := range e.participantPositions {
		e.evictTerrainCacheLocked(pos, e.config.EvictionMargin)
	}

	transforms := make([]protocol.EntityTransform, 0, len(e.participantPositions))
	for id, pos := range e.participantPositions {
		transforms = append(transforms, protocol.EntityTransform{
			EntityID:  id,
			X:         pos.X,
			Y:         pos.Y,
			Z:         pos.Z,
			RotationY: 0,
			VX:        0,
			VY:        0,
			VZ:        0,
			DT:        0,
		})
	}

	return TickEvents{
		Tick:             e.tickCount,
		Activated:        activated,
		Deactivated:      deactivated,
		EntityTransforms: transforms,
	}, activationErr
}

func (e *Engine) syncPositionsFromPhysics(ctx context.Context) {
	for id, pos := range e.participantPositions {
		t, err := e.physics.ReadTransform(ctx, id)
		if err != nil {
			continue // no dynamic body yet; keep cached position
		}
		pos = t.Position
		e.participantPositions[id] = pos
	}
}

func (e *Engine) computeDesiredCells() map[types.CellCoord]struct{} {
	desired := make(map[types.CellCoord]struct{})
	r := e.config.ActivationRadius
	for _, pos := range e.participantPositions {
		cx := int32(math32.Floor(pos.X / e.config.CellSize))
		cy := int32(math32.Floor(pos.Y / e.config.CellSize))
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				desired[types.CellCoord{X: cx + dx, Y: cy + dy, Z: 0}] = struct{}{}
			}
		}
	}
	return desired
}

// deactivateCell unregisters the terrain body and any cell-object bodies
// for cell. Per-body unregister failures are logged and swallowed — the
// cell is always removed from active_cells since unregistering an already
// unregistered body is a harmless no-op on the next attempt.
func (e *Engine) deactivateCell(ctx context.Context, cell types.CellCoord) {
	if bodyID, ok := e.terrainBodies[cell]; ok {
		if err := e.physics.UnregisterBody(ctx, bodyID); err != nil {
			logger.Printf("unregister terrain body %s: %v", bodyID, err)
		}
		delete(e.terrainBodies, cell)
	}
	for _, bodyID := range e.cellObjects[cell] {
		if err := e.physics.UnregisterBody(ctx, bodyID); err != nil {
			logger.Printf("unregister object body %s: %v", bodyID, err)
		}
	}
	delete(e.cellObjects, cell)
	delete(e.activeCells, cell)
}

// activateCell builds a heightfield collider (degrading to Box if the
// terrain can't supply one) and registers a static terrain body for cell.
func (e *Engine) activateCell(ctx context.Context, cell types.CellCoord) (protocol.ChunkActivated, error) {
	const lod = 0

	collider, ok := e.world.Terrain.HeightfieldCollider(cell.X, cell.Y, lod)
	if !ok {
		collider = physics.ColliderShape{
			Kind: physics.ColliderBox,
			Box: physics.BoxCollider{
				HalfExtents: types.NewVec3(e.config.CellSize/2, e.config.CellSize/2, 0),
			},
		}
	}

	bodyID := terrainBodyID(cell)
	err := e.physics.RegisterBody(ctx, physics.BodyParams{
		ID:       bodyID,
		Kind:     "terrain",
		Position: types.NewVec3(float32(cell.X)*e.config.CellSize, float32(cell.Y)*e.config.CellSize, 0),
		Collider: collider,
		Static:   true,
	})
	if err != nil {
		return protocol.ChunkActivated{}, err
	}

	e.terrainBodies[cell] = bodyID
	e.activeCells[cell] = struct{}{}

	return protocol.ChunkActivated{
		ChunkID:   ChunkID(cell),
		CX:        cell.X,
		CY:        cell.Y,
		Seed:      e.config.WorldSeed,
		LOD:       lod,
		ChunkSize: e.config.CellSize,
	}, nil
}

// BuildSnapshot enumerates current active cells, all structures, and all
// participants into a full-state hydration payload. The session argument
// is not used: the snapshot payload carries no session field, and the bus
// agent replies with the snapshot as-is, without an envelope.
func (e *Engine) BuildSnapshot(session string) protocol.WorldSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	chunks := make([]protocol.ChunkActivated, 0, len(e.activeCells))
	for cell := range e.activeCells {
		chunks = append(chunks, protocol.ChunkActivated{
			ChunkID:   ChunkID(cell),
			CX:        cell.X,
			CY:        cell.Y,
			Seed:      e.config.WorldSeed,
			LOD:       0,
			ChunkSize: e.config.CellSize,
		})
	}

	const inf = float32(1e30)
	var structures []protocol.StructureSpawned
	for _, inst := range e.world.Structures.QueryRect(-inf, -inf, inf, inf) {
		structures = append(structures, protocol.StructureSpawned{
			StructureID: inst.ID,
			TypeID:      inst.TypeID,
			X:           inst.Position.X,
			Y:           inst.Position.Y,
			Z:           inst.Position.Z,
			RotationY:   inst.RotationY,
			Metadata:    inst.Metadata,
		})
	}

	entities := make([]protocol.EntitySpawned, 0, len(e.participantPositions))
	for id, pos := range e.participantPositions {
		entities = append(entities, protocol.EntitySpawned{
			EntityID:  id,
			Archetype: "participant",
			X:         pos.X,
			Y:         pos.Y,
			Z:         pos.Z,
		})
	}

	return protocol.WorldSnapshot{
		ActiveChunks: chunks,
		Structures:   structures,
		Entities:     entities,
	}
}

// Stats reports current engine-wide counters.
func (e *Engine) Stats() types.WorldStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	totalObjects := 0
	for _, bodies := range e.cellObjects {
		totalObjects += len(bodies)
	}
	totalObjects += len(e.terrainBodies)

	return types.WorldStats{
		ActiveCells:         len(e.activeCells),
		TotalObjects:        totalObjects,
		TrackedParticipants: len(e.participantPositions),
		TotalTicks:          e.tickCount,
	}
}

// EvictTerrainCache calls the terrain source's cache eviction if it
// supports it, centered on the cell containing centerPos, with radius
// activation_radius+margin. Tick calls this once per tracked participant
// every tick so the cache doesn't grow without bound as participants roam;
// exported so callers driving the engine directly (tests, tools) can also
// trigger it out of band.
func (e *Engine) EvictTerrainCache(centerPos types.Vec3, margin int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evictTerrainCacheLocked(centerPos, margin)
}

// evictTerrainCacheLocked is EvictTerrainCache's body, callable from within
// a section that already holds e.mu (Tick).
func (e *Engine) evictTerrainCacheLocked(centerPos types.Vec3, margin int32) {
	evictor, ok := e.world.Terrain.(interface {
		EvictDistantChunks(cx, cy, maxChunks int32)
	})
	if !ok {
		return
	}
	cx := int32(math32.Floor(centerPos.X / e.config.CellSize))
	cy := int32(math32.Floor(centerPos.Y / e.config.CellSize))
	evictor.EvictDistantChunks(cx, cy, e.config.ActivationRadius+margin)
}
