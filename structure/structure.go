// Package structure holds static world objects (trees, rocks, buildings)
// and the rectangle query the engine uses to list them in snapshots.
package structure

import (
	"fmt"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/brinewood-games/worldstream/terrain"
	"github.com/brinewood-games/worldstream/types"
)

// Instance is one placed static structure.
type Instance struct {
	ID          string
	TypeID      string
	Position    types.Vec3
	RotationY   float32
	BoundsRadius float32
	Metadata    map[string]string
}

// Registry indexes placed structures for rectangle-overlap queries against
// their axis-aligned bounds.
type Registry struct {
	mu         sync.RWMutex
	instances  map[string]Instance
}

func NewRegistry() *Registry {
	return &Registry{instances: make(map[string]Instance)}
}

// Insert adds or replaces a structure. If inst.ID is empty, one is minted.
func (r *Registry) Insert(inst Instance) (string, error) {
	if inst.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return "", fmt.Errorf("structure: mint id: %w", err)
		}
		inst.ID = id.String()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[inst.ID] = inst
	return inst.ID, nil
}

func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[id]; !ok {
		return false
	}
	delete(r.instances, id)
	return true
}

func (r *Registry) Get(id string) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	return inst, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

func (r *Registry) IsEmpty() bool {
	return r.Len() == 0
}

// QueryRect returns every structure whose bounding circle overlaps the
// given axis-aligned rectangle on the XY plane. Bounds of +/-Inf, or very
// large finite bounds such as the +/-1e30 BuildSnapshot passes, select
// everything.
func (r *Registry) QueryRect(minX, minY, maxX, maxY float32) []Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Instance
	for _, inst := range r.instances {
		radius := inst.BoundsRadius
		if inst.Position.X+radius >= minX && inst.Position.X-radius <= maxX &&
			inst.Position.Y+radius >= minY && inst.Position.Y-radius <= maxY {
			out = append(out, inst)
		}
	}
	return out
}

// World aggregates a terrain source with its structure registry, the unit
// the engine drives for a single streamed world.
type World struct {
	Terrain    terrain.Source
	Structures *Registry
}

func NewWorld(t terrain.Source) *World {
	return &World{Terrain: t, Structures: NewRegistry()}
}
