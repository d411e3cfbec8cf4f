// Package physics defines the boundary between worldstream's streaming
// engine and an external physics backend. The engine treats the backend as
// a collaborator it drives, never a library it embeds — it registers and
// unregisters bodies and reads transforms back, and nothing more.
package physics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/brinewood-games/worldstream/types"
)

// ErrNoBody is returned by ReadTransform and Unregister when the given body
// id is not currently registered.
var ErrNoBody = errors.New("physics: no such body")

// ColliderShape describes the collision geometry handed to the backend when
// registering a body. Heightfield is the terrain-accurate shape; Box is the
// degrade-to-box fallback used when the terrain source reports it cannot
// supply a heightfield for a chunk (see terrain.Source.HeightfieldCollider).
type ColliderShape struct {
	Kind   ColliderKind
	Box    BoxCollider
	Height HeightfieldCollider
}

type ColliderKind uint8

const (
	ColliderBox ColliderKind = iota
	ColliderHeightfield
)

type BoxCollider struct {
	HalfExtents types.Vec3
}

// HeightfieldCollider carries the raw sample grid for a terrain chunk plus
// the spacing between samples, enough for a backend to build its own
// heightfield shape without re-sampling the noise function.
type HeightfieldCollider struct {
	Width, Height int
	CellSize      float32
	Samples       []float32
}

// BodyParams is what the engine hands the backend when activating a cell or
// spawning an entity-backed body.
type BodyParams struct {
	ID       string
	Kind     string
	Position types.Vec3
	Collider ColliderShape
	Static   bool
}

// Transform is a body's current kinematic state, read back once per tick.
type Transform struct {
	Position types.Vec3
	Velocity types.Vec3
	RotationY float32
}

// Adapter is the interface the engine drives. An external physics backend
// implements this; worldstream ships Reference as a runnable, testable
// in-memory stand-in.
type Adapter interface {
	RegisterBody(ctx context.Context, params BodyParams) error
	UnregisterBody(ctx context.Context, id string) error
	Step(ctx context.Context, dt float32) error
	ReadTransform(ctx context.Context, id string) (Transform, error)
}

// Reference is a minimal in-memory Adapter: static bodies never move,
// dynamic bodies move only by Step's velocity integration or by a
// transform pushed directly via SetTransform; there is no collision. It
// exists so the engine can run and be tested without a real physics
// backend wired in.
type Reference struct {
	mu     sync.RWMutex
	bodies map[string]*referenceBody
}

type referenceBody struct {
	params    BodyParams
	transform Transform
}

func NewReference() *Reference {
	return &Reference{bodies: make(map[string]*referenceBody)}
}

func (r *Reference) RegisterBody(_ context.Context, params BodyParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies[params.ID] = &referenceBody{
		params:    params,
		transform: Transform{Position: params.Position},
	}
	return nil
}

func (r *Reference) UnregisterBody(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bodies[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNoBody, id)
	}
	delete(r.bodies, id)
	return nil
}

// Step advances dynamic bodies by their current velocity. Static bodies are
// untouched.
func (r *Reference) Step(_ context.Context, dt float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bodies {
		if b.params.Static {
			continue
		}
		b.transform.Position = b.transform.Position.Add(b.transform.Velocity.Scale(dt))
	}
	return nil
}

func (r *Reference) ReadTransform(_ context.Context, id string) (Transform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bodies[id]
	if !ok {
		return Transform{}, fmt.Errorf("%w: %s", ErrNoBody, id)
	}
	return b.transform, nil
}

// SetTransform lets a test (or a driving subsystem that owns a participant's
// real movement) push a transform directly, bypassing Step's velocity
// integration.
func (r *Reference) SetTransform(id string, t Transform) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoBody, id)
	}
	b.transform = t
	return nil
}
