// Package types holds the plain value types shared across worldstream's
// packages: vectors, cell coordinates, config, and stats. It imports no other
// worldstream package, so every other package can import it without cycles.
package types

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Vec3 is a float32 3D vector; float32 throughout rather than Go's default
// float64 keeps this consistent with the physics and terrain math it feeds.
type Vec3 struct {
	X, Y, Z float32
}

func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// CellCoord identifies a streamed world cell on the XY grid. Z is reserved
// for future vertical partitioning and is always 0 in this engine.
type CellCoord struct {
	X, Y, Z int32
}

func (c CellCoord) String() string {
	return fmt.Sprintf("[%d,%d,%d]", c.X, c.Y, c.Z)
}

// ChebyshevDistance returns the Chebyshev (chessboard) distance between two
// cells on the XY plane, the metric the engine uses for its activation disc.
func (c CellCoord) ChebyshevDistance(o CellCoord) int32 {
	dx := absInt32(c.X - o.X)
	dy := absInt32(c.Y - o.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// WorldObject is a simple record of a physics body's kind and state. The
// engine's stats and snapshots do not use it; they report WorldStats and
// protocol payloads.
type WorldObject struct {
	ID         string
	Kind       string
	Position   Vec3
	Properties map[string]string
}

// WorldStats summarizes engine state for the stats command and /metrics.
type WorldStats struct {
	ActiveCells         int
	TotalObjects        int
	TrackedParticipants int
	TotalTicks          uint64
}

// Config carries the world-service tunables loaded as environment
// variables by the config package.
type Config struct {
	CellSize         float32
	ActivationRadius int32
	WorldSeed        int64
	TreeDensity      float32
	PhysicsDt        float32
	EvictionMargin   int32
}

// DefaultConfig returns the baseline tunables used when no environment
// override is set.
func DefaultConfig() Config {
	return Config{
		CellSize:         10.0,
		ActivationRadius: 16,
		WorldSeed:        42,
		TreeDensity:      0.02,
		PhysicsDt:        1.0 / 30.0,
		EvictionMargin:   4,
	}
}
