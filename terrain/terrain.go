// Package terrain generates and caches the heightfield chunks the engine
// streams to participants. Chunk generation is deterministic in (seed, cx,
// cy, lod) so two servers with the same seed produce identical terrain
// without ever transmitting raw heightmap data across the wire (see
// protocol.ChunkActivated, which carries only the seed).
package terrain

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"

	"github.com/brinewood-games/worldstream/physics"
	"github.com/brinewood-games/worldstream/terrain/noise"
	"github.com/brinewood-games/worldstream/types"
)

// Source is the capability surface the engine needs from a terrain
// implementation. HeightfieldCollider is the capability method that
// replaces an as-any downcast: callers that need collision geometry ask for
// it directly instead of type-asserting down to a concrete terrain type.
type Source interface {
	HeightAt(x, y float32) float32
	NormalAt(x, y float32) types.Vec3
	HeightfieldCollider(cx, cy int32, lod uint8) (physics.ColliderShape, bool)
}

// HeightChunk is one generated, cached tile of terrain.
type HeightChunk struct {
	CX, CY     int32
	LOD        uint8
	Resolution int
	CellSize   float32
	Heights    []float32 // row-major, Resolution*Resolution
}

type chunkKey struct {
	cx, cy int32
	lod    uint8
}

// HeightmapTerrain is the default Source: deterministic Perlin-backed
// heightfields, chunked and LOD-cached.
type HeightmapTerrain struct {
	seed           int64
	chunkSize      float32
	baseResolution int
	gen            *noise.Generator

	mu    sync.RWMutex
	cache map[chunkKey]*HeightChunk
}

// NewHeightmapTerrain constructs a terrain source for the given world seed.
// chunkSize is the world-space width of a chunk at LOD 0; baseResolution is
// the sample-grid resolution at LOD 0 (halved per LOD step, floored at 4).
func NewHeightmapTerrain(seed int64, chunkSize float32, baseResolution int) *HeightmapTerrain {
	return &HeightmapTerrain{
		seed:           seed,
		chunkSize:      chunkSize,
		baseResolution: baseResolution,
		gen:            noise.NewGenerator(seed),
		cache:          make(map[chunkKey]*HeightChunk),
	}
}

// ChunkCoord maps a world position to the chunk that contains it.
func (t *HeightmapTerrain) ChunkCoord(x, y float32) (int32, int32) {
	cx := int32(math32.Floor(x / t.chunkSize))
	cy := int32(math32.Floor(y / t.chunkSize))
	return cx, cy
}

// LODForDistance picks the level of detail for a chunk at the given
// distance from a participant: < 100 -> 0, < 300 -> 1, else -> 2.
func LODForDistance(distance float32) uint8 {
	switch {
	case distance < 100:
		return 0
	case distance < 300:
		return 1
	default:
		return 2
	}
}

// GetOrGenerateChunk returns the cached chunk for (cx, cy, lod), generating
// and caching it on first request.
func (t *HeightmapTerrain) GetOrGenerateChunk(cx, cy int32, lod uint8) *HeightChunk {
	key := chunkKey{cx, cy, lod}

	t.mu.RLock()
	if c, ok := t.cache[key]; ok {
		t.mu.RUnlock()
		return c
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.cache[key]; ok {
		return c
	}
	c := t.generateChunk(cx, cy, lod)
	t.cache[key] = c
	return c
}

func (t *HeightmapTerrain) generateChunk(cx, cy int32, lod uint8) *HeightChunk {
	resolution := t.baseResolution >> lod
	if resolution < 4 {
		resolution = 4
	}
	cellSize := t.chunkSize / float32(resolution)

	heights := make([]float32, resolution*resolution)
	originX := float32(cx) * t.chunkSize
	originY := float32(cy) * t.chunkSize
	for row := 0; row < resolution; row++ {
		for col := 0; col < resolution; col++ {
			wx := originX + float32(col)*cellSize
			wy := originY + float32(row)*cellSize
			heights[row*resolution+col] = t.gen.SampleHeight(wx, wy)
		}
	}

	return &HeightChunk{
		CX:         cx,
		CY:         cy,
		LOD:        lod,
		Resolution: resolution,
		CellSize:   cellSize,
		Heights:    heights,
	}
}

// EvictDistantChunks drops cached chunks whose Chebyshev distance (in chunk
// units) from (centerCX, centerCY) exceeds maxChunks. Engine.Tick calls this
// every tick, once per tracked participant, to bound cache growth as
// participants roam.
func (t *HeightmapTerrain) EvictDistantChunks(centerCX, centerCY, maxChunks int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.cache {
		dx := absInt32(key.cx - centerCX)
		dy := absInt32(key.cy - centerCY)
		if dx > maxChunks || dy > maxChunks {
			delete(t.cache, key)
		}
	}
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// HeightAt looks up the LOD 0 chunk containing (x, y) and samples its
// nearest grid cell, clamping the local index to the chunk's bounds so
// positions on or past the far edge still resolve. This keeps HeightAt
// consistent with HeightfieldCollider, which serves colliders out of the
// same cached, quantized grid rather than continuous noise.
func (t *HeightmapTerrain) HeightAt(x, y float32) float32 {
	cx, cy := t.ChunkCoord(x, y)
	chunk := t.GetOrGenerateChunk(cx, cy, 0)

	localX := x - float32(cx)*t.chunkSize
	localY := y - float32(cy)*t.chunkSize

	gx := clampF(localX/chunk.CellSize, 0, float32(chunk.Resolution-1))
	gy := clampF(localY/chunk.CellSize, 0, float32(chunk.Resolution-1))

	ix := int(math32.Floor(gx))
	iy := int(math32.Floor(gy))

	return chunk.Heights[iy*chunk.Resolution+ix]
}

func clampF(v, lo, hi float32) float32 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// NormalAt computes a finite-difference surface normal from HeightAt
// samples using a central-difference scheme with a 0.5-unit step.
func (t *HeightmapTerrain) NormalAt(x, y float32) types.Vec3 {
	const eps = 0.5
	hL := t.HeightAt(x-eps, y)
	hR := t.HeightAt(x+eps, y)
	hD := t.HeightAt(x, y-eps)
	hU := t.HeightAt(x, y+eps)
	n := types.NewVec3(hL-hR, hD-hU, 2.0*eps)
	length := n.Length()
	if length == 0 {
		return types.NewVec3(0, 1, 0)
	}
	return n.Scale(1.0 / length)
}

// HeightfieldCollider returns the collider for a chunk, generating it if
// necessary. It always succeeds for HeightmapTerrain (ok is always true);
// the bool return exists because Source is an interface other terrain
// implementations may satisfy only partially, degrading to a Box collider
// for chunks they cannot build a heightfield for.
func (t *HeightmapTerrain) HeightfieldCollider(cx, cy int32, lod uint8) (physics.ColliderShape, bool) {
	chunk := t.GetOrGenerateChunk(cx, cy, lod)
	return physics.ColliderShape{
		Kind: physics.ColliderHeightfield,
		Height: physics.HeightfieldCollider{
			Width:    chunk.Resolution,
			Height:   chunk.Resolution,
			CellSize: chunk.CellSize,
			Samples:  chunk.Heights,
		},
	}, true
}

func (t *HeightmapTerrain) String() string {
	return fmt.Sprintf("HeightmapTerrain(seed=%d, chunkSize=%g)", t.seed, t.chunkSize)
}
