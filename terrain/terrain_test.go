package terrain

import "testing"

func TestLODForDistance(t *testing.T) {
	cases := []struct {
		distance float32
		want     uint8
	}{
		{0, 0},
		{99, 0},
		{100, 1},
		{299, 1},
		{300, 2},
		{10000, 2},
	}
	for _, c := range cases {
		if got := LODForDistance(c.distance); got != c.want {
			t.Errorf("LODForDistance(%v) = %d, want %d", c.distance, got, c.want)
		}
	}
}

func TestGetOrGenerateChunkIsCached(t *testing.T) {
	terr := NewHeightmapTerrain(42, 32, 16)
	a := terr.GetOrGenerateChunk(0, 0, 0)
	b := terr.GetOrGenerateChunk(0, 0, 0)
	if a != b {
		t.Fatalf("expected same chunk pointer from cache, got distinct chunks")
	}
	if a.Resolution != 16 {
		t.Errorf("expected resolution 16 at lod 0, got %d", a.Resolution)
	}
}

func TestGetOrGenerateChunkResolutionDegradesWithLOD(t *testing.T) {
	terr := NewHeightmapTerrain(42, 32, 16)
	c0 := terr.GetOrGenerateChunk(0, 0, 0)
	c1 := terr.GetOrGenerateChunk(0, 0, 1)
	c2 := terr.GetOrGenerateChunk(0, 0, 2)
	if c0.Resolution != 16 || c1.Resolution != 8 || c2.Resolution != 4 {
		t.Fatalf("unexpected resolutions: lod0=%d lod1=%d lod2=%d", c0.Resolution, c1.Resolution, c2.Resolution)
	}
}

func TestGetOrGenerateChunkResolutionFloorsAtFour(t *testing.T) {
	terr := NewHeightmapTerrain(42, 32, 4)
	c := terr.GetOrGenerateChunk(0, 0, 3)
	if c.Resolution != 4 {
		t.Errorf("expected resolution floor of 4, got %d", c.Resolution)
	}
}

func TestEvictDistantChunks(t *testing.T) {
	terr := NewHeightmapTerrain(42, 32, 16)
	terr.GetOrGenerateChunk(0, 0, 0)
	terr.GetOrGenerateChunk(10, 10, 0)
	terr.GetOrGenerateChunk(1, 1, 0)

	terr.EvictDistantChunks(0, 0, 2)

	if len(terr.cache) != 2 {
		t.Fatalf("expected 2 chunks to survive eviction, got %d", len(terr.cache))
	}
	if _, ok := terr.cache[chunkKey{10, 10, 0}]; ok {
		t.Errorf("expected distant chunk to be evicted")
	}
}

func TestChunkCoord(t *testing.T) {
	terr := NewHeightmapTerrain(42, 10, 16)
	cx, cy := terr.ChunkCoord(15, -5)
	if cx != 1 || cy != -1 {
		t.Errorf("ChunkCoord(15, -5) = (%d, %d), want (1, -1)", cx, cy)
	}
}

func TestHeightfieldColliderAlwaysOK(t *testing.T) {
	terr := NewHeightmapTerrain(42, 32, 16)
	shape, ok := terr.HeightfieldCollider(0, 0, 0)
	if !ok {
		t.Fatalf("expected HeightmapTerrain to always produce a heightfield collider")
	}
	if len(shape.Height.Samples) != 16*16 {
		t.Errorf("expected %d samples, got %d", 16*16, len(shape.Height.Samples))
	}
}

func TestHeightAtMatchesCachedChunkSample(t *testing.T) {
	terr := NewHeightmapTerrain(42, 32, 16)
	x, y := float32(5), float32(7)

	got := terr.HeightAt(x, y)

	cx, cy := terr.ChunkCoord(x, y)
	chunk := terr.GetOrGenerateChunk(cx, cy, 0)
	localX := x - float32(cx)*terr.chunkSize
	localY := y - float32(cy)*terr.chunkSize
	gx := clampF(localX/chunk.CellSize, 0, float32(chunk.Resolution-1))
	gy := clampF(localY/chunk.CellSize, 0, float32(chunk.Resolution-1))
	want := chunk.Heights[int(gy)*chunk.Resolution+int(gx)]

	if got != want {
		t.Errorf("HeightAt(%v, %v) = %v, want cached grid sample %v", x, y, got, want)
	}
}

func TestClampFBoundsToRange(t *testing.T) {
	if got := clampF(-1, 0, 15); got != 0 {
		t.Errorf("clampF(-1, 0, 15) = %v, want 0", got)
	}
	if got := clampF(16, 0, 15); got != 15 {
		t.Errorf("clampF(16, 0, 15) = %v, want 15", got)
	}
	if got := clampF(8, 0, 15); got != 8 {
		t.Errorf("clampF(8, 0, 15) = %v, want 8", got)
	}
}

func TestHeightAtDoesNotPanicAtChunkBoundary(t *testing.T) {
	terr := NewHeightmapTerrain(42, 32, 16)
	// Exactly on a chunk boundary: chunk_coord rounds this into chunk
	// (1, 0), and the local index must clamp into [0, resolution-1]
	// rather than read out of bounds.
	terr.HeightAt(32, 0)
}

func TestNormalAtIsUnitLength(t *testing.T) {
	terr := NewHeightmapTerrain(42, 32, 16)
	n := terr.NormalAt(5, 5)
	length := n.Length()
	if length < 0.99 || length > 1.01 {
		t.Errorf("expected unit-length normal, got length %v", length)
	}
}
