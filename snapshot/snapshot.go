// Package snapshot renders a top-down PNG of a world's terrain and placed
// structures: sample a grid through terrain.Source.HeightAt, bucket each
// sample by height band, lerp between band colors, and overlay structure
// positions as markers. The result is what cloud.Cloud.UploadWorldSnapshot
// publishes periodically.
package snapshot

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/brinewood-games/worldstream/structure"
)

// band is one height threshold and the color terrain at or below it lerps
// towards: ocean, shallow water, sand, grass, rock, snow, tuned to
// noise.Generator's roughly [-20, 20] output range.
type band struct {
	level float32
	color colorVec
}

type colorVec [3]float32

var bands = []band{
	{level: -20, color: colorVec{0, 0.2, 0.45}},  // deep ocean
	{level: -5, color: colorVec{0, 0.3, 0.51}},   // shallow ocean
	{level: -2, color: colorVec{0.76, 0.7, 0.5}}, // sand
	{level: 8, color: colorVec{0.35, 0.7, 0.12}}, // grass
	{level: 15, color: colorVec{0.41, 0.43, 0.45}}, // rock
	{level: 20, color: colorVec{0.86, 0.86, 0.86}}, // snow
}

func colorFor(h float32) colorVec {
	if h <= bands[0].level {
		return bands[0].color
	}
	for i := 1; i < len(bands); i++ {
		if h <= bands[i].level {
			return lerp(bands[i-1].color, bands[i].color, clamp((h-bands[i-1].level)/(bands[i].level-bands[i-1].level)))
		}
	}
	return bands[len(bands)-1].color
}

func lerp(a, b colorVec, t float32) colorVec {
	return colorVec{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

func clamp(f float32) float32 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

func (c colorVec) rgba() color.RGBA {
	return color.RGBA{R: toByte(c[0]), G: toByte(c[1]), B: toByte(c[2]), A: 255}
}

func toByte(f float32) byte {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	default:
		return byte(f * 255)
	}
}

// structureMarker is drawn over terrain as a small dark square, since PNG
// output has no room for worldstream's richer per-archetype metadata.
var structureMarker = color.RGBA{R: 20, G: 20, B: 20, A: 255}

// Render rasterizes a worldExtent x worldExtent square of world, centered
// on the origin, into a pixels x pixels PNG. Structures whose position
// falls within the rendered square are drawn as single-pixel markers.
func Render(world *structure.World, pixels int, worldExtent float32) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, pixels, pixels))

	origin := -worldExtent / 2
	step := worldExtent / float32(pixels)

	for row := 0; row < pixels; row++ {
		wy := origin + float32(row)*step
		for col := 0; col < pixels; col++ {
			wx := origin + float32(col)*step
			h := world.Terrain.HeightAt(wx, wy)
			img.Set(col, row, colorFor(h).rgba())
		}
	}

	for _, inst := range world.Structures.QueryRect(origin, origin, origin+worldExtent, origin+worldExtent) {
		col := int((inst.Position.X - origin) / step)
		row := int((inst.Position.Y - origin) / step)
		if col >= 0 && col < pixels && row >= 0 && row < pixels {
			img.Set(col, row, structureMarker)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
