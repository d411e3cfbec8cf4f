package structure

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brinewood-games/worldstream/types"
)

// ManifestEntry is one structure as written in a YAML world manifest file.
// ID may be left blank, in which case Registry.Insert mints one.
type ManifestEntry struct {
	ID           string            `yaml:"id"`
	TypeID       string            `yaml:"type"`
	X            float32           `yaml:"x"`
	Y            float32           `yaml:"y"`
	Z            float32           `yaml:"z"`
	RotationY    float32           `yaml:"rotation_y"`
	BoundsRadius float32           `yaml:"bounds_radius"`
	Metadata     map[string]string `yaml:"metadata,omitempty"`
}

// Manifest is the top-level shape of a static-structure manifest file.
type Manifest struct {
	Structures []ManifestEntry `yaml:"structures"`
}

// LoadManifest reads a YAML structure manifest from path and inserts every
// entry into reg, seeding it with the fixed set of static structures a
// world starts with.
func LoadManifest(path string, reg *Registry) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("structure: read manifest %s: %w", path, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return 0, fmt.Errorf("structure: parse manifest %s: %w", path, err)
	}

	for _, entry := range manifest.Structures {
		inst := Instance{
			ID:           entry.ID,
			TypeID:       entry.TypeID,
			Position:     types.NewVec3(entry.X, entry.Y, entry.Z),
			RotationY:    entry.RotationY,
			BoundsRadius: entry.BoundsRadius,
			Metadata:     entry.Metadata,
		}
		if _, err := reg.Insert(inst); err != nil {
			return 0, fmt.Errorf("structure: insert manifest entry %q: %w", entry.TypeID, err)
		}
	}

	return len(manifest.Structures), nil
}
