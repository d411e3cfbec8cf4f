// Package config loads process configuration from environment variables
// via spf13/viper. worldstream binds one env var per WorldService setting
// rather than viper's more common "read a YAML file" mode: there is no
// on-disk config file for the server process itself.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/brinewood-games/worldstream/types"
)

// ServerConfig is every environment-derived setting the worldserver
// entry point needs: bus identity plus the engine's World tuning knobs.
type ServerConfig struct {
	Session       string
	ParticipantID string
	Endpoint      string
	TickHz        float64
	World         types.Config
	HTTPAddr      string
	MaxConns      int
}

// Load reads WORLD_* environment variables, applying the same defaults as
// types.DefaultConfig for anything unset.
func Load() (ServerConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("world")
	v.AutomaticEnv()

	defaults := types.DefaultConfig()
	v.SetDefault("session", "default")
	v.SetDefault("participant_id", "")
	v.SetDefault("endpoint", "ws://localhost:4223")
	v.SetDefault("tick_rate_hz", 30.0)
	v.SetDefault("seed", defaults.WorldSeed)
	v.SetDefault("cell_size", defaults.CellSize)
	v.SetDefault("activation_radius", defaults.ActivationRadius)
	v.SetDefault("tree_density", defaults.TreeDensity)
	v.SetDefault("physics_dt", defaults.PhysicsDt)
	v.SetDefault("eviction_margin", defaults.EvictionMargin)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("max_conns", 256)

	for _, key := range []string{
		"session", "participant_id", "endpoint", "tick_rate_hz", "seed",
		"cell_size", "activation_radius", "tree_density", "physics_dt",
		"eviction_margin", "http_addr", "max_conns",
	} {
		if err := v.BindEnv(key); err != nil {
			return ServerConfig{}, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	cfg := ServerConfig{
		Session:       v.GetString("session"),
		ParticipantID: v.GetString("participant_id"),
		Endpoint:      v.GetString("endpoint"),
		TickHz:        v.GetFloat64("tick_rate_hz"),
		HTTPAddr:      v.GetString("http_addr"),
		MaxConns:      v.GetInt("max_conns"),
		World: types.Config{
			WorldSeed:        v.GetInt64("seed"),
			CellSize:         float32(v.GetFloat64("cell_size")),
			ActivationRadius: int32(v.GetInt("activation_radius")),
			TreeDensity:      float32(v.GetFloat64("tree_density")),
			PhysicsDt:        float32(v.GetFloat64("physics_dt")),
			EvictionMargin:   int32(v.GetInt("eviction_margin")),
		},
	}
	return cfg, nil
}
