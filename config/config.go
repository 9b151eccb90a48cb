package config

import (
	"fmt"
	"math"
	"os"

	"github.com/achilleasa/bvhtrace/bvh"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/segmentio/encoding/json"
)

// Hierarchy construction settings.
type BVH struct {
	// One of "bvh2" / "binary" or "bvh4" / "wide".
	Type string `json:"type"`

	MaxLeafSize int `json:"maxLeafSize"`

	// When disabled, scenes intersect every triangle for each ray.
	Enabled bool `json:"enabled"`

	// Number of build goroutines; 0 selects GOMAXPROCS.
	Workers int `json:"workers"`
}

// Fallback camera settings for scenes that do not define one.
type Camera struct {
	FOV  float32    `json:"fov"`
	Eye  types.Vec3 `json:"eye"`
	Look types.Vec3 `json:"look"`
	Up   types.Vec3 `json:"up"`
}

type Config struct {
	BVH BVH `json:"bvh"`

	// The TMin assigned to rays cast into the scene. It keeps secondary
	// rays from hitting the surface they originate from.
	RayMinDistance float32 `json:"rayMinDistance"`

	Camera Camera `json:"camera"`
}

// Get the default configuration.
func Default() *Config {
	opts := bvh.DefaultOptions()
	return &Config{
		BVH: BVH{
			Type:        opts.Type.String(),
			MaxLeafSize: opts.MaxLeafSize,
			Enabled:     true,
		},
		RayMinDistance: 1e-4,
		Camera: Camera{
			FOV:  45,
			Look: types.XYZ(0, 0, -1),
			Up:   types.XYZ(0, 1, 0),
		},
	}
}

// Load a configuration file. Values missing from the file keep their defaults.
func Load(configFile string) (*Config, error) {
	f, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err = dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: could not parse %s: %w", configFile, err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Check the configuration for invalid values.
func (c *Config) Validate() error {
	if _, err := bvh.ParseType(c.BVH.Type); err != nil {
		return fmt.Errorf("config: bvh.type: %w", err)
	}
	if c.BVH.MaxLeafSize < 1 {
		return fmt.Errorf("config: bvh.maxLeafSize: %w", bvh.ErrInvalidLeafSize)
	}
	if c.BVH.Workers < 0 {
		return fmt.Errorf("config: bvh.workers must not be negative; got %d", c.BVH.Workers)
	}

	if math.IsNaN(float64(c.RayMinDistance)) || c.RayMinDistance < 0 {
		return fmt.Errorf("config: rayMinDistance must be a non-negative number; got %f", c.RayMinDistance)
	}

	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("config: camera.fov must be in (0, 180); got %f", c.Camera.FOV)
	}
	if c.Camera.Look.ApproxEqual(c.Camera.Eye, 0) {
		return fmt.Errorf("config: camera.eye and camera.look must not coincide")
	}
	if c.Camera.Up.Len() == 0 {
		return fmt.Errorf("config: camera.up must not be a zero vector")
	}

	return nil
}

// Get the bvh.Build options described by the configuration.
func (c *Config) BuildOptions() (bvh.Options, error) {
	bvhType, err := bvh.ParseType(c.BVH.Type)
	if err != nil {
		return bvh.Options{}, err
	}

	return bvh.Options{
		Type:        bvhType,
		MaxLeafSize: c.BVH.MaxLeafSize,
		Workers:     c.BVH.Workers,
	}, nil
}
