package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/achilleasa/bvhtrace/config"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/urfave/cli"
)

// Flags shared by all commands that build or load a scene.
var ConfigFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "load settings from a JSON configuration file",
	},
	cli.StringFlag{
		Name:  "type, t",
		Usage: "bvh layout to build: bvh2 (binary) or bvh4 (wide)",
	},
	cli.IntFlag{
		Name:  "leaf-size",
		Usage: "max number of triangles per bvh leaf",
	},
	cli.IntFlag{
		Name:  "build-workers",
		Usage: "number of goroutines used for building the bvh (0 = all cpus)",
	},
}

// Load the configuration file selected by the --config flag, if any, and
// apply the command line overrides.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if configFile := ctx.String("config"); configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}

	if ctx.IsSet("type") {
		cfg.BVH.Type = ctx.String("type")
	}
	if ctx.IsSet("leaf-size") {
		cfg.BVH.MaxLeafSize = ctx.Int("leaf-size")
	}
	if ctx.IsSet("build-workers") {
		cfg.BVH.Workers = ctx.Int("build-workers")
	}
	if ctx.Bool("no-bvh") {
		cfg.BVH.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse a vector flag value in "x,y,z" form.
func parseVec3(value string) (types.Vec3, error) {
	var v types.Vec3

	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected vector in x,y,z form; got %q", value)
	}
	for index, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return v, fmt.Errorf("could not parse vector component %d of %q: %w", index, value, err)
		}
		v[index] = float32(f)
	}
	return v, nil
}
