package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/bvhtrace/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "bvhtrace"
	app.Usage = "build and query bounding volume hierarchies for triangle scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "notice",
			Usage: "log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile a wavefront scene into a bvh archive",
			Description: `
Parse a scene definition from a wavefront obj file and build a BVH tree to
optimize ray intersection tests.

The triangles and the flattened BVH are then written to a .bvh archive which
can be supplied as an argument to the info, bench and verify commands.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Flags:     cmd.ConfigFlags,
			Action:    cmd.CompileScene,
		},
		{
			Name:      "info",
			Usage:     "print information about a compiled scene",
			ArgsUsage: "scene_file.bvh",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:  "bench",
			Usage: "measure ray casting throughput",
			Description: `
Cast one primary ray per pixel from the scene camera followed by a shadow ray
for each primary hit and report the number of rays cast per second.`,
			ArgsUsage: "scene_file.obj|scene_file.bvh",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "workers, w",
					Usage: "number of ray casting goroutines (0 = all cpus)",
				},
				cli.StringFlag{
					Name:  "light",
					Usage: "shadow ray target as x,y,z (defaults to the camera position)",
				},
				cli.BoolFlag{
					Name:  "no-bvh",
					Usage: "intersect every triangle for each ray",
				},
			}, cmd.ConfigFlags...),
			Action: cmd.BenchScene,
		},
		{
			Name:  "verify",
			Usage: "compare bvh queries against brute-force intersection",
			Description: `
Cast random rays from inside the scene bounds and check that the closest hit
and any-hit answers of the BVH match a brute-force test of every triangle.`,
			ArgsUsage: "scene_file.obj|scene_file.bvh",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "rays",
					Value: 10000,
					Usage: "number of random rays",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "random seed",
				},
				cli.IntFlag{
					Name:  "workers, w",
					Usage: "number of ray casting goroutines (0 = all cpus)",
				},
			}, cmd.ConfigFlags...),
			Action: cmd.VerifyScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
