package cmd

import (
	"strings"

	"github.com/achilleasa/bvhtrace/asset/archive"
	"github.com/achilleasa/bvhtrace/asset/reader"
	"github.com/achilleasa/bvhtrace/scene"
	"github.com/urfave/cli"
)

// Compile scenes into bvh archives.
func CompileScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	cfg.BVH.Enabled = true

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		logger.Noticef("parsing and compiling scene: %s", sceneFile)
		model, err := reader.ReadModelFile(sceneFile)
		if err != nil {
			return err
		}

		sc, err := scene.New(model.Triangles(), model.Camera, cfg)
		if err != nil {
			return err
		}

		// Display compiled scene info
		logger.Noticef("scene information:\n%s", sc.Stats())

		a := archive.New(sceneFile, sc.Triangles, sc.Accelerator(), cfg.BVH.MaxLeafSize, model.Camera)
		archiveFile := strings.TrimSuffix(sceneFile, ".obj") + scene.ArchiveExt
		if err = archive.Write(archiveFile, a); err != nil {
			return err
		}
	}

	return nil
}
