package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/achilleasa/bvhtrace/bvh"
	"github.com/achilleasa/bvhtrace/scene"
	"github.com/achilleasa/bvhtrace/tracer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Cast a frame of primary rays and one shadow ray per hit and report the
// tracing throughput.
func BenchScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	frameW, frameH := ctx.Int("width"), ctx.Int("height")
	if frameW < 1 || frameH < 1 {
		return fmt.Errorf("invalid frame dimensions %dx%d", frameW, frameH)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	sc, err := scene.Load(ctx.Args().First(), cfg)
	if err != nil {
		return err
	}
	logger.Noticef("scene information:\n%s", sc.Stats())

	light := sc.Camera.Position
	if ctx.IsSet("light") {
		if light, err = parseVec3(ctx.String("light")); err != nil {
			return err
		}
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	caster := tracer.NewCaster(sc.Intersector(), ctx.Int("workers"))

	primaryRays := sc.PrimaryRays(uint32(frameW), uint32(frameH))
	hits, primaryStats, err := caster.CastClosest(runCtx, primaryRays)
	if err != nil {
		return err
	}

	shadowRays := make([]bvh.Ray, 0, primaryStats.Hits)
	for _, hit := range hits {
		if !hit.Found {
			continue
		}

		toLight := light.Sub(hit.Position)
		dist := toLight.Len()
		if dist == 0 {
			continue
		}
		ray := sc.NewRay(hit.Position, toLight.Mul(1/dist))
		ray.TMax = dist
		shadowRays = append(shadowRays, ray)
	}

	_, shadowStats, err := caster.CastAny(runCtx, shadowRays)
	if err != nil {
		return err
	}

	displayBenchStats([]tracer.Stats{primaryStats, shadowStats})
	return nil
}

func displayBenchStats(stats []tracer.Stats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Query", "Rays", "Hits", "Blocks", "Time", "Rays/sec"})

	var totalRays int
	var totalTime float64
	for _, stat := range stats {
		totalRays += stat.Rays
		totalTime += stat.Elapsed.Seconds()
		table.Append([]string{
			stat.Query.String(),
			fmt.Sprintf("%d", stat.Rays),
			fmt.Sprintf("%d", stat.Hits),
			fmt.Sprintf("%d", stat.Blocks),
			stat.Elapsed.String(),
			fmt.Sprintf("%.0f", stat.RaysPerSecond()),
		})
	}

	var totalRate float64
	if totalTime > 0 {
		totalRate = float64(totalRays) / totalTime
	}
	table.SetFooter([]string{"", fmt.Sprintf("%d", totalRays), "", "", "TOTAL", fmt.Sprintf("%.0f", totalRate)})

	table.Render()
	logger.Noticef("benchmark statistics\n%s", buf.String())
}
