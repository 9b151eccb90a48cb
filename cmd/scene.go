package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/achilleasa/bvhtrace/asset/archive"
	"github.com/achilleasa/bvhtrace/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display compiled scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing compiled scene file")
	}

	sceneFile := ctx.Args().First()
	if !strings.HasSuffix(sceneFile, scene.ArchiveExt) {
		return fmt.Errorf("only compiled scene files with a %s extension are supported", scene.ArchiveExt)
	}

	a, err := archive.ReadFile(sceneFile)
	if err != nil {
		return err
	}

	logger.Noticef("archive manifest:\n%s", manifestTable(a.Manifest))
	logger.Noticef("scene information:\n%s", a.Accelerator.Stats().Table())

	return nil
}

func manifestTable(m archive.Manifest) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Build id", m.BuildID})
	table.Append([]string{"Format version", fmt.Sprint(m.Version)})
	table.Append([]string{"Source", m.Source})
	table.Append([]string{"Created", m.CreatedAt.Format(time.RFC3339)})
	table.Append([]string{"Layout", m.Type})
	table.Append([]string{"Max leaf size", fmt.Sprint(m.MaxLeafSize)})
	table.Append([]string{"Triangles", fmt.Sprint(m.Triangles)})
	table.Append([]string{"Nodes", fmt.Sprint(m.Nodes)})

	table.Render()
	return buf.String()
}
