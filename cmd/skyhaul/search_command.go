package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"skyhaul/internal/aoi"
	"skyhaul/internal/catalog"
	"skyhaul/internal/daterange"
	"skyhaul/internal/pipeline"
)

// sceneFlags are the search inputs shared by the search and submit
// commands.
type sceneFlags struct {
	aoiPath     string
	start       string
	end         string
	bands       string
	bundle      string
	cadence     string
	minCoverage float64
}

func (f *sceneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.aoiPath, "aoi", "a", "", "GeoJSON file describing the area of interest")
	cmd.Flags().StringVar(&f.start, "start", "", "Acquisition window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Acquisition window end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.bands, "bands", "", "Band set: four_bands or eight_bands")
	cmd.Flags().StringVar(&f.bundle, "bundle", "", "Override the asset bundle resolved from bands and year")
	cmd.Flags().StringVar(&f.cadence, "cadence", "", "Selection cadence: daily, weekly, or monthly")
	cmd.Flags().Float64Var(&f.minCoverage, "min-coverage", 0, "Minimum AOI coverage percent per scene")
	_ = cmd.MarkFlagRequired("aoi")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

// plan loads the AOI, parses the window, and runs search and selection.
func (f *sceneFlags) plan(cmd *cobra.Command, ctx *commandContext) (*pipeline.Plan, error) {
	window, err := daterange.Parse(f.start, f.end)
	if err != nil {
		return nil, err
	}
	area, err := aoi.Load(f.aoiPath)
	if err != nil {
		return nil, err
	}

	var bands catalog.Bands
	if strings.TrimSpace(f.bands) != "" {
		bands, err = catalog.ParseBands(f.bands)
		if err != nil {
			return nil, err
		}
	}
	var cadence daterange.Cadence
	if strings.TrimSpace(f.cadence) != "" {
		cadence, err = daterange.ParseCadence(f.cadence)
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("min-coverage") {
		ctx.configValue().Search.MinCoveragePct = f.minCoverage
	}

	p, err := ctx.pipelineValue()
	if err != nil {
		return nil, err
	}
	return p.PrepareScenes(cmd.Context(), area, window, bands, f.bundle, cadence)
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var flags sceneFlags

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search scenes for an area and price the selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := flags.plan(cmd, ctx)
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func printPlan(out io.Writer, plan *pipeline.Plan) {
	fmt.Fprintf(out, "AOI: %s (%.1f sq km)\n", plan.Label, plan.AOI.AreaSqKm)
	fmt.Fprintf(out, "Window: %s\n", plan.Window)
	fmt.Fprintf(out, "Bundle: %s (orders as %s)\n", plan.SearchBundle, plan.OrderBundle)
	fmt.Fprintf(out, "Scenes: %s found, %s selected at %s cadence\n",
		formatCount(plan.ScenesFound), formatCount(len(plan.Selected)), plan.Cadence)
	if !plan.HasScenes() {
		return
	}

	rows := make([]table.Row, 0, len(plan.Selected))
	for _, sel := range plan.Selected {
		rows = append(rows, table.Row{
			sel.Scene.ID,
			daterange.FormatDate(sel.Scene.Properties.Acquired),
			fmt.Sprintf("%.1f%%", sel.CoveragePct),
		})
	}
	fmt.Fprintln(out, renderTable(table.Row{"Scene", "Acquired", "Coverage"}, rows, 3))
	fmt.Fprintf(out, "Estimated quota: %s hectares\n", formatHectares(plan.QuotaHectares))
}
