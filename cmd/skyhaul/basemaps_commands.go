package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"skyhaul/internal/aoi"
	"skyhaul/internal/daterange"
)

func newBasemapsCommand(ctx *commandContext) *cobra.Command {
	basemapsCmd := &cobra.Command{
		Use:   "basemaps",
		Short: "List and order prebuilt basemap mosaics",
	}

	basemapsCmd.AddCommand(newBasemapsListCommand(ctx))
	basemapsCmd.AddCommand(newBasemapsOrderCommand(ctx))

	return basemapsCmd
}

func newBasemapsListCommand(ctx *commandContext) *cobra.Command {
	var start string
	var end string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List mosaics first acquired inside a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := daterange.Parse(start, end)
			if err != nil {
				return err
			}
			client, err := ctx.catalogValue()
			if err != nil {
				return err
			}
			mosaics, err := client.ListMosaics(cmd.Context(), window)
			if err != nil {
				return err
			}

			if len(mosaics) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No mosaics in this window")
				return nil
			}
			rows := make([]table.Row, 0, len(mosaics))
			for _, mosaic := range mosaics {
				rows = append(rows, table.Row{mosaic.Name, mosaic.FirstAcquired, mosaic.ID})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(table.Row{"Mosaic", "First Acquired", "ID"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Window end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newBasemapsOrderCommand(ctx *commandContext) *cobra.Command {
	var mosaicName string
	var aoiPath string

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Order a basemap mosaic clipped to an area",
		RunE: func(cmd *cobra.Command, args []string) error {
			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			area, err := aoi.Load(aoiPath)
			if err != nil {
				return err
			}
			p, err := ctx.pipelineValue()
			if err != nil {
				return err
			}
			order, err := p.SubmitMosaic(cmd.Context(), area, mosaicName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted basemap order %s for %s\n", order.ID, order.AOILabel)
			return nil
		},
	}

	cmd.Flags().StringVar(&mosaicName, "mosaic", "", "Mosaic name to order")
	cmd.Flags().StringVarP(&aoiPath, "aoi", "a", "", "GeoJSON file describing the area of interest")
	_ = cmd.MarkFlagRequired("mosaic")
	_ = cmd.MarkFlagRequired("aoi")
	return cmd
}
