package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"skyhaul/internal/aoi"
	"skyhaul/internal/orders"
)

const tableTimeFormat = "2006-01-02 15:04"

var orderTableHeader = table.Row{"Order", "AOI", "Kind", "Window", "Status", "Created"}

func orderTableRows(list []*orders.Order) []table.Row {
	rows := make([]table.Row, 0, len(list))
	for _, order := range list {
		rows = append(rows, table.Row{
			order.ID,
			order.AOILabel,
			string(order.Kind),
			order.Window.String(),
			string(order.Status),
			order.CreatedAt.Format(tableTimeFormat),
		})
	}
	return rows
}

var batchTableHeader = table.Row{"Batch", "Orders", "Last Activity"}

func batchTableRows(batches []orders.BatchSummary) []table.Row {
	rows := make([]table.Row, 0, len(batches))
	for _, batch := range batches {
		rows = append(rows, table.Row{
			batch.BatchID,
			batch.Orders,
			batch.LatestAt.Format(tableTimeFormat),
		})
	}
	return rows
}

func newOrdersCommand(ctx *commandContext) *cobra.Command {
	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect the local order history",
	}

	ordersCmd.AddCommand(newOrdersListCommand(ctx))
	ordersCmd.AddCommand(newOrdersGetCommand(ctx))
	ordersCmd.AddCommand(newOrdersPendingCommand(ctx))
	ordersCmd.AddCommand(newOrdersStatsCommand(ctx))

	return ordersCmd
}

func newOrdersListCommand(ctx *commandContext) *cobra.Command {
	var aoiFilter string
	var statusFilter string
	var batchFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := 0
			for _, value := range []string{aoiFilter, statusFilter, batchFilter} {
				if strings.TrimSpace(value) != "" {
					filters++
				}
			}
			if filters > 1 {
				return errors.New("specify at most one of --aoi, --status, or --batch")
			}

			store, err := ctx.storeValue()
			if err != nil {
				return err
			}

			var list []*orders.Order
			switch {
			case strings.TrimSpace(aoiFilter) != "":
				list, err = store.ListByAOI(cmd.Context(), aoi.NormalizeLabel(aoiFilter))
			case strings.TrimSpace(statusFilter) != "":
				status, ok := orders.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFilter)
				}
				list, err = store.ListByStatus(cmd.Context(), status)
			case strings.TrimSpace(batchFilter) != "":
				list, err = store.ListByBatch(cmd.Context(), strings.TrimSpace(batchFilter))
			default:
				list, err = store.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No orders recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(orderTableHeader, orderTableRows(list)))
			return nil
		},
	}

	cmd.Flags().StringVar(&aoiFilter, "aoi", "", "Only orders for this area label")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Only orders in this status")
	cmd.Flags().StringVar(&batchFilter, "batch", "", "Only orders from this batch")
	return cmd
}

func newOrdersGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get ORDER_ID",
		Short: "Show one order in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.storeValue()
			if err != nil {
				return err
			}
			order, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if order == nil {
				return fmt.Errorf("order %s not found", args[0])
			}
			printOrderDetail(cmd.OutOrStdout(), order)
			return nil
		},
	}
}

func printOrderDetail(out io.Writer, order *orders.Order) {
	write := func(label, value string) {
		if value != "" {
			fmt.Fprintf(out, "%-16s %s\n", label+":", value)
		}
	}

	write("Order", order.ID)
	write("AOI", order.AOILabel)
	write("Kind", string(order.Kind))
	if order.Kind == orders.KindMosaic {
		write("Mosaic", order.MosaicName)
	} else {
		write("Window", order.Window.String())
	}
	write("Status", string(order.Status))
	write("Bands", order.Bands)
	write("Search bundle", order.SearchBundle)
	write("Order bundle", order.OrderBundle)
	write("Batch", order.BatchID)
	if order.AOIAreaSqKm > 0 {
		write("Area", fmt.Sprintf("%.1f sq km", order.AOIAreaSqKm))
	}
	if order.ScenesFound > 0 || order.ScenesSelected > 0 {
		write("Scenes", fmt.Sprintf("%d selected of %d found", order.ScenesSelected, order.ScenesFound))
	}
	if order.QuotaHectares > 0 {
		write("Quota", formatHectares(order.QuotaHectares)+" hectares")
	}
	write("Error hint", order.ErrorHint)
	write("Created", order.CreatedAt.UTC().Format(time.RFC3339))
	write("Updated", order.UpdatedAt.UTC().Format(time.RFC3339))
}

func newOrdersPendingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List orders still awaiting completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.storeValue()
			if err != nil {
				return err
			}
			list, err := store.ListPending(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending orders")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(orderTableHeader, orderTableRows(list)))
			return nil
		},
	}
}

func newOrdersStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the order history",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.storeValue()
			if err != nil {
				return err
			}
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Orders:   %s (%s completed, %s pending, %s failed)\n",
				formatCount(stats.TotalOrders), formatCount(stats.Completed),
				formatCount(stats.Pending), formatCount(stats.Failed))
			fmt.Fprintf(out, "Batches:  %s\n", formatCount(stats.TotalBatches))
			fmt.Fprintf(out, "AOIs:     %s\n", formatCount(stats.TotalAOIs))
			fmt.Fprintf(out, "Scenes:   %s selected\n", formatCount(stats.ScenesSelected))
			fmt.Fprintf(out, "Quota:    %s hectares\n", formatHectares(stats.QuotaHectares))
			return nil
		},
	}
}
