package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTable renders rows under the given header. Columns listed in
// rightAlign (1-based) are right-aligned; everything else stays left.
func renderTable(header table.Row, rows []table.Row, rightAlign ...int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)
	tw.AppendRows(rows)

	if len(rightAlign) > 0 {
		configs := make([]table.ColumnConfig, 0, len(rightAlign))
		for _, number := range rightAlign {
			configs = append(configs, table.ColumnConfig{
				Number:      number,
				Align:       text.AlignRight,
				AlignHeader: text.AlignLeft,
			})
		}
		tw.SetColumnConfigs(configs)
	}

	return tw.Render()
}
