package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"pesticide-analytics/internal/analytics"
)

// WriteText renders res as bordered terminal tables, each under its title.
func WriteText(w io.Writer, res analytics.Result) error {
	tables, err := Tables(res)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "== %s ==\n", res.View().Title())
	for _, t := range tables {
		fmt.Fprintf(w, "\n%s\n", t.Title)
		if len(t.Rows) == 0 {
			fmt.Fprintln(w, "(no rows)")
			continue
		}

		table := tablewriter.NewWriter(w)
		table.SetAutoWrapText(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
		table.SetAutoFormatHeaders(false)
		table.SetBorder(true)
		table.SetHeader(t.Header)
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = FormatCell(v)
			}
			table.Append(cells)
		}
		table.Render()
	}
	return nil
}
