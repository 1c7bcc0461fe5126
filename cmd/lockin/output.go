package main

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type outputFormat string

const (
	tableFormat outputFormat = "table"
	csvFormat   outputFormat = "csv"
	jsonFormat  outputFormat = "json"
)

type outputOptions struct {
	Format  outputFormat
	NoStyle bool
}

type column[T any] struct {
	table.ColumnConfig
	Value func(T) string
}

var plainStyle = table.Style{
	Name:   "StylePlain",
	Box:    table.StyleBoxDefault,
	Color:  table.ColorOptionsDefault,
	Format: table.FormatOptionsDefault,
	HTML:   table.DefaultHTMLOptions,
	Options: table.Options{
		DrawBorder:      false,
		SeparateColumns: false,
		SeparateFooter:  false,
		SeparateHeader:  false,
		SeparateRows:    false,
	},
	Title: table.TitleOptionsDefault,
}

// render prints items as a table or csv; json prints raw instead.
func render[T any](cmd *cobra.Command, opts outputOptions, columns []column[T], items []T, raw any) error {
	switch opts.Format {
	case jsonFormat:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(raw)
	case tableFormat, csvFormat:
	default:
		return fmt.Errorf("invalid format %q", opts.Format)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())

	configs := make([]table.ColumnConfig, len(columns))
	headers := make(table.Row, len(columns))
	for i, c := range columns {
		configs[i] = c.ColumnConfig
		configs[i].Number = i + 1
		headers[i] = c.Name
	}
	tw.SetColumnConfigs(configs)
	tw.AppendHeader(headers)

	tw.SetStyle(table.StyleLight)
	if opts.NoStyle {
		tw.SetStyle(plainStyle)
	}

	for _, item := range items {
		row := make(table.Row, len(columns))
		for i, c := range columns {
			row[i] = c.Value(item)
		}
		tw.AppendRow(row)
	}

	if opts.Format == csvFormat {
		tw.RenderCSV()
	} else {
		tw.Render()
	}
	return nil
}

// keyValue prints aligned "key = value" lines, skipping empty values
func keyValue(cmd *cobra.Command, pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		cmd.Printf("%-*s = %s\n", width, p[0], p[1])
	}
}
