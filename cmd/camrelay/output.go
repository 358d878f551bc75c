package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/camrelay/camrelay/internal/device"
)

// Color palette for discover output
var (
	primaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	textColor    = lipgloss.Color("#FFFFFF") // White - main content
	mutedColor   = lipgloss.Color("#626262") // Gray - secondary info
)

var (
	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(textColor).
				Bold(true)

	tableCellStyle = lipgloss.NewStyle().
			Foreground(textColor)

	tableMutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	tableBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(primaryColor).
				Padding(0, 1)
)

// renderDeviceTable formats discovered cameras as a bordered table.
func renderDeviceTable(records []device.Record) string {
	headers := []string{"NAME", "ADDRESS", "MODEL", "STREAM", "SNAPSHOT"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		model := strings.TrimSpace(rec.Manufacturer + " " + rec.Model)
		rows = append(rows, []string{
			rec.Name,
			rec.Address,
			model,
			capabilityMarker(rec.HasStream()),
			capabilityMarker(rec.HasSnapshot()),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(tableHeaderStyle.Render(pad(h, widths[i])))
		if i < len(headers)-1 {
			b.WriteString("  ")
		}
	}
	for _, row := range rows {
		b.WriteString("\n")
		for i, cell := range row {
			style := tableCellStyle
			if cell == "" || cell == "-" {
				style = tableMutedStyle
			}
			b.WriteString(style.Render(pad(cell, widths[i])))
			if i < len(row)-1 {
				b.WriteString("  ")
			}
		}
	}

	return tableBorderStyle.Render(b.String())
}

func capabilityMarker(ok bool) string {
	if ok {
		return "✓"
	}
	return "-"
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + fmt.Sprintf("%*s", width-len(s), "")
}
