package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/apimgr/earthquakes/src/server/model"
)

// Formatter handles output formatting
type Formatter struct {
	Format  string
	NoColor bool
}

// NewFormatter creates a new formatter
func NewFormatter(format string, noColor bool) *Formatter {
	return &Formatter{
		Format:  format,
		NoColor: noColor,
	}
}

// FormatFeed formats an earthquake batch
func (f *Formatter) FormatFeed(feed *Feed) string {
	switch f.Format {
	case "json":
		return f.formatJSON(feed)
	case "plain":
		return f.formatPlainFeed(feed)
	// table
	default:
		return f.formatTableFeed(feed)
	}
}

// FormatJSON formats data as JSON (public method)
func (f *Formatter) FormatJSON(data interface{}) string {
	return f.formatJSON(data)
}

func (f *Formatter) formatJSON(data interface{}) string {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error formatting JSON: %v", err)
	}
	return string(jsonData)
}

// magnitude renders a magnitude cell, colored by severity bucket
func (f *Formatter) magnitude(mag float64) string {
	text := fmt.Sprintf("%4.1f", mag)
	if f.NoColor {
		return text
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(model.MagnitudeColor(mag)))
	return style.Render(text)
}

// formatPlainFeed formats the batch as one line per event
func (f *Formatter) formatPlainFeed(feed *Feed) string {
	var sb strings.Builder

	for i := range feed.Earthquakes {
		e := &feed.Earthquakes[i]
		sb.WriteString(fmt.Sprintf("%s  M%.1f  %.1fkm  %s\n",
			e.TimeString, e.Mag(), e.Depth, e.Place))
	}

	return sb.String()
}

// formatTableFeed formats the batch as an aligned table with a summary line
func (f *Formatter) formatTableFeed(feed *Feed) string {
	var sb strings.Builder

	header := fmt.Sprintf("%-20s  %-5s  %-8s  %s", "TIME (UTC)", "MAG", "DEPTH", "PLACE")
	if !f.NoColor {
		header = lipgloss.NewStyle().Bold(true).Render(header)
	}
	sb.WriteString(header + "\n")

	for i := range feed.Earthquakes {
		e := &feed.Earthquakes[i]
		sb.WriteString(fmt.Sprintf("%-20s  %s  %6.1fkm  %s\n",
			e.TimeString, f.magnitude(e.Mag()), e.Depth, e.Place))
	}

	sb.WriteString(fmt.Sprintf("\n%d earthquakes", feed.Count))
	if feed.Metadata.Title != nil {
		sb.WriteString(" (" + *feed.Metadata.Title + ")")
	}
	sb.WriteString("\n")

	return sb.String()
}
