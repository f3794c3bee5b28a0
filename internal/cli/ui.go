package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dogeow/wikigraph/pkg/engine"
	"github.com/dogeow/wikigraph/pkg/graph"
)

// stdout receives command output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success, active node
	colorYellow = lipgloss.Color("220") // warnings, degraded view
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // links, neighbors
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleActive   = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	styleNeighbor = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output file.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(stdout, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Graph Output
// =============================================================================

// statusLine summarizes a view on one line, e.g.
// "12 of 40 nodes · 15 links · tree · degraded".
func statusLine(st engine.Status, links int) string {
	parts := []string{
		fmt.Sprintf("%d of %d nodes", st.Visible, st.Total),
		fmt.Sprintf("%d links", links),
		string(st.Layout),
	}
	if st.Query != "" {
		parts = append(parts, fmt.Sprintf("query %q", st.Query))
	}
	if st.NeighborsOnly {
		parts = append(parts, "neighbors only")
	}
	line := StyleDim.Render(strings.Join(parts, " · "))
	if st.Degraded {
		line += StyleDim.Render(" · ") + StyleWarning.Render(fmt.Sprintf("degraded, %d hidden", st.Dropped))
	}
	if st.Malformed > 0 {
		line += StyleDim.Render(" · ") + StyleWarning.Render(fmt.Sprintf("%d malformed", st.Malformed))
	}
	return line
}

// printStatus prints the status line and the selection, if any.
func printStatus(st engine.Status, links int) {
	fmt.Fprintln(stdout, "  "+statusLine(st, links))
	if st.Active != "" {
		printKeyValue("active", string(st.Active))
	}
}

// nodeTable renders nodes as a table. The active node and its neighbors
// are highlighted.
func nodeTable(nodes []*graph.Node, active graph.ID, neighbors graph.IDSet) string {
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		pos := "-"
		if x, y, ok := n.Position(); ok {
			pos = strconv.FormatFloat(x, 'f', 1, 64) + ", " + strconv.FormatFloat(y, 'f', 1, 64)
		}
		rows = append(rows, []string{string(n.ID), n.Title, n.Slug, pos})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Title", "Slug", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if row < 0 || row >= len(nodes) {
				return lipgloss.NewStyle()
			}
			switch id := nodes[row].ID; {
			case id == active:
				return styleActive
			case neighbors.Has(id):
				return styleNeighbor
			case col == 3:
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
