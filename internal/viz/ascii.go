// Package viz renders result columns as terminal plots.
package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/cosim/internal/results"
)

// Plot renders one numeric column against the step index.
func Plot(table *results.Table, column string, width, height int) (string, error) {
	data, err := table.Float64s(column)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("viz: column %q has no rows", column)
	}

	caption := column
	if col, ok := table.Column(column); ok && col.Unit != "" {
		caption = fmt.Sprintf("%s [%s]", column, col.Unit)
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
	return graph, nil
}
