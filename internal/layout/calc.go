package layout

import (
	"fmt"
	"math"

	"github.com/orionwm/orion/internal/wm"
)

// GridSize picks the grid for n windows: columns are the ceiling of the
// square root, rows whatever is needed to hold the rest.
func GridSize(n int) (rows, cols int) {
	if n == 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = int(math.Ceil(float64(n) / float64(cols)))
	return rows, cols
}

// gridCells splits area into a rows x cols grid with gap pixels around
// and between cells. With flexibleLastRow a short last row stretches to
// the full width.
func gridCells(n, rows, cols int, area wm.Rect, gap int, flexibleLastRow bool) ([]wm.Rect, error) {
	if n == 0 {
		return nil, nil
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions: rows=%d cols=%d", rows, cols)
	}

	slotWidth := (area.Width - (cols+1)*gap) / cols
	slotHeight := (area.Height - (rows+1)*gap) / rows
	if slotWidth <= 0 || slotHeight <= 0 {
		return nil, fmt.Errorf(
			"insufficient space for layout: area=%dx%d rows=%d cols=%d gap=%d (slot=%dx%d)",
			area.Width, area.Height, rows, cols, gap, slotWidth, slotHeight,
		)
	}

	lastRow := rows - 1
	inLastRow := n - lastRow*cols
	if inLastRow <= 0 {
		inLastRow = cols
	}
	stretch := flexibleLastRow && inLastRow < cols
	var lastWidth int
	if stretch {
		lastWidth = (area.Width - (inLastRow+1)*gap) / inLastRow
	}

	cells := make([]wm.Rect, n)
	for i := range cells {
		row, col := i/cols, i%cols
		width := slotWidth
		if stretch && row == lastRow {
			col = i - lastRow*cols
			width = lastWidth
		}
		cells[i] = wm.Rect{
			X:      area.X + gap + col*(width+gap),
			Y:      area.Y + gap + row*(slotHeight+gap),
			Width:  width,
			Height: slotHeight,
		}
	}
	return cells, nil
}

// masterStackCells puts the first masters windows in a column taking ratio
// of the width and tiles the rest on the right. The stack grows into more
// columns once it has maxStackRows rows; zero means a single column.
func masterStackCells(n int, area wm.Rect, ratio float64, masters, maxStackRows, gap int) ([]wm.Rect, error) {
	if n == 0 {
		return nil, nil
	}
	if masters < 1 {
		masters = 1
	}
	if n <= masters {
		return gridCells(n, n, 1, area, gap, false)
	}

	masterWidth := int(float64(area.Width)*ratio) - gap
	stackX := area.X + masterWidth + 2*gap
	stackWidth := area.Width - masterWidth - 3*gap
	height := area.Height - 2*gap

	stackCount := n - masters
	stackCols := 1
	if maxStackRows > 0 {
		stackCols = int(math.Ceil(float64(stackCount) / float64(maxStackRows)))
	}
	stackRows := int(math.Ceil(float64(stackCount) / float64(stackCols)))

	masterHeight := (height - (masters-1)*gap) / masters
	cellWidth := (stackWidth - (stackCols-1)*gap) / stackCols
	cellHeight := (height - (stackRows-1)*gap) / stackRows
	if masterWidth <= 0 || masterHeight <= 0 || cellWidth <= 0 || cellHeight <= 0 {
		return nil, fmt.Errorf(
			"insufficient space for master-stack layout: area=%dx%d master=%dx%d cell=%dx%d gap=%d",
			area.Width, area.Height, masterWidth, masterHeight, cellWidth, cellHeight, gap,
		)
	}

	cells := make([]wm.Rect, 0, n)
	for i := 0; i < masters; i++ {
		cells = append(cells, wm.Rect{
			X:      area.X + gap,
			Y:      area.Y + gap + i*(masterHeight+gap),
			Width:  masterWidth,
			Height: masterHeight,
		})
	}
	for i := 0; i < stackCount; i++ {
		row, col := i%stackRows, i/stackRows
		cells = append(cells, wm.Rect{
			X:      stackX + col*(cellWidth+gap),
			Y:      area.Y + gap + row*(cellHeight+gap),
			Width:  cellWidth,
			Height: cellHeight,
		})
	}
	return cells, nil
}

// inset shrinks r by gap on every side, never below 1x1.
func inset(r wm.Rect, gap int) wm.Rect {
	r.X += gap
	r.Y += gap
	r.Width = max(r.Width-2*gap, 1)
	r.Height = max(r.Height-2*gap, 1)
	return r
}
