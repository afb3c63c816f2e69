package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Cell is one character position of the progress ring.
type Cell int

const (
	CellEmpty Cell = iota
	CellTrack
	CellArc
)

const (
	trackGlyph = "·"
	arcGlyph   = "█"
)

// RingCells lays out a circle of the given radius in terminal cells. Columns
// are doubled because a cell is about twice as tall as it is wide. Cells on
// the circle are CellArc when they fall within progress, measured clockwise
// from twelve o'clock, and CellTrack otherwise.
func RingCells(progress float64, radius int) [][]Cell {
	if radius < 1 {
		radius = 1
	}
	progress = math.Max(0, math.Min(1, progress))

	r := float64(radius)
	rows := make([][]Cell, 2*radius+1)
	for row := range rows {
		y := float64(row - radius)
		cells := make([]Cell, 4*radius+1)
		for col := range cells {
			x := float64(col-2*radius) / 2
			if math.Abs(math.Hypot(x, y)-r) >= 0.5 {
				continue
			}
			angle := math.Atan2(x, -y)
			if angle < 0 {
				angle += 2 * math.Pi
			}
			if progress > 0 && (progress >= 1 || angle/(2*math.Pi) < progress) {
				cells[col] = CellArc
			} else {
				cells[col] = CellTrack
			}
		}
		rows[row] = cells
	}
	return rows
}

// RenderRing draws the ring with label lines centered inside it.
func RenderRing(progress float64, radius int, track, arc lipgloss.TerminalColor, label []string) string {
	cells := RingCells(progress, radius)
	trackStyle := lipgloss.NewStyle().Foreground(track)
	arcStyle := lipgloss.NewStyle().Foreground(arc)

	width := len(cells[0])
	top := len(cells)/2 - len(label)/2

	lines := make([]string, len(cells))
	for i, row := range cells {
		var b strings.Builder
		li := i - top
		if li >= 0 && li < len(label) {
			text := label[li]
			tw := lipgloss.Width(text)
			start := (width - tw) / 2
			writeCells(&b, row[:max(0, start)], trackStyle, arcStyle)
			b.WriteString(text)
			if end := start + tw; end < width {
				writeCells(&b, row[end:], trackStyle, arcStyle)
			}
		} else {
			writeCells(&b, row, trackStyle, arcStyle)
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

func writeCells(b *strings.Builder, row []Cell, track, arc lipgloss.Style) {
	for _, c := range row {
		switch c {
		case CellArc:
			b.WriteString(arc.Render(arcGlyph))
		case CellTrack:
			b.WriteString(track.Render(trackGlyph))
		default:
			b.WriteByte(' ')
		}
	}
}
