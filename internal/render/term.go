package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/banshee-data/spacegraph/internal/snapshot"
)

// densityRamp maps particles-per-cell to a glyph; the last glyph covers
// every count beyond the ramp.
var densityRamp = []rune{' ', '.', ':', 'o', 'O', '@'}

// clearScreen homes the cursor and clears the terminal so each frame
// replaces the previous one.
const clearScreen = "\x1b[H\x1b[2J"

// TermConfig configures a TermSink.
type TermConfig struct {
	// Out defaults to os.Stdout.
	Out io.Writer
	// Columns and Rows size the plot area in character cells (default 72x28).
	Columns, Rows int
	// Clear redraws in place instead of scrolling.
	Clear bool
	// Title defaults to DefaultTitle.
	Title string
	// Session is shown in the footer.
	Session string
}

// TermSink rasterises each snapshot into a character grid framed with
// lipgloss. Cell glyphs get denser as more particles land in a cell.
type TermSink struct {
	cfg    TermConfig
	frames int

	titleStyle  lipgloss.Style
	frameStyle  lipgloss.Style
	footerStyle lipgloss.Style
}

// NewTermSink creates a TermSink.
func NewTermSink(cfg TermConfig) *TermSink {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Columns <= 0 {
		cfg.Columns = 72
	}
	if cfg.Rows <= 0 {
		cfg.Rows = 28
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	return &TermSink{
		cfg: cfg,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		frameStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Foreground(lipgloss.Color("39")),
		footerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

// Present redraws the terminal frame.
func (s *TermSink) Present(snap snapshot.Snapshot, bounds snapshot.ViewBounds) error {
	s.frames++

	grid := Rasterize(snap, bounds, s.cfg.Columns, s.cfg.Rows)
	axes := fmt.Sprintf("x [%g, %g]  y [%g, %g]", bounds.XMin, bounds.XMax, bounds.YMin, bounds.YMax)
	view := lipgloss.JoinVertical(lipgloss.Left,
		s.titleStyle.Render(s.cfg.Title),
		s.frameStyle.Render(strings.Join(grid, "\n")),
		s.footerStyle.Render(axes),
		s.footerStyle.Render(subtitle(s.cfg.Session, s.frames, snap, bounds)),
	)

	if s.cfg.Clear {
		if _, err := io.WriteString(s.cfg.Out, clearScreen); err != nil {
			return fmt.Errorf("term sink: %w", err)
		}
	}
	if _, err := lipgloss.Fprintln(s.cfg.Out, view); err != nil {
		return fmt.Errorf("term sink: %w", err)
	}
	return nil
}

// Rasterize bins the points inside bounds into a cols x rows character grid.
// Row 0 is the top of the window (YMax). Points outside bounds are dropped.
// A grid with no cells yields nil.
func Rasterize(snap snapshot.Snapshot, bounds snapshot.ViewBounds, cols, rows int) []string {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	counts := make([]int, cols*rows)
	xSpan := bounds.XMax - bounds.XMin
	ySpan := bounds.YMax - bounds.YMin

	for _, p := range snap {
		if !bounds.Contains(p) {
			continue
		}
		col := int((p.X - bounds.XMin) / xSpan * float64(cols))
		row := int((bounds.YMax - p.Y) / ySpan * float64(rows))
		if col >= cols {
			col = cols - 1
		}
		if row >= rows {
			row = rows - 1
		}
		counts[row*cols+col]++
	}

	lines := make([]string, rows)
	buf := make([]rune, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			n := counts[r*cols+c]
			if n >= len(densityRamp) {
				n = len(densityRamp) - 1
			}
			buf[c] = densityRamp[n]
		}
		lines[r] = string(buf)
	}
	return lines
}
