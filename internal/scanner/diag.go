package scanner

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// diagnostics writes per-path failure lines. The prefix is coloured only when
// the writer is a terminal that supports it; the renderer falls back to plain
// text for pipes and buffers.
type diagnostics struct {
	w      io.Writer
	prefix string
}

func newDiagnostics(w io.Writer) *diagnostics {
	r := lipgloss.NewRenderer(w)
	style := r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	return &diagnostics{w: w, prefix: style.Render("Err:")}
}

func (d *diagnostics) cannotStat(path string) {
	_, _ = io.WriteString(d.w, d.prefix+" Cannot stat file: "+path+"\n")
}
