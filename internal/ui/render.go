package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shopdeck/internal/listsync"
)

// BgStyle renders segments that all share one background color. Without it the
// reset codes between styled segments leave unpainted gaps.
type BgStyle struct {
	bg    lipgloss.Color
	space string
}

// NewBgStyle creates a background helper for the given color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{bg: bg, space: lipgloss.NewStyle().Background(bg).Render(" ")}
}

// Render applies style on the shared background, word by word so spaces are
// painted too.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	styled := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return styled.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = styled.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Space returns one painted space.
func (b BgStyle) Space() string { return b.space }

// Spaces returns n painted spaces.
func (b BgStyle) Spaces(n int) string {
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", max(n, 0)))
}

// Join joins rendered parts with a painted separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, lipgloss.NewStyle().Background(b.bg).Render(sep))
}

// FillLine pads content to width on the shared background.
func (b BgStyle) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}

// renderBox frames content with the title embedded in the top border:
// ┌─── Title ───┐
func renderBox(th Theme, title, content string, width, height int) string {
	if width < 4 || height < 2 {
		return content
	}
	bg := NewBgStyle(th.SurfaceAlt)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(th.Border))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(th.Text))

	inner := width - 2
	title = truncate(title, max(inner-4, 1))
	titleLen := lipgloss.Width(title)
	left := max((inner-titleLen-2)/2, 0)
	right := max(inner-titleLen-2-left, 0)

	top := bg.Render("┌"+strings.Repeat("─", left), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", right)+"┐", borderStyle)
	bottom := bg.Render("└"+strings.Repeat("─", inner)+"┘", borderStyle)

	lineStyle := lipgloss.NewStyle().Width(inner).MaxWidth(inner).Background(lipgloss.Color(th.SurfaceAlt))
	lines := strings.Split(content, "\n")
	rows := make([]string, 0, height-2)
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		rows = append(rows, bg.Render("│", borderStyle)+lineStyle.Render(line)+bg.Render("│", borderStyle))
	}
	return top + "\n" + strings.Join(rows, "\n") + "\n" + bottom
}

// cell is one rendered table cell.
type cell struct {
	text string
	tone string
}

// columnWidths gives flexible (zero width) columns an equal share of what the
// fixed columns leave, never less than 8.
func columnWidths(widths []int, total int) []int {
	out := make([]int, len(widths))
	used, flex := 0, 0
	for i, w := range widths {
		out[i] = w
		if w == 0 {
			flex++
		}
		used += w + 1
	}
	if flex == 0 {
		return out
	}
	share := max((total-used)/flex, 8)
	for i, w := range out {
		if w == 0 {
			out[i] = share
		}
	}
	return out
}

// renderTable renders a header and rows; selected is the highlighted row or -1.
func renderTable(th Theme, headers []string, widths []int, rows [][]cell, selected, width int) []string {
	styles := th.Styles()
	bg := NewBgStyle(th.SurfaceAlt)
	widths = columnWidths(widths, width)

	head := make([]string, len(headers))
	for i, h := range headers {
		head[i] = bg.Render(padRight(truncate(h, widths[i]), widths[i]), styles.MutedText.Bold(true))
	}
	lines := []string{bg.FillLine(strings.Join(head, bg.Space()), width)}

	for r, row := range rows {
		parts := make([]string, len(row))
		if r == selected {
			sel := NewBgStyle(th.SelectionBg)
			text := lipgloss.NewStyle().Foreground(lipgloss.Color(th.SelectionText))
			for i, c := range row {
				parts[i] = sel.Render(padRight(truncate(c.text, widths[i]), widths[i]), text)
			}
			lines = append(lines, sel.FillLine(strings.Join(parts, sel.Space()), width))
			continue
		}
		for i, c := range row {
			parts[i] = bg.Render(padRight(truncate(c.text, widths[i]), widths[i]), styles.ToneStyle(c.tone))
		}
		lines = append(lines, bg.FillLine(strings.Join(parts, bg.Space()), width))
	}
	return lines
}

// renderPager renders "‹ 1 … 4 [5] 6 … 12 ›" with 1-based labels.
func renderPager(current, totalPages int) string {
	window := listsync.PageWindow(current, totalPages)
	if len(window) == 0 {
		return ""
	}
	parts := []string{"‹"}
	for _, p := range window {
		switch {
		case p == listsync.Gap:
			parts = append(parts, "…")
		case p == current:
			parts = append(parts, fmt.Sprintf("[%d]", p+1))
		default:
			parts = append(parts, fmt.Sprintf("%d", p+1))
		}
	}
	return strings.Join(append(parts, "›"), " ")
}

// keyValue renders an aligned "label  value" line.
func keyValue(styles Styles, label, value string, labelWidth int) string {
	return styles.MutedText.Render(padRight(label, labelWidth)) + " " + styles.Text.Render(value)
}
