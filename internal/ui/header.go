package ui

import (
	"fmt"
	"strings"
	"time"
)

// renderHeader renders the status bar: logo, operator, badges and poll health.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("shopdeck", styles.Logo)}

	sess := m.env.client.Session()
	if !sess.Authenticated() {
		parts = append(parts, bg.Render("● signed out", styles.MutedText))
		return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
	}
	if claims, err := sess.Claims(); err == nil {
		who := claims.Email
		if who == "" {
			who = claims.Subject
		}
		if claims.Role != "" && !compact {
			who += " (" + strings.ToLower(claims.Role) + ")"
		}
		parts = append(parts, bg.Render("● "+who, styles.SuccessText))
	}

	snap := m.snapshot
	switch {
	case !snap.HasBadges && snap.LastError == nil:
		parts = append(parts, bg.Render("Loading counters…", styles.MutedText))
	case snap.HasBadges:
		pendingStyle := styles.MutedText
		if snap.PendingOrders > 0 {
			pendingStyle = styles.WarningText
		}
		lowStyle := styles.MutedText
		if snap.LowStockCount > 0 {
			lowStyle = styles.DangerText
		}
		pendingLabel, lowLabel := "Pending:", "Low stock:"
		if compact {
			pendingLabel, lowLabel = "P:", "L:"
		}
		parts = append(parts,
			bg.Render(pendingLabel, styles.MutedText)+bg.Space()+bg.Render(fmt.Sprint(snap.PendingOrders), pendingStyle),
			bg.Render(lowLabel, styles.MutedText)+bg.Space()+bg.Render(fmt.Sprint(snap.LowStockCount), lowStyle),
		)
	}

	if ts := formatTimestamp(snap.LastUpdated, m.env.now()); ts != "" && !compact {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if snap.LastError != nil {
		label := "ERROR"
		if snap.IsOffline() {
			label = "OFFLINE"
		}
		maxErr := 60
		if compact {
			maxErr = 30
		}
		parts = append(parts,
			bg.Render(label, styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(snap.LastError.Error(), maxErr), styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// formatTimestamp formats the last update time with a relative indicator.
func formatTimestamp(at, now time.Time) string {
	if at.IsZero() {
		return ""
	}
	since := now.Sub(at)
	ts := at.Format("15:04:05")
	switch {
	case since < time.Minute:
		ts += " (now)"
	case since < time.Hour:
		ts += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		ts += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return ts
}

// renderLocation renders the address line, or the location bar while it is open.
func (m Model) renderLocation() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if m.editingLocation {
		return styles.Header.Width(m.width).Render(m.locationBar.View())
	}

	parts := []string{bg.Render(m.history.Current().String(), styles.AccentText)}
	if m.screen != nil && m.screen.Busy() {
		parts = append(parts, m.spinner.View())
	}
	parts = append(parts, bg.Render(fmt.Sprintf("[%d/%d]", m.history.Index()+1, m.history.Len()), styles.FaintText))
	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the active screen's hints followed by the global ones.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var hints []hint
	if m.screen != nil {
		hints = append(hints, m.screen.Hints()...)
	}
	for _, b := range m.keys.ShortHelp() {
		hints = append(hints, hint{b.Help().Key, b.Help().Desc})
	}

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(hints)+1)
	used := 0
	for _, h := range hints {
		seg := bg.Render(h.key, styles.AccentText) + colon + bg.Render(h.desc, styles.MutedText)
		w := len(h.key) + len(h.desc) + 3
		if used+w > m.width-len(m.theme.Name)-6 {
			break
		}
		used += w
		segments = append(segments, seg)
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Footer.Width(m.width).Render(bg.Join(segments, "  "))
}

// renderToast renders the transient notice line.
func (m Model) renderToast() string {
	if m.toast.text == "" {
		return ""
	}
	styles := m.theme.Styles()
	return styles.ToneStyle(m.toast.tone).Render(truncate(m.toast.text, max(m.width-2, 1)))
}
