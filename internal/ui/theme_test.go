package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shopdeck/internal/orderstatus"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v", names)
	}
}

func TestNextTheme(t *testing.T) {
	tests := []struct{ current, want string }{
		{"Nightfox", "Kanagawa"},
		{"Kanagawa", "Slate"},
		{"Slate", "Nightfox"},
		{"Unknown", "Nightfox"},
	}
	for _, tt := range tests {
		if got := NextTheme(tt.current); got != tt.want {
			t.Fatalf("NextTheme(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
}

func TestGetThemeFallsBackToNightfox(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q", got)
	}
	if got := GetTheme("Dracula").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(unknown).Name = %q, want Nightfox", got)
	}
}

func TestStatusStyleCoversEveryOrderStatus(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, status := range orderstatus.All() {
			if th.StatusColors[string(status)] == "" {
				t.Fatalf("%s: no color for %s", name, status)
			}
		}
		styles := th.Styles()
		got := styles.StatusStyle("RETURNED").GetBackground()
		if got != lipgloss.Color(th.StatusColors[""]) {
			t.Fatalf("%s: unknown status background = %v", name, got)
		}
	}
}

func TestToneStyle(t *testing.T) {
	th := GetTheme("Nightfox")
	styles := th.Styles()
	if got := styles.ToneStyle("danger").GetForeground(); got != lipgloss.Color(th.Danger) {
		t.Fatalf("danger foreground = %v", got)
	}
	if got := styles.ToneStyle("nope").GetForeground(); got != lipgloss.Color(th.Text) {
		t.Fatalf("unknown tone foreground = %v", got)
	}
}
