package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// chromeLines is the header (two lines) plus command bar and toast line.
	chromeLines = 4
)

// Timing constants.
const (
	// BadgeRefresh is how often the header re-reads the badge store.
	BadgeRefresh = time.Second

	// ToastDuration is how long a toast stays visible.
	ToastDuration = 4 * time.Second
)
