// Package events defines the notifications that drive the two workflows:
// document-changed events from the file watcher and window-closed events from
// the scheduler. Delivery is at-least-once with no ordering guarantee; the
// indexing workflow's idempotency gate absorbs duplicates.
package events

import "time"

// DocumentChanged notifies that an object was written at Path.
type DocumentChanged struct {
	Path     string
	Bucket   string    // originating store, informational
	Modified time.Time // observed object mtime; zero when unknown
}

// WindowKind selects the aggregation window type.
type WindowKind string

const (
	WindowDaily  WindowKind = "daily"
	WindowWeekly WindowKind = "weekly"
)

// WindowClosed notifies that a calendar window has closed. A zero Date means
// the default target (yesterday for daily, seven days ago for weekly).
type WindowClosed struct {
	Kind WindowKind
	Date time.Time
}
