// Package monitor implements 'servermon watch', a live terminal view of one
// or more running dashboards, and the HTTP client the CLI uses to read
// their telemetry.
//
// The view is a Bubble Tea program:
//
//   - Model holds the latest history per dashboard, status and selection
//   - Update handles keys, ticks and fetch results
//   - View renders cards, a detail pane or the help overlay
//
// Each tick fans out one fetch per dashboard through the Collector; every
// answer arrives as its own message, so a slow dashboard never holds back
// the others.
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	r           - Refresh now
//	s           - Cycle sort order (default/name/CPU/RAM)
//	j/k, ↑/↓    - Navigate (scroll in the detail pane)
//	Enter       - Show details
//	Esc         - Back
//	?           - Toggle help overlay
package monitor
