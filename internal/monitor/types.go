package monitor

import "net/url"

// Dashboard is one servermon instance to watch.
type Dashboard struct {
	// Name labels the card. Empty derives it from the URL host.
	Name     string
	URL      string
	User     string
	Password string
}

// displayName returns Name, or host[:port] from URL.
func (d Dashboard) displayName() string {
	if d.Name != "" {
		return d.Name
	}
	if u, err := url.Parse(d.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return d.URL
}

// Status is the reachability of a dashboard.
type Status int

const (
	StatusConnecting Status = iota
	StatusOnline
	StatusWaiting // reachable, no samples yet
	StatusOffline
)

// String returns a human-readable status string.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusOnline:
		return "online"
	case StatusWaiting:
		return "waiting"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// SortOrder defines how dashboards are sorted.
type SortOrder int

const (
	SortByDefault SortOrder = iota // online first, then command-line order
	SortByName
	SortByCPU
	SortByRAM
)

// String returns a human-readable label for the sort order.
func (s SortOrder) String() string {
	switch s {
	case SortByName:
		return "name"
	case SortByCPU:
		return "CPU"
	case SortByRAM:
		return "RAM"
	default:
		return "default"
	}
}

// Next cycles to the next sort order.
func (s SortOrder) Next() SortOrder {
	return SortOrder((int(s) + 1) % 4)
}

// ViewMode defines the current display mode.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
)
