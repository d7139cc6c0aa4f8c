package telemetry

import "time"

// Sample is one snapshot of the local host. Rates are computed against the
// previous sample and are zero on the first one.
type Sample struct {
	Timestamp time.Time    `json:"timestamp"`
	CPU       CPUStats     `json:"cpu"`
	Memory    MemoryStats  `json:"ram"`
	Swap      SwapStats    `json:"swap"`
	Disk      *DiskStats   `json:"disk,omitempty"`
	Network   NetworkStats `json:"network"`
	System    SystemStats  `json:"system"`

	Connections *ConnectionStats `json:"connections,omitempty"`
}

// CPUStats contains CPU usage information.
type CPUStats struct {
	Percent float64    `json:"percent"`
	Cores   int        `json:"cores"`
	LoadAvg [3]float64 `json:"load_avg"`
}

// MemoryStats contains memory usage in bytes.
type MemoryStats struct {
	Percent   float64 `json:"percent"`
	Total     int64   `json:"total"`
	Used      int64   `json:"used"`
	Free      int64   `json:"free"`
	Available int64   `json:"available"`
	BuffCache int64   `json:"buff_cache"`
}

// SwapStats contains swap usage in bytes.
type SwapStats struct {
	Percent float64 `json:"percent"`
	Total   int64   `json:"total"`
	Used    int64   `json:"used"`
	Free    int64   `json:"free"`
}

// DiskStats is filesystem usage for the configured mount point.
type DiskStats struct {
	Path    string  `json:"path"`
	Percent float64 `json:"percent"`
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
}

// NetworkStats holds per-interface counters and the interface the dashboard
// charts by default.
type NetworkStats struct {
	DefaultNIC string           `json:"default_nic"`
	Interfaces []InterfaceStats `json:"interfaces"`
}

// InterfaceStats contains counters and rates for a single interface.
type InterfaceStats struct {
	Name       string `json:"name"`
	Virtual    bool   `json:"is_virtual"`
	BytesIn    int64  `json:"recv_total"`
	BytesOut   int64  `json:"sent_total"`
	PacketsIn  int64  `json:"recv_packets"`
	PacketsOut int64  `json:"sent_packets"`

	RecvBps float64 `json:"recv_bps"`
	SentBps float64 `json:"sent_bps"`
	RecvPps float64 `json:"recv_pps"`
	SentPps float64 `json:"sent_pps"`
}

// SystemStats contains general host information.
type SystemStats struct {
	Hostname      string `json:"hostname"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ConnCount is a number of open sockets per protocol.
type ConnCount struct {
	TCP int `json:"tcp"`
	UDP int `json:"udp"`
}

// ConnectionStats counts open TCP and UDP sockets, listeners included. A
// socket is attributed to the interface owning its local address; wildcard
// and unmatched addresses count as "other".
type ConnectionStats struct {
	Total      ConnCount            `json:"total"`
	Interfaces map[string]ConnCount `json:"interfaces"`
}

// NICAddr is one address bound to an interface.
type NICAddr struct {
	Family  string `json:"family"` // AF_INET or AF_INET6
	Address string `json:"address"`
}

// NICInfo describes a network interface for the interface picker.
type NICInfo struct {
	Name      string    `json:"name"`
	Up        bool      `json:"is_up"`
	SpeedMbps int       `json:"speed_mbps"`
	Default   bool      `json:"is_default"`
	Virtual   bool      `json:"is_virtual"`
	Addrs     []NICAddr `json:"addrs"`
}

// InterfaceList is every interface except loopback, sorted by name.
type InterfaceList struct {
	Default    string    `json:"default"`
	Interfaces []NICInfo `json:"interfaces"`
}

// Interface returns the stats for the named interface, or nil.
func (n NetworkStats) Interface(name string) *InterfaceStats {
	for i := range n.Interfaces {
		if n.Interfaces[i].Name == name {
			return &n.Interfaces[i]
		}
	}
	return nil
}
