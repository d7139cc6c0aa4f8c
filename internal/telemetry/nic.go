package telemetry

import (
	"regexp"
	"sort"
)

// virtualNIC matches interfaces that are not physical uplinks.
var virtualNIC = regexp.MustCompile(`^(lo|docker\d*|veth|br-|virbr|tun|tap|wg|tailscale|dummy|bond_slave|sit|ip6tnl)`)

// IsVirtualNIC reports whether name looks like a loopback, bridge, tunnel or
// container interface.
func IsVirtualNIC(name string) bool {
	return virtualNIC.MatchString(name)
}

// DefaultNIC picks the interface to chart when none is configured: the
// first physical interface that has seen traffic, then the first physical
// one, then anything but loopback, then "lo".
func DefaultNIC(ifaces []InterfaceStats) string {
	sorted := append([]InterfaceStats(nil), ifaces...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var physical []InterfaceStats
	for _, iface := range sorted {
		if !IsVirtualNIC(iface.Name) {
			physical = append(physical, iface)
		}
	}

	for _, iface := range physical {
		if iface.BytesIn > 0 || iface.BytesOut > 0 {
			return iface.Name
		}
	}
	if len(physical) > 0 {
		return physical[0].Name
	}
	for _, iface := range sorted {
		if iface.Name != "lo" {
			return iface.Name
		}
	}
	return "lo"
}
