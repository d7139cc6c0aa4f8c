package telemetry

import (
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Link is a network interface as the kernel reports it.
type Link struct {
	Name  string
	Up    bool
	Addrs []netip.Addr
}

// systemLinks lists the host's interfaces and their unicast addresses.
func systemLinks() ([]Link, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(ifaces))
	for _, iface := range ifaces {
		link := Link{Name: iface.Name, Up: iface.Flags&net.FlagUp != 0}
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if addr, ok := netip.AddrFromSlice(ipNet.IP); ok {
				link.Addrs = append(link.Addrs, addr.Unmap())
			}
		}
		links = append(links, link)
	}
	return links, nil
}

// Interfaces lists every interface except loopback with its state, link
// speed and addresses. The default interface is the one the latest sample
// charts, or is detected from /proc/net/dev before the first sample.
func (s *Sampler) Interfaces() (*InterfaceList, error) {
	links, err := s.links()
	if err != nil {
		return nil, err
	}

	list := &InterfaceList{Default: s.defaultNIC(), Interfaces: []NICInfo{}}
	for _, l := range links {
		if l.Name == "lo" {
			continue
		}
		info := NICInfo{
			Name:      l.Name,
			Up:        l.Up,
			SpeedMbps: s.linkSpeed(l.Name),
			Default:   l.Name == list.Default,
			Virtual:   IsVirtualNIC(l.Name),
			Addrs:     []NICAddr{},
		}
		for _, a := range l.Addrs {
			family := "AF_INET"
			if a.Is6() {
				family = "AF_INET6"
			}
			info.Addrs = append(info.Addrs, NICAddr{Family: family, Address: a.String()})
		}
		list.Interfaces = append(list.Interfaces, info)
	}

	sort.Slice(list.Interfaces, func(i, j int) bool {
		return list.Interfaces[i].Name < list.Interfaces[j].Name
	})
	return list, nil
}

func (s *Sampler) defaultNIC() string {
	if latest, ok := s.history.Latest(); ok {
		return latest.Network.DefaultNIC
	}
	netDev, err := s.read(filepath.Join("net", "dev"))
	if err != nil {
		return ""
	}
	ifaces, err := parseNetDev(netDev)
	if err != nil {
		return ""
	}
	return DefaultNIC(ifaces)
}

// linkSpeed reads /sys/class/net/<name>/speed in Mbps. Virtual and down
// links report -1 or nothing; both are 0.
func (s *Sampler) linkSpeed(name string) int {
	data, err := os.ReadFile(filepath.Join(s.opts.SysRoot, "class", "net", name, "speed"))
	if err != nil {
		return 0
	}
	speed, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || speed < 0 {
		return 0
	}
	return speed
}
