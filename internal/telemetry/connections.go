package telemetry

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net/netip"
	"path/filepath"
	"strings"
)

// socketTables are the /proc/net files listing sockets, by protocol.
var socketTables = []struct {
	name string
	tcp  bool
}{
	{"tcp", true},
	{"tcp6", true},
	{"udp", false},
	{"udp6", false},
}

// parseSockets returns the local address of every row in a /proc/net/tcp,
// tcp6, udp or udp6 table.
func parseSockets(table string) ([]netip.Addr, error) {
	var addrs []netip.Addr

	scanner := bufio.NewScanner(strings.NewReader(table))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// Header: sl local_address rem_address st ...
		if len(fields) < 2 || fields[0] == "sl" {
			continue
		}
		addr, err := decodeSocketAddr(fields[1])
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning socket table: %w", err)
	}
	return addrs, nil
}

// decodeSocketAddr parses "0100007F:0277". The address is hex in host byte
// order, one 32-bit word at a time.
func decodeSocketAddr(field string) (netip.Addr, error) {
	host, _, ok := strings.Cut(field, ":")
	if !ok {
		return netip.Addr{}, fmt.Errorf("invalid socket address: %s", field)
	}
	raw, err := hex.DecodeString(host)
	if err != nil || (len(raw) != 4 && len(raw) != 16) {
		return netip.Addr{}, fmt.Errorf("invalid socket address: %s", field)
	}

	for i := 0; i < len(raw); i += 4 {
		raw[i], raw[i+1], raw[i+2], raw[i+3] = raw[i+3], raw[i+2], raw[i+1], raw[i]
	}
	addr, _ := netip.AddrFromSlice(raw)
	return addr.Unmap(), nil
}

// countConnections attributes each socket to the interface owning its local
// address.
func countConnections(tcp, udp []netip.Addr, owners map[netip.Addr]string) *ConnectionStats {
	stats := &ConnectionStats{Interfaces: make(map[string]ConnCount)}

	add := func(addr netip.Addr, isTCP bool) {
		name, ok := owners[addr]
		if !ok {
			name = "other"
		}
		c := stats.Interfaces[name]
		if isTCP {
			c.TCP++
			stats.Total.TCP++
		} else {
			c.UDP++
			stats.Total.UDP++
		}
		stats.Interfaces[name] = c
	}

	for _, a := range tcp {
		add(a, true)
	}
	for _, a := range udp {
		add(a, false)
	}
	return stats
}

// connections reads the socket tables. Missing tables (no IPv6) are
// skipped; it fails only when none can be read.
func (s *Sampler) connections() (*ConnectionStats, error) {
	var tcp, udp []netip.Addr
	read := 0

	for _, t := range socketTables {
		table, err := s.read(filepath.Join("net", t.name))
		if err != nil {
			continue
		}
		addrs, err := parseSockets(table)
		if err != nil {
			return nil, fmt.Errorf("failed to parse net/%s: %w", t.name, err)
		}
		read++
		if t.tcp {
			tcp = append(tcp, addrs...)
		} else {
			udp = append(udp, addrs...)
		}
	}
	if read == 0 {
		return nil, fmt.Errorf("no socket tables under %s/net", s.opts.ProcRoot)
	}

	owners := make(map[netip.Addr]string)
	if links, err := s.links(); err != nil {
		s.log.Debug("failed to list interfaces: %v", err)
	} else {
		for _, l := range links {
			for _, a := range l.Addrs {
				owners[a] = l.Name
			}
		}
	}
	return countConnections(tcp, udp, owners), nil
}
