package telemetry

import (
	"net/netip"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTCP = `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 00000000:0016 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 1234 1 0000000000000000 100 0 0 10 0
   1: 0500000A:0016 6400000A:D431 01 00000000:00000000 02:00094F8C 00000000     0        0 5678 4 0000000000000000 20 4 30 10 -1
   2: 0100007F:1F90 0100007F:A2B4 01 00000000:00000000 00:00000000 00000000  1000        0 9012 1 0000000000000000 20 4 30 10 -1
`

const sampleTCP6 = `  sl  local_address                         remote_address                        st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 00000000000000000000000001000000:0016 00000000000000000000000000000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 3456 1 0000000000000000 100 0 0 10 0
   1: 0000000000000000FFFF00000500000A:0016 0000000000000000FFFF00006400000A:D432 01 00000000:00000000 00:00000000 00000000     0        0 7890 1 0000000000000000 20 4 30 10 -1
`

const sampleUDP = `   sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode ref pointer drops
  100: 3500007F:0035 00000000:0000 07 00000000:00000000 00:00000000 00000000   101        0 2222 2 0000000000000000 0
`

func TestDecodeSocketAddr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0100007F:0277", "127.0.0.1"},
		{"0500000A:0016", "10.0.0.5"},
		{"00000000:0000", "0.0.0.0"},
		{"00000000000000000000000001000000:0016", "::1"},
		{"0000000000000000FFFF00000500000A:0016", "10.0.0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			addr, err := decodeSocketAddr(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr.String())
		})
	}

	for _, bad := range []string{"0100007F", "XYZ:0016", "0100:0016"} {
		_, err := decodeSocketAddr(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSockets(t *testing.T) {
	addrs, err := parseSockets(sampleTCP)
	require.NoError(t, err)
	require.Len(t, addrs, 3)
	assert.Equal(t, netip.MustParseAddr("10.0.0.5"), addrs[1])

	addrs, err = parseSockets("  sl  local_address rem_address\n")
	require.NoError(t, err)
	assert.Empty(t, addrs)

	_, err = parseSockets("   0: nothex:0016 00000000:0000 0A\n")
	assert.Error(t, err)
}

func TestCountConnections(t *testing.T) {
	eth0 := netip.MustParseAddr("10.0.0.5")
	lo := netip.MustParseAddr("127.0.0.1")
	owners := map[netip.Addr]string{eth0: "eth0", lo: "lo"}

	stats := countConnections(
		[]netip.Addr{eth0, eth0, lo, netip.IPv4Unspecified()},
		[]netip.Addr{lo},
		owners)

	assert.Equal(t, ConnCount{TCP: 4, UDP: 1}, stats.Total)
	assert.Equal(t, ConnCount{TCP: 2}, stats.Interfaces["eth0"])
	assert.Equal(t, ConnCount{TCP: 1, UDP: 1}, stats.Interfaces["lo"])
	assert.Equal(t, ConnCount{TCP: 1}, stats.Interfaces["other"])
}

func TestSampler_Connections(t *testing.T) {
	p := newFakeProc(t)
	p.write(filepath.Join("net", "tcp"), sampleTCP)
	p.write(filepath.Join("net", "tcp6"), sampleTCP6)
	p.write(filepath.Join("net", "udp"), sampleUDP)
	s, _ := newTestSampler(t, p, Options{})
	s.links = func() ([]Link, error) {
		return []Link{
			{Name: "lo", Up: true, Addrs: []netip.Addr{netip.MustParseAddr("127.0.0.1"), netip.MustParseAddr("::1")}},
			{Name: "eth0", Up: true, Addrs: []netip.Addr{netip.MustParseAddr("10.0.0.5")}},
		}, nil
	}

	sample, err := s.Sample()
	require.NoError(t, err)
	require.NotNil(t, sample.Connections)

	conns := sample.Connections
	assert.Equal(t, ConnCount{TCP: 5, UDP: 1}, conns.Total)
	assert.Equal(t, ConnCount{TCP: 2}, conns.Interfaces["eth0"], "IPv4-mapped addresses count for the IPv4 owner")
	assert.Equal(t, ConnCount{TCP: 2}, conns.Interfaces["lo"])
	assert.Equal(t, ConnCount{TCP: 1, UDP: 1}, conns.Interfaces["other"])
}

func TestSampler_ConnectionsUnavailable(t *testing.T) {
	p := newFakeProc(t)
	s, _ := newTestSampler(t, p, Options{})

	sample, err := s.Sample()
	require.NoError(t, err)
	assert.Nil(t, sample.Connections, "missing socket tables don't fail the sample")
}
