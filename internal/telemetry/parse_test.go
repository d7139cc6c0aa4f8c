package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStat(t *testing.T) {
	tests := []struct {
		name      string
		procStat  string
		wantTotal int64
		wantIdle  int64
		wantCores int
		wantErr   bool
	}{
		{
			name: "two core system",
			procStat: `cpu  100 0 50 800 50 0 0 0 0 0
cpu0 50 0 25 400 25 0 0 0 0 0
cpu1 50 0 25 400 25 0 0 0 0 0
intr 12345
ctxt 67890`,
			wantTotal: 1000,
			wantIdle:  850,
			wantCores: 2,
		},
		{
			name:      "guest time is not counted twice",
			procStat:  "cpu  100 0 0 900 0 0 0 0 40 10\ncpu0 100 0 0 900 0 0 0 0 40 10",
			wantTotal: 1000,
			wantIdle:  900,
			wantCores: 1,
		},
		{
			name:      "old kernel with four fields",
			procStat:  "cpu  10 0 10 80",
			wantTotal: 100,
			wantIdle:  80,
		},
		{
			name:     "invalid cpu line",
			procStat: "cpu  invalid data here now",
			wantErr:  true,
		},
		{
			name:     "truncated cpu line",
			procStat: "cpu  1 2",
			wantErr:  true,
		},
		{
			name:     "no aggregate line",
			procStat: "cpu0 1 2 3 4",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, cores, err := parseStat(tt.procStat)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, j.total)
			assert.Equal(t, tt.wantIdle, j.idle)
			assert.Equal(t, tt.wantCores, cores)
		})
	}
}

func TestCPUPercent(t *testing.T) {
	t.Run("since boot without previous reading", func(t *testing.T) {
		assert.InDelta(t, 25.0, cpuPercent(nil, cpuJiffies{total: 1000, idle: 750}), 0.001)
	})

	t.Run("delta against previous reading", func(t *testing.T) {
		prev := &cpuJiffies{total: 1000, idle: 750}
		cur := cpuJiffies{total: 1200, idle: 790}
		// 200 elapsed, 40 idle -> 80% busy
		assert.InDelta(t, 80.0, cpuPercent(prev, cur), 0.001)
	})

	t.Run("no elapsed jiffies", func(t *testing.T) {
		prev := &cpuJiffies{total: 1000, idle: 750}
		assert.Equal(t, 0.0, cpuPercent(prev, *prev))
	})

	t.Run("counter reset", func(t *testing.T) {
		prev := &cpuJiffies{total: 1000, idle: 750}
		assert.Equal(t, 0.0, cpuPercent(prev, cpuJiffies{total: 10, idle: 5}))
	})
}

func TestParseLoadavg(t *testing.T) {
	load, err := parseLoadavg("1.23 2.34 3.45 1/234 5678\n")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1.23, 2.34, 3.45}, load)

	_, err = parseLoadavg("1.0 2.0")
	assert.Error(t, err)

	_, err = parseLoadavg("a b c")
	assert.Error(t, err)
}

const sampleMeminfo = `MemTotal:        8000000 kB
MemFree:         1000000 kB
MemAvailable:    5000000 kB
Buffers:          500000 kB
Cached:          2000000 kB
SwapCached:            0 kB
SReclaimable:     500000 kB
SwapTotal:       2000000 kB
SwapFree:        1500000 kB
`

func TestParseMeminfo(t *testing.T) {
	mem, swap, err := parseMeminfo(sampleMeminfo)
	require.NoError(t, err)

	assert.Equal(t, int64(8000000*1024), mem.Total)
	assert.Equal(t, int64(1000000*1024), mem.Free)
	assert.Equal(t, int64(5000000*1024), mem.Available)
	assert.Equal(t, int64(3000000*1024), mem.BuffCache)
	assert.Equal(t, int64(4000000*1024), mem.Used)
	assert.InDelta(t, 37.5, mem.Percent, 0.001)

	assert.Equal(t, int64(2000000*1024), swap.Total)
	assert.Equal(t, int64(500000*1024), swap.Used)
	assert.InDelta(t, 25.0, swap.Percent, 0.001)
}

func TestParseMeminfo_NoSwap(t *testing.T) {
	_, swap, err := parseMeminfo("MemTotal: 1000 kB\nMemFree: 500 kB\nMemAvailable: 600 kB\n")
	require.NoError(t, err)
	assert.Zero(t, swap.Total)
	assert.Zero(t, swap.Percent)
}

func TestParseMeminfo_WithoutMemAvailable(t *testing.T) {
	mem, _, err := parseMeminfo("MemTotal: 1000 kB\nMemFree: 200 kB\nCached: 300 kB\n")
	require.NoError(t, err)
	assert.Equal(t, int64(500*1024), mem.Available)
	assert.InDelta(t, 50.0, mem.Percent, 0.001)
}

func TestParseMeminfo_Insufficient(t *testing.T) {
	_, _, err := parseMeminfo("Buffers: 100 kB\n")
	assert.Error(t, err)
}

const sampleNetDev = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo:  123456     100    0    0    0     0          0         0   123456     100    0    0    0     0       0          0
  eth0: 9876543    5000    0    0    0     0          0         0  1234567    3000    0    0    0     0       0          0
docker0:       0       0    0    0    0     0          0         0        0       0    0    0    0     0       0          0
`

func TestParseNetDev(t *testing.T) {
	ifaces, err := parseNetDev(sampleNetDev)
	require.NoError(t, err)
	require.Len(t, ifaces, 3)

	assert.Equal(t, InterfaceStats{
		Name: "eth0", BytesIn: 9876543, PacketsIn: 5000, BytesOut: 1234567, PacketsOut: 3000,
	}, ifaces[1])
	assert.True(t, ifaces[0].Virtual)
	assert.False(t, ifaces[1].Virtual)
	assert.True(t, ifaces[2].Virtual)
}

func TestParseNetDev_SkipsShortLines(t *testing.T) {
	ifaces, err := parseNetDev("h1\nh2\n  eth0: 1 2 3\n")
	require.NoError(t, err)
	assert.Empty(t, ifaces)
}

func TestParseNetDev_BadCounter(t *testing.T) {
	_, err := parseNetDev("h1\nh2\n  eth0: x 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0\n")
	assert.Error(t, err)
}

func TestParseUptime(t *testing.T) {
	secs, err := parseUptime("35123.45 120000.00\n")
	require.NoError(t, err)
	assert.Equal(t, int64(35123), secs)

	_, err = parseUptime("")
	assert.Error(t, err)
}
