// Package telemetry samples resource usage of the local host from /proc and
// keeps a short in-memory history for the dashboard.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/morezaGeek/Server-Monitor/internal/logger"
)

// Options configures a Sampler.
type Options struct {
	// ProcRoot is the procfs mount, normally /proc.
	ProcRoot string
	// SysRoot is the sysfs mount, normally /sys.
	SysRoot string
	// DiskPath is the mount point whose usage is reported. Empty skips disk.
	DiskPath string
	Interval time.Duration
	History  int
	Logger   logger.Logger
}

// Sampler reads /proc on an interval and records the results.
type Sampler struct {
	opts    Options
	history *History
	log     logger.Logger
	now     func() time.Time
	links   func() ([]Link, error)

	mu       sync.Mutex
	prevCPU  *cpuJiffies
	prevNet  map[string]InterfaceStats
	prevTime time.Time
}

// NewSampler creates a sampler. Zero options fall back to /proc, 30s and
// DefaultHistorySize.
func NewSampler(opts Options) *Sampler {
	if opts.ProcRoot == "" {
		opts.ProcRoot = "/proc"
	}
	if opts.SysRoot == "" {
		opts.SysRoot = "/sys"
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewEnvLogger("[telemetry]")
	}
	return &Sampler{
		opts:    opts,
		history: NewHistory(opts.History),
		log:     log,
		now:     time.Now,
		links:   systemLinks,
	}
}

// History returns the ring the sampler records into.
func (s *Sampler) History() *History {
	return s.history
}

// Run samples immediately and then every interval until ctx is done.
// Failed samples are logged and skipped.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.record()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.record()
		}
	}
}

func (s *Sampler) record() {
	sample, err := s.Sample()
	if err != nil {
		s.log.Warn("sample failed: %v", err)
		return
	}
	s.history.Push(*sample)
}

// Sample takes one reading. CPU percent and network rates are deltas
// against the previous call.
func (s *Sampler) Sample() (*Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sample := &Sample{Timestamp: now}

	stat, err := s.read("stat")
	if err != nil {
		return nil, err
	}
	jiffies, cores, err := parseStat(stat)
	if err != nil {
		return nil, err
	}
	sample.CPU.Cores = cores
	sample.CPU.Percent = cpuPercent(s.prevCPU, jiffies)

	if loadavg, err := s.read("loadavg"); err == nil {
		if load, err := parseLoadavg(loadavg); err == nil {
			sample.CPU.LoadAvg = load
		}
	}

	meminfo, err := s.read("meminfo")
	if err != nil {
		return nil, err
	}
	if sample.Memory, sample.Swap, err = parseMeminfo(meminfo); err != nil {
		return nil, err
	}

	netDev, err := s.read(filepath.Join("net", "dev"))
	if err != nil {
		return nil, err
	}
	ifaces, err := parseNetDev(netDev)
	if err != nil {
		return nil, err
	}
	s.applyRates(ifaces, now)
	sample.Network = NetworkStats{DefaultNIC: DefaultNIC(ifaces), Interfaces: ifaces}

	if conns, err := s.connections(); err != nil {
		s.log.Debug("%v", err)
	} else {
		sample.Connections = conns
	}

	if uptime, err := s.read("uptime"); err == nil {
		if secs, err := parseUptime(uptime); err == nil {
			sample.System.UptimeSeconds = secs
		}
	}
	sample.System.Hostname, _ = os.Hostname()

	if s.opts.DiskPath != "" {
		disk, err := diskUsage(s.opts.DiskPath)
		if err != nil {
			s.log.Debug("%v", err)
		} else {
			sample.Disk = disk
		}
	}

	s.prevCPU = &jiffies
	s.prevTime = now
	s.prevNet = make(map[string]InterfaceStats, len(ifaces))
	for _, iface := range ifaces {
		s.prevNet[iface.Name] = iface
	}
	return sample, nil
}

// applyRates fills per-second rates from the previous counters. A counter
// that went backwards (wrap or reset) reports zero.
func (s *Sampler) applyRates(ifaces []InterfaceStats, now time.Time) {
	elapsed := now.Sub(s.prevTime).Seconds()
	if s.prevNet == nil || elapsed <= 0 {
		return
	}

	rate := func(cur, prev int64) float64 {
		if cur < prev {
			return 0
		}
		return float64(cur-prev) / elapsed
	}

	for i := range ifaces {
		prev, ok := s.prevNet[ifaces[i].Name]
		if !ok {
			continue
		}
		ifaces[i].RecvBps = rate(ifaces[i].BytesIn, prev.BytesIn)
		ifaces[i].SentBps = rate(ifaces[i].BytesOut, prev.BytesOut)
		ifaces[i].RecvPps = rate(ifaces[i].PacketsIn, prev.PacketsIn)
		ifaces[i].SentPps = rate(ifaces[i].PacketsOut, prev.PacketsOut)
	}
}

func (s *Sampler) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.opts.ProcRoot, name))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}
