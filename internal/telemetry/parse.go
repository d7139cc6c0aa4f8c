package telemetry

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// cpuJiffies stores CPU jiffies for delta calculation.
type cpuJiffies struct {
	total int64
	idle  int64
}

// parseStat reads the aggregate jiffies and core count from /proc/stat.
func parseStat(procStat string) (cpuJiffies, int, error) {
	var j cpuJiffies
	cores := 0
	found := false

	scanner := bufio.NewScanner(strings.NewReader(procStat))
	for scanner.Scan() {
		line := scanner.Text()

		// cpu0, cpu1, ...
		if strings.HasPrefix(line, "cpu") && len(line) > 3 && line[3] >= '0' && line[3] <= '9' {
			cores++
			continue
		}

		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return j, 0, fmt.Errorf("invalid /proc/stat cpu line: %s", line)
		}

		// Fields: cpu user nice system idle iowait irq softirq steal guest guest_nice.
		// guest and guest_nice are already counted in user and nice.
		for i := 1; i < len(fields) && i <= 8; i++ {
			val, err := strconv.ParseInt(fields[i], 10, 64)
			if err != nil {
				return j, 0, fmt.Errorf("failed to parse cpu field %d: %w", i, err)
			}
			j.total += val
			if i == 4 || i == 5 {
				j.idle += val
			}
		}
		found = true
	}

	if err := scanner.Err(); err != nil {
		return j, 0, fmt.Errorf("error scanning /proc/stat: %w", err)
	}
	if !found {
		return j, 0, fmt.Errorf("no aggregate cpu line in /proc/stat")
	}
	return j, cores, nil
}

// cpuPercent is the busy share of the jiffies elapsed between two readings.
// Without a previous reading it falls back to the since-boot average.
func cpuPercent(prev *cpuJiffies, cur cpuJiffies) float64 {
	total, idle := cur.total, cur.idle
	if prev != nil {
		total -= prev.total
		idle -= prev.idle
	}
	if total <= 0 {
		return 0
	}
	pct := float64(total-idle) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	return pct
}

func parseLoadavg(procLoadavg string) ([3]float64, error) {
	var load [3]float64
	fields := strings.Fields(strings.TrimSpace(procLoadavg))
	if len(fields) < 3 {
		return load, fmt.Errorf("invalid /proc/loadavg: %q", procLoadavg)
	}
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return load, fmt.Errorf("failed to parse loadavg field %d: %w", i, err)
		}
		load[i] = val
	}
	return load, nil
}

// parseMeminfo parses memory and swap usage from /proc/meminfo.
func parseMeminfo(procMeminfo string) (MemoryStats, SwapStats, error) {
	var mem MemoryStats
	var swap SwapStats
	var buffers, cached, reclaimable int64
	foundFields := 0

	scanner := bufio.NewScanner(strings.NewReader(procMeminfo))
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		key := strings.TrimSuffix(parts[0], ":")
		val, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		// Values in /proc/meminfo are in kB.
		valBytes := val * 1024

		switch key {
		case "MemTotal":
			mem.Total = valBytes
			foundFields++
		case "MemFree":
			mem.Free = valBytes
			foundFields++
		case "MemAvailable":
			mem.Available = valBytes
			foundFields++
		case "Buffers":
			buffers = valBytes
		case "Cached":
			cached = valBytes
		case "SReclaimable":
			reclaimable = valBytes
		case "SwapTotal":
			swap.Total = valBytes
		case "SwapFree":
			swap.Free = valBytes
		}
	}

	if err := scanner.Err(); err != nil {
		return mem, swap, fmt.Errorf("error scanning /proc/meminfo: %w", err)
	}
	if foundFields < 2 || mem.Total == 0 {
		return mem, swap, fmt.Errorf("insufficient memory info found in /proc/meminfo")
	}

	mem.BuffCache = buffers + cached + reclaimable
	mem.Used = mem.Total - mem.Free - mem.BuffCache
	if mem.Used < 0 {
		mem.Used = mem.Total - mem.Free
	}
	if mem.Available == 0 {
		mem.Available = mem.Free + mem.BuffCache
	}
	mem.Percent = float64(mem.Total-mem.Available) / float64(mem.Total) * 100

	swap.Used = swap.Total - swap.Free
	if swap.Total > 0 {
		swap.Percent = float64(swap.Used) / float64(swap.Total) * 100
	}
	return mem, swap, nil
}

// parseNetDev parses per-interface counters from /proc/net/dev.
func parseNetDev(procNetDev string) ([]InterfaceStats, error) {
	var interfaces []InterfaceStats
	scanner := bufio.NewScanner(strings.NewReader(procNetDev))

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum <= 2 {
			continue
		}

		// "  iface: bytes packets errs drop fifo frame compressed multicast | bytes packets..."
		name, rest, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		fields := strings.Fields(rest)
		if len(fields) < 16 {
			continue
		}

		var vals [4]int64
		for i, idx := range []int{0, 1, 8, 9} {
			v, err := strconv.ParseInt(fields[idx], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse counter %d for %s: %w", idx, name, err)
			}
			vals[i] = v
		}

		interfaces = append(interfaces, InterfaceStats{
			Name:       name,
			Virtual:    IsVirtualNIC(name),
			BytesIn:    vals[0],
			PacketsIn:  vals[1],
			BytesOut:   vals[2],
			PacketsOut: vals[3],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning /proc/net/dev: %w", err)
	}
	return interfaces, nil
}

// parseUptime returns whole seconds since boot from /proc/uptime.
func parseUptime(procUptime string) (int64, error) {
	fields := strings.Fields(procUptime)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty /proc/uptime")
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse uptime: %w", err)
	}
	return int64(secs), nil
}
