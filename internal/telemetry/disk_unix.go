//go:build linux || darwin

package telemetry

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// diskUsage reports usage of the filesystem holding path. Free counts blocks
// available to unprivileged users, matching df.
func diskUsage(path string) (*DiskStats, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return nil, fmt.Errorf("statfs %s: %w", path, err)
	}

	bsize := uint64(st.Bsize)
	total := uint64(st.Blocks) * bsize
	free := uint64(st.Bavail) * bsize
	used := total - uint64(st.Bfree)*bsize

	d := &DiskStats{Path: path, Total: total, Used: used, Free: free}
	if used+free > 0 {
		d.Percent = float64(used) / float64(used+free) * 100
	}
	return d, nil
}
