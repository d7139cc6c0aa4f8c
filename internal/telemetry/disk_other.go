//go:build !linux && !darwin

package telemetry

import (
	"fmt"
	"runtime"
)

func diskUsage(path string) (*DiskStats, error) {
	return nil, fmt.Errorf("disk usage is not supported on %s", runtime.GOOS)
}
