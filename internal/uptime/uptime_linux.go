//go:build linux

package uptime

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

func osUptime() (time.Duration, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("sysinfo: %w", err)
	}
	return time.Duration(info.Uptime) * time.Second, nil
}
