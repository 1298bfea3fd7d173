//go:build darwin || freebsd || netbsd || openbsd

package uptime

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

func osUptime() (time.Duration, error) {
	tv, err := unix.SysctlTimeval("kern.boottime")
	if err != nil {
		return 0, fmt.Errorf("sysctl kern.boottime: %w", err)
	}
	return time.Since(time.Unix(tv.Unix())), nil
}
