//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package uptime

import (
	"errors"
	"time"
)

func osUptime() (time.Duration, error) {
	return 0, errors.New("os uptime not supported on this platform")
}
