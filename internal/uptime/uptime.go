// Package uptime reports how long the host and the current process have
// been running.
package uptime

import "time"

var processStart = time.Now()

// Process returns the time elapsed since the process started.
func Process() time.Duration {
	return time.Since(processStart)
}

// OS returns the time elapsed since the host booted. Platforms without a
// supported source return 0 and an error.
func OS() (time.Duration, error) {
	return osUptime()
}

// Seconds truncates a duration to whole seconds, the unit used on the wire.
func Seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
