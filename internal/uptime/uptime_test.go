package uptime

import (
	"runtime"
	"testing"
	"time"
)

func TestProcess(t *testing.T) {
	first := Process()
	time.Sleep(5 * time.Millisecond)
	if second := Process(); second <= first {
		t.Errorf("Process() did not advance: %v then %v", first, second)
	}
}

func TestOS(t *testing.T) {
	d, err := OS()
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skipf("OS uptime source not checked on %s", runtime.GOOS)
	}
	if err != nil {
		t.Fatalf("OS() error = %v", err)
	}
	if d <= 0 {
		t.Errorf("OS() = %v, want positive", d)
	}
	if d < Process() {
		t.Errorf("OS() = %v is shorter than process uptime %v", d, Process())
	}
}

func TestSeconds(t *testing.T) {
	if got := Seconds(2999 * time.Millisecond); got != 2 {
		t.Errorf("Seconds(2.999s) = %d, want 2", got)
	}
}
