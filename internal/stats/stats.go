package stats

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

var startedAt = time.Now()

// Snapshot is a point-in-time view of the running process.
type Snapshot struct {
	Uptime     time.Duration
	RSSBytes   uint64
	Goroutines int
}

// Collect gathers process stats. RSS falls back to Go heap usage when
// the platform process reader is unavailable.
func Collect() Snapshot {
	s := Snapshot{
		Uptime:     time.Since(startedAt).Round(time.Second),
		Goroutines: runtime.NumGoroutine(),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			s.RSSBytes = mem.RSS
			return s
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s.RSSBytes = m.HeapAlloc

	return s
}

// FormatBytes renders a byte count in a human unit.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
