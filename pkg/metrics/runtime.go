package metrics

import (
	"runtime"
	"time"
)

// SampleRuntime copies heap, goroutine and last GC pause figures into the
// system gauges.
func SampleRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	UpdateSystemMemoryUsage(ms.HeapInuse)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if ms.NumGC > 0 {
		pause := time.Duration(ms.PauseNs[(ms.NumGC+255)%256])
		RecordSystemGCPauseTime(float64(pause.Microseconds()) / 1000)
	}
}
