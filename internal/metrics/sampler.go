package metrics

import (
	"bytes"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
)

// Sampler produces one system metrics sample.
type Sampler interface {
	Sample() domain.SystemMetrics
}

// SystemSampler reads host counters from /proc where available and
// falls back to Go runtime numbers elsewhere. CPU percent needs two
// samples; the first reads as 0.
type SystemSampler struct {
	prevIdle  uint64
	prevTotal uint64
	now       func() time.Time
}

func NewSystemSampler() *SystemSampler {
	return &SystemSampler{now: time.Now}
}

func (s *SystemSampler) Sample() domain.SystemMetrics {
	sample := domain.SystemMetrics{
		SampledAt:  s.now(),
		Goroutines: runtime.NumGoroutine(),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	sample.MemoryUsedMB = float64(ms.Alloc) / (1024 * 1024)

	if data, err := os.ReadFile("/proc/meminfo"); err == nil {
		if totalKB, availKB, ok := parseMemInfo(data); ok && totalKB > 0 {
			usedKB := totalKB - availKB
			sample.MemoryUsedMB = float64(usedKB) / 1024
			sample.MemoryPercent = 100 * float64(usedKB) / float64(totalKB)
		}
	}

	if data, err := os.ReadFile("/proc/stat"); err == nil {
		if idle, total, ok := parseCPUStat(data); ok {
			if s.prevTotal > 0 && total > s.prevTotal {
				dIdle := float64(idle - s.prevIdle)
				dTotal := float64(total - s.prevTotal)
				sample.CPUPercent = 100 * (1 - dIdle/dTotal)
			}
			s.prevIdle = idle
			s.prevTotal = total
		}
	}

	return sample
}

// parseCPUStat extracts idle and total jiffies from the aggregate cpu
// line of /proc/stat. Idle includes iowait.
func parseCPUStat(data []byte) (idle uint64, total uint64, ok bool) {
	for _, line := range bytes.Split(data, []byte("\n")) {
		fields := strings.Fields(string(line))
		if len(fields) < 5 || fields[0] != "cpu" {
			continue
		}

		for i, field := range fields[1:] {
			value, err := strconv.ParseUint(field, 10, 64)
			if err != nil {
				return 0, 0, false
			}
			total += value
			// idle is field 4, iowait field 5
			if i == 3 || i == 4 {
				idle += value
			}
		}
		return idle, total, true
	}
	return 0, 0, false
}

// parseMemInfo extracts MemTotal and MemAvailable (both kB) from
// /proc/meminfo.
func parseMemInfo(data []byte) (totalKB uint64, availKB uint64, ok bool) {
	var haveTotal, haveAvail bool
	for _, line := range bytes.Split(data, []byte("\n")) {
		fields := strings.Fields(string(line))
		if len(fields) < 2 {
			continue
		}

		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalKB = value
			haveTotal = true
		case "MemAvailable:":
			availKB = value
			haveAvail = true
		}
		if haveTotal && haveAvail {
			return totalKB, availKB, true
		}
	}
	return 0, 0, false
}
