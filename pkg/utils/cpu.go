package utils

import "github.com/shirou/gopsutil/cpu"

// CheckCPUUsage samples aggregate CPU usage and reports whether it is at
// or below limit. Sampling errors read as busy so claim loops back off.
func CheckCPUUsage(limit float64) (bool, float64) {
	percentages, err := cpu.Percent(0, false)
	if err != nil || len(percentages) == 0 {
		return false, 0
	}
	current := percentages[0]
	return current <= limit, current
}
