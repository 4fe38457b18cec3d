package hardware

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/lk2023060901/rxdata-go/pkg/log"
)

// GetCPUNum 返回逻辑 CPU 核数，查询失败时退回 runtime.NumCPU。
func GetCPUNum() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		log.Warn("failed to get cpu counts, fallback to runtime", zap.Error(err))
		return runtime.NumCPU()
	}
	return n
}

// GetFreeMemory 返回当前可用内存字节数，查询失败时返回 0。
func GetFreeMemory() uint64 {
	stats, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("failed to get memory stats", zap.Error(err))
		return 0
	}
	return stats.Available
}
