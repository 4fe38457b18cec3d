package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCPUNum(t *testing.T) {
	assert.Greater(t, GetCPUNum(), 0)
}

func TestGetFreeMemory(t *testing.T) {
	// 受限容器内可能拿不到统计数据，只要求不 panic。
	_ = GetFreeMemory()
}
