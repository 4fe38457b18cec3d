package rgss

import (
	"encoding/binary"

	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

// tableHeaderSize 为五个小端 uint32：kind、dim_x、dim_y、dim_z、element_count。
const tableHeaderSize = 20

// Table 为 RGSS 的定长多维 uint16 数组。
// 元素按 x 最快、其次 y、最后 z 的顺序平铺存放。
type Table struct {
	marshal.IVarMeta
	Dim  uint32
	X    uint32
	Y    uint32
	Z    uint32
	Data []uint16
}

var (
	_ marshal.Value      = (*Table)(nil)
	_ marshal.IVarHolder = (*Table)(nil)
	_ marshal.IVarHolder = (*Color)(nil)
	_ marshal.IVarHolder = (*Tone)(nil)
)

func (*Table) Kind() marshal.Kind { return marshal.KindExtension }

// ParseTable 解析 Table 的私有二进制布局。
// 头部之后的字节数必须恰好为 2*element_count。
func ParseTable(data []byte) (*Table, error) {
	if len(data) < tableHeaderSize {
		return nil, merr.WrapErrTruncatedPayload(ClassTable, tableHeaderSize, len(data))
	}
	t := &Table{
		Dim: binary.LittleEndian.Uint32(data[0:4]),
		X:   binary.LittleEndian.Uint32(data[4:8]),
		Y:   binary.LittleEndian.Uint32(data[8:12]),
		Z:   binary.LittleEndian.Uint32(data[12:16]),
	}
	count := binary.LittleEndian.Uint32(data[16:20])

	body := data[tableHeaderSize:]
	if uint64(len(body)) != 2*uint64(count) {
		return nil, merr.WrapErrTruncatedPayload(ClassTable, 2*int(count), len(body))
	}
	t.Data = make([]uint16, count)
	for i := range t.Data {
		t.Data[i] = binary.LittleEndian.Uint16(body[2*i:])
	}
	return t, nil
}

func (t *Table) Len() int {
	return len(t.Data)
}

// At 返回 (x, y, z) 处的元素，越界时返回 false。
func (t *Table) At(x, y, z int) (uint16, bool) {
	if x < 0 || y < 0 || z < 0 || x >= int(t.X) || y >= max(int(t.Y), 1) || z >= max(int(t.Z), 1) {
		return 0, false
	}
	i := x + int(t.X)*(y+max(int(t.Y), 1)*z)
	if i >= len(t.Data) {
		return 0, false
	}
	return t.Data[i], true
}

// Row 返回第 z 层第 y 行，越界时返回 nil。
func (t *Table) Row(y, z int) []uint16 {
	start := int(t.X) * (y + max(int(t.Y), 1)*z)
	end := start + int(t.X)
	if y < 0 || z < 0 || start < 0 || end > len(t.Data) {
		return nil
	}
	return t.Data[start:end]
}

type tableDecoder struct{}

func (tableDecoder) DecodeOpaque(_ string, data []byte) (marshal.Value, error) {
	return ParseTable(data)
}
