package rgss

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

func tableBytes(dim, x, y, z, count uint32, elems ...uint16) []byte {
	buf := make([]byte, tableHeaderSize, tableHeaderSize+2*len(elems))
	binary.LittleEndian.PutUint32(buf[0:], dim)
	binary.LittleEndian.PutUint32(buf[4:], x)
	binary.LittleEndian.PutUint32(buf[8:], y)
	binary.LittleEndian.PutUint32(buf[12:], z)
	binary.LittleEndian.PutUint32(buf[16:], count)
	for _, e := range elems {
		buf = binary.LittleEndian.AppendUint16(buf, e)
	}
	return buf
}

func TestParseTable(t *testing.T) {
	tbl, err := ParseTable(tableBytes(0, 1, 1, 1, 3, 7, 8, 9))
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []uint16{7, 8, 9}, tbl.Data)

	_, err = ParseTable(tableBytes(0, 1, 1, 1, 3, 7, 8))
	assert.True(t, errors.Is(err, merr.ErrTruncatedPayload))

	_, err = ParseTable(tableBytes(0, 1, 1, 1, 1, 7, 8))
	assert.True(t, errors.Is(err, merr.ErrTruncatedPayload))

	_, err = ParseTable(make([]byte, 12))
	assert.True(t, errors.Is(err, merr.ErrTruncatedPayload))

	tbl, err = ParseTable(tableBytes(1, 0, 1, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestTableAt(t *testing.T) {
	// 3x2x2，值为平铺下标。
	elems := make([]uint16, 12)
	for i := range elems {
		elems[i] = uint16(i)
	}
	tbl, err := ParseTable(tableBytes(3, 3, 2, 2, 12, elems...))
	require.NoError(t, err)

	v, ok := tbl.At(2, 1, 1)
	assert.True(t, ok)
	assert.Equal(t, uint16(11), v)
	v, ok = tbl.At(1, 0, 1)
	assert.True(t, ok)
	assert.Equal(t, uint16(7), v)

	_, ok = tbl.At(3, 0, 0)
	assert.False(t, ok)
	_, ok = tbl.At(0, 2, 0)
	assert.False(t, ok)
	_, ok = tbl.At(-1, 0, 0)
	assert.False(t, ok)

	assert.Equal(t, []uint16{3, 4, 5}, tbl.Row(1, 0))
	assert.Nil(t, tbl.Row(0, 2))
}

func quadBytes(a, b, c, d float64) []byte {
	var buf []byte
	for _, f := range []float64{a, b, c, d} {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
	}
	return buf
}

func TestColorAndTone(t *testing.T) {
	v, err := colorDecoder{}.DecodeOpaque(ClassColor, quadBytes(255, 128, 0, 64))
	require.NoError(t, err)
	assert.Equal(t, &Color{Red: 255, Green: 128, Blue: 0, Alpha: 64}, v)

	v, err = toneDecoder{}.DecodeOpaque(ClassTone, quadBytes(-10, 0, 10, 255))
	require.NoError(t, err)
	assert.Equal(t, &Tone{Red: -10, Green: 0, Blue: 10, Gray: 255}, v)

	_, err = colorDecoder{}.DecodeOpaque(ClassColor, make([]byte, 24))
	assert.True(t, errors.Is(err, merr.ErrTruncatedPayload))
}

func TestRegister(t *testing.T) {
	reg := marshal.NewRegistry()
	require.NoError(t, Register(reg))
	assert.Equal(t, []string{ClassColor, ClassTable, ClassTone}, reg.Names())

	// 重复注册同名类会失败。
	assert.Error(t, Register(reg))

	entry, ok := marshal.DefaultRegistry().Lookup(ClassTable)
	require.True(t, ok)
	assert.Equal(t, marshal.CapabilityOpaque, entry.Capability)
}
