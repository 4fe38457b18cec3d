package rgss

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/rxdata-go/internal/marshal"
)

// rb 写出 4.8 字节流，只覆盖地图测试用到的标记。
type rb struct {
	buf []byte
}

func (b *rb) long(x int) *rb {
	switch {
	case x == 0:
		b.buf = append(b.buf, 0)
	case x > 0 && x < 123:
		b.buf = append(b.buf, byte(x+5))
	case x >= 123 && x < 1<<16:
		b.buf = append(b.buf, 2, byte(x), byte(x>>8))
	default:
		panic("unsupported long")
	}
	return b
}

func (b *rb) symbol(name string) *rb {
	b.buf = append(b.buf, ':')
	b.long(len(name))
	b.buf = append(b.buf, name...)
	return b
}

func (b *rb) fixnum(x int) *rb {
	b.buf = append(b.buf, 'i')
	return b.long(x)
}

func (b *rb) userdef(class string, data []byte) *rb {
	b.buf = append(b.buf, 'u')
	b.symbol(class).long(len(data))
	b.buf = append(b.buf, data...)
	return b
}

func TestDecodeMapStream(t *testing.T) {
	tiles := make([]uint16, 2*2*3)
	tiles[2*2+3] = 405
	b := &rb{buf: []byte{4, 8, 'o'}}
	b.symbol(ClassMap).long(4)
	b.symbol("@tileset_id").fixnum(1)
	b.symbol("@width").fixnum(2)
	b.symbol("@height").fixnum(2)
	b.symbol("@data").userdef(ClassTable, tableBytes(3, 2, 2, 3, 12, tiles...))

	dec, err := marshal.NewDecoder(nil)
	require.NoError(t, err)
	doc, err := dec.Decode(context.Background(), b.buf)
	require.NoError(t, err)
	assert.Empty(t, doc.Warnings)
	assert.Empty(t, doc.UnknownClasses)

	m, err := LoadMap(7, doc.Root)
	require.NoError(t, err)
	assert.Equal(t, 7, m.ID)
	assert.Nil(t, m.BGM)
	tile, ok := m.TileAt(LayerMiddle, 1, 1)
	assert.True(t, ok)
	assert.Equal(t, uint16(405), tile)
}
