package loader

import (
	"encoding/binary"
)

// rb 写出 4.8 字节流，只覆盖测试数据用到的标记。
type rb struct {
	buf []byte
}

func newRB() *rb {
	return &rb{buf: []byte{4, 8}}
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

func (b *rb) raw(p ...byte) *rb {
	b.buf = append(b.buf, p...)
	return b
}

func (b *rb) symbol(name string) *rb {
	return b.raw(':').long(len(name)).raw([]byte(name)...)
}

func (b *rb) fixnum(x int) *rb {
	return b.raw('i').long(x)
}

func (b *rb) str(s string) *rb {
	return b.raw('"').long(len(s)).raw([]byte(s)...)
}

func (b *rb) object(class string, attrs int) *rb {
	return b.raw('o').symbol(class).long(attrs)
}

func (b *rb) table(x, y, z int) *rb {
	count := x * y * z
	data := make([]byte, 20, 20+2*count)
	binary.LittleEndian.PutUint32(data[0:], 3)
	binary.LittleEndian.PutUint32(data[4:], uint32(x))
	binary.LittleEndian.PutUint32(data[8:], uint32(y))
	binary.LittleEndian.PutUint32(data[12:], uint32(z))
	binary.LittleEndian.PutUint32(data[16:], uint32(count))
	for i := 0; i < count; i++ {
		data = binary.LittleEndian.AppendUint16(data, uint16(i))
	}
	return b.raw('u').symbol("Table").long(len(data)).raw(data...)
}

func mapBytes(width, height int) []byte {
	b := newRB().object("RPG::Map", 4)
	b.symbol("@tileset_id").fixnum(1)
	b.symbol("@width").fixnum(width)
	b.symbol("@height").fixnum(height)
	b.symbol("@data").table(width, height, 3)
	return b.buf
}

func tilesetsBytes() []byte {
	b := newRB().raw('[').long(2).raw('0')
	b.object("RPG::Tileset", 4)
	b.symbol("@id").fixnum(1)
	b.symbol("@name").str("Outside")
	b.symbol("@tileset_name").str("Outskirts")
	b.symbol("@terrain_tags").table(400, 1, 1)
	return b.buf
}

func mapInfosBytes() []byte {
	b := newRB().raw('{').long(2)
	b.fixnum(1).object("RPG::MapInfo", 3)
	b.symbol("@name").str("World")
	b.symbol("@parent_id").fixnum(0)
	b.symbol("@order").fixnum(1)
	b.fixnum(2).object("RPG::MapInfo", 3)
	b.symbol("@name").str("Town")
	b.symbol("@parent_id").fixnum(1)
	b.symbol("@order").fixnum(2)
	return b.buf
}
