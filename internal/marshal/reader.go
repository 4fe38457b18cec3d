package marshal

import (
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

// reader 是对内存缓冲区的只进游标。
type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, merr.WrapErrUnexpectedEndOfStream(1, 0)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// readBytes 返回接下来的 n 个字节，结果与底层缓冲区共享内存。
func (r *reader) readBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, merr.WrapErrMalformedValue("length", "negative length")
	}
	if n > r.remaining() {
		return nil, merr.WrapErrUnexpectedEndOfStream(n, r.remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// readLong 读取变长有符号整数。
// 首字节 c：0 表示 0；5..127 表示 c-5；-128..-5 表示 c+5；
// 1..4 表示其后 c 个小端字节的正数；-4..-1 表示其后 -c 个小端字节的负数。
func (r *reader) readLong() (int64, error) {
	b, err := r.readByte()
	if err != nil {
		return 0, err
	}
	c := int8(b)
	switch {
	case c == 0:
		return 0, nil
	case c > 4:
		return int64(c) - 5, nil
	case c < -4:
		return int64(c) + 5, nil
	case c > 0:
		buf, err := r.readBytes(int(c))
		if err != nil {
			return 0, err
		}
		var x int64
		for i, v := range buf {
			x |= int64(v) << (8 * i)
		}
		return x, nil
	default:
		buf, err := r.readBytes(int(-c))
		if err != nil {
			return 0, err
		}
		x := int64(-1)
		for i, v := range buf {
			x &^= int64(0xff) << (8 * i)
			x |= int64(v) << (8 * i)
		}
		return x, nil
	}
}

// readLength 读取一个非负的长度或计数。
func (r *reader) readLength() (int, error) {
	n, err := r.readLong()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, merr.WrapErrMalformedValue("length", "negative length")
	}
	return int(n), nil
}

// readString 读取长度前缀的字节串。
func (r *reader) readString() ([]byte, error) {
	n, err := r.readLength()
	if err != nil {
		return nil, err
	}
	return r.readBytes(n)
}

// readShort 读取一个小端 16 位无符号整数。
func (r *reader) readShort() (uint16, error) {
	b, err := r.readBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}
