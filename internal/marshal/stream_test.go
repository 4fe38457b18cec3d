package marshal

// stream 为测试用的字节流构造器，按 4.8 格式写出各类标记。
type stream struct {
	buf []byte
}

func newStream() *stream {
	return &stream{buf: []byte{4, 8}}
}

func (s *stream) bytes() []byte {
	return s.buf
}

func (s *stream) raw(b ...byte) *stream {
	s.buf = append(s.buf, b...)
	return s
}

func (s *stream) tag(t Tag) *stream {
	return s.raw(byte(t))
}

// long 按变长整数规则写出 x。
func (s *stream) long(x int64) *stream {
	switch {
	case x == 0:
		return s.raw(0)
	case 0 < x && x < 123:
		return s.raw(byte(x + 5))
	case -124 < x && x < 0:
		return s.raw(byte((x - 5) & 0xff))
	}
	var out []byte
	for i := 1; i <= 8; i++ {
		out = append(out, byte(x&0xff))
		x >>= 8
		if x == 0 {
			return s.raw(byte(i)).raw(out...)
		}
		if x == -1 {
			return s.raw(byte(-i)).raw(out...)
		}
	}
	return s.raw(out...)
}

func (s *stream) str(b []byte) *stream {
	return s.long(int64(len(b))).raw(b...)
}

func (s *stream) fixnum(x int64) *stream {
	return s.tag(TagFixnum).long(x)
}

func (s *stream) symbol(name string) *stream {
	return s.tag(TagSymbol).str([]byte(name))
}

func (s *stream) symlink(index int64) *stream {
	return s.tag(TagSymlink).long(index)
}

func (s *stream) link(index int64) *stream {
	return s.tag(TagLink).long(index)
}

func (s *stream) array(n int64) *stream {
	return s.tag(TagArray).long(n)
}

func (s *stream) hash(n int64) *stream {
	return s.tag(TagHash).long(n)
}

func (s *stream) rstring(text string) *stream {
	return s.tag(TagString).str([]byte(text))
}

// utf8String 写出带 E=true 的 IVAR 字符串。
func (s *stream) utf8String(text string) *stream {
	return s.tag(TagIVar).rstring(text).long(1).symbol("E").tag(TagTrue)
}

func (s *stream) object(class string, attrs int64) *stream {
	return s.tag(TagObject).symbol(class).long(attrs)
}

func (s *stream) userdef(class string, data []byte) *stream {
	return s.tag(TagUserDef).symbol(class).str(data)
}
