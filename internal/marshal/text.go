package marshal

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"

	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

const (
	EncodingUTF8   = "UTF-8"
	EncodingASCII  = "US-ASCII"
	EncodingBinary = "ASCII-8BIT"
)

// textCodec 为一个已解析的文本编码。
// enc 为 nil 时表示 UTF-8、US-ASCII 或二进制，按名称特殊处理。
type textCodec struct {
	name string
	enc  encoding.Encoding
}

// 流中常见但不在 IANA 注册表中的编码别名。
var encodingAliases = map[string]textCodec{
	"utf-8":       {name: EncodingUTF8},
	"utf8":        {name: EncodingUTF8},
	"us-ascii":    {name: EncodingASCII},
	"ascii":       {name: EncodingASCII},
	"ascii-8bit":  {name: EncodingBinary},
	"binary":      {name: EncodingBinary},
	"cp932":       {name: "Windows-31J", enc: japanese.ShiftJIS},
	"windows-31j": {name: "Windows-31J", enc: japanese.ShiftJIS},
	"sjis":        {name: "Shift_JIS", enc: japanese.ShiftJIS},
	"shift_jis":   {name: "Shift_JIS", enc: japanese.ShiftJIS},
	"cp1252":      {name: "windows-1252", enc: charmap.Windows1252},
}

// defaultLegacy 为未经解码器构造的字符串使用的旧式编码。
var defaultLegacy = encodingAliases["shift_jis"]

// lookupEncoding 按名称解析编码，先查别名表，再查 IANA 注册表。
func lookupEncoding(name string) (textCodec, error) {
	if codec, ok := encodingAliases[strings.ToLower(name)]; ok {
		return codec, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return textCodec{}, merr.WrapErrParameterInvalidMsg("unknown encoding %q", name)
	}
	if enc == nil {
		return textCodec{}, merr.WrapErrParameterInvalidMsg("unsupported encoding %q", name)
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = name
	}
	return textCodec{name: canonical, enc: enc}, nil
}

// decode 按编码把 raw 转成文本，编码无法表示这些字节时返回错误。
func (c textCodec) decode(raw []byte) (string, error) {
	switch {
	case c.name == EncodingUTF8:
		if !utf8.Valid(raw) {
			return "", merr.WrapErrMalformedValue("string", "invalid UTF-8")
		}
		return string(raw), nil
	case c.name == EncodingASCII:
		for _, b := range raw {
			if b >= utf8.RuneSelf {
				return "", merr.WrapErrMalformedValue("string", "non-ASCII byte")
			}
		}
		return string(raw), nil
	case c.name == EncodingBinary || c.enc == nil:
		return escapeBytes(raw), nil
	}

	out, err := c.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	// x/text 的解码器对无法识别的字节输出替换字符而不报错。
	if bytes.Contains(out, replacementChar) && !bytes.Contains(raw, replacementChar) {
		return "", merr.WrapErrMalformedValue("string", "bytes not representable in "+c.name)
	}
	return string(out), nil
}

var replacementChar = []byte(string(utf8.RuneError))

// escapeBytes 保留可打印 ASCII，反斜杠写成 \\，其余字节写成 \xNN，保证逐字节可还原。
func escapeBytes(raw []byte) string {
	const hex = "0123456789abcdef"
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, b := range raw {
		if b == '\\' {
			sb.WriteString(`\\`)
			continue
		}
		if b >= 0x20 && b < 0x7f || b == '\n' || b == '\t' || b == '\r' {
			sb.WriteByte(b)
			continue
		}
		sb.WriteString(`\x`)
		sb.WriteByte(hex[b>>4])
		sb.WriteByte(hex[b&0x0f])
	}
	return sb.String()
}

// defaultText 解释没有编码属性的字节：合法 UTF-8 直接使用，
// 否则尝试旧式编码，仍失败时使用转义形式。
func defaultText(raw []byte, legacy textCodec) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	if legacy.enc != nil {
		if text, err := legacy.decode(raw); err == nil {
			return text
		}
	}
	return escapeBytes(raw)
}
