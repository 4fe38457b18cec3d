package marshal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"UTF-8", "utf8", "US-ASCII", "ASCII-8BIT", "Shift_JIS", "Windows-31J", "CP932", "windows-1252", "EUC-JP", "ISO-8859-1"} {
		codec, err := lookupEncoding(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, codec.name, name)
	}

	_, err := lookupEncoding("x-no-such-encoding")
	assert.Error(t, err)
}

func TestCodecDecode(t *testing.T) {
	sjis, err := lookupEncoding("Shift_JIS")
	require.NoError(t, err)
	text, err := sjis.decode([]byte{0x83, 0x7d, 0x83, 0x62, 0x83, 0x76})
	require.NoError(t, err)
	assert.Equal(t, "マップ", text)

	_, err = sjis.decode([]byte{0x81})
	assert.Error(t, err)

	ascii, _ := lookupEncoding("US-ASCII")
	_, err = ascii.decode([]byte("caf\xc3\xa9"))
	assert.Error(t, err)

	binary, _ := lookupEncoding("ASCII-8BIT")
	text, err = binary.decode([]byte{0x00, 'a'})
	require.NoError(t, err)
	assert.Equal(t, `\x00a`, text)
}

func TestEscapeBytes(t *testing.T) {
	assert.Equal(t, "a\\xff\nb\\x7f", escapeBytes([]byte{'a', 0xff, '\n', 'b', 0x7f}))
	assert.Equal(t, "", escapeBytes(nil))
	assert.Equal(t, `\\x80`, escapeBytes([]byte(`\x80`)))
	assert.NotEqual(t, escapeBytes([]byte{0x80}), escapeBytes([]byte(`\x80`)))
}

func TestStringText(t *testing.T) {
	assert.Equal(t, "town", NewString([]byte("town"), EncodingUTF8).Text())
	assert.Equal(t, "日本", NewString([]byte{0x93, 0xfa, 0x96, 0x7b}, "Shift_JIS").Text())
	assert.Equal(t, "日本", NewString([]byte{0x93, 0xfa, 0x96, 0x7b}, "").Text())
	assert.Equal(t, `\x81`, NewString([]byte{0x81}, "Shift_JIS").Text())
	assert.Equal(t, `\x00a`, NewString([]byte{0x00, 'a'}, EncodingBinary).Text())

	// 直接构造的值按 Raw 与 Encoding 解出文本。
	str := &String{Raw: []byte("map"), Encoding: EncodingUTF8}
	assert.Equal(t, "map", str.Text())
	assert.Equal(t, "map", str.String())
	assert.Equal(t, "", (&String{}).Text())
}

func TestDefaultText(t *testing.T) {
	sjis, _ := lookupEncoding("Shift_JIS")
	assert.Equal(t, "plain", defaultText([]byte("plain"), sjis))
	assert.Equal(t, "日本", defaultText([]byte{0x93, 0xfa, 0x96, 0x7b}, sjis))
	assert.Equal(t, `\x81`, defaultText([]byte{0x81}, sjis))
	assert.Equal(t, `\xff`, defaultText([]byte{0xff}, textCodec{}))
}
