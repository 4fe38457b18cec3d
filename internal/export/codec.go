package export

import (
	"io"

	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

const (
	FormatJSON    = "json"
	FormatCBOR    = "cbor"
	FormatProto   = "pb"
	FormatMsgpack = "msgpack"

	CompressNone = "none"
	CompressZstd = "zstd"
)

// Codec 抽象了“从解码结果到导出字节，以及从导出字节回到导出树”的完整流程。
//
// Pipeline（写出 Encode）：
//
//	Value --> Tree --> serializer --> [compress?] --> io.Writer
//
// Pipeline（读入 Decode）：
//
//	bytes --> [decompress?] --> serializer --> 导出树
type Codec interface {
	// Encode 将 v 转换并写入 w。
	Encode(w io.Writer, v marshal.Value) error

	// Marshal 返回 v 导出后的完整字节。
	Marshal(v marshal.Value) ([]byte, error)

	// Decode 将 Marshal 的输出还原为导出树。
	Decode(data []byte) (any, error)

	// Ext 返回导出文件的扩展名，例如 ".json.zst"。
	Ext() string

	// Close 释放压缩器持有的资源。
	Close()
}

// Options 用于构造 Codec 的依赖注入参数。
type Options struct {
	Serializer Serializer
	Compressor Compressor // 允许为 nil（内部会用 NopCompressor）
}

type codec struct {
	serializer Serializer
	compressor Compressor
}

var _ Codec = (*codec)(nil)

// New 创建一个基于给定依赖的 Codec。
func New(opts Options) (Codec, error) {
	if opts.Serializer == nil {
		return nil, merr.WrapErrParameterMissing("serializer")
	}
	c := &codec{
		serializer: opts.Serializer,
		compressor: opts.Compressor,
	}
	if c.compressor == nil {
		c.compressor = NopCompressor{}
	}
	return c, nil
}

// NewFromConfig 按格式名与压缩方式创建 Codec。
// format 为 json、cbor、msgpack 或 pb，compress 为 none、zstd 或空串。
func NewFromConfig(format, compress string) (Codec, error) {
	var opts Options
	switch format {
	case FormatJSON, "":
		opts.Serializer = JSONSerializer{Indent: "    "}
	case FormatProto:
		opts.Serializer = ProtoSerializer{}
	case FormatMsgpack:
		opts.Serializer = MsgpackSerializer{}
	case FormatCBOR:
		s, err := NewCBORSerializer()
		if err != nil {
			return nil, merr.WrapErrExportFailed(format, err)
		}
		opts.Serializer = s
	default:
		return nil, merr.WrapErrParameterInvalidMsg("unknown export format %q", format)
	}

	switch compress {
	case CompressNone, "":
	case CompressZstd:
		z, err := NewZstdCompressor()
		if err != nil {
			return nil, merr.WrapErrExportFailed(format, err)
		}
		opts.Compressor = z
	default:
		return nil, merr.WrapErrParameterInvalidMsg("unknown export compression %q", compress)
	}
	return New(opts)
}

func (c *codec) Marshal(v marshal.Value) ([]byte, error) {
	// 第一步：转换为导出树并序列化。
	body, err := c.serializer.Marshal(Tree(v))
	if err != nil {
		return nil, merr.WrapErrExportFailed(c.serializer.Name(), err)
	}

	// 第二步：可选压缩。
	body, err = c.compressor.Compress(nil, body)
	if err != nil {
		return nil, merr.WrapErrExportFailed(c.serializer.Name(), err)
	}
	return body, nil
}

func (c *codec) Encode(w io.Writer, v marshal.Value) error {
	if w == nil {
		return merr.WrapErrParameterMissing("writer")
	}
	body, err := c.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return merr.WrapErrExportFailed(c.serializer.Name(), err)
	}
	return nil
}

func (c *codec) Decode(data []byte) (any, error) {
	plain, err := c.compressor.Decompress(nil, data)
	if err != nil {
		return nil, merr.WrapErrExportFailed(c.serializer.Name(), err)
	}
	var out any
	if err := c.serializer.Unmarshal(plain, &out); err != nil {
		return nil, merr.WrapErrExportFailed(c.serializer.Name(), err)
	}
	return out, nil
}

func (c *codec) Ext() string {
	return "." + c.serializer.Name() + c.compressor.Ext()
}

func (c *codec) Close() {
	if z, ok := c.compressor.(*ZstdCompressor); ok {
		z.Close()
	}
}
