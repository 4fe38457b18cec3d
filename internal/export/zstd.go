package export

import (
	"github.com/klauspost/compress/zstd"

	"github.com/lk2023060901/rxdata-go/pkg/util/hardware"
)

// ZstdCompressor 基于 github.com/klauspost/compress/zstd 的压缩实现。
// 持有独立的 encoder/decoder 实例，生命周期由调用方决定。
type ZstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ Compressor = (*ZstdCompressor)(nil)

// NewZstdCompressor 创建一个 ZstdCompressor，默认并发度为主机 CPU 核心数。
func NewZstdCompressor() (*ZstdCompressor, error) {
	return NewZstdCompressorWithConcurrency(0)
}

// NewZstdCompressorWithConcurrency 创建一个 ZstdCompressor。
// concurrency <= 0 时使用主机 CPU 核心数。
func NewZstdCompressorWithConcurrency(concurrency int) (*ZstdCompressor, error) {
	if concurrency <= 0 {
		concurrency = hardware.GetCPUNum()
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithZeroFrames(true),
		zstd.WithEncoderConcurrency(concurrency),
	)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(concurrency))
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &ZstdCompressor{
		enc: enc,
		dec: dec,
	}, nil
}

func (c *ZstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	if c == nil || c.enc == nil {
		return nil, zstd.ErrEncoderClosed
	}
	return c.enc.EncodeAll(src, dst[:0]), nil
}

func (c *ZstdCompressor) Decompress(dst, src []byte) ([]byte, error) {
	if c == nil || c.dec == nil {
		return nil, zstd.ErrDecoderClosed
	}
	return c.dec.DecodeAll(src, dst[:0])
}

func (*ZstdCompressor) Ext() string {
	return ".zst"
}

// Close 释放内部 encoder/decoder 持有的资源，再次使用将返回 ErrEncoderClosed/ErrDecoderClosed。
func (c *ZstdCompressor) Close() {
	if c == nil {
		return
	}
	if c.enc != nil {
		_ = c.enc.Close()
		c.enc = nil
	}
	if c.dec != nil {
		c.dec.Close()
		c.dec = nil
	}
}
