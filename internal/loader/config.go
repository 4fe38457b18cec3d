package loader

import (
	"github.com/lk2023060901/rxdata-go/internal/export"
	"github.com/lk2023060901/rxdata-go/internal/marshal"
)

// Config 为批量加载的配置，对应配置文件中的 loader 段。
type Config struct {
	// Workers 为并发解码的协程数，<= 0 时使用 CPU 核心数。
	Workers int `mapstructure:"workers"`

	MaxDepth       int    `mapstructure:"max-depth"`
	VersionRange   string `mapstructure:"version-range"`
	LegacyEncoding string `mapstructure:"legacy-encoding"`

	// ReadAttempts 为读取单个文件的最大尝试次数。
	ReadAttempts int `mapstructure:"read-attempts"`

	// OverrideDir 中与地图同名的文件优先于原文件加载。
	OverrideDir string `mapstructure:"override-dir"`

	Export ExportConfig `mapstructure:"export"`
}

type ExportConfig struct {
	Format   string `mapstructure:"format"`
	Compress string `mapstructure:"compress"`
}

func DefaultConfig() Config {
	return Config{
		ReadAttempts:   3,
		MaxDepth:       marshal.DefaultMaxDepth,
		VersionRange:   marshal.DefaultVersionRange,
		LegacyEncoding: marshal.DefaultLegacyEncoding,
		Export: ExportConfig{
			Format:   export.FormatJSON,
			Compress: export.CompressNone,
		},
	}
}

func (c *Config) decoderOptions() []marshal.Option {
	var opts []marshal.Option
	if c.MaxDepth != 0 {
		opts = append(opts, marshal.WithMaxDepth(c.MaxDepth))
	}
	if c.VersionRange != "" {
		opts = append(opts, marshal.WithVersionRange(c.VersionRange))
	}
	if c.LegacyEncoding != "" {
		opts = append(opts, marshal.WithLegacyEncoding(c.LegacyEncoding))
	}
	return opts
}
