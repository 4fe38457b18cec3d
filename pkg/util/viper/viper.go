package viper

import (
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON 配置加载接口。
type Config struct {
	v *spfviper.Viper
}

// New 创建一个空的 Config。
// 未加载任何文件时，Get/Unmarshal 只会看到 SetDefault 与环境变量中的值。
func New() *Config {
	return &Config{
		v: spfviper.New(),
	}
}

// LoadFile 将 YAML 或 JSON 配置文件加载到 Config 中。
// 文件类型通过扩展名（.yaml/.yml/.json）推断。
func (c *Config) LoadFile(path string) error {
	c.ensure()
	c.v.SetConfigFile(path)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	default:
		// 让 viper 自行推断类型，或在读取时返回清晰的错误信息。
	}

	return c.v.ReadInConfig()
}

// BindEnv 允许以 prefix_KEY 形式的环境变量覆盖配置，key 中的 "." 与 "-" 映射为 "_"。
func (c *Config) BindEnv(prefix string) {
	c.ensure()
	c.v.SetEnvPrefix(prefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.v.AutomaticEnv()
}

// SetDefault 为指定 key 设置缺省值。
func (c *Config) SetDefault(key string, value any) {
	c.ensure()
	c.v.SetDefault(key, value)
}

// IsSet 判断 key 是否在任一配置来源中出现。
func (c *Config) IsSet(key string) bool {
	if c.v == nil {
		return false
	}
	return c.v.IsSet(key)
}

// Unmarshal 将完整配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) Unmarshal(dst interface{}) error {
	if c.v == nil {
		return nil
	}
	return c.v.Unmarshal(dst)
}

// UnmarshalKey 将指定 key 对应的子配置反序列化到 dst。
// dst 应为结构体或 map 的指针。子配置由缺省值、文件与环境变量合并而成，
// 文件中只写出部分字段时其余字段仍取缺省值。
func (c *Config) UnmarshalKey(key string, dst interface{}) error {
	if c.v == nil {
		return nil
	}
	sub, ok := lookupPath(c.v.AllSettings(), strings.Split(strings.ToLower(key), "."))
	if !ok {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(sub)
}

func lookupPath(settings map[string]any, path []string) (any, bool) {
	var cur any = settings
	for _, part := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func (c *Config) ensure() {
	if c.v == nil {
		c.v = spfviper.New()
	}
}
