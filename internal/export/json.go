package export

import (
	"github.com/bytedance/sonic"
)

// JSONSerializer 基于 bytedance/sonic 实现 JSON 编解码。
// 使用 ConfigStd，map 键按字典序输出，同一份数据总是得到相同的字节。
type JSONSerializer struct {
	// Indent 非空时输出带缩进的 JSON。
	Indent string
}

var _ Serializer = (*JSONSerializer)(nil)

func (s JSONSerializer) Marshal(v any) ([]byte, error) {
	if s.Indent != "" {
		return sonic.ConfigStd.MarshalIndent(v, "", s.Indent)
	}
	return sonic.ConfigStd.Marshal(v)
}

func (JSONSerializer) Unmarshal(data []byte, v any) error {
	return sonic.ConfigStd.Unmarshal(data, v)
}

func (JSONSerializer) Name() string {
	return FormatJSON
}
