package export

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackSerializer 输出 MessagePack，map 键排序后写出。
type MsgpackSerializer struct{}

var _ Serializer = (*MsgpackSerializer)(nil)

func (MsgpackSerializer) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgpackSerializer) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

func (MsgpackSerializer) Name() string {
	return FormatMsgpack
}
