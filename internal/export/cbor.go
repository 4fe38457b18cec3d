package export

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// CBORSerializer 使用 Core Deterministic Encoding（RFC 8949 §4.2）输出 CBOR。
type CBORSerializer struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Serializer = (*CBORSerializer)(nil)

func NewCBORSerializer() (*CBORSerializer, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	// 解码到 any 时使用 map[string]any，与 JSON 的结果保持一致。
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return nil, err
	}
	return &CBORSerializer{enc: enc, dec: dec}, nil
}

func (s *CBORSerializer) Marshal(v any) ([]byte, error) {
	return s.enc.Marshal(v)
}

func (s *CBORSerializer) Unmarshal(data []byte, v any) error {
	return s.dec.Unmarshal(data, v)
}

func (*CBORSerializer) Name() string {
	return FormatCBOR
}
