package export

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoSerializer 将导出树编码为 google.protobuf.Value 的二进制形式。
// structpb 只接受基础类型，数字统一为 double。
type ProtoSerializer struct{}

var _ Serializer = (*ProtoSerializer)(nil)

func (ProtoSerializer) Marshal(v any) ([]byte, error) {
	pv, err := structpb.NewValue(protoCompatible(v))
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(pv)
}

func (ProtoSerializer) Unmarshal(data []byte, v any) error {
	pv := &structpb.Value{}
	if err := proto.Unmarshal(data, pv); err != nil {
		return err
	}
	if out, ok := v.(*any); ok {
		*out = pv.AsInterface()
		return nil
	}
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("export: ProtoSerializer requires *any or proto.Message, got %T", v)
	}
	proto.Merge(msg, pv)
	return nil
}

func (ProtoSerializer) Name() string {
	return FormatProto
}

// protoCompatible 把 structpb 不认识的切片类型展开为 []any。
func protoCompatible(v any) any {
	switch x := v.(type) {
	case []uint16:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = int64(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = protoCompatible(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = protoCompatible(e)
		}
		return out
	case int:
		return int64(x)
	default:
		return v
	}
}
