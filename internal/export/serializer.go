package export

// Serializer 抽象了“导出树 <-> 字节流”的序列化能力。
// 导出树只由 nil、bool、int64、float64、string、[]any、map[string]any 等基础类型组成。
type Serializer interface {
	// Marshal 将导出树编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象。
	//
	// v 通常为指针类型，用于接收解码结果。
	Unmarshal(data []byte, v any) error

	// Name 返回格式名，同时用作导出文件的扩展名。
	Name() string
}
