package rgss

import (
	"github.com/lk2023060901/rxdata-go/internal/marshal"
)

const (
	ClassTable = "Table"
	ClassColor = "Color"
	ClassTone  = "Tone"
)

// Register 将 RGSS 内置的不透明类注册到 reg。
func Register(reg *marshal.Registry) error {
	builtins := []struct {
		name string
		ext  marshal.OpaqueDecoder
	}{
		{ClassTable, tableDecoder{}},
		{ClassColor, colorDecoder{}},
		{ClassTone, toneDecoder{}},
	}
	for _, b := range builtins {
		if err := reg.Register(b.name, marshal.CapabilityOpaque, b.ext); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	if err := Register(marshal.DefaultRegistry()); err != nil {
		panic(err)
	}
}
