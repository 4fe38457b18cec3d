package rgss

import (
	"encoding/binary"
	"math"

	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

// 四个小端 float64。
const quadSize = 32

func parseQuad(class string, data []byte) ([4]float64, error) {
	var q [4]float64
	if len(data) != quadSize {
		return q, merr.WrapErrTruncatedPayload(class, quadSize, len(data))
	}
	for i := range q {
		q[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
	}
	return q, nil
}

// Color 为 RGBA 颜色，分量范围 0..255。
type Color struct {
	marshal.IVarMeta
	Red, Green, Blue, Alpha float64
}

func (*Color) Kind() marshal.Kind { return marshal.KindExtension }

// Tone 为色调调整，Gray 范围 0..255，其余分量 -255..255。
type Tone struct {
	marshal.IVarMeta
	Red, Green, Blue, Gray float64
}

func (*Tone) Kind() marshal.Kind { return marshal.KindExtension }

type colorDecoder struct{}

func (colorDecoder) DecodeOpaque(class string, data []byte) (marshal.Value, error) {
	q, err := parseQuad(class, data)
	if err != nil {
		return nil, err
	}
	return &Color{Red: q[0], Green: q[1], Blue: q[2], Alpha: q[3]}, nil
}

type toneDecoder struct{}

func (toneDecoder) DecodeOpaque(class string, data []byte) (marshal.Value, error) {
	q, err := parseQuad(class, data)
	if err != nil {
		return nil, err
	}
	return &Tone{Red: q[0], Green: q[1], Blue: q[2], Gray: q[3]}, nil
}
