package rgss

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

const (
	ClassMap       = "RPG::Map"
	ClassAudioFile = "RPG::AudioFile"
)

// Layer 为地图图块层，自下而上序列化。
type Layer int

const (
	LayerLowest Layer = iota
	LayerMiddle
	LayerHighest
)

// AudioFile 为地图的 BGM/BGS 设置。
type AudioFile struct {
	Name   string
	Volume int
	Pitch  int
}

// Map 为一张 RPG Maker XP 地图。
type Map struct {
	ID          int
	TilesetID   int
	Width       int
	Height      int
	AutoplayBGM bool
	BGM         *AudioFile
	AutoplayBGS bool
	BGS         *AudioFile
	Tiles       *Table
}

func (m *Map) TilesPerLayer() int {
	return m.Width * m.Height
}

// TileAt 返回 layer 层 (x, y) 处未经归一化的图块编号。
func (m *Map) TileAt(layer Layer, x, y int) (uint16, bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0, false
	}
	return m.Tiles.At(x, y, int(layer))
}

// LoadMap 从解码后的 RPG::Map 对象读取地图。
// @data 表格的 x/y 尺寸必须与 @width/@height 一致。
func LoadMap(id int, v marshal.Value) (*Map, error) {
	rec, err := newRecord("map", v, ClassMap)
	if err != nil {
		return nil, err
	}

	m := &Map{ID: id}
	if m.TilesetID, err = rec.integer("@tileset_id"); err != nil {
		return nil, err
	}
	if m.Width, err = rec.integer("@width"); err != nil {
		return nil, err
	}
	if m.Height, err = rec.integer("@height"); err != nil {
		return nil, err
	}
	if m.AutoplayBGM, err = rec.optionalBool("@autoplay_bgm"); err != nil {
		return nil, err
	}
	if m.BGM, err = loadAudio(rec, "@bgm"); err != nil {
		return nil, err
	}
	if m.AutoplayBGS, err = rec.optionalBool("@autoplay_bgs"); err != nil {
		return nil, err
	}
	if m.BGS, err = loadAudio(rec, "@bgs"); err != nil {
		return nil, err
	}
	if m.Tiles, err = rec.table("@data"); err != nil {
		return nil, err
	}
	if int(m.Tiles.X) != m.Width || int(m.Tiles.Y) != m.Height {
		return nil, merr.WrapErrRecordMismatch("map", "@data",
			fmt.Sprintf("table is %dx%d, map is %dx%d", m.Tiles.X, m.Tiles.Y, m.Width, m.Height))
	}
	return m, nil
}

// loadAudio 读取 RPG::AudioFile，字段缺失、为 nil 或名称为空时返回 nil。
func loadAudio(parent *record, field string) (*AudioFile, error) {
	v, ok := parent.field(field)
	if !ok || marshal.IsNil(v) {
		return nil, nil
	}
	rec, err := newRecord("audio", v, ClassAudioFile)
	if err != nil {
		return nil, merr.WrapErrRecordMismatch(parent.name, field, err.Error())
	}
	a := &AudioFile{}
	if a.Name, err = rec.text("@name"); err != nil {
		return nil, err
	}
	if a.Name == "" {
		return nil, nil
	}
	if a.Volume, err = rec.optionalInteger("@volume"); err != nil {
		return nil, err
	}
	if a.Pitch, err = rec.optionalInteger("@pitch"); err != nil {
		return nil, err
	}
	return a, nil
}

var mapFilePattern = regexp.MustCompile(`^Map([0-9]{3,})\.rxdata$`)

// ParseMapID 从 MapNNN.rxdata 形式的文件名中解析地图编号。
func ParseMapID(filename string) (int, bool) {
	m := mapFilePattern.FindStringSubmatch(filename)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}
