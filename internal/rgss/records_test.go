package rgss

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

func object(class string, kv ...any) *marshal.Object {
	attrs := marshal.NewAttributes(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs.Set(kv[i].(string), kv[i+1].(marshal.Value))
	}
	return &marshal.Object{Class: class, Attrs: attrs}
}

func str(text string) *marshal.String {
	return marshal.NewString([]byte(text), marshal.EncodingUTF8)
}

func mustTable(x, y, z uint32) *Table {
	elems := make([]uint16, x*y*z)
	for i := range elems {
		elems[i] = uint16(i)
	}
	tbl, err := ParseTable(tableBytes(3, x, y, z, x*y*z, elems...))
	if err != nil {
		panic(err)
	}
	return tbl
}

type RecordSuite struct {
	suite.Suite
}

func (s *RecordSuite) mapObject(width, height int64, tiles *Table, bgmName string) *marshal.Object {
	return object(ClassMap,
		"@tileset_id", marshal.Int(3),
		"@width", marshal.Int(width),
		"@height", marshal.Int(height),
		"@autoplay_bgm", marshal.Bool(true),
		"@bgm", object(ClassAudioFile, "@name", str(bgmName), "@volume", marshal.Int(80), "@pitch", marshal.Int(100)),
		"@bgs", marshal.Nil{},
		"@data", tiles,
	)
}

func (s *RecordSuite) TestLoadMap() {
	m, err := LoadMap(12, s.mapObject(4, 3, mustTable(4, 3, 3), "Town"))
	s.Require().NoError(err)
	s.Equal(12, m.ID)
	s.Equal(3, m.TilesetID)
	s.Equal(12, m.TilesPerLayer())
	s.True(m.AutoplayBGM)
	s.Equal(&AudioFile{Name: "Town", Volume: 80, Pitch: 100}, m.BGM)
	s.Nil(m.BGS)

	tile, ok := m.TileAt(LayerMiddle, 1, 2)
	s.True(ok)
	s.Equal(uint16(12+4*2+1), tile)
	_, ok = m.TileAt(LayerHighest, 4, 0)
	s.False(ok)
}

func (s *RecordSuite) TestLoadMapSilentBGM() {
	m, err := LoadMap(1, s.mapObject(2, 2, mustTable(2, 2, 3), ""))
	s.Require().NoError(err)
	s.Nil(m.BGM)
}

func (s *RecordSuite) TestLoadMapMismatch() {
	_, err := LoadMap(1, s.mapObject(5, 3, mustTable(4, 3, 3), ""))
	s.True(errors.Is(err, merr.ErrRecordMismatch))

	_, err = LoadMap(1, object("RPG::Event"))
	s.True(errors.Is(err, merr.ErrRecordMismatch))

	_, err = LoadMap(1, marshal.Int(1))
	s.True(errors.Is(err, merr.ErrRecordMismatch))

	obj := s.mapObject(2, 2, mustTable(2, 2, 3), "")
	obj.Attrs.Set("@width", str("wide"))
	_, err = LoadMap(1, obj)
	s.True(errors.Is(err, merr.ErrRecordMismatch))
	s.Contains(err.Error(), "@width")
}

func (s *RecordSuite) TestLoadTilesets() {
	arr := &marshal.Array{Items: []marshal.Value{
		marshal.Nil{},
		object(ClassTileset, "@id", marshal.Int(1), "@name", str("Outside"), "@tileset_name", str("Outskirts"),
			"@terrain_tags", mustTable(400, 1, 1)),
		object(ClassTileset, "@id", marshal.Int(2), "@name", str("Broken"), "@tileset_name", str(""),
			"@terrain_tags", mustTable(400, 1, 1)),
	}}
	ts, err := LoadTilesets(context.Background(), arr)
	s.Require().NoError(err)
	s.Equal(3, ts.Len())

	t, ok := ts.Get(1)
	s.Require().True(ok)
	s.Equal("Outskirts", t.Filename)
	s.Equal(16, t.TileCount())

	_, ok = ts.Get(2)
	s.False(ok)
	_, ok = ts.Get(0)
	s.False(ok)
	s.Len(ts.ByName(), 1)
}

func (s *RecordSuite) TestLoadTilesetsErrors() {
	_, err := LoadTilesets(context.Background(), marshal.Int(1))
	s.True(errors.Is(err, merr.ErrRecordMismatch))

	arr := &marshal.Array{Items: []marshal.Value{
		object(ClassTileset, "@id", marshal.Int(0), "@name", str("2D"), "@tileset_name", str("x"),
			"@terrain_tags", mustTable(20, 2, 1)),
	}}
	_, err = LoadTilesets(context.Background(), arr)
	s.True(errors.Is(err, merr.ErrRecordMismatch))

	arr = &marshal.Array{Items: []marshal.Value{
		object(ClassTileset, "@id", marshal.Int(5), "@name", str("far"), "@tileset_name", str("x"),
			"@terrain_tags", mustTable(400, 1, 1)),
	}}
	_, err = LoadTilesets(context.Background(), arr)
	s.True(errors.Is(err, merr.ErrRecordMismatch))
}

func (s *RecordSuite) TestLoadMapInfos() {
	h := marshal.NewHash(3)
	h.Set(marshal.Int(1), object(ClassMapInfo, "@name", str("World"), "@parent_id", marshal.Int(0), "@order", marshal.Int(1), "@expanded", marshal.Bool(true)))
	h.Set(marshal.Int(3), object(ClassMapInfo, "@name", str("House"), "@parent_id", marshal.Int(1), "@order", marshal.Int(3)))
	h.Set(marshal.Int(2), object(ClassMapInfo, "@name", str("Town"), "@parent_id", marshal.Int(1), "@order", marshal.Int(2), "@scroll_x", marshal.Int(320)))

	infos, err := LoadMapInfos(h)
	s.Require().NoError(err)
	s.Len(infos, 3)
	s.Equal("World", infos[1].Name)
	s.True(infos[1].Expanded)
	s.Equal(320, infos[2].ScrollX)
	s.Equal([]int{2, 3}, Children(infos, 1))
	s.Equal([]int{1}, Children(infos, 0))

	h.Set(str("bad"), object(ClassMapInfo))
	_, err = LoadMapInfos(h)
	s.True(errors.Is(err, merr.ErrRecordMismatch))
}

func (s *RecordSuite) TestParseMapID() {
	id, ok := ParseMapID("Map001.rxdata")
	s.True(ok)
	s.Equal(1, id)
	id, ok = ParseMapID("Map1234.rxdata")
	s.True(ok)
	s.Equal(1234, id)
	_, ok = ParseMapID("Map01.rxdata")
	s.False(ok)
	_, ok = ParseMapID("MapInfos.rxdata")
	s.False(ok)
}

func TestRecords(t *testing.T) {
	suite.Run(t, new(RecordSuite))
}
