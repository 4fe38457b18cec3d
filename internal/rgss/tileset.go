package rgss

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/pkg/log"
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

const ClassTileset = "RPG::Tileset"

// ExtraTileCount 为图块集前部的自动图块数量，真实图块编号从这里开始。
const ExtraTileCount = 384

// Tileset 为一个图块集。
type Tileset struct {
	ID          int
	Name        string
	Filename    string
	TerrainTags []uint16
}

// TileCount 返回图块集中普通图块的数量。
func (t *Tileset) TileCount() int {
	return len(t.TerrainTags) - ExtraTileCount
}

// Tilesets 为按编号索引的全部图块集，缺失的编号为 nil。
type Tilesets struct {
	list []*Tileset
}

func (ts *Tilesets) Len() int {
	return len(ts.list)
}

func (ts *Tilesets) Get(id int) (*Tileset, bool) {
	if id < 0 || id >= len(ts.list) || ts.list[id] == nil {
		return nil, false
	}
	return ts.list[id], true
}

// ByName 返回名称到图块集的映射。
func (ts *Tilesets) ByName() map[string]*Tileset {
	out := make(map[string]*Tileset, len(ts.list))
	for _, t := range ts.list {
		if t != nil {
			out[t.Name] = t
		}
	}
	return out
}

// LoadTilesets 从解码后的图块集数组读取全部图块集。
// 数组中的 nil 元素被忽略，文件名为空的图块集被跳过并记录告警。
func LoadTilesets(ctx context.Context, v marshal.Value) (*Tilesets, error) {
	arr, ok := marshal.Resolve(v).(*marshal.Array)
	if !ok {
		return nil, merr.WrapErrRecordMismatch("tilesets", "", "expected array")
	}

	ts := &Tilesets{list: make([]*Tileset, arr.Len())}
	for i, item := range arr.Items {
		if marshal.IsNil(item) {
			continue
		}
		rec, err := newRecord("tileset["+strconv.Itoa(i)+"]", item, "")
		if err != nil {
			return nil, err
		}
		t, err := loadTileset(rec)
		if err != nil {
			return nil, err
		}
		if t == nil {
			continue
		}
		if t.ID < 0 || t.ID >= len(ts.list) {
			return nil, merr.WrapErrRecordMismatch(rec.name, "@id", "id "+strconv.Itoa(t.ID)+" out of range")
		}
		if t.Filename == "" {
			log.Ctx(ctx).Warn("skipping tileset without image", zap.Int("id", t.ID), zap.String("name", t.Name))
			continue
		}
		ts.list[t.ID] = t
	}
	return ts, nil
}

func loadTileset(rec *record) (*Tileset, error) {
	var err error
	t := &Tileset{}
	if t.ID, err = rec.integer("@id"); err != nil {
		return nil, err
	}
	if t.Name, err = rec.text("@name"); err != nil {
		return nil, err
	}
	if t.Filename, err = rec.text("@tileset_name"); err != nil {
		return nil, err
	}
	if t.Filename == "" {
		return t, nil
	}
	tags, err := rec.table("@terrain_tags")
	if err != nil {
		return nil, err
	}
	if tags.Len() != int(tags.X) {
		return nil, merr.WrapErrRecordMismatch(rec.name, "@terrain_tags", "expected a one-dimensional table")
	}
	t.TerrainTags = tags.Data
	return t, nil
}
