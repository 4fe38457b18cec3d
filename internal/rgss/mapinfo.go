package rgss

import (
	"cmp"
	"slices"

	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

const ClassMapInfo = "RPG::MapInfo"

// MapInfo 为地图树中的一项。
type MapInfo struct {
	ID       int
	Name     string
	ParentID int
	Order    int
	Expanded bool
	ScrollX  int
	ScrollY  int
}

// LoadMapInfos 从 MapInfos.rxdata 的哈希（地图编号到 RPG::MapInfo）读取地图树。
func LoadMapInfos(v marshal.Value) (map[int]*MapInfo, error) {
	h, ok := marshal.Resolve(v).(*marshal.Hash)
	if !ok {
		return nil, merr.WrapErrRecordMismatch("mapinfos", "", "expected hash")
	}

	infos := make(map[int]*MapInfo, h.Len())
	var failed error
	h.Range(func(key, value marshal.Value) bool {
		id, ok := marshal.AsInt(key)
		if !ok {
			failed = merr.WrapErrRecordMismatch("mapinfos", "", "non-integer key "+key.Kind().String())
			return false
		}
		info, err := loadMapInfo(int(id), value)
		if err != nil {
			failed = err
			return false
		}
		infos[info.ID] = info
		return true
	})
	if failed != nil {
		return nil, failed
	}
	return infos, nil
}

func loadMapInfo(id int, v marshal.Value) (*MapInfo, error) {
	rec, err := newRecord("mapinfo", v, ClassMapInfo)
	if err != nil {
		return nil, err
	}
	info := &MapInfo{ID: id}
	if info.Name, err = rec.text("@name"); err != nil {
		return nil, err
	}
	if info.ParentID, err = rec.integer("@parent_id"); err != nil {
		return nil, err
	}
	if info.Order, err = rec.integer("@order"); err != nil {
		return nil, err
	}
	if info.Expanded, err = rec.optionalBool("@expanded"); err != nil {
		return nil, err
	}
	if info.ScrollX, err = rec.optionalInteger("@scroll_x"); err != nil {
		return nil, err
	}
	if info.ScrollY, err = rec.optionalInteger("@scroll_y"); err != nil {
		return nil, err
	}
	return info, nil
}

// Children 返回 parent 的直接子地图编号，按 Order 排序。
func Children(infos map[int]*MapInfo, parent int) []int {
	var ids []int
	for id, info := range infos {
		if info.ParentID == parent {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(a, b int) int {
		if c := cmp.Compare(infos[a].Order, infos[b].Order); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return ids
}
