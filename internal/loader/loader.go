package loader

import (
	"cmp"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lk2023060901/rxdata-go/internal/export"
	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/internal/rgss"
	"github.com/lk2023060901/rxdata-go/pkg/log"
	"github.com/lk2023060901/rxdata-go/pkg/metrics"
	"github.com/lk2023060901/rxdata-go/pkg/util/conc"
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
	"github.com/lk2023060901/rxdata-go/pkg/util/retry"
)

// DataDir 为游戏目录下存放 rxdata 文件的子目录。
const DataDir = "Data"

const (
	mapInfosFile = "MapInfos.rxdata"
)

// 图块集文件名在不同版本中大小写不一致，按顺序尝试。
var tilesetFiles = []string{"tilesets.rxdata", "Tilesets.rxdata"}

// MapResult 为单张地图的加载结果，Err 非 nil 时为 *LoadError。
type MapResult struct {
	ID       int
	Path     string
	Map      *rgss.Map
	Document *marshal.Document
	Err      error
}

// Loader 负责从游戏目录批量读取并解码 rxdata 文件。
type Loader struct {
	log.Binder

	cfg     Config
	decoder *marshal.Decoder
	pool    *conc.Pool[*MapResult]
}

// New 创建 Loader。registry 为 nil 时使用 marshal.DefaultRegistry。
func New(cfg Config, registry *marshal.Registry) (*Loader, error) {
	dec, err := marshal.NewDecoder(registry, cfg.decoderOptions()...)
	if err != nil {
		return nil, err
	}
	l := &Loader{
		cfg:     cfg,
		decoder: dec,
		pool:    conc.NewPool[*MapResult](cfg.Workers),
	}
	l.SetModule("loader")
	return l, nil
}

func (l *Loader) Close() {
	l.pool.Release()
}

func (l *Loader) Decoder() *marshal.Decoder {
	return l.decoder
}

// LoadFile 读取并解码单个文件。
func (l *Loader) LoadFile(ctx context.Context, path string) (*marshal.Document, error) {
	data, err := l.readFile(ctx, path)
	if err != nil {
		return nil, l.fail(ctx, path, StageRead, err)
	}
	doc, err := l.decoder.Decode(ctx, data)
	if err != nil {
		return nil, l.fail(ctx, path, StageDecode, err)
	}
	l.Logger().Debug("file decoded", log.FieldFile(path),
		zap.Int("objects", doc.ObjectCount),
		zap.Int("symbols", doc.SymbolCount),
		zap.Strings("unknownClasses", doc.UnknownClasses))
	return doc, nil
}

// LoadMaps 并发加载 dir 下（含子目录）全部 MapNNN.rxdata，结果按地图编号排序。
// 单个文件的失败记录在对应结果中，不影响其它文件。
func (l *Loader) LoadMaps(ctx context.Context, dir string) ([]*MapResult, error) {
	paths, err := findMaps(dir)
	if err != nil {
		return nil, merr.WrapErrIoFailed(dir, err)
	}

	futures := make([]*conc.Future[*MapResult], 0, len(paths))
	for id, path := range paths {
		id, path := id, l.override(path)
		futures = append(futures, l.pool.Submit(func() (*MapResult, error) {
			return l.loadMap(ctx, id, path), nil
		}))
	}

	results := lo.Map(futures, func(f *conc.Future[*MapResult], _ int) *MapResult {
		return f.Value()
	})
	slices.SortFunc(results, func(a, b *MapResult) int {
		return cmp.Compare(a.ID, b.ID)
	})

	failed := Failures(results)
	l.Logger().Info("maps loaded", zap.String("dir", dir),
		zap.Int("total", len(results)),
		zap.Int("failed", len(failed)))
	return results, nil
}

func (l *Loader) loadMap(ctx context.Context, id int, path string) *MapResult {
	res := &MapResult{ID: id, Path: path}
	if err := ctx.Err(); err != nil {
		res.Err = newLoadError(path, StageRead, err)
		return res
	}
	doc, err := l.LoadFile(ctx, path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Document = doc
	m, err := rgss.LoadMap(id, doc.Root)
	if err != nil {
		res.Err = l.fail(ctx, path, StageMap, err)
		return res
	}
	res.Map = m
	return res
}

// override 返回 OverrideDir 中的同名文件，不存在时返回 path 本身。
func (l *Loader) override(path string) string {
	if l.cfg.OverrideDir == "" {
		return path
	}
	candidate := filepath.Join(l.cfg.OverrideDir, filepath.Base(path))
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}

// LoadTilesets 读取 gameRoot/Data 下的图块集文件。
func (l *Loader) LoadTilesets(ctx context.Context, gameRoot string) (*rgss.Tilesets, error) {
	path, ok := lo.Find(tilesetFiles, func(name string) bool {
		_, err := os.Stat(filepath.Join(gameRoot, DataDir, name))
		return err == nil
	})
	if !ok {
		err := merr.WrapErrIoFileNotFound(filepath.Join(gameRoot, DataDir, tilesetFiles[0]))
		return nil, l.fail(ctx, gameRoot, StageRead, err)
	}
	path = filepath.Join(gameRoot, DataDir, path)

	doc, err := l.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	ts, err := rgss.LoadTilesets(log.WithFields(ctx, log.FieldFile(path)), doc.Root)
	if err != nil {
		return nil, l.fail(ctx, path, StageMap, err)
	}
	return ts, nil
}

// LoadMapInfos 读取 gameRoot/Data/MapInfos.rxdata。
func (l *Loader) LoadMapInfos(ctx context.Context, gameRoot string) (map[int]*rgss.MapInfo, error) {
	path := filepath.Join(gameRoot, DataDir, mapInfosFile)
	doc, err := l.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	infos, err := rgss.LoadMapInfos(doc.Root)
	if err != nil {
		return nil, l.fail(ctx, path, StageMap, err)
	}
	return infos, nil
}

// ExportFile 解码 path 并按 codec 写入 outDir，返回输出文件路径。
func (l *Loader) ExportFile(ctx context.Context, codec export.Codec, path, outDir string) (string, error) {
	doc, err := l.LoadFile(ctx, path)
	if err != nil {
		return "", err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + codec.Ext()
	out := filepath.Join(outDir, name)

	body, err := codec.Marshal(doc.Root)
	if err != nil {
		return "", l.fail(ctx, path, StageExport, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", l.fail(ctx, path, StageExport, merr.WrapErrIoFailed(outDir, err))
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return "", l.fail(ctx, path, StageExport, merr.WrapErrIoFailed(out, err))
	}
	return out, nil
}

func (l *Loader) fail(ctx context.Context, path string, stage Stage, err error) error {
	metrics.LoadFailures.WithLabelValues(string(stage)).Inc()
	log.Ctx(ctx).Warn("load failed", log.FieldModule("loader"), log.FieldFile(path),
		zap.String("stage", string(stage)), zap.Error(err))
	return newLoadError(path, stage, err)
}

// Failures 返回加载失败的结果。
func Failures(results []*MapResult) []*MapResult {
	return lo.Filter(results, func(r *MapResult, _ int) bool {
		return r.Err != nil
	})
}

// Summary 将全部失败合并为一个错误，没有失败时返回 nil。
func Summary(results []*MapResult) error {
	return merr.Combine(lo.Map(Failures(results), func(r *MapResult, _ int) error {
		return r.Err
	})...)
}

// readFile 读取文件，文件不存在以外的 IO 错误按 ReadAttempts 重试。
func (l *Loader) readFile(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := retry.Do(ctx, func() error {
		var err error
		data, err = os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return merr.WrapErrIoFileNotFound(path)
		}
		if err != nil {
			return merr.WrapErrIoFailed(path, err)
		}
		return nil
	},
		retry.Attempts(uint(max(l.cfg.ReadAttempts, 1))),
		retry.Sleep(10*time.Millisecond),
		retry.RetryErr(func(err error) bool {
			return !errors.Is(err, merr.ErrIoFileNotFound)
		}),
	)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// findMaps 递归查找地图文件，返回地图编号到路径的映射。
// 编号重复时保留路径字典序较小的文件。
func findMaps(dir string) (map[int]string, error) {
	found := make(map[int]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		id, ok := rgss.ParseMapID(d.Name())
		if !ok {
			return nil
		}
		if prev, exists := found[id]; !exists || path < prev {
			found[id] = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
