package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/rxdata-go/internal/export"
	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

type LoaderSuite struct {
	suite.Suite
	root   string
	loader *Loader
}

func (s *LoaderSuite) SetupTest() {
	s.root = s.T().TempDir()
	s.Require().NoError(os.MkdirAll(filepath.Join(s.root, DataDir, "extra"), 0o755))

	s.write("Map001.rxdata", mapBytes(3, 2))
	s.write("extra/Map010.rxdata", mapBytes(2, 2))
	// 截断的流。
	s.write("Map002.rxdata", mapBytes(3, 2)[:12])
	// 根值不是地图。
	s.write("Map003.rxdata", newRB().fixnum(5).buf)
	s.write("Tilesets.rxdata", tilesetsBytes())
	s.write("MapInfos.rxdata", mapInfosBytes())
	s.write("notes.txt", []byte("ignored"))

	cfg := DefaultConfig()
	cfg.Workers = 2
	l, err := New(cfg, nil)
	s.Require().NoError(err)
	s.loader = l
}

func (s *LoaderSuite) TearDownTest() {
	s.loader.Close()
}

func (s *LoaderSuite) write(name string, data []byte) {
	s.Require().NoError(os.WriteFile(filepath.Join(s.root, DataDir, name), data, 0o644))
}

func (s *LoaderSuite) TestLoadFile() {
	doc, err := s.loader.LoadFile(context.Background(), filepath.Join(s.root, DataDir, "Map001.rxdata"))
	s.Require().NoError(err)
	s.Equal(byte(4), doc.Major)
	s.Equal(byte(8), doc.Minor)

	_, err = s.loader.LoadFile(context.Background(), filepath.Join(s.root, "absent.rxdata"))
	var le *LoadError
	s.Require().True(errors.As(err, &le))
	s.Equal(StageRead, le.Stage)
	s.True(errors.Is(err, merr.ErrIoFileNotFound))
}

func (s *LoaderSuite) TestLoadMaps() {
	results, err := s.loader.LoadMaps(context.Background(), filepath.Join(s.root, DataDir))
	s.Require().NoError(err)
	s.Require().Len(results, 4)

	s.Equal([]int{1, 2, 3, 10}, []int{results[0].ID, results[1].ID, results[2].ID, results[3].ID})

	s.NoError(results[0].Err)
	s.Equal(3, results[0].Map.Width)
	s.NoError(results[3].Err)
	s.Equal(2, results[3].Map.Height)

	var le *LoadError
	s.Require().True(errors.As(results[1].Err, &le))
	s.Equal(StageDecode, le.Stage)
	s.True(errors.Is(results[1].Err, merr.ErrUnexpectedEndOfStream))

	s.Require().True(errors.As(results[2].Err, &le))
	s.Equal(StageMap, le.Stage)
	s.True(errors.Is(results[2].Err, merr.ErrRecordMismatch))

	s.Len(Failures(results), 2)
	s.Error(Summary(results))
	s.NoError(Summary(results[:1]))
}

func (s *LoaderSuite) TestLoadMapsOverride() {
	override := s.T().TempDir()
	s.Require().NoError(os.WriteFile(filepath.Join(override, "Map002.rxdata"), mapBytes(4, 4), 0o644))

	cfg := DefaultConfig()
	cfg.OverrideDir = override
	l, err := New(cfg, nil)
	s.Require().NoError(err)
	defer l.Close()

	results, err := l.LoadMaps(context.Background(), filepath.Join(s.root, DataDir))
	s.Require().NoError(err)
	s.Require().NoError(results[1].Err)
	s.Equal(4, results[1].Map.Width)
}

func (s *LoaderSuite) TestLoadMapsCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := s.loader.LoadMaps(ctx, filepath.Join(s.root, DataDir))
	s.Require().NoError(err)
	s.Len(Failures(results), len(results))
	s.True(errors.Is(results[0].Err, context.Canceled))
}

func (s *LoaderSuite) TestLoadMapsMissingDir() {
	_, err := s.loader.LoadMaps(context.Background(), filepath.Join(s.root, "nope"))
	s.True(errors.Is(err, merr.ErrIoFailed))
}

func (s *LoaderSuite) TestLoadTilesets() {
	ts, err := s.loader.LoadTilesets(context.Background(), s.root)
	s.Require().NoError(err)
	t, ok := ts.Get(1)
	s.Require().True(ok)
	s.Equal("Outskirts", t.Filename)
	s.Equal(16, t.TileCount())

	_, err = s.loader.LoadTilesets(context.Background(), s.T().TempDir())
	s.True(errors.Is(err, merr.ErrIoFileNotFound))
}

func (s *LoaderSuite) TestLoadMapInfos() {
	infos, err := s.loader.LoadMapInfos(context.Background(), s.root)
	s.Require().NoError(err)
	s.Len(infos, 2)
	s.Equal("Town", infos[2].Name)
	s.Equal(1, infos[2].ParentID)
}

func (s *LoaderSuite) TestExportFile() {
	codec, err := export.NewFromConfig(export.FormatJSON, export.CompressNone)
	s.Require().NoError(err)
	defer codec.Close()

	outDir := filepath.Join(s.T().TempDir(), "out")
	out, err := s.loader.ExportFile(context.Background(), codec, filepath.Join(s.root, DataDir, "MapInfos.rxdata"), outDir)
	s.Require().NoError(err)
	s.Equal(filepath.Join(outDir, "MapInfos.json"), out)

	body, err := os.ReadFile(out)
	s.Require().NoError(err)
	tree, err := codec.Decode(body)
	s.Require().NoError(err)
	m := tree.(map[string]any)
	s.Equal("World", m["1"].(map[string]any)["@name"])
}

func TestLoader(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}
