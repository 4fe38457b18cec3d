package application

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/lk2023060901/rxdata-go/internal/export"
	"github.com/lk2023060901/rxdata-go/internal/loader"
	"github.com/lk2023060901/rxdata-go/internal/marshal"
	"github.com/lk2023060901/rxdata-go/internal/rgss"
	zlog "github.com/lk2023060901/rxdata-go/pkg/log"
	"github.com/lk2023060901/rxdata-go/pkg/metrics"
	zviper "github.com/lk2023060901/rxdata-go/pkg/util/viper"
)

var registerMetricsOnce sync.Once

const (
	envPrefix         = "RXDATA"
	defaultConfigPath = "./config.yaml"
)

// Application is the runtime container for the rxdata tools.
// It owns configuration, logging and the shared loader.
type Application struct {
	cfg       *zviper.Config
	loggers   map[string]*zlog.MLogger
	loaderCfg loader.Config
	loader    *loader.Loader
	args      []string
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Run parses command-line arguments (os.Args), loads configuration and
// builds the loader. The configuration file is resolved with the following priority:
//  1. Default: ./config.yaml (optional)
//  2. Env: RXDATA_CONFIG_FILE_PATH
//  3. CLI: --config <path> or --config=<path>
//
// Keys under "loader" can be overridden by RXDATA_LOADER_* env vars,
// e.g. RXDATA_LOADER_MAX_DEPTH.
func (a *Application) Run() error {
	cfg, err := a.loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}
	// GOMAXPROCS follows the container CPU quota, decoding is CPU bound.
	if _, err := maxprocs.Set(maxprocs.Logger(zlog.S().Infof)); err != nil {
		zlog.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}
	registerMetricsOnce.Do(func() {
		metrics.Register(metrics.GetRegisterer())
		metrics.RegisterLoggingMetrics(metrics.GetRegisterer())
	})

	return a.initLoader()
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Args returns the positional arguments left after removing --config.
func (a *Application) Args() []string {
	return a.args
}

// Loader returns the loader built by Run.
func (a *Application) Loader() *loader.Loader {
	return a.loader
}

func (a *Application) LoaderConfig() loader.Config {
	return a.loaderCfg
}

// Codec builds an export codec from loader.export.
func (a *Application) Codec() (export.Codec, error) {
	return export.NewFromConfig(a.loaderCfg.Export.Format, a.loaderCfg.Export.Compress)
}

// Close releases the loader and flushes logs.
func (a *Application) Close() {
	if a.loader != nil {
		a.loader.Close()
	}
	_ = zlog.Sync()
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if a.loggers == nil {
		return &zlog.MLogger{Logger: zlog.L()}
	}
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

// loadConfig resolves config file path and loads it via viper wrapper.
// A missing default file is not an error.
func (a *Application) loadConfig(args []string) (*zviper.Config, error) {
	configPath := defaultConfigPath
	explicit := false

	if envPath := os.Getenv(envPrefix + "_CONFIG_FILE_PATH"); envPath != "" {
		configPath = envPath
		explicit = true
	}

	a.args = a.args[:0]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value after --config")
			}
			configPath = args[i+1]
			explicit = true
			i++
			continue
		}
		if strings.HasPrefix(arg, "--config=") {
			if val := strings.TrimPrefix(arg, "--config="); val != "" {
				configPath = val
				explicit = true
			}
			continue
		}
		a.args = append(a.args, arg)
	}

	cfg := zviper.New()
	setLoaderDefaults(cfg)
	cfg.BindEnv(envPrefix)

	if _, err := os.Stat(configPath); err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}
	return cfg, nil
}

func setLoaderDefaults(cfg *zviper.Config) {
	def := loader.DefaultConfig()
	cfg.SetDefault("loader.workers", def.Workers)
	cfg.SetDefault("loader.max-depth", def.MaxDepth)
	cfg.SetDefault("loader.version-range", def.VersionRange)
	cfg.SetDefault("loader.legacy-encoding", def.LegacyEncoding)
	cfg.SetDefault("loader.read-attempts", def.ReadAttempts)
	cfg.SetDefault("loader.override-dir", def.OverrideDir)
	cfg.SetDefault("loader.export.format", def.Export.Format)
	cfg.SetDefault("loader.export.compress", def.Export.Compress)
}

// initLoader builds the registry, decoder and loader from the "loader" key.
//
// Example:
//
//	loader:
//	  workers: 8
//	  max-depth: 512
//	  legacy-encoding: Shift_JIS
//	  export:
//	    format: cbor
//	    compress: zstd
func (a *Application) initLoader() error {
	// Unmarshal over the whole tree so that RXDATA_LOADER_* overrides apply to nested keys.
	root := struct {
		Loader loader.Config `mapstructure:"loader"`
	}{Loader: loader.DefaultConfig()}
	if err := a.cfg.Unmarshal(&root); err != nil {
		return fmt.Errorf("parse loader config: %w", err)
	}
	lc := root.Loader

	registry := marshal.NewRegistry()
	if err := rgss.Register(registry); err != nil {
		return err
	}
	l, err := loader.New(lc, registry)
	if err != nil {
		return fmt.Errorf("init loader: %w", err)
	}
	if lg, ok := a.loggers["loader"]; ok {
		l.SetLogger(lg)
	}
	a.loaderCfg = lc
	a.loader = l
	return nil
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	if err := a.initGlobalLoggerFromEnv(); err != nil {
		return err
	}
	if err := a.initModuleLoggersFromConfig(); err != nil {
		return err
	}
	return nil
}

// initGlobalLoggerFromEnv configures the process-wide logger based on RXDATA_LOG_* env vars.
//
// Priority:
//   - RXDATA_LOG_ENABLE: "1"/"true" to enable outputs; others treated as disabled.
//   - RXDATA_LOG_LEVEL: log level (default "info").
//   - RXDATA_LOG_STDOUT: whether to log to stdout (default false).
//   - RXDATA_LOG_FILE_DIR: log directory.
//   - RXDATA_LOG_FILE: log file name (empty means no file).
//   - RXDATA_LOG_FORMAT: log format ("text" or "json", default "text").
func (a *Application) initGlobalLoggerFromEnv() error {
	enabled := getenvBool(envPrefix+"_LOG_ENABLE", false)

	cfg := &zlog.Config{
		Level:               getenvDefault(envPrefix+"_LOG_LEVEL", "info"),
		Format:              getenvDefault(envPrefix+"_LOG_FORMAT", "text"),
		Stdout:              getenvBool(envPrefix+"_LOG_STDOUT", false),
		DisableErrorVerbose: true,
		File: zlog.FileLogConfig{
			RootPath: getenvDefault(envPrefix+"_LOG_FILE_DIR", ""),
			Filename: getenvDefault(envPrefix+"_LOG_FILE", ""),
		},
	}

	// When not enabled, direct all outputs to a discarded sink.
	if !enabled {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("init global logger from env: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig creates named loggers from YAML config under "logging" key.
//
// Example:
//
//	logging:
//	  loader:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootpath: ./logs
//	      filename: loader.log
func (a *Application) initModuleLoggersFromConfig() error {
	if a.cfg == nil {
		return nil
	}

	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.With(zlog.FieldModule(name))}
	}

	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
