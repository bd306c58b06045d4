package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/termmeta/internal/app"
	"github.com/mesh-intelligence/termmeta/internal/paths"
	"github.com/mesh-intelligence/termmeta/pkg/types"
)

// Config keys.
const (
	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyStorage         = "storage"
	cfgKeyOptionKey       = "option_key"
	cfgKeyLegacyOptionKey = "legacy_option_key"
	cfgKeyLogLevel        = "log_level"
	cfgKeyServerAddr      = "server.addr"
	cfgKeyUnfilteredHTML  = "server.unfiltered_html"
	cfgKeyCustomizeURL    = "server.customize_url"

	envLogLevel = "TERMMETA_LOG_LEVEL"

	defaultServerAddr = "127.0.0.1:8080"
	defaultLogLevel   = "warn"
)

// serverSettings is the server section of config.yaml.
type serverSettings struct {
	Addr           string `mapstructure:"addr" yaml:"addr"`
	UnfilteredHTML bool   `mapstructure:"unfiltered_html" yaml:"unfiltered_html"`
	CustomizeURL   string `mapstructure:"customize_url" yaml:"customize_url,omitempty"`
}

// settings is config.yaml after defaults and overrides are applied.
type settings struct {
	Backend         string           `mapstructure:"backend" yaml:"backend"`
	DataDir         string           `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	Storage         string           `mapstructure:"storage" yaml:"storage"`
	OptionKey       string           `mapstructure:"option_key" yaml:"option_key"`
	LegacyOptionKey string           `mapstructure:"legacy_option_key" yaml:"legacy_option_key"`
	LogLevel        string           `mapstructure:"log_level" yaml:"log_level"`
	Server          serverSettings   `mapstructure:"server" yaml:"server"`
	Taxonomies      []types.Taxonomy `mapstructure:"taxonomies" yaml:"taxonomies,omitempty"`
	Layouts         []types.Layout   `mapstructure:"layouts" yaml:"layouts,omitempty"`

	configDir string
}

// defaultSettings is what init writes to a fresh config.yaml.
func defaultSettings() settings {
	return settings{
		Backend:         types.BackendSQLite,
		Storage:         types.StorageRows,
		OptionKey:       types.DefaultOptionKey,
		LegacyOptionKey: types.DefaultOptionKey,
		LogLevel:        defaultLogLevel,
		Server:          serverSettings{Addr: defaultServerAddr},
		Taxonomies:      types.DefaultTaxonomies(),
		Layouts:         types.DefaultLayouts(),
	}
}

// loadSettings reads config.yaml from the resolved config directory. A
// missing file is not an error. The data directory is resolved with the
// --data-dir flag taking precedence over config.yaml.
func loadSettings(flags *rootFlags) (settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return settings{}, fmt.Errorf("resolve config dir: %w", err)
	}

	def := defaultSettings()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyStorage, def.Storage)
	v.SetDefault(cfgKeyOptionKey, def.OptionKey)
	v.SetDefault(cfgKeyLegacyOptionKey, def.LegacyOptionKey)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyServerAddr, def.Server.Addr)
	v.SetDefault(cfgKeyUnfilteredHTML, false)
	if err := v.BindEnv(cfgKeyLogLevel, envLogLevel); err != nil {
		return settings{}, err
	}
	v.SetConfigName(strings.TrimSuffix(paths.ConfigFileName, ".yaml"))
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}
	if flags.logLevel != "" {
		v.Set(cfgKeyLogLevel, flags.logLevel)
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	s.configDir = configDir

	s.DataDir, err = paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}
	return s, nil
}

// backendConfig is the Backend.Attach configuration.
func (s settings) backendConfig() types.Config {
	return types.Config{
		Backend:   s.Backend,
		DataDir:   s.DataDir,
		Storage:   s.Storage,
		OptionKey: s.OptionKey,
	}
}

// newLogger writes text logs at the configured level to w.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// openApp loads settings and opens a wired App. The caller must Close it.
func openApp(cmd *cobra.Command, flags *rootFlags) (*app.App, settings, error) {
	s, err := loadSettings(flags)
	if err != nil {
		return nil, settings{}, sysError(err)
	}
	logger, err := newLogger(cmd.ErrOrStderr(), s.LogLevel)
	if err != nil {
		return nil, settings{}, userError(err)
	}
	a, err := app.Open(app.Options{
		Config:       s.backendConfig(),
		Taxonomies:   s.Taxonomies,
		Layouts:      s.Layouts,
		CustomizeURL: s.Server.CustomizeURL,
		Logger:       logger,
	})
	if err != nil {
		if errors.Is(err, types.ErrBackendUnknown) || errors.Is(err, types.ErrBackendEmpty) || errors.Is(err, types.ErrStorageUnknown) {
			return nil, settings{}, userError(err)
		}
		return nil, settings{}, sysError(err)
	}
	return a, s, nil
}
