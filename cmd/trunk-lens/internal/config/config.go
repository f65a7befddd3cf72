package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/nspcc-dev/neofs-trunk/cmd/internal/configvalidator"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk/allocator"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is a prefix of ENV variables overriding the configuration.
	EnvPrefix = "trunk"

	// EnvSeparator is a section separator in ENV variables.
	EnvSeparator = "_"

	separator = "."
)

// DefaultPath is the configuration file read when no file is specified.
// Missing default file is not an error.
const DefaultPath = "~/.config/trunk-lens/config.yaml"

// Config is the trunk-lens configuration.
type Config struct {
	StorePaths []string `mapstructure:"store_paths"`
	Workers    int      `mapstructure:"workers"`

	Logger   Logger   `mapstructure:"logger"`
	Trunk    Trunk    `mapstructure:"trunk"`
	Snapshot Snapshot `mapstructure:"snapshot"`
}

// Logger is the logger section.
type Logger struct {
	Level     string `mapstructure:"level"`
	Encoding  string `mapstructure:"encoding"`
	Timestamp bool   `mapstructure:"timestamp"`
}

// Trunk is the trunk storage section.
type Trunk struct {
	FileSize        Size `mapstructure:"file_size"`
	SlotMinSize     Size `mapstructure:"slot_min_size"`
	SlotMaxSize     Size `mapstructure:"slot_max_size"`
	SubdirCount     int  `mapstructure:"subdir_count"`
	DecodeCacheSize int  `mapstructure:"decode_cache_size"`
}

// Snapshot is the allocator snapshot section.
type Snapshot struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store_paths", []string{})
	v.SetDefault("workers", 8)

	v.SetDefault("logger.level", "warn")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.timestamp", false)

	v.SetDefault("trunk.file_size", allocator.DefaultTrunkFileSize)
	v.SetDefault("trunk.slot_min_size", allocator.DefaultSlotMinSize)
	v.SetDefault("trunk.slot_max_size", allocator.DefaultSlotMaxSize)
	v.SetDefault("trunk.subdir_count", allocator.DefaultSubdirCount)
	v.SetDefault("trunk.decode_cache_size", 1024)

	v.SetDefault("snapshot.path", "")
	v.SetDefault("snapshot.timeout", time.Second)
}

// Load reads the configuration from the file at path, a missing path means
// DefaultPath. ENV variables like TRUNK_LOGGER_LEVEL override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(separator, EnvSeparator))

	setDefaults(v)

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand config path: %w", err)
	}

	if _, err := os.Stat(path); explicit || err == nil {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	if err := configvalidator.CheckForUnknownFields(v.AllSettings(), Config{}); err != nil {
		return nil, err
	}

	var c Config

	err := v.Unmarshal(&c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		SizeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	for i := range c.StorePaths {
		if c.StorePaths[i], err = homedir.Expand(c.StorePaths[i]); err != nil {
			return nil, fmt.Errorf("expand store path #%d: %w", i, err)
		}
	}

	return &c, nil
}

// Paths returns the configured store paths. At least one is required.
func (c *Config) Paths() (trunk.StorePaths, error) {
	if len(c.StorePaths) == 0 {
		return nil, errors.New("no store paths configured")
	}
	if len(c.StorePaths) > 256 {
		return nil, fmt.Errorf("%d store paths configured, 256 at most", len(c.StorePaths))
	}
	return c.StorePaths, nil
}

// AllocatorOptions converts the trunk section into allocator options.
func (c *Config) AllocatorOptions() ([]allocator.Option, error) {
	fileSize, err := c.Trunk.FileSize.Uint32()
	if err != nil {
		return nil, fmt.Errorf("trunk.file_size: %w", err)
	}

	minSize, err := c.Trunk.SlotMinSize.Uint32()
	if err != nil {
		return nil, fmt.Errorf("trunk.slot_min_size: %w", err)
	}

	maxSize, err := c.Trunk.SlotMaxSize.Uint32()
	if err != nil {
		return nil, fmt.Errorf("trunk.slot_max_size: %w", err)
	}

	return []allocator.Option{
		allocator.WithStorePathCount(max(len(c.StorePaths), 1)),
		allocator.WithTrunkFileSize(fileSize),
		allocator.WithSlotSizes(minSize, maxSize),
		allocator.WithSubdirCount(c.Trunk.SubdirCount),
	}, nil
}
