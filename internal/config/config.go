package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Device   DeviceConfig   `mapstructure:"device"`
	Identify IdentifyConfig `mapstructure:"identify"`
	Library  LibraryConfig  `mapstructure:"library"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// DeviceConfig selects the blaster used by transmit/receive
type DeviceConfig struct {
	// Profile names a built-in or custom device profile; Spec, when set,
	// overrides it with an explicit "type:args" connection string.
	Profile string `mapstructure:"profile"`
	Spec    string `mapstructure:"spec"`
}

// IdentifyConfig tunes auto-identification output
type IdentifyConfig struct {
	MinScore  float64 `mapstructure:"min_score"` // drop guesses below this
	Threshold float64 `mapstructure:"threshold"` // default threshold for simplify -t
}

// LibraryConfig points at the named-code library file
type LibraryConfig struct {
	Path string `mapstructure:"path"`
}

// LoggerConfig contains logging settings
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in common locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath(getConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults
	}

	// Override with environment variables
	v.SetEnvPrefix("IRCODEC")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Watch re-loads path on every write and hands the fresh Config to onChange.
// The returned stop function releases the watcher.
func Watch(path string, onChange func(*Config)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					continue
				}
				onChange(cfg)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return watcher.Close, nil
}

func setDefaults(v *viper.Viper) {
	// Device defaults
	v.SetDefault("device.profile", "")
	v.SetDefault("device.spec", "")

	// Identify defaults
	v.SetDefault("identify.min_score", 0.5)
	v.SetDefault("identify.threshold", 0.2)

	// Library defaults
	v.SetDefault("library.path", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.dir", "")
}

func getConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".ircodec")
}
