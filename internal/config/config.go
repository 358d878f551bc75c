package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "camrelay"
	configFile = "config.yaml"
)

// Defaults applied when a field is absent from the config file.
const (
	// DefaultListenAddr is the address the HTTP API binds to.
	DefaultListenAddr = ":8080"

	// DefaultDiscoveryTimeout is the probe collection window used when a
	// discovery request does not override it.
	DefaultDiscoveryTimeout = 5 * time.Second

	// DefaultFrameInterval is the delay between MJPEG frames during relay.
	DefaultFrameInterval = 200 * time.Millisecond

	// DefaultFrameRetryInterval is the back-off applied after a failed
	// frame fetch before the relay tries again.
	DefaultFrameRetryInterval = 1 * time.Second
)

// Config represents the daemon configuration file.
type Config struct {
	// ListenAddr is the HTTP API listen address (e.g., ":8080")
	ListenAddr string `yaml:"listen_addr,omitempty"`

	// LogLevel controls zap verbosity ("debug", "info", "warn", "error").
	// Empty means silent unless CAMRELAY_LOG_LEVEL is set.
	LogLevel string `yaml:"log_level,omitempty"`

	// Discovery holds discovery pass defaults
	Discovery DiscoveryConfig `yaml:"discovery,omitempty"`

	// Relay holds snapshot/stream relay settings
	Relay RelayConfig `yaml:"relay,omitempty"`
}

// DiscoveryConfig holds discovery pass defaults.
type DiscoveryConfig struct {
	// TimeoutMs is the default probe collection window in milliseconds
	TimeoutMs int `yaml:"timeout_ms,omitempty"`

	// EnableMDNS enables the secondary mDNS discovery source alongside
	// the WS-Discovery probe
	EnableMDNS bool `yaml:"enable_mdns,omitempty"`
}

// RelayConfig holds snapshot/stream relay settings.
type RelayConfig struct {
	// FrameIntervalMs is the delay between MJPEG frames in milliseconds
	FrameIntervalMs int `yaml:"frame_interval_ms,omitempty"`

	// FrameRetryMs is the back-off after a failed frame fetch in milliseconds
	FrameRetryMs int `yaml:"frame_retry_ms,omitempty"`

	// ExtractorURL is the base URL of the external frame-extraction
	// service used for rtspUrl snapshot requests (e.g., "http://camera-service").
	// Empty disables rtspUrl snapshot relaying.
	ExtractorURL string `yaml:"extractor_url,omitempty"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		ListenAddr: DefaultListenAddr,
		Discovery: DiscoveryConfig{
			TimeoutMs:  int(DefaultDiscoveryTimeout / time.Millisecond),
			EnableMDNS: false,
		},
		Relay: RelayConfig{
			FrameIntervalMs: int(DefaultFrameInterval / time.Millisecond),
			FrameRetryMs:    int(DefaultFrameRetryInterval / time.Millisecond),
		},
	}
}

// DiscoveryTimeout returns the configured default probe window as a Duration.
func (c *Config) DiscoveryTimeout() time.Duration {
	if c.Discovery.TimeoutMs <= 0 {
		return DefaultDiscoveryTimeout
	}
	return time.Duration(c.Discovery.TimeoutMs) * time.Millisecond
}

// FrameInterval returns the configured MJPEG frame interval as a Duration.
func (c *Config) FrameInterval() time.Duration {
	if c.Relay.FrameIntervalMs <= 0 {
		return DefaultFrameInterval
	}
	return time.Duration(c.Relay.FrameIntervalMs) * time.Millisecond
}

// FrameRetryInterval returns the configured frame retry back-off as a Duration.
func (c *Config) FrameRetryInterval() time.Duration {
	if c.Relay.FrameRetryMs <= 0 {
		return DefaultFrameRetryInterval
	}
	return time.Duration(c.Relay.FrameRetryMs) * time.Millisecond
}

// GetConfigDir returns the OS-appropriate configuration directory for the
// application. This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/camrelay or $HOME/.config/camrelay
//   - macOS: $HOME/.config/camrelay (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\camrelay
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: Use LOCALAPPDATA
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			// Fallback to USERPROFILE\AppData\Local if LOCALAPPDATA not set
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		// macOS: Use $HOME/.config/camrelay (following modern XDG convention)
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		// Linux and other Unix-like systems: Use XDG_CONFIG_HOME or $HOME/.config
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the configuration from the given path. An empty path means the
// OS-conventional location. A missing file is not an error - defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	return cfg, nil
}
