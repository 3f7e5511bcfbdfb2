// Package config loads settings for the chat client and the dev server
// from a config file, CHAT_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrMissingUsername is returned when a client is configured without a
// local username.
var ErrMissingUsername = errors.New("username is required")

// Config holds every setting either binary reads.
type Config struct {
	ServerURL       string `mapstructure:"server_url"`
	Username        string `mapstructure:"username"`
	ListenAddr      string `mapstructure:"listen_addr"`
	TCPAddr         string `mapstructure:"tcp_addr"`
	QueueSize       int    `mapstructure:"queue_size"`
	TimestampLayout string `mapstructure:"timestamp_layout"`
	LogLevel        string `mapstructure:"log_level"`
	LogFormat       string `mapstructure:"log_format"`
	LogFile         string `mapstructure:"log_file"`
	UI              string `mapstructure:"ui"`
}

// Defaults. QueueSize matches the outbound channel capacity of the
// browser client; TimestampLayout renders like the id-ID locale time.
const (
	DefaultServerURL       = "ws://localhost:8080/chat"
	DefaultListenAddr      = ":8080"
	DefaultQueueSize       = 1000
	DefaultTimestampLayout = "15.04.05"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultUI              = UIAuto
)

// Client front ends. UIAuto picks the TUI when stdin and stdout are
// terminals.
const (
	UIAuto  = "auto"
	UITUI   = "tui"
	UIPlain = "plain"
)

// ErrNoConfigFile is returned by Watch when no config file is given.
var ErrNoConfigFile = errors.New("no config file to watch")

// Load reads configuration. path may be empty; flags may be nil. Flags
// override environment variables, which override the file.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	var cfg Config

	v, err := newViper(path, flags)
	if err != nil {
		return cfg, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Watch re-reads the config file at path whenever it changes and passes
// the merged result to onChange. It returns once the watch is installed.
func Watch(path string, flags *pflag.FlagSet, onChange func(Config, error)) error {
	if path == "" {
		return ErrNoConfigFile
	}

	v, err := newViper(path, flags)
	if err != nil {
		return err
	}

	v.OnConfigChange(func(fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			onChange(cfg, fmt.Errorf("failed to unmarshal config: %w", err))
			return
		}
		onChange(cfg, nil)
	})
	v.WatchConfig()
	return nil
}

func newViper(path string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("server_url", DefaultServerURL)
	v.SetDefault("username", "")
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("tcp_addr", "")
	v.SetDefault("queue_size", DefaultQueueSize)
	v.SetDefault("timestamp_layout", DefaultTimestampLayout)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("log_file", "")
	v.SetDefault("ui", DefaultUI)

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// ValidateClient checks the settings the chat client needs.
func (c Config) ValidateClient() error {
	if strings.TrimSpace(c.Username) == "" {
		return ErrMissingUsername
	}
	if c.ServerURL == "" {
		return errors.New("server_url is required")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	switch c.UI {
	case "", UIAuto, UITUI, UIPlain:
	default:
		return fmt.Errorf("ui must be one of auto, tui or plain, got %q", c.UI)
	}
	return nil
}

// ValidateServer checks the settings the dev server needs.
func (c Config) ValidateServer() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}
	if c.TCPAddr != "" && c.TCPAddr == c.ListenAddr {
		return errors.New("tcp_addr must differ from listen_addr")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	return nil
}
