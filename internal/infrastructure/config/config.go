package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v4"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Guide     GuideConfig     `yaml:"guide"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Cache     CacheConfig     `yaml:"cache"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Timer     TimerConfig     `yaml:"timer"`
	Storage   StorageConfig   `yaml:"storage"`
	Audit     AuditConfig     `yaml:"audit"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	RateLimit      int64         `yaml:"rate_limit"` // requests per minute per client
}

// GuideConfig contains upstream TV-guide site settings
type GuideConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	DefaultSegment string        `yaml:"default_segment"`
}

// RecorderConfig contains recording appliance settings
type RecorderConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Timeout     time.Duration `yaml:"timeout"`
	PingTimeout time.Duration `yaml:"ping_timeout"`
}

// CacheConfig contains caching settings
type CacheConfig struct {
	EPGExpiry time.Duration `yaml:"epg_expiry"`
}

// SchedulerConfig contains cron specs and pacing for the task scheduler
type SchedulerConfig struct {
	DailySpec     string        `yaml:"daily_spec"`
	HourlySpec    string        `yaml:"hourly_spec"`
	CleanupSpec   string        `yaml:"cleanup_spec"`
	LookaheadDays int           `yaml:"lookahead_days"`
	FetchDelay    time.Duration `yaml:"fetch_delay"` // pause between channel×day fetches
	TimerDelay    time.Duration `yaml:"timer_delay"` // pause after each task's timer phase
}

// TimerConfig contains default timer settings
type TimerConfig struct {
	DefaultPriority int    `yaml:"default_priority"`
	DefaultMargin   int    `yaml:"default_margin"`
	DefaultDuration int    `yaml:"default_duration"` // minutes
	DefaultFolder   string `yaml:"default_folder"`
}

// StorageConfig contains paths of the JSON-file stores
type StorageConfig struct {
	TasksFile    string `yaml:"tasks_file"`
	ChannelsFile string `yaml:"channels_file"`
}

// AuditConfig contains audit log settings
type AuditConfig struct {
	File string `yaml:"file"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	// Set defaults
	cfg := &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1 MB
			RateLimit:      120,
		},
		Guide: GuideConfig{
			BaseURL:        "https://www.tvdigital-guide.de",
			Timeout:        10 * time.Second,
			DefaultSegment: "ganztags",
		},
		Recorder: RecorderConfig{
			Host:        "localhost",
			Port:        8000,
			Timeout:     10 * time.Second,
			PingTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			EPGExpiry: 6 * time.Hour,
		},
		Scheduler: SchedulerConfig{
			DailySpec:     "0 5 * * *",
			HourlySpec:    "0 * * * *",
			CleanupSpec:   "30 3 * * *",
			LookaheadDays: 3,
			FetchDelay:    500 * time.Millisecond,
			TimerDelay:    time.Second,
		},
		Timer: TimerConfig{
			DefaultPriority: 50,
			DefaultMargin:   5,
			DefaultDuration: 120,
			DefaultFolder:   "Auto",
		},
		Storage: StorageConfig{
			TasksFile:    "data/tasks.json",
			ChannelsFile: "data/channels.json",
		},
		Audit: AuditConfig{
			File: "data/audit.log",
		},
	}

	// If config file exists, load it
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, nil // Use defaults if file doesn't exist
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Guide.BaseURL == "" {
		return fmt.Errorf("guide base URL is required")
	}

	if c.Recorder.Host == "" {
		return fmt.Errorf("recorder host is required")
	}

	if c.Recorder.Port < 1 || c.Recorder.Port > 65535 {
		return fmt.Errorf("invalid recorder port: %d", c.Recorder.Port)
	}

	if c.Cache.EPGExpiry <= 0 {
		return fmt.Errorf("invalid cache.epg_expiry: %s", c.Cache.EPGExpiry)
	}

	if c.Scheduler.LookaheadDays < 1 || c.Scheduler.LookaheadDays > 8 {
		return fmt.Errorf("invalid scheduler.lookahead_days: %d (must be 1-8)", c.Scheduler.LookaheadDays)
	}

	if c.Timer.DefaultPriority < 0 || c.Timer.DefaultPriority > 100 {
		return fmt.Errorf("invalid default priority: %d (must be 0-100)", c.Timer.DefaultPriority)
	}

	if c.Timer.DefaultDuration < 1 {
		return fmt.Errorf("invalid default duration: %d", c.Timer.DefaultDuration)
	}

	if c.Storage.TasksFile == "" || c.Storage.ChannelsFile == "" {
		return fmt.Errorf("storage file paths are required")
	}

	return nil
}

// Save saves the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
