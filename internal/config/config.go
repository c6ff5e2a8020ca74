package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config stores runtime configuration for the client.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Voice   VoiceConfig   `yaml:"voice"`
	Audio   AudioConfig   `yaml:"audio"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"VMP_API_BASE_URL" env-default:"http://localhost:5000"`
	Timeout time.Duration `yaml:"timeout" env:"VMP_HTTP_TIMEOUT" env-default:"30s"`
}

type VoiceConfig struct {
	ChannelPath string `yaml:"channel_path" env:"VMP_WS_PATH" env-default:"/ws/voice"`
	FrameMS     int    `yaml:"frame_ms" env:"VMP_FRAME_MS" env-default:"100"`
	QueueSize   int    `yaml:"queue_size" env:"VMP_FRAME_QUEUE" env-default:"32"`
}

type AudioConfig struct {
	RecorderCommand string `yaml:"recorder_command" env:"VMP_FFMPEG_COMMAND" env-default:"ffmpeg"`
	InputFormat     string `yaml:"input_format" env:"VMP_AUDIO_INPUT_FORMAT" env-default:"pulse"`
	InputDevice     string `yaml:"input_device" env:"VMP_AUDIO_INPUT_DEVICE" env-default:"default"`
	SampleRate      int    `yaml:"sample_rate" env:"VMP_SAMPLE_RATE" env-default:"24000"`
	Channels        int    `yaml:"channels" env:"VMP_CHANNELS" env-default:"1"`
}

type LoggingConfig struct {
	Dir          string `yaml:"dir" env:"VMP_LOG_DIR" env-default:"Logs"`
	ConsoleLevel string `yaml:"console_level" env:"VMP_LOG_LEVEL" env-default:"info"`
	MinLevel     string `yaml:"min_level" env:"VMP_MIN_UI_LOG_LEVEL" env-default:"debug"`
	MaxEntries   int    `yaml:"max_entries" env:"VMP_LOG_MAX_ENTRIES" env-default:"1000"`
}

type MetricsConfig struct {
	Interval time.Duration `yaml:"interval" env:"VMP_METRICS_INTERVAL" env-default:"2s"`
}

// Load resolves configuration from an optional YAML file plus
// environment overrides. A missing file is not an error; env defaults
// apply.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
			}
			cfg.normalize()
			return cfg, nil
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// FrameBytes is the size of one outbound PCM frame (16-bit samples).
func (c Config) FrameBytes() int {
	return c.Audio.SampleRate * c.Audio.Channels * 2 * c.Voice.FrameMS / 1000
}

func (c *Config) normalize() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:5000"
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Voice.ChannelPath == "" {
		c.Voice.ChannelPath = "/ws/voice"
	}
	if c.Voice.FrameMS < 20 {
		c.Voice.FrameMS = 100
	}
	if c.Voice.QueueSize < 8 {
		c.Voice.QueueSize = 32
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 24000
	}
	if c.Audio.Channels <= 0 {
		c.Audio.Channels = 1
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "Logs"
	}
	if c.Logging.MaxEntries <= 0 {
		c.Logging.MaxEntries = 1000
	}
	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = 2 * time.Second
	}
}
