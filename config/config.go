package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/cambai-go/audio"
	"github.com/mrsingh-rishi/cambai-go/stt"
	"github.com/mrsingh-rishi/cambai-go/tts"
)

// Config is the runtime configuration. Values come from the YAML file
// first, then the environment overrides them.
type Config struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	WSURL      string `yaml:"ws_url"`
	VoiceID    int    `yaml:"voice_id"`
	Language   string `yaml:"language"`
	Model      string `yaml:"model"`
	SampleRate int    `yaml:"sample_rate"`
	Player     string `yaml:"player"`
	Capture    string `yaml:"capture"`
	HTTPAddr   string `yaml:"http_addr"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		BaseURL:    tts.DefaultBaseURL,
		WSURL:      stt.DefaultURL,
		Language:   tts.DefaultLanguage,
		Model:      stt.DefaultModel,
		SampleRate: audio.DefaultSampleRate,
		Player:     audio.PlaybackCommand,
		Capture:    audio.CaptureCommand,
		HTTPAddr:   ":3000",
	}
}

// Load reads .env if present, then path if non-empty, then the CAMB_*
// environment variables.
func Load(path string) (Config, error) {
	// A missing .env is fine; the environment is used as is.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", path)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.APIKey, "CAMB_API_KEY")
	setString(&c.BaseURL, "CAMB_BASE_URL")
	setString(&c.WSURL, "CAMB_WS_URL")
	setString(&c.Language, "CAMB_LANGUAGE")
	setString(&c.Model, "CAMB_MODEL")
	setString(&c.Player, "CAMB_PLAYER")
	setString(&c.Capture, "CAMB_CAPTURE")
	setString(&c.HTTPAddr, "HTTP_ADDR")
	if err := setInt(&c.VoiceID, "CAMB_VOICE_ID"); err != nil {
		return err
	}
	return setInt(&c.SampleRate, "CAMB_SAMPLE_RATE")
}

// RequireAPIKey fails when no API key is configured.
func (c Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return errors.New("CAMB_API_KEY must be set")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrapf(err, "%s", key)
	}
	*dst = n
	return nil
}
