package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	VoiceModeConsole = "console"
	VoiceModeSpeech  = "speech"
)

type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Port     string `mapstructure:"PORT"`

	PatientCSV  string `mapstructure:"PATIENT_CSV"`
	PatientID   string `mapstructure:"PATIENT_ID"`
	PhrasesFile string `mapstructure:"PHRASES_FILE"`

	MusicDir    string `mapstructure:"MUSIC_DIR"`
	PlayerCmd   string `mapstructure:"PLAYER_CMD"`
	RecorderCmd string `mapstructure:"RECORDER_CMD"`

	SessionLog    string `mapstructure:"SESSION_LOG"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`

	VoiceMode        string        `mapstructure:"VOICE_MODE"`
	ListenTimeout    time.Duration `mapstructure:"LISTEN_TIMEOUT"`
	STTURL           string        `mapstructure:"STT_URL"`
	TTSURL           string        `mapstructure:"TTS_URL"`
	TTSVoice         string        `mapstructure:"TTS_VOICE"`
	ElevenLabsAPIKey string        `mapstructure:"ELEVENLABS_API_KEY"`

	TelegramBotToken string   `mapstructure:"TELEGRAM_BOT_TOKEN"`
	CaregiverChatID  int64    `mapstructure:"CAREGIVER_CHAT_ID"`
	ReportFontPaths  []string `mapstructure:"REPORT_FONT_PATHS"`

	OrientationInterval time.Duration `mapstructure:"ORIENTATION_INTERVAL"`
	StressDecayInterval time.Duration `mapstructure:"STRESS_DECAY_INTERVAL"`
}

var keys = []string{
	"ENV", "LOG_LEVEL", "PORT",
	"PATIENT_CSV", "PATIENT_ID", "PHRASES_FILE",
	"MUSIC_DIR", "PLAYER_CMD", "RECORDER_CMD",
	"SESSION_LOG", "DATABASE_URL", "MIGRATIONS_DIR",
	"VOICE_MODE", "LISTEN_TIMEOUT", "STT_URL", "TTS_URL", "TTS_VOICE", "ELEVENLABS_API_KEY",
	"TELEGRAM_BOT_TOKEN", "CAREGIVER_CHAT_ID", "REPORT_FONT_PATHS",
	"ORIENTATION_INTERVAL", "STRESS_DECAY_INTERVAL",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("PATIENT_CSV", "patient_data.csv")
	v.SetDefault("PATIENT_ID", "SM1001")
	v.SetDefault("MUSIC_DIR", "Music")
	v.SetDefault("SESSION_LOG", "session_log.json")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("VOICE_MODE", VoiceModeConsole)
	v.SetDefault("LISTEN_TIMEOUT", "8s")
	v.SetDefault("ORIENTATION_INTERVAL", "1h")
	v.SetDefault("STRESS_DECAY_INTERVAL", "0s")

	// Bind env vars explicitly so Unmarshal picks them up.
	for _, k := range keys {
		v.BindEnv(k)
	}

	// A missing .env file is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	for i, p := range cfg.ReportFontPaths {
		cfg.ReportFontPaths[i] = strings.TrimSpace(p)
	}
	cfg.VoiceMode = strings.ToLower(strings.TrimSpace(cfg.VoiceMode))

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// CaregiverEnabled reports whether caregiver alerts and reports can be sent.
func (c *Config) CaregiverEnabled() bool {
	return c.TelegramBotToken != "" && c.CaregiverChatID != 0
}

// Validate checks that the configuration can run the companion.
func (c *Config) Validate() error {
	var errs []error
	if c.PatientCSV == "" {
		errs = append(errs, errors.New("PATIENT_CSV must be set"))
	}
	switch c.VoiceMode {
	case VoiceModeConsole:
	case VoiceModeSpeech:
		if c.STTURL == "" {
			errs = append(errs, errors.New("STT_URL must be set when VOICE_MODE is \"speech\""))
		}
		if c.TTSURL == "" && c.ElevenLabsAPIKey == "" {
			errs = append(errs, errors.New("TTS_URL or ELEVENLABS_API_KEY must be set when VOICE_MODE is \"speech\""))
		}
	default:
		errs = append(errs, fmt.Errorf("VOICE_MODE must be %q or %q, got %q", VoiceModeConsole, VoiceModeSpeech, c.VoiceMode))
	}
	if c.ListenTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LISTEN_TIMEOUT must be positive, got %s", c.ListenTimeout))
	}
	if c.OrientationInterval <= 0 {
		errs = append(errs, fmt.Errorf("ORIENTATION_INTERVAL must be positive, got %s", c.OrientationInterval))
	}
	if c.StressDecayInterval < 0 {
		errs = append(errs, fmt.Errorf("STRESS_DECAY_INTERVAL must not be negative, got %s", c.StressDecayInterval))
	}
	if c.CaregiverChatID != 0 && c.TelegramBotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN must be set when CAREGIVER_CHAT_ID is"))
	}
	return errors.Join(errs...)
}
