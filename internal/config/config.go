package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
	"github.com/joho/godotenv"
)

const (
	SummarizerNone   = "none"
	SummarizerOllama = "ollama"
	SummarizerOpenAI = "openai"
)

type Config struct {
	TelegramBotToken       string        `hcl:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN" required:"true"`
	TelegramAdminChatID    int64         `hcl:"telegram_admin_chat_id" env:"TELEGRAM_ADMIN_CHAT_ID"`
	DatabaseDSN            string        `hcl:"database_dsn" env:"DATABASE_DSN" default:"sqlite://ansa-news-bot.db"`
	FeedIndexURL           string        `hcl:"feed_index_url" env:"FEED_INDEX_URL" default:"https://www.ansa.it/sito/static/ansa_rss.html"`
	DefaultImageURL        string        `hcl:"default_image_url" env:"DEFAULT_IMAGE_URL" default:"https://www.ansa.it/sito/img/ico/ansa-700x366-precomposed.png"`
	PacingInterval         time.Duration `hcl:"pacing_interval" env:"PACING_INTERVAL" default:"3s"`
	IdleInterval           time.Duration `hcl:"idle_interval" env:"IDLE_INTERVAL" default:"10m"`
	ResetWatermarksOnStart bool          `hcl:"reset_watermarks_on_start" env:"RESET_WATERMARKS_ON_START" default:"true"`
	HTTPAddr               string        `hcl:"http_addr" env:"HTTP_ADDR" default:"127.0.0.1:8088"`
	LogLevel               string        `hcl:"log_level" env:"LOG_LEVEL" default:"info"`
	Summarizer             string        `hcl:"summarizer" env:"SUMMARIZER" default:"none"`
	AIBaseURL              string        `hcl:"ai_base_url" env:"AI_BASE_URL"`
	AIKey                  string        `hcl:"ai_key" env:"AI_KEY"`
	AIPrompt               string        `hcl:"ai_prompt" env:"AI_PROMPT" default:"Riassumi la notizia in due frasi, nella stessa lingua del testo."`
	AIModel                string        `hcl:"ai_model" env:"AI_MODEL" default:"llama3"`
	AITimeout              time.Duration `hcl:"ai_timeout" env:"AI_TIMEOUT" default:"1m"`
}

var defaultFiles = []string{"./config.hcl", "./config.local.hcl", "$HOME/.config/ansa-news-bot/config.hcl"}

// Load reads the configuration from the given HCL files (or the default locations), a local
// .env file and ANSABOT_ prefixed environment variables.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if len(files) == 0 {
		files = defaultFiles
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ANSABOT",
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})

	if err := loader.Load(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		return errors.New("telegram_bot_token is required")
	}

	if c.PacingInterval < 0 || c.IdleInterval <= 0 {
		return fmt.Errorf("invalid intervals: pacing=%s idle=%s", c.PacingInterval, c.IdleInterval)
	}

	switch c.Summarizer {
	case SummarizerNone:
	case SummarizerOllama:
		if c.AIBaseURL == "" {
			return errors.New("ai_base_url is required when summarizer is \"ollama\"")
		}
	case SummarizerOpenAI:
		if c.AIKey == "" {
			return errors.New("ai_key is required when summarizer is \"openai\"")
		}
	default:
		return fmt.Errorf("unknown summarizer %q", c.Summarizer)
	}

	return nil
}

// SlogLevel maps LogLevel to a slog.Level, falling back to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
