package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bmatch/matchbot/internal/ai/openai"
	"github.com/bmatch/matchbot/internal/bot"
	"github.com/bmatch/matchbot/internal/classifier"
	"github.com/bmatch/matchbot/internal/dashboard"
	"github.com/bmatch/matchbot/internal/guard"
	"github.com/bmatch/matchbot/internal/oracle"
	"github.com/bmatch/matchbot/internal/ratelimit"
	"github.com/bmatch/matchbot/internal/speech"
	"github.com/bmatch/matchbot/internal/telegram"
)

const (
	app = "matchbot"
)

// Actual version can be specified in build command.
var version = "unknown"

type Config struct {
	LockFile   string             `mapstructure:"lock-file"`
	Roster     string             `mapstructure:"roster"`
	Database   string             `mapstructure:"database"`
	RateWindow time.Duration      `mapstructure:"rate-window"`
	Telegram   *TelegramConfig    `mapstructure:"telegram"`
	Bot        bot.Config         `mapstructure:"bot"`
	Keywords   *classifier.Config `mapstructure:"keywords"`
	AI         *AIConfig          `mapstructure:"ai"`
	Speech     *SpeechConfig      `mapstructure:"speech"`
	Dashboard  *DashboardConfig   `mapstructure:"dashboard"`
}

type TelegramConfig struct {
	Token           string `mapstructure:"token"`
	TokenFile       string `mapstructure:"token-file"`
	telegram.Config `mapstructure:",squash"`
}

type AIConfig struct {
	Oracle oracle.Config `mapstructure:"oracle"`
	OpenAI *OpenAIConfig `mapstructure:"openai"`
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey        string `mapstructure:"api-key"`
	APIKeyFile    string `mapstructure:"api-key-file"`
	openai.Config `mapstructure:",squash"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type SpeechConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	APIKey        string `mapstructure:"api-key"`
	APIKeyFile    string `mapstructure:"api-key-file"`
	speech.Config `mapstructure:",squash"`
}

type DashboardConfig struct {
	Password         string `mapstructure:"password"`
	PasswordFile     string `mapstructure:"password-file"`
	dashboard.Config `mapstructure:",squash"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:     app,
		Short:   "matchbot is a Telegram bot matching people with professionals from a roster",
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd)
		},
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"telegram.token":     "TELEGRAM_BOT_TOKEN",
		"ai.openai.api-key":  "OPENAI_API_KEY",
		"ai.gemini.api-key":  "GEMINI_API_KEY",
		"speech.api-key":     "ELEVENLABS_API_KEY",
		"dashboard.password": "DASHBOARD_PASSWORD",
		"database":           "MATCHBOT_DB_PATH",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is matchbot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("lock-file", guard.DefaultLockPath)
	viper.SetDefault("roster", "data/roster.csv")
	viper.SetDefault("database", "data/bot_data.db")
	viper.SetDefault("rate-window", ratelimit.DefaultWindow)
	viper.SetDefault("dashboard.enabled", true)
	viper.SetDefault("speech.enabled", true)
	viper.SetDefault("bot.narration", true)
}

func initConfig() {
	// A missing .env is fine, everything can come from the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, but a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}

	return config, config.validate()
}

func (c *Config) validate() error {
	var errs []error

	if strings.TrimSpace(c.Roster) == "" {
		errs = append(errs, errors.New("roster path is required"))
	}
	if strings.TrimSpace(c.Database) == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.RateWindow <= 0 {
		errs = append(errs, fmt.Errorf("rate-window must be positive, got %s", c.RateWindow))
	}
	if c.AI == nil || (c.AI.OpenAI == nil && c.AI.Gemini == nil) {
		errs = append(errs, errors.New("at least one of ai.openai or ai.gemini must be configured"))
	}

	return errors.Join(errs...)
}
