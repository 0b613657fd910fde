package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bmatch/matchbot/internal/ai"
	"github.com/bmatch/matchbot/internal/ai/gemini"
	"github.com/bmatch/matchbot/internal/ai/openai"
	"github.com/bmatch/matchbot/internal/bot"
	"github.com/bmatch/matchbot/internal/classifier"
	"github.com/bmatch/matchbot/internal/dashboard"
	"github.com/bmatch/matchbot/internal/guard"
	"github.com/bmatch/matchbot/internal/logger"
	"github.com/bmatch/matchbot/internal/oracle"
	"github.com/bmatch/matchbot/internal/ratelimit"
	"github.com/bmatch/matchbot/internal/roster"
	"github.com/bmatch/matchbot/internal/secrets"
	"github.com/bmatch/matchbot/internal/session"
	"github.com/bmatch/matchbot/internal/speech"
	"github.com/bmatch/matchbot/internal/store"
	"github.com/bmatch/matchbot/internal/telegram"
)

// run is the main command for the bot.
func run(_ *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync() //nolint:errcheck

	config, err := getConfig()
	if err != nil {
		logger.Error("getting a config", zap.Error(err))
		return err
	}

	logger.Info("starting the matchbot", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	lock, err := guard.AcquireInstanceLock(config.LockFile)
	if err != nil {
		if errors.Is(err, guard.ErrAlreadyRunning) {
			logger.Error("exiting", zap.String("reason", "bot is already running"), zap.String("lock", config.LockFile))
		}
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("releasing instance lock", zap.Error(err))
		}
	}()

	db, err := store.NewSQLiteStore(config.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	people, err := roster.LoadFile(config.Roster)
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}
	logger.Info("loaded roster", zap.Int("profiles", people.Len()), zap.String("path", config.Roster))

	primary, fallback, err := newGenerators(ctx, config.AI, logger)
	if err != nil {
		return fmt.Errorf("building ai generators: %w", err)
	}

	orc := oracle.New(primary, fallback, people, config.AI.Oracle, logger)

	tg, err := newTelegram(ctx, config.Telegram, logger)
	if err != nil {
		return err
	}

	deps := bot.Deps{
		Transport:  tg,
		Oracle:     orc,
		Store:      db,
		Limiter:    ratelimit.New(config.RateWindow),
		Classifier: classifier.New(config.Keywords),
		Sessions:   session.NewStore(),
		Events:     guard.NewEvents(),
	}

	synth, err := newSpeech(config.Speech, logger)
	if err != nil {
		logger.Warn("audio summaries disabled", zap.Error(err))
	} else if synth != nil {
		deps.Speech = synth
	}

	controller := bot.New(config.Bot, deps, logger.With(zap.String("bot_username", tg.Username())))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return controller.Run(gctx)
	})

	if srv, err := newDashboard(config.Dashboard, db, logger); err != nil {
		logger.Warn("dashboard disabled", zap.Error(err))
	} else if srv != nil {
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("stopped with error", zap.Error(err))
		return err
	}

	logger.Info("stopped")
	return nil
}

// newGenerators returns OpenAI as the primary provider when configured, with
// Gemini as the fallback. Gemini alone becomes the primary.
func newGenerators(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, ai.Generator, error) {
	var generators []ai.Generator

	if cfg.OpenAI != nil {
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: cfg.OpenAI.APIKey,
			File:  cfg.OpenAI.APIKeyFile,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, nil, err
		}

		generator, err := openai.NewGenerator(apiKey, cfg.OpenAI.Config, logger)
		if err != nil {
			return nil, nil, err
		}
		generators = append(generators, generator)
	}

	if cfg.Gemini != nil {
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, nil, err
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, logger)
		if err != nil {
			return nil, nil, err
		}
		generators = append(generators, generator)
	}

	switch len(generators) {
	case 0:
		return nil, nil, errors.New("no ai provider configured")
	case 1:
		return generators[0], nil, nil
	default:
		return generators[0], generators[1], nil
	}
}

func newTelegram(ctx context.Context, cfg *TelegramConfig, logger *zap.Logger) (*telegram.Client, error) {
	if cfg == nil {
		cfg = &TelegramConfig{}
	}

	token, err := secrets.Load(secrets.Source{
		Name:  "telegram bot token",
		Value: cfg.Token,
		File:  cfg.TokenFile,
		Env:   "TELEGRAM_BOT_TOKEN",
	})
	if err != nil {
		logger.Error("loading telegram token",
			zap.Error(err),
			zap.String("hint", "set TELEGRAM_BOT_TOKEN environment variable or the 'telegram.token-file' key in the configuration file"),
		)
		return nil, err
	}

	tg, err := telegram.New(token, cfg.Config, logger)
	if err != nil {
		return nil, fmt.Errorf("creating telegram client: %w", err)
	}

	if err := tg.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	if err := tg.SyncCommands(ctx, bot.Commands); err != nil {
		logger.Warn("registering bot commands", zap.Error(err))
	}

	return tg, nil
}

// newSpeech returns nil without an error when audio summaries are switched off.
func newSpeech(cfg *SpeechConfig, logger *zap.Logger) (*speech.Client, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	token, err := secrets.Load(secrets.Source{
		Name:  "elevenlabs api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "ELEVENLABS_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	return speech.New(logger, token, cfg.Config), nil
}

// newDashboard returns nil without an error when the panel is switched off.
func newDashboard(cfg *DashboardConfig, db *store.SQLiteStore, logger *zap.Logger) (*dashboard.Server, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	password, err := secrets.Load(secrets.Source{
		Name:  "dashboard password",
		Value: cfg.Password,
		File:  cfg.PasswordFile,
		Env:   "DASHBOARD_PASSWORD",
	})
	if err != nil {
		return nil, err
	}

	return dashboard.New(cfg.Config, db, password, logger)
}

// redacted returns a copy of config safe to print.
func redacted(config *Config) Config {
	out := *config
	const mask = "***"

	if out.Telegram != nil && out.Telegram.Token != "" {
		t := *out.Telegram
		t.Token = mask
		out.Telegram = &t
	}
	if out.AI != nil {
		a := *out.AI
		if a.OpenAI != nil && a.OpenAI.APIKey != "" {
			o := *a.OpenAI
			o.APIKey = mask
			a.OpenAI = &o
		}
		if a.Gemini != nil && a.Gemini.APIKey != "" {
			g := *a.Gemini
			g.APIKey = mask
			a.Gemini = &g
		}
		out.AI = &a
	}
	if out.Speech != nil && out.Speech.APIKey != "" {
		s := *out.Speech
		s.APIKey = mask
		out.Speech = &s
	}
	if out.Dashboard != nil && out.Dashboard.Password != "" {
		d := *out.Dashboard
		d.Password = mask
		out.Dashboard = &d
	}

	return out
}
