// Package telegram adapts the Telegram Bot API to the bot controller.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Telegram allows roughly 30 messages per second across chats.
	defaultRatePerSecond = 25
	defaultBurst         = 5
	// requestSlack is added to the long-poll timeout for the HTTP client.
	requestSlack = 15 * time.Second
)

// Config tunes the Bot API client.
type Config struct {
	APIURL        string  `mapstructure:"api-url"`
	RatePerSecond float64 `mapstructure:"rate-per-second"`
	Burst         int     `mapstructure:"burst"`
}

// API is the subset of telego.Bot used by the client.
type API interface {
	GetMe(ctx context.Context) (*telego.User, error)
	GetUpdates(ctx context.Context, params *telego.GetUpdatesParams) ([]telego.Update, error)
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	SendPhoto(ctx context.Context, params *telego.SendPhotoParams) (*telego.Message, error)
	SendAudio(ctx context.Context, params *telego.SendAudioParams) (*telego.Message, error)
	SendChatAction(ctx context.Context, params *telego.SendChatActionParams) error
	SetMyCommands(ctx context.Context, params *telego.SetMyCommandsParams) error
}

// Client sends and receives messages through the Bot API.
type Client struct {
	api      API
	limiter  *rate.Limiter
	logger   *zap.Logger
	username string
}

// New creates a Client for token.
func New(token string, cfg Config, logger *zap.Logger) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("telegram bot token is required")
	}

	opts := []telego.BotOption{
		telego.WithHTTPClient(&http.Client{Timeout: time.Duration(maxPollTimeout)*time.Second + requestSlack}),
	}
	if cfg.APIURL != "" {
		opts = append(opts, telego.WithAPIServer(cfg.APIURL))
	}

	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return NewWithAPI(bot, cfg, logger), nil
}

// NewWithAPI wraps an existing API implementation.
func NewWithAPI(api API, cfg Config, logger *zap.Logger) *Client {
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = defaultRatePerSecond
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  logger.Named("telegram"),
	}
}

// Connect verifies the token and remembers the bot username.
func (c *Client) Connect(ctx context.Context) error {
	me, err := c.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	c.username = me.Username
	c.logger.Info("bot connected", zap.String("username", me.Username), zap.String("name", me.FirstName))
	return nil
}

// Username returns the bot username known after Connect.
func (c *Client) Username() string {
	return c.username
}

// SyncCommands publishes the command menu.
func (c *Client) SyncCommands(ctx context.Context, commands []telego.BotCommand) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.api.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: commands})
}

// SendText sends a Markdown message, retrying as plain text when Telegram
// rejects the markup.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	msg := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeMarkdown)
	if _, err := c.api.SendMessage(ctx, msg); err != nil {
		if !isParseError(err) {
			return fmt.Errorf("send message: %w", err)
		}
		c.logger.Debug("markdown rejected, resending as plain text", zap.Int64("chat_id", chatID), zap.Error(err))

		if err := c.wait(ctx); err != nil {
			return err
		}
		if _, err := c.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
			return fmt.Errorf("send plain message: %w", err)
		}
	}
	return nil
}

// SendPhoto sends a photo by URL with a caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, url, caption string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	photo := tu.Photo(tu.ID(chatID), tu.FileFromURL(url)).WithCaption(caption)
	if _, err := c.api.SendPhoto(ctx, photo); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

// SendAudio uploads a local audio file.
func (c *Client) SendAudio(ctx context.Context, chatID int64, path, title, performer string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	audio := tu.Audio(tu.ID(chatID), tu.File(f)).
		WithTitle(title).
		WithPerformer(performer)
	if _, err := c.api.SendAudio(ctx, audio); err != nil {
		return fmt.Errorf("send audio: %w", err)
	}
	return nil
}

// SendTyping shows the typing indicator.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	if err := c.api.SendChatAction(ctx, tu.ChatAction(tu.ID(chatID), telego.ChatActionTyping)); err != nil {
		return fmt.Errorf("send chat action: %w", err)
	}
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

func isParseError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}
