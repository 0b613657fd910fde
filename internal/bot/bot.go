// Package bot drives the match-request lifecycle: it polls the transport,
// drops repeated deliveries, classifies each message and sequences the reply.
package bot

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bmatch/matchbot/internal/chat"
	"github.com/bmatch/matchbot/internal/classifier"
	"github.com/bmatch/matchbot/internal/guard"
	"github.com/bmatch/matchbot/internal/logger"
	"github.com/bmatch/matchbot/internal/matching"
	"github.com/bmatch/matchbot/internal/ratelimit"
	"github.com/bmatch/matchbot/internal/session"
	"github.com/bmatch/matchbot/internal/store"
	"github.com/bmatch/matchbot/internal/utils"
)

const (
	defaultPollTimeout      = 10
	defaultPollInterval     = time.Second
	defaultErrorBackoff     = 5 * time.Second
	defaultMatchTimeout     = 2 * time.Minute
	defaultProgressInterval = 3 * time.Second
	defaultNarrationTimeout = 90 * time.Second
	defaultConverseTimeout  = 30 * time.Second
	defaultMaxLogLength     = 200
)

// Transport delivers and receives chat messages.
type Transport interface {
	GetUpdates(ctx context.Context, offset, timeoutSeconds int) ([]chat.Event, error)
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, url, caption string) error
	SendAudio(ctx context.Context, chatID int64, path, title, performer string) error
	SendTyping(ctx context.Context, chatID int64) error
}

// Oracle produces matches and conversational replies. Only Match may fail.
type Oracle interface {
	Match(ctx context.Context, query string) (string, error)
	Narrate(ctx context.Context, result matching.Result, query string) string
	Converse(ctx context.Context, message string, history []session.Turn) string
	Greet(ctx context.Context) string
}

// Synthesizer renders narration audio to a temporary file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
	Cleanup(path string)
}

// Store is the audit trail written by the controller.
type Store interface {
	UpsertUser(ctx context.Context, u chat.User) error
	LogMessage(ctx context.Context, userID int64, content string, isBot bool, messageType string) error
	LogSearch(ctx context.Context, userID int64, query, result string) error
}

// Config tunes polling and the match lifecycle.
type Config struct {
	PollTimeout      int           `mapstructure:"poll-timeout"`
	PollInterval     time.Duration `mapstructure:"poll-interval"`
	ErrorBackoff     time.Duration `mapstructure:"error-backoff"`
	MatchTimeout     time.Duration `mapstructure:"match-timeout"`
	ProgressInterval time.Duration `mapstructure:"progress-interval"`
	Narration        bool          `mapstructure:"narration"`
	NarrationTimeout time.Duration `mapstructure:"narration-timeout"`
	ConverseTimeout  time.Duration `mapstructure:"converse-timeout"`
	BannerURL        string        `mapstructure:"banner-url"`
	AppURL           string        `mapstructure:"app-url"`
	MaxLogLength     int           `mapstructure:"max-log-length"`
}

func (c *Config) applyDefaults() {
	if c.PollTimeout <= 0 {
		c.PollTimeout = defaultPollTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = defaultErrorBackoff
	}
	if c.MatchTimeout <= 0 {
		c.MatchTimeout = defaultMatchTimeout
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = defaultProgressInterval
	}
	if c.NarrationTimeout <= 0 {
		c.NarrationTimeout = defaultNarrationTimeout
	}
	if c.ConverseTimeout <= 0 {
		c.ConverseTimeout = defaultConverseTimeout
	}
	if c.BannerURL == "" {
		c.BannerURL = defaultBannerURL
	}
	if c.AppURL == "" {
		c.AppURL = defaultAppURL
	}
	if c.MaxLogLength <= 0 {
		c.MaxLogLength = defaultMaxLogLength
	}
}

// Deps groups the collaborators of a Controller. Speech may be nil to disable
// narration.
type Deps struct {
	Transport  Transport
	Oracle     Oracle
	Speech     Synthesizer
	Store      Store
	Limiter    *ratelimit.Limiter
	Classifier *classifier.Classifier
	Sessions   *session.Store
	Events     *guard.Events
}

// Controller processes events one at a time in delivery order.
type Controller struct {
	cfg        Config
	transport  Transport
	oracle     Oracle
	speech     Synthesizer
	store      Store
	limiter    *ratelimit.Limiter
	classifier *classifier.Classifier
	sessions   *session.Store
	events     *guard.Events
	logger     *zap.Logger
	now        func() time.Time

	offset int
}

// New creates a Controller. Missing optional dependencies get in-memory
// defaults.
func New(cfg Config, deps Deps, log *zap.Logger) *Controller {
	cfg.applyDefaults()

	if deps.Limiter == nil {
		deps.Limiter = ratelimit.New(ratelimit.DefaultWindow)
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.New(nil)
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewStore()
	}
	if deps.Events == nil {
		deps.Events = guard.NewEvents()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Controller{
		cfg:        cfg,
		transport:  deps.Transport,
		oracle:     deps.Oracle,
		speech:     deps.Speech,
		store:      deps.Store,
		limiter:    deps.Limiter,
		classifier: deps.Classifier,
		sessions:   deps.Sessions,
		events:     deps.Events,
		logger:     log.Named("bot"),
		now:        time.Now,
	}
}

// Offset returns the next update id the controller will ask for.
func (c *Controller) Offset() int {
	return c.offset
}

// Run polls for updates until ctx is cancelled. Transport failures are
// logged and retried after a backoff.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("starting polling",
		zap.Int("poll_timeout", c.cfg.PollTimeout),
		zap.Duration("match_timeout", c.cfg.MatchTimeout),
		zap.Duration("rate_window", c.limiter.Window()),
		zap.Bool("narration", c.cfg.Narration && c.speech != nil),
	)

	for {
		if ctx.Err() != nil {
			c.logger.Info("polling stopped")
			return nil
		}

		events, err := c.transport.GetUpdates(ctx, c.offset, c.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Warn("failed to get updates", zap.Duration("backoff", c.cfg.ErrorBackoff), zap.Error(err))
			_ = utils.WaitFor(ctx, c.cfg.ErrorBackoff)
			continue
		}

		for _, ev := range events {
			if ev.ID >= c.offset {
				c.offset = ev.ID + 1
			}
			c.safeHandle(ctx, ev)
		}

		if len(events) > 0 {
			c.logger.Debug("processed updates",
				zap.Int("count", len(events)),
				zap.Int("offset", c.offset),
				zap.Int("remembered_updates", c.events.Len()),
				zap.Int("sessions", c.sessions.Len()),
				zap.Int("rate_limited_users", c.limiter.Tracked()),
			)
		}

		_ = utils.WaitFor(ctx, c.cfg.PollInterval)
	}
}

func (c *Controller) safeHandle(ctx context.Context, ev chat.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while handling update",
				zap.Int(logger.FieldUpdateID, ev.ID),
				zap.Any("panic", r),
			)
		}
	}()

	c.HandleEvent(ctx, ev)
}

// HandleEvent runs one turn. Repeated deliveries of the same event id are
// dropped before any side effect.
func (c *Controller) HandleEvent(ctx context.Context, ev chat.Event) {
	log := c.logger.With(logger.TurnFields(ev.ID, ev.UserID, ev.ChatID)...)

	if c.events.Seen(ev.ID) {
		log.Info("skipping duplicate update")
		return
	}
	c.events.Mark(ev.ID)

	text := strings.TrimSpace(ev.Text)
	if text == "" || ev.ChatID == 0 {
		log.Debug("ignoring update without text")
		return
	}

	log.Info("received message", zap.String("text", utils.TruncateForLog(text, 50)))

	switch ev.Command() {
	case "start":
		c.handleStart(ctx, log, ev)
	case "help":
		c.send(ctx, log, ev.ChatID, helpText)
	case "cancel":
		c.sessions.Reset(ev.UserID)
		c.send(ctx, log, ev.ChatID, cancelText)
	default:
		c.handleText(ctx, log, ev, text)
	}
}

func (c *Controller) handleStart(ctx context.Context, log *zap.Logger, ev chat.Event) {
	c.upsertUser(ctx, log, ev.Sender())
	c.logMessage(ctx, log, ev.UserID, "/start", false, store.TypeStart)

	if err := c.transport.SendPhoto(ctx, ev.ChatID, c.cfg.BannerURL, bannerCaption); err != nil {
		log.Warn("failed to send banner", zap.Error(err))
	}

	greetCtx, cancel := context.WithTimeout(ctx, c.cfg.ConverseTimeout)
	defer cancel()

	c.send(ctx, log, ev.ChatID, c.oracle.Greet(greetCtx))
}

func (c *Controller) handleText(ctx context.Context, log *zap.Logger, ev chat.Event, text string) {
	c.upsertUser(ctx, log, ev.Sender())
	c.logMessage(ctx, log, ev.UserID, text, false, store.TypeText)
	c.sessions.Append(ev.UserID, session.RoleUser, text)

	if !c.classifier.IsSearch(text) {
		log.Info("handling non-search message")
		c.reply(ctx, log, ev, c.converse(ctx, ev.UserID, text))
		return
	}

	allowed, remaining := c.limiter.CanSearch(ev.UserID, c.now())
	if !allowed {
		log.Info("search blocked by rate limit", zap.Duration("remaining", remaining))
		c.reply(ctx, log, ev, limitNotice(ratelimit.FormatRemaining(remaining), c.cfg.AppURL))
		return
	}

	if c.classifier.IsUnclear(text) {
		log.Info("search query is unclear")
		c.reply(ctx, log, ev, clarificationText)
		return
	}

	c.dispatch(ctx, log, ev, text)
}

// converse runs small talk under its own deadline; the oracle answers with
// its static reply once the deadline passes.
func (c *Controller) converse(ctx context.Context, userID int64, text string) string {
	converseCtx, cancel := context.WithTimeout(ctx, c.cfg.ConverseTimeout)
	defer cancel()

	return c.oracle.Converse(converseCtx, text, c.sessions.History(userID))
}

// reply sends text and records it as the bot's turn.
func (c *Controller) reply(ctx context.Context, log *zap.Logger, ev chat.Event, text string) bool {
	if !c.send(ctx, log, ev.ChatID, text) {
		return false
	}
	c.logMessage(ctx, log, ev.UserID, text, true, store.TypeText)
	c.sessions.Append(ev.UserID, session.RoleAssistant, text)
	return true
}

func (c *Controller) send(ctx context.Context, log *zap.Logger, chatID int64, text string) bool {
	if err := c.transport.SendText(ctx, chatID, text); err != nil {
		log.Error("failed to send message", zap.Error(err))
		return false
	}
	return true
}

func (c *Controller) upsertUser(ctx context.Context, log *zap.Logger, u chat.User) {
	if c.store == nil {
		return
	}
	if err := c.store.UpsertUser(ctx, u); err != nil {
		log.Warn("failed to store user", zap.Error(err))
	}
}

func (c *Controller) logMessage(ctx context.Context, log *zap.Logger, userID int64, content string, isBot bool, messageType string) {
	if c.store == nil {
		return
	}
	if err := c.store.LogMessage(ctx, userID, content, isBot, messageType); err != nil {
		log.Warn("failed to store message", zap.Bool("is_bot", isBot), zap.Error(err))
	}
}

func (c *Controller) logSearch(ctx context.Context, log *zap.Logger, userID int64, query, result string) {
	if c.store == nil {
		return
	}
	if err := c.store.LogSearch(ctx, userID, query, result); err != nil {
		log.Warn("failed to store search", zap.Error(err))
	}
}
