package bot

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/bmatch/matchbot/internal/chat"
	"github.com/bmatch/matchbot/internal/matching"
	"github.com/bmatch/matchbot/internal/session"
	"github.com/bmatch/matchbot/internal/store"
	"github.com/bmatch/matchbot/internal/utils"
)

type matchOutcome struct {
	raw string
	err error
}

// dispatch sends a search to the oracle and sequences the reply. The rate
// limit is consumed only once the match reply has been delivered.
func (c *Controller) dispatch(ctx context.Context, log *zap.Logger, ev chat.Event, query string) {
	log.Info("dispatching search")

	if err := c.transport.SendTyping(ctx, ev.ChatID); err != nil {
		log.Debug("failed to send typing indicator", zap.Error(err))
	}

	started := time.Now()
	outcome := c.awaitMatch(ctx, log, ev.ChatID, query)
	if outcome.err != nil {
		if errors.Is(outcome.err, context.DeadlineExceeded) {
			log.Error("match timed out", zap.Duration("timeout", c.cfg.MatchTimeout))
		} else {
			log.Error("match failed", zap.Error(outcome.err))
		}
		c.reply(ctx, log, ev, matchFailedText)
		return
	}

	result := matching.Normalize(outcome.raw)
	log.Info("match received",
		zap.Duration("elapsed", time.Since(started)),
		zap.Stringer("result_kind", result.Kind),
		zap.Int("response_length", utf8.RuneCountInString(outcome.raw)),
		zap.String("response_preview", utils.TruncateForLog(outcome.raw, c.cfg.MaxLogLength)),
	)

	rendered := matching.Render(result)
	if err := c.transport.SendText(ctx, ev.ChatID, rendered); err != nil {
		log.Error("failed to deliver match, search not recorded", zap.Error(err))
		return
	}
	c.logMessage(ctx, log, ev.UserID, rendered, true, store.TypeText)
	c.sessions.Append(ev.UserID, session.RoleAssistant, rendered)

	c.logSearch(ctx, log, ev.UserID, query, outcome.raw)
	c.limiter.RecordSearch(ev.UserID, c.now())

	c.reply(ctx, log, ev, cooldownNotice(c.cfg.AppURL))

	c.narrate(ctx, log, ev, result, query)
}

// awaitMatch runs the oracle on a worker goroutine under the match deadline
// and shows progress notices while it works. A result that arrives after the
// deadline is discarded.
func (c *Controller) awaitMatch(ctx context.Context, log *zap.Logger, chatID int64, query string) matchOutcome {
	matchCtx, cancel := context.WithTimeout(ctx, c.cfg.MatchTimeout)
	defer cancel()

	results := make(chan matchOutcome, 1)
	go func() {
		raw, err := c.oracle.Match(matchCtx, query)
		results <- matchOutcome{raw: raw, err: err}
	}()

	for i, notice := range progressNotices {
		if i > 0 {
			timer := time.NewTimer(c.cfg.ProgressInterval)
			select {
			case outcome := <-results:
				timer.Stop()
				return outcome
			case <-matchCtx.Done():
				timer.Stop()
				return matchOutcome{err: matchCtx.Err()}
			case <-timer.C:
			}
		}
		c.send(ctx, log, chatID, notice)
	}

	select {
	case outcome := <-results:
		return outcome
	case <-matchCtx.Done():
		return matchOutcome{err: matchCtx.Err()}
	}
}

// narrate sends a spoken summary of the match. Failures never affect the
// turn; the audio file is always removed.
func (c *Controller) narrate(ctx context.Context, log *zap.Logger, ev chat.Event, result matching.Result, query string) {
	if !c.cfg.Narration || c.speech == nil {
		return
	}

	narrateCtx, cancel := context.WithTimeout(ctx, c.cfg.NarrationTimeout)
	defer cancel()

	summary := c.oracle.Narrate(narrateCtx, result, query)
	log.Debug("narration text ready", zap.String("summary", utils.TruncateForLog(summary, c.cfg.MaxLogLength)))

	path, err := c.speech.Synthesize(narrateCtx, summary)
	if err != nil {
		log.Warn("failed to synthesize narration", zap.Error(err))
		return
	}
	defer c.speech.Cleanup(path)

	if err := c.transport.SendAudio(narrateCtx, ev.ChatID, path, audioTitle, audioPerformer); err != nil {
		log.Warn("failed to send narration", zap.Error(err))
		return
	}
	log.Info("narration sent")
}
