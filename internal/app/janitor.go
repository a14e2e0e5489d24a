package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/viewsbot/core/logger"
	"github.com/m3rciful/viewsbot/core/telegram/state"
	"github.com/m3rciful/viewsbot/internal/bot"
)

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "err", err.Error())...)
}

// newJanitor schedules the sweep of idle dialogues and elapsed ad cooldowns.
func newJanitor(spec string, sessions state.Manager, ttl time.Duration, cooldown *bot.Cooldown) (*cron.Cron, error) {
	log := cronLogger{l: logger.Component("janitor")}
	c := cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	_, err := c.AddFunc(spec, func() {
		sweep(sessions, ttl, cooldown)
	})
	if err != nil {
		return nil, fmt.Errorf("janitor schedule %q: %w", spec, err)
	}
	return c, nil
}

func sweep(sessions state.Manager, ttl time.Duration, cooldown *bot.Cooldown) {
	dropped := sessions.Sweep(ttl)
	expired := cooldown.Sweep()
	if dropped == 0 && expired == 0 {
		return
	}
	logger.Component("janitor").Info("swept transient state",
		slog.String("event", "janitor.sweep"),
		slog.Int("sessions_dropped", dropped),
		slog.Int("sessions_left", sessions.Len()),
		slog.Int("cooldowns_expired", expired),
		slog.Int("cooldowns_left", cooldown.Len()),
	)
}
