package middleware

import (
	"errors"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/viewsbot/core/logger"
	tghelpers "github.com/m3rciful/viewsbot/core/telegram/helpers"
)

// ErrPanic is returned to the router when a handler panicked.
var ErrPanic = errors.New("handler panic")

// RecoverMiddleware turns a handler panic into ErrPanic so one bad update never stops the poller.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(tghelpers.BuildContext(c), "tg", "handler.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = ErrPanic
			}
		}()
		return next(c)
	}
}
