package helpers

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/viewsbot/core/logger"
)

func optionsFrom(mode tele.ParseMode, markup []*tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: mode}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return opts
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return send(c, "send.text", text, optionsFrom(tele.ModeDefault, markup))
}

// SendMD sends a message with Markdown parse mode and optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return send(c, "send.md", text, optionsFrom(tele.ModeMarkdown, markup))
}

// EditOrSendMD edits the callback's message (Markdown) or sends a new one
// when the update carries no editable message.
func EditOrSendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	err := c.EditOrSend(text, optionsFrom(tele.ModeMarkdown, markup))
	if err != nil {
		logger.Warn(BuildContext(c), "tg.sender", "edit.fail", slog.String("err", err.Error()))
	}
	return err
}

func send(c tele.Context, action, text string, opts *tele.SendOptions) error {
	err := c.Send(text, opts)
	if err != nil {
		logger.Warn(BuildContext(c), "tg.sender", "send.fail",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
	}
	return err
}
