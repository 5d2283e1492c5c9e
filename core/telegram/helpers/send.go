package helpers

import (
	"log/slog"

	"github.com/m3rciful/filtrbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

func send(c tele.Context, action string, what string, opts *tele.SendOptions) error {
	var err error
	if opts != nil {
		err = c.Send(what, opts)
	} else {
		err = c.Send(what)
	}
	if err != nil {
		logger.Warn(BuildContext(c), logger.ComponentTG, "send.failed",
			slog.String("op", action),
			slog.String("err", err.Error()),
		)
	}
	return err
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string) error {
	return send(c, "send.text", text, nil)
}

// SendMD sends a message with Markdown parse mode.
func SendMD(c tele.Context, text string) error {
	return send(c, "send.md", text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
}
