// Package push delivers short order-update messages to a user's
// registered device. The registered push token is a Telegram chat id;
// delivery goes through a bot so no app store presence is needed.
package push

import (
	"fmt"
	"strconv"
	"time"

	"dishdash/pkg/logger"

	tele "gopkg.in/telebot.v3"
)

type ISender interface {
	// Send delivers a short title/body pair plus a small payload the
	// receiving client uses to deep-link into the order screen.
	Send(token, title, body string, payload map[string]string) error
}

type sender struct {
	bot *tele.Bot
	log logger.ILogger
}

func New(token string, log logger.ILogger) (ISender, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}
	return &sender{bot: b, log: log}, nil
}

func (s *sender) Send(token, title, body string, payload map[string]string) error {
	chatID, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid push token %q: %w", token, err)
	}

	text := fmt.Sprintf("*%s*\n%s", title, body)
	if orderID := payload["orderId"]; orderID != "" {
		text += fmt.Sprintf("\n\n/order\\_%s", orderID)
	}

	_, err = s.bot.Send(tele.ChatID(chatID), text, tele.ModeMarkdown)
	if err != nil {
		s.log.Warning("push delivery failed", logger.String("token", token), logger.Error(err))
		return err
	}
	return nil
}
