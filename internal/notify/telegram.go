package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSink pushes operator alerts (signature failures, purges) to
// the admin chat. The `to` argument is ignored; the chat is fixed at
// construction.
type TelegramSink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	b, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	b.Debug = false
	return &TelegramSink{bot: b, chatID: chatID}, nil
}

func (t *TelegramSink) Send(ctx context.Context, _, subject, body string) error {
	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("%s\n%s", subject, body))
	_, err := t.bot.Send(msg)
	return err
}
