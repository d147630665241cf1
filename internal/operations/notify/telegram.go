package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends alerts through the Telegram Bot API.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID string
}

// NewTelegramNotifier creates a notifier without contacting Telegram.
// chatID is a numeric chat id or an @channel username. An empty endpoint
// means the public Bot API.
func NewTelegramNotifier(token, chatID, endpoint string) *TelegramNotifier {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: 10 * time.Second},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(endpoint)

	return &TelegramNotifier{bot: bot, chatID: chatID}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	msg, err := t.message(alert.Message)
	if err != nil {
		return &NotificationError{Channel: t.Name(), Err: err}
	}

	// The bot client has no context support; bound the wait instead.
	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return &NotificationError{Channel: t.Name(), Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			return &NotificationError{Channel: t.Name(), Err: err}
		}
		return nil
	}
}

func (t *TelegramNotifier) message(text string) (tgbotapi.MessageConfig, error) {
	if strings.HasPrefix(t.chatID, "@") {
		return tgbotapi.NewMessageToChannel(t.chatID, text), nil
	}
	id, err := strconv.ParseInt(t.chatID, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("invalid chat id %q: %w", t.chatID, err)
	}
	return tgbotapi.NewMessage(id, text), nil
}
