package notify

import (
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"jolaman/pkg/logger"
)

// Telegram pushes order events to an ops channel. Sends run in their
// own goroutine; a failed send is logged and dropped.
type Telegram struct {
	bot    *tele.Bot
	chatID tele.ChatID
	log    logger.ILogger
}

func NewTelegram(token string, chatID int64, log logger.ILogger) (*Telegram, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Client: nil,
		Poller: nil, // send-only, never started
	})
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: tele.ChatID(chatID), log: log}, nil
}

func (t *Telegram) OrderEvent(orderID int64, number string, event string) {
	text := fmt.Sprintf("Order #%s (%d): %s at %s",
		number, orderID, event, time.Now().Format(time.RFC3339))

	go func() {
		if _, err := t.bot.Send(t.chatID, text); err != nil {
			t.log.Warning("failed to push order event",
				logger.Int64("order_id", orderID),
				logger.String("event", event),
				logger.Error(err),
			)
		}
	}()
}
