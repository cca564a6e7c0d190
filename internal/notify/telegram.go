package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender delivers messages through the Telegram Bot API.
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramSender(token string) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

func (s *TelegramSender) Send(_ context.Context, msg Message) error {
	m := tgbotapi.NewMessage(msg.ReceiverID, msg.Text)
	m.ParseMode = tgbotapi.ModeHTML
	if _, err := s.bot.Send(m); err != nil {
		return fmt.Errorf("telegram send to %d: %w", msg.ReceiverID, err)
	}
	return nil
}
