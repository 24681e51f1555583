package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender 通过Telegram机器人发送通知
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramSender(token string) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("初始化Telegram机器人失败: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

// Send 向指定chat id发送消息，address为操作员配置的Telegram chat id
func (s *TelegramSender) Send(ctx context.Context, address, message string) error {
	chatID, err := strconv.ParseInt(address, 10, 64)
	if err != nil {
		return fmt.Errorf("无效的Telegram chat id: %s", address)
	}

	msg := tgbotapi.NewMessage(chatID, message)

	done := make(chan error, 1)
	go func() {
		_, sendErr := s.bot.Send(msg)
		done <- sendErr
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
