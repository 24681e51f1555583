package notify

import (
	"context"
	"errors"
	"fmt"

	"coldwatch/internal/models"
)

// ErrChannelUnsupported 通道没有配置对应的发送器
// 短信通道目前只预留记录，没有接入服务商
var ErrChannelUnsupported = errors.New("通知通道未接入")

// Sender 单个通道的发送器
type Sender interface {
	Send(ctx context.Context, address, message string) error
}

// Gateway 多通道通知网关，核心流程只依赖这一层，不感知具体服务商
type Gateway struct {
	senders map[models.NotificationChannel]Sender
}

func NewGateway() *Gateway {
	return &Gateway{
		senders: make(map[models.NotificationChannel]Sender),
	}
}

// Register 注册通道发送器
func (g *Gateway) Register(channel models.NotificationChannel, sender Sender) {
	g.senders[channel] = sender
}

// Deliver 通过指定通道投递一条消息
func (g *Gateway) Deliver(ctx context.Context, channel models.NotificationChannel, address, message string) error {
	sender, exists := g.senders[channel]
	if !exists {
		return fmt.Errorf("%w: %s", ErrChannelUnsupported, channel)
	}
	return sender.Send(ctx, address, message)
}

// Supports 通道是否已接入
func (g *Gateway) Supports(channel models.NotificationChannel) bool {
	_, exists := g.senders[channel]
	return exists
}
