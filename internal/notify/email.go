package notify

import (
	"context"

	"gopkg.in/gomail.v2"
)

// EmailSender 通过SMTP发送邮件通知
type EmailSender struct {
	dialer  *gomail.Dialer
	from    string
	subject string
}

func NewEmailSender(host string, port int, username, password, from string) *EmailSender {
	return &EmailSender{
		dialer:  gomail.NewDialer(host, port, username, password),
		from:    from,
		subject: "冷库监控系统告警",
	}
}

// Send 发送一封告警邮件
// gomail本身不支持context，发送放在独立goroutine中以便超时返回
func (s *EmailSender) Send(ctx context.Context, address, message string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", address)
	m.SetHeader("Subject", s.subject)
	m.SetBody("text/plain", message)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// 超时按失败处理，由调度器决定是否重试
		return ctx.Err()
	}
}
