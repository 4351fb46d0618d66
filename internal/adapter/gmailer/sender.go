package gmailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"hacktrack/internal/config"
	"hacktrack/internal/interfaces"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

type Sender struct {
	cfg    *config.GoogleConfig
	logger *logrus.Logger
}

// NewSender 创建Gmail发信适配器（使用服务侧固定的refresh token）
func NewSender(cfg *config.GoogleConfig, logger *logrus.Logger) interfaces.EmailSender {
	return &Sender{cfg: cfg, logger: logger}
}

// Send 通过Gmail API发送HTML邮件
func (s *Sender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if s.cfg.RefreshToken == "" {
		return fmt.Errorf("发信refresh token未配置")
	}
	if s.cfg.SenderEmail == "" {
		return fmt.Errorf("发信邮箱未配置")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: s.cfg.RefreshToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return fmt.Errorf("创建Gmail客户端失败: %w", err)
	}

	raw := makeBody(to, s.cfg.SenderEmail, subject, htmlBody)
	if _, err := svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("Gmail发送失败: %w", err)
	}

	s.logger.WithField("to", to).Info("邮件发送成功")
	return nil
}

// makeBody 组装Gmail API要求的base64url编码RFC2822报文
func makeBody(to, from, subject, body string) string {
	msg := strings.Join([]string{
		"Content-Type: text/html; charset=\"UTF-8\"\n",
		"MIME-Version: 1.0\n",
		"Content-Transfer-Encoding: 7bit\n",
		fmt.Sprintf("to: %s\n", to),
		fmt.Sprintf("from: %s\n", from),
		fmt.Sprintf("subject: %s\n\n", subject),
		body,
	}, "")
	return base64.RawURLEncoding.EncodeToString([]byte(msg))
}
