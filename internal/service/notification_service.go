package service

import (
	"context"
	"fmt"
	"html"
	"net/url"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/mail"
)

// NotificationService turns account events into outgoing mail.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     mail.Mailer
	logger     *zap.Logger
	cfg        config.MailConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer mail.Mailer, logger *zap.Logger, cfg config.MailConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger.With(zap.String("component", "notifications")),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
	n.dispatcher.Subscribe(events.EventPasswordChanged, n.handlePasswordChanged)
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("PasswordResetRequested", zap.String("event_id", event.ID), zap.String("user_id", event.UserID))

	return n.mailer.Send(ctx, mail.Message{
		To:      payload.Email,
		Subject: "Reset your password",
		Body:    n.resetBody(payload),
	})
}

func (n *NotificationService) handlePasswordChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("PasswordChanged", zap.String("event_id", event.ID), zap.String("user_id", event.UserID))

	return n.mailer.Send(ctx, mail.Message{
		To:      payload.Email,
		Subject: "Your password was changed",
		Body:    "<p>The password on your account was just changed. If this was not you, reset it immediately.</p>",
	})
}

func (n *NotificationService) resetBody(p events.PasswordResetRequestedPayload) string {
	link := n.cfg.ResetURLBase + "?" + url.Values{"email": {p.Email}, "key": {p.Token}}.Encode()
	return fmt.Sprintf(
		"<p>Hello %s,</p><p>Use the link below to choose a new password.</p><p><a href=\"%s\">Reset password</a></p><p>Your reset key: <code>%s</code></p>",
		html.EscapeString(p.Name), html.EscapeString(link), html.EscapeString(p.Token),
	)
}
