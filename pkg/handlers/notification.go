package handlers

import (
	"context"
	"fmt"

	"github.com/avelin/dagflow/internal/expr"
	"github.com/avelin/dagflow/pkg/api"
)

// TypeNotification is the task type served by NewNotification.
const TypeNotification = "notification"

// NotificationSender delivers a rendered notification. Implementations
// live in the host application (email, chat, SMS); the engine only
// sees success or failure.
type NotificationSender interface {
	Send(ctx context.Context, message string, recipients []string, data map[string]any) error
}

type notificationConfig struct {
	Template   string   `mapstructure:"template"`
	Recipients []string `mapstructure:"recipients"`
}

// NewNotification returns the handler for notification tasks. Config
// shape:
//
//	template: "Order ${order.id} shipped"
//	recipients: ["$.customer.email", "ops@example.com"]
//
// The template and recipient entries are resolved against the task's
// data snapshot before sending.
func NewNotification(sender NotificationSender) api.Handler {
	return func(ctx context.Context, in api.TaskInput) (any, error) {
		var cfg notificationConfig
		if err := decodeConfig(in.Config, &cfg); err != nil {
			return nil, err
		}
		if cfg.Template == "" {
			return nil, fmt.Errorf("notification: template is required")
		}

		message := expr.Interpolate(cfg.Template, in.Data)

		recipients := make([]string, 0, len(cfg.Recipients))
		for _, r := range cfg.Recipients {
			v := expr.Resolve(r, in.Data)
			if expr.IsUndefined(v) {
				continue
			}
			recipients = append(recipients, expr.Stringify(v))
		}
		if len(recipients) == 0 {
			return nil, fmt.Errorf("notification: no recipients resolved")
		}

		if err := sender.Send(ctx, message, recipients, in.Data); err != nil {
			return nil, err
		}
		return map[string]any{
			"message":    message,
			"recipients": recipients,
			"sent":       true,
		}, nil
	}
}
