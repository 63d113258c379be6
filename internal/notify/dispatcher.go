// Package notify submits email tasks to the background mailer and renders
// them there.
package notify

import (
	"context"
	"strings"
	"time"

	"github.com/pay2me/storefront/internal/events"
	"github.com/pay2me/storefront/internal/logging"
)

const (
	TopicTasks = "notification_tasks"

	TemplateOrderStatus  = "order_status"
	TemplateDailyReport  = "daily_orders_report"
	TemplateContactReply = "contact_reply"
	TemplateWeeklyWishes = "weekly_wishlist_report"

	submitTimeout = 10 * time.Second
)

type Task struct {
	To       []string       `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Context  map[string]any `json:"context"`
}

// Dispatcher accepts tasks without blocking the caller. Delivery failures are
// logged by the implementation and never reported back.
type Dispatcher interface {
	Submit(ctx context.Context, task Task)
}

type KafkaDispatcher struct {
	Publisher events.Publisher
	Timeout   time.Duration
}

func NewKafkaDispatcher(p events.Publisher) *KafkaDispatcher {
	return &KafkaDispatcher{Publisher: p, Timeout: submitTimeout}
}

func (d *KafkaDispatcher) Submit(ctx context.Context, task Task) {
	l := logging.FromContext(ctx).With("template", task.Template)
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = submitTimeout
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := d.Publisher.PublishEvent(ctx, TopicTasks, strings.Join(task.To, ","), task); err != nil {
			l.Error("notification_submit_error", "to", task.To, "error", err)
			return
		}
		l.Debug("notification_submitted", "to", task.To)
	}()
}
