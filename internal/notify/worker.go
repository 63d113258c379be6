package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type Worker struct {
	Reader *kafka.Reader
	Sender Sender
	Log    *slog.Logger
}

func NewReader(brokers []string, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   TopicTasks,
	})
}

// Run consumes tasks until ctx is cancelled. A task that cannot be decoded or
// sent is logged and skipped so one bad message cannot stall the queue.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.Reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		w.Handle(ctx, msg.Value)
	}
}

func (w *Worker) Handle(ctx context.Context, raw []byte) {
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		w.Log.Error("notification_decode_error", "error", err)
		return
	}
	if err := w.Sender.Send(ctx, task); err != nil {
		w.Log.Error("notification_send_error", "template", task.Template, "to", task.To, "error", err)
		return
	}
	w.Log.Info("notification_sent", "template", task.Template, "to", task.To)
}
