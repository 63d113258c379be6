package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanPublisher struct {
	ch  chan Task
	err error
}

func (p *chanPublisher) PublishEvent(_ context.Context, topic, _ string, event any) error {
	if topic != TopicTasks {
		return errors.New("unexpected topic " + topic)
	}
	p.ch <- event.(Task)
	return p.err
}

func TestKafkaDispatcher_SubmitIsAsync(t *testing.T) {
	pub := &chanPublisher{ch: make(chan Task, 1)}
	d := NewKafkaDispatcher(pub)

	d.Submit(context.Background(), Task{To: []string{"a@example.com"}, Template: TemplateOrderStatus})

	select {
	case got := <-pub.ch:
		assert.Equal(t, TemplateOrderStatus, got.Template)
	case <-time.After(time.Second):
		t.Fatal("task was not published")
	}
}

func TestRender_OrderStatus(t *testing.T) {
	raw := []byte(`{
		"to": ["jane@example.com"],
		"template": "order_status",
		"context": {
			"first_name": "Jane",
			"order_id": "PAY2ME20240101ODRABCDEF",
			"status": "Shipped",
			"estimated_delivery": "2024-01-06",
			"shipping_address": "1 Main St, Springfield, US, 12345",
			"total": "22.00",
			"lines": [{"product_name": "Mug", "quantity": 2, "unit_price": "10.00", "total": "20.00"}]
		}
	}`)
	var task Task
	require.NoError(t, json.Unmarshal(raw, &task))

	body, err := Render(task)
	require.NoError(t, err)
	assert.Contains(t, body, "PAY2ME20240101ODRABCDEF")
	assert.Contains(t, body, "Shipped")
	assert.Contains(t, body, "Mug")
	assert.Contains(t, body, "2024-01-06")
}

func TestRender_ContactReplyAndWeeklyWishes(t *testing.T) {
	body, err := Render(Task{Template: TemplateContactReply, Context: map[string]any{
		"name":    "Jane",
		"subject": "Late parcel",
		"message": "Where is my order?",
		"reply":   "It ships tomorrow.",
		"sent_at": "2024-01-01",
	}})
	require.NoError(t, err)
	assert.Contains(t, body, "Hello Jane")
	assert.Contains(t, body, "It ships tomorrow.")
	assert.Contains(t, body, "Where is my order?")

	body, err = Render(Task{Template: TemplateWeeklyWishes, Context: map[string]any{
		"as_of": "2024-01-07",
		"count": 1,
		"items": []map[string]any{{"email": "jane@example.com", "product_name": "Mug", "product_id": 7, "added": "2024-01-03"}},
	}})
	require.NoError(t, err)
	assert.Contains(t, body, "jane@example.com")
	assert.Contains(t, body, "Mug (#7)")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Render(Task{Template: "nope"})
	assert.Error(t, err)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []Task
	err  error
}

func (s *fakeSender) Send(_ context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, task)
	return nil
}

func TestWorker_Handle(t *testing.T) {
	sender := &fakeSender{}
	w := &Worker{Sender: sender, Log: slog.New(slog.NewJSONHandler(io.Discard, nil))}

	raw, err := json.Marshal(Task{To: []string{"ops@example.com"}, Template: TemplateDailyReport})
	require.NoError(t, err)

	w.Handle(context.Background(), []byte("{not json"))
	w.Handle(context.Background(), raw)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, TemplateDailyReport, sender.sent[0].Template)
}
