package notify

import (
	"context"
	"sync"
)

// Recorder captures submitted tasks synchronously; tests use it in place of
// the Kafka dispatcher.
type Recorder struct {
	mu    sync.Mutex
	tasks []Task
}

func (r *Recorder) Submit(_ context.Context, task Task) {
	r.mu.Lock()
	r.tasks = append(r.tasks, task)
	r.mu.Unlock()
}

func (r *Recorder) Tasks() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Task(nil), r.tasks...)
}
