package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/agenteagro/agenteagro/internal/ai"
)

func TestPoolProcessesEnqueuedMessages(t *testing.T) {
	f := newFixture()
	pool := NewPool(nil, f.processor, 2, 8)
	pool.Start()

	if !pool.Enqueue(textMessage("5511999990000", "olá")) {
		t.Fatalf("enqueue refused with an empty queue")
	}
	pool.Stop()

	if len(f.gateway.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(f.gateway.sent))
	}
}

func TestPoolDropsWhenQueueFull(t *testing.T) {
	f := newFixture()
	// Never started, so the single slot fills and stays full.
	pool := NewPool(nil, f.processor, 1, 1)

	if !pool.Enqueue(textMessage("5511999990000", "primeira")) {
		t.Fatalf("first enqueue refused")
	}
	if pool.Enqueue(textMessage("5511999990000", "segunda")) {
		t.Fatalf("second enqueue accepted with a full queue")
	}
}

func TestPoolRecoversFromPanic(t *testing.T) {
	f := newFixture()
	f.processor = NewProcessor(nil, f.store, f.config, f.finder, f.gateway, panicResponder{})
	pool := NewPool(nil, f.processor, 1, 4)
	pool.Start()

	pool.Enqueue(textMessage("5511999990000", "explode"))
	pool.Enqueue(textMessage("5511999990000", "explode de novo"))

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("pool did not drain after panics")
	}
}

type panicResponder struct{}

func (panicResponder) GenerateText(_ context.Context, _, _, _ string) ai.Result {
	panic("boom")
}

func (panicResponder) GenerateVision(_ context.Context, _, _ string) ai.Result {
	panic("boom")
}
