package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeRemover struct {
	mu    sync.Mutex
	urls  []string
	fail  bool
	block chan struct{}
}

func (f *fakeRemover) Remove(_ context.Context, rawURL string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, rawURL)
	if f.fail {
		return errors.New("store down")
	}
	return nil
}

func (f *fakeRemover) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

func TestQueueAttemptsEveryURLEvenOnFailure(t *testing.T) {
	rm := &fakeRemover{fail: true}
	q := NewQueue(rm, 2, 10, time.Second)
	q.Enqueue("/images/a", "/images/b", "/images/c")
	q.Close()

	if got := len(rm.seen()); got != 3 {
		t.Errorf("expected 3 removal attempts, got %d", got)
	}
}

func TestQueueEnqueueDoesNotBlockWhenFull(t *testing.T) {
	rm := &fakeRemover{block: make(chan struct{})}
	q := NewQueue(rm, 1, 1, time.Second)

	done := make(chan struct{})
	go func() {
		q.Enqueue("/images/1", "/images/2", "/images/3", "/images/4")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	close(rm.block)
	q.Close()
	if got := len(rm.seen()); got < 1 || got > 2 {
		t.Errorf("expected one in flight plus one buffered, got %d", got)
	}
}

func TestQueueEnqueueAfterCloseIsDropped(t *testing.T) {
	rm := &fakeRemover{}
	q := NewQueue(rm, 1, 1, time.Second)
	q.Close()
	q.Enqueue("/images/late")
	q.Close()

	if got := len(rm.seen()); got != 0 {
		t.Errorf("expected no removals after close, got %d", got)
	}
}

func TestHandleDeliveryIgnoresBadMessages(t *testing.T) {
	rm := &fakeRemover{}
	handleDelivery(rm, []byte(`not json`), time.Second)
	handleDelivery(rm, []byte(`{"url":""}`), time.Second)
	handleDelivery(rm, []byte(`{"url":"/images/ok"}`), time.Second)

	got := rm.seen()
	if len(got) != 1 || got[0] != "/images/ok" {
		t.Errorf("expected only the valid url, got %v", got)
	}
}
