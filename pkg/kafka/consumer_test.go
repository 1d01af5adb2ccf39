package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"motorhub/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func runConsumer(t *testing.T, c *Consumer, r *fakeReader, want int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(r.commits()) == want }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, c.Close())
	assert.True(t, r.closed)
}

func TestConsumer_HandlesAndCommits(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{
		{Offset: 1, Key: []byte("a"), Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte("job.accepted")}}},
		{Offset: 2, Key: []byte("b")},
	}}

	var mu sync.Mutex
	var types []string
	handler := func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		types = append(types, msg.GetEventType())
		return nil
	}

	c := NewConsumerWithReader(r, "sync-events", "notifier", 3, handler, logger.Discard())
	runConsumer(t, c, r, 2)

	assert.Equal(t, []int64{1, 2}, r.commits())
	assert.Equal(t, []string{"job.accepted", ""}, types)
}

func TestConsumer_RetriesTransientThenDeadLetters(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{{Offset: 7, Key: []byte("k")}}}
	dlq := &fakeWriter{}

	var attempts int
	handler := func(ctx context.Context, msg Message) error {
		attempts++
		return errors.New("document store unavailable")
	}

	c := NewConsumerWithReader(r, "sync-events", "notifier", 2, handler, logger.Discard())
	c.dlqWriter = dlq
	runConsumer(t, c, r, 1)

	assert.Equal(t, 3, attempts)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "notifier", header(dlq.msgs[0], "dlq-consumer-group"))
	assert.Equal(t, "2", header(dlq.msgs[0], HeaderRetryCount))
}

func TestConsumer_PermanentErrorNotRetried(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{{Offset: 3}}}

	var attempts int
	handler := func(ctx context.Context, msg Message) error {
		attempts++
		return NewPermanentError("bad payload", nil)
	}

	c := NewConsumerWithReader(r, "t", "g", 5, handler, logger.Discard())
	runConsumer(t, c, r, 1)
	assert.Equal(t, 1, attempts)
}

func TestConsumer_StartAfterClose(t *testing.T) {
	c := NewConsumerWithReader(&fakeReader{}, "t", "g", 0, func(context.Context, Message) error { return nil }, logger.Discard())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Start(context.Background()), ErrConsumerClosed)
}
