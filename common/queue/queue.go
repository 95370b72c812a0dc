package queue

import (
	"context"
	"sync"

	"github.com/staffparty/partyhub/common/logger"
)

// Queue interface for in-process message passing
type Queue interface {
	Publish(ctx context.Context, topic string, key string, message []byte) error
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error
	Close() error
}

// MessageHandler processes messages
type MessageHandler func(ctx context.Context, key string, value []byte) error

// MemoryQueue fans each published message out to every subscriber of its topic.
// Delivery is best effort: a full subscriber buffer drops the message with a warning.
type MemoryQueue struct {
	subscribers map[string][]chan *Message
	mu          sync.RWMutex
	closed      bool
	wg          sync.WaitGroup
	log         *logger.Logger
	bufferSize  int
}

// Message represents a queue message
type Message struct {
	Topic string
	Key   string
	Value []byte
}

// NewMemoryQueue creates a new in-memory queue
func NewMemoryQueue(log *logger.Logger) *MemoryQueue {
	return &MemoryQueue{
		subscribers: make(map[string][]chan *Message),
		log:         log,
		bufferSize:  1000,
	}
}

// Publish publishes a message to a topic
func (q *MemoryQueue) Publish(ctx context.Context, topic string, key string, message []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil
	}

	msg := &Message{
		Topic: topic,
		Key:   key,
		Value: message,
	}

	for _, ch := range q.subscribers[topic] {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		default:
			q.log.Warn("queue full, dropping message", "topic", topic, "key", key)
		}
	}

	return nil
}

// Subscribe registers handler for topic until ctx is cancelled or the queue closes
func (q *MemoryQueue) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	ch := make(chan *Message, q.bufferSize)

	q.mu.Lock()
	q.subscribers[topic] = append(q.subscribers[topic], ch)
	q.mu.Unlock()

	q.log.Info("subscribing to topic", "topic", topic)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				q.log.Info("subscription cancelled", "topic", topic)
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := handler(ctx, msg.Key, msg.Value); err != nil {
					q.log.Error("message handler error", "topic", topic, "key", msg.Key, "error", err)
				}
			}
		}
	}()

	return nil
}

// Close closes every subscription and waits for handlers to drain
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for topic, chans := range q.subscribers {
		for _, ch := range chans {
			close(ch)
		}
		q.log.Info("closed topic", "topic", topic)
	}
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}
