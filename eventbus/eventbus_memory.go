package eventbus

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"folio/logger"
)

// ErrQueueFull 는 메모리 버스의 토픽 버퍼가 가득 찼을 때 반환된다.
var ErrQueueFull = errors.New("event queue is full")

const memoryQueueSize = 256

// MemoryEventBus 는 브로커 없이 한 프로세스 안에서 동작하는 EventBus 다.
// 재시도 토픽 대신 타이머로 기본 토픽에 재주입하고, DLQ 는 메모리에 보관한다.
type MemoryEventBus struct {
	mu         sync.Mutex
	queues     map[string]chan Event
	dead       []Event
	retryDelay time.Duration
	timers     []*time.Timer
}

type MemoryOption func(*MemoryEventBus)

// WithRetryDelay 는 RetryDelays 대신 고정 지연을 사용한다. 테스트용.
func WithRetryDelay(d time.Duration) MemoryOption {
	return func(m *MemoryEventBus) { m.retryDelay = d }
}

func NewMemoryEventBus(opts ...MemoryOption) *MemoryEventBus {
	m := &MemoryEventBus{queues: make(map[string]chan Event)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryEventBus) queue(topic string) chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.queues[topic]
	if !ok {
		q = make(chan Event, memoryQueueSize)
		m.queues[topic] = q
	}
	return q
}

func (m *MemoryEventBus) Publish(ctx context.Context, topic string, event Event) error {
	if strings.HasSuffix(topic, ".dlq") {
		m.mu.Lock()
		m.dead = append(m.dead, event)
		m.mu.Unlock()
		return nil
	}

	select {
	case m.queue(topic) <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Subscribe 는 ctx 가 끝날 때까지 기본 토픽의 이벤트를 처리한다. groupID 는 무시한다.
func (m *MemoryEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	q := m.queue(topic.Base())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-q:
			next, err := Dispatch(ctx, topic, evt, handler)
			if err == nil {
				continue
			}
			if next.DeadLetter {
				_ = m.Publish(ctx, next.Topic, next.Event)
				continue
			}
			m.scheduleRetry(topic.Base(), next)
		}
	}
}

func (m *MemoryEventBus) scheduleRetry(base string, next Reschedule) {
	delay := next.Delay
	if m.retryDelay > 0 {
		delay = m.retryDelay
	}
	t := time.AfterFunc(delay, func() {
		if err := m.Publish(context.Background(), base, next.Event); err != nil {
			logger.ErrorWithFields("failed to reinject event", logger.Fields{
				"event_id": next.Event.ID,
				"error":    err.Error(),
			})
		}
	})

	m.mu.Lock()
	m.timers = append(m.timers, t)
	m.mu.Unlock()
}

// StartRetryReinjector 는 재주입을 Subscribe 가 직접 처리하므로 ctx 종료까지 대기만 한다.
func (m *MemoryEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	<-ctx.Done()
	return ctx.Err()
}

// DeadLetters 는 DLQ 로 보내진 이벤트의 복사본이다.
func (m *MemoryEventBus) DeadLetters() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.dead...)
}

// Close 는 예약된 재시도를 취소한다.
func (m *MemoryEventBus) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.timers {
		t.Stop()
	}
	m.timers = nil
}
