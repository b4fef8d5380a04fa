package bus

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
)

// ErrBusClosed is returned when publishing or subscribing on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// MemoryEventBus is a process-local EventBus. Handlers run on their own goroutine.
type MemoryEventBus struct {
	mu     sync.RWMutex
	subs   []*memorySubscription
	logger *logger.Logger
	closed bool
}

type memorySubscription struct {
	bus     *MemoryEventBus
	subject string
	pattern *regexp.Regexp // nil for exact subjects
	handler EventHandler

	mu     sync.Mutex
	active bool
}

// NewMemoryEventBus creates a new in-memory event bus
func NewMemoryEventBus(log *logger.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		logger: log.WithFields(zap.String("component", "memory-bus")),
	}
}

func (s *memorySubscription) Unsubscribe() error {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	for i, sub := range s.bus.subs {
		if sub == s {
			s.bus.subs = append(s.bus.subs[:i], s.bus.subs[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memorySubscription) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *memorySubscription) matches(subject string) bool {
	if s.pattern == nil {
		return s.subject == subject
	}
	return s.pattern.MatchString(subject)
}

// Publish delivers the event to every matching subscriber.
func (b *MemoryEventBus) Publish(ctx context.Context, subject string, event *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	for _, sub := range b.subs {
		if !sub.IsValid() || !sub.matches(subject) {
			continue
		}
		go func(s *memorySubscription) {
			if err := s.handler(ctx, event); err != nil {
				b.logger.Error("event handler error",
					zap.String("subject", subject),
					zap.Error(err))
			}
		}(sub)
	}

	b.logger.Debug("published event",
		zap.String("subject", subject),
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))
	return nil
}

// Subscribe registers handler for subject, which may contain wildcards.
func (b *MemoryEventBus) Subscribe(subject string, handler EventHandler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	sub := &memorySubscription{
		bus:     b,
		subject: subject,
		pattern: compilePattern(subject),
		handler: handler,
		active:  true,
	}
	b.subs = append(b.subs, sub)

	b.logger.Debug("subscribed to subject", zap.String("subject", subject))
	return sub, nil
}

// Close deactivates every subscription.
func (b *MemoryEventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for _, sub := range b.subs {
		sub.mu.Lock()
		sub.active = false
		sub.mu.Unlock()
	}
	b.subs = nil

	b.logger.Info("memory event bus closed")
}

// IsConnected reports false only after Close.
func (b *MemoryEventBus) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.closed
}

// compilePattern converts a NATS-style pattern to a regex, or nil when there are no wildcards.
func compilePattern(pattern string) *regexp.Regexp {
	if !strings.ContainsAny(pattern, "*>") {
		return nil
	}

	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, `[^.]+`)
	escaped = strings.ReplaceAll(escaped, `>`, `.+`)

	regex, err := regexp.Compile("^" + escaped + "$")
	if err != nil {
		return nil
	}
	return regex
}
