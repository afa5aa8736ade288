package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nimasrn/time-capsule/internal/model"
	"github.com/nimasrn/time-capsule/internal/queue"
	"github.com/nimasrn/time-capsule/pkg/logger"
	"github.com/valyala/fasthttp"
)

var ErrCircuitOpen = errors.New("delivery endpoint circuit open")

// Notifier performs the outward delivery of a due message.
type Notifier interface {
	Deliver(ctx context.Context, m *model.Message) error
	Name() string
}

// Event is the payload handed to webhook and stream receivers.
type Event struct {
	MessageID    string            `json:"message_id"`
	UserID       string            `json:"user_id"`
	ChildID      string            `json:"child_id"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	Type         model.MessageType `json:"type"`
	MediaURL     *string           `json:"media_url,omitempty"`
	DeliveryDate time.Time         `json:"delivery_date"`
	DeliveredAt  time.Time         `json:"delivered_at"`
}

func NewEvent(m *model.Message, at time.Time) Event {
	return Event{
		MessageID:    m.ID.String(),
		UserID:       m.UserID.String(),
		ChildID:      m.ChildID.String(),
		Title:        m.Title,
		Content:      m.Content,
		Type:         m.Type,
		MediaURL:     m.MediaURL,
		DeliveryDate: m.DeliveryDate,
		DeliveredAt:  at.UTC(),
	}
}

// LogNotifier only records the delivery in the log.
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Deliver(ctx context.Context, m *model.Message) error {
	logger.Info("delivering message",
		"message_id", m.ID.String(),
		"child_id", m.ChildID.String(),
		"type", string(m.Type),
		"title", m.Title)
	return nil
}

type WebhookConfig struct {
	URL                     string
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	MaxConns                int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

// WebhookNotifier POSTs an Event as JSON. It retries transport errors and
// non-2xx answers, and stops calling the endpoint for CircuitBreakerTimeout
// after CircuitBreakerThreshold consecutive failed deliveries.
type WebhookNotifier struct {
	config WebhookConfig
	client *fasthttp.Client

	consecutiveFails atomic.Int32
	circuitOpenUntil atomic.Int64
	now              func() time.Time
}

func NewWebhookNotifier(config WebhookConfig) (*WebhookNotifier, error) {
	if config.URL == "" {
		return nil, errors.New("webhook url is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 200 * time.Millisecond
	}
	if config.MaxConns <= 0 {
		config.MaxConns = 64
	}
	if config.CircuitBreakerThreshold <= 0 {
		config.CircuitBreakerThreshold = 5
	}
	if config.CircuitBreakerTimeout <= 0 {
		config.CircuitBreakerTimeout = 30 * time.Second
	}

	return &WebhookNotifier{
		config: config,
		client: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
		now: time.Now,
	}, nil
}

func (w *WebhookNotifier) Name() string { return "webhook" }

func (w *WebhookNotifier) Deliver(ctx context.Context, m *model.Message) error {
	if w.circuitOpen() {
		return ErrCircuitOpen
	}

	body, err := json.Marshal(NewEvent(m, w.now()))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.config.RetryDelay):
			}
		}

		if lastErr = w.post(ctx, body); lastErr == nil {
			w.consecutiveFails.Store(0)
			return nil
		}
		logger.Warn("webhook delivery attempt failed",
			"message_id", m.ID.String(),
			"attempt", attempt+1,
			"error", lastErr)
	}

	w.recordFailure()
	return fmt.Errorf("failed after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}

func (w *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(w.config.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(w.config.Timeout)
	}

	if err := w.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("unexpected status code: %d, body: %s", code, resp.Body())
	}
	return nil
}

func (w *WebhookNotifier) recordFailure() {
	fails := w.consecutiveFails.Add(1)
	if fails >= int32(w.config.CircuitBreakerThreshold) {
		w.circuitOpenUntil.Store(w.now().Add(w.config.CircuitBreakerTimeout).UnixNano())
		w.consecutiveFails.Store(0)
		logger.Warn("webhook circuit breaker opened",
			"url", w.config.URL,
			"consecutive_fails", fails,
			"timeout", w.config.CircuitBreakerTimeout)
	}
}

func (w *WebhookNotifier) circuitOpen() bool {
	return w.now().UnixNano() < w.circuitOpenUntil.Load()
}

// StreamNotifier appends an Event to a Redis stream for downstream consumers.
type StreamNotifier struct {
	queue *queue.Queue
	now   func() time.Time
}

func NewStreamNotifier(q *queue.Queue) *StreamNotifier {
	return &StreamNotifier{queue: q, now: time.Now}
}

func (s *StreamNotifier) Name() string { return "stream" }

func (s *StreamNotifier) Deliver(ctx context.Context, m *model.Message) error {
	_, err := s.queue.PublishJSON(ctx, NewEvent(m, s.now()), map[string]string{
		"message_id": m.ID.String(),
		"type":       string(m.Type),
	})
	return err
}
