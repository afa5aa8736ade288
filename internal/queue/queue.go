package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nimasrn/time-capsule/pkg/redis"
)

// Message is one entry of a publish stream.
type Message struct {
	ID        string
	Data      []byte
	Metadata  map[string]string
	Timestamp time.Time
}

type QueueConfig struct {
	Name   string
	MaxLen int64
}

// Queue appends entries to a Redis stream. Consumers live outside this
// process; Read exists for inspection and tests.
type Queue struct {
	adapter redis.RedisAdapter
	config  QueueConfig
}

type QueueStats struct {
	TotalMessages int64
}

func NewQueue(adapter redis.RedisAdapter, config QueueConfig) (*Queue, error) {
	if adapter == nil {
		return nil, fmt.Errorf("redis adapter is required")
	}
	if config.Name == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	return &Queue{adapter: adapter, config: config}, nil
}

func (q *Queue) Name() string {
	return q.config.Name
}

// Publish adds a message to the stream
func (q *Queue) Publish(ctx context.Context, data []byte, metadata map[string]string) (string, error) {
	values := map[string]interface{}{
		"data":      string(data),
		"timestamp": time.Now().Unix(),
	}
	for k, v := range metadata {
		values["meta_"+k] = v
	}

	id, err := q.adapter.XAdd(ctx, q.config.Name, q.config.MaxLen, values)
	if err != nil {
		return "", fmt.Errorf("failed to publish message: %w", err)
	}
	return id, nil
}

// PublishJSON publishes a JSON-encoded message
func (q *Queue) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return q.Publish(ctx, jsonData, metadata)
}

// Read returns up to count entries from the head of the stream.
func (q *Queue) Read(ctx context.Context, count int64) ([]*Message, error) {
	entries, err := q.adapter.XRange(ctx, q.config.Name, count)
	if err != nil {
		return nil, err
	}
	out := make([]*Message, 0, len(entries))
	for _, e := range entries {
		out = append(out, decode(e))
	}
	return out, nil
}

func (q *Queue) GetStats(ctx context.Context) (*QueueStats, error) {
	total, err := q.adapter.XLen(ctx, q.config.Name)
	if err != nil {
		return nil, err
	}
	return &QueueStats{TotalMessages: total}, nil
}

func decode(entry redis.StreamMessage) *Message {
	msg := &Message{
		ID:       entry.ID,
		Metadata: make(map[string]string),
	}

	for k, v := range entry.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch {
		case k == "data":
			msg.Data = []byte(s)
		case k == "timestamp":
			if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
				msg.Timestamp = time.Unix(unix, 0)
			}
		case strings.HasPrefix(k, "meta_"):
			msg.Metadata[strings.TrimPrefix(k, "meta_")] = s
		}
	}
	return msg
}
