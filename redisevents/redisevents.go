// Package redisevents publishes prefetch lifecycle events to a Redis channel.
package redisevents

import (
	"context"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/stephenafamo/prefetch"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultChannel is the channel events are published on if none is set
const DefaultChannel = "prefetch:events"

// Publisher is implemented by *redis.Client, *redis.ClusterClient
// and every other redis.UniversalClient
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Option configures a [Sink]
type Option func(*Sink)

// WithChannel sets the channel events are published on
func WithChannel(channel string) Option {
	return func(s *Sink) {
		s.channel = channel
	}
}

// WithKinds limits the events that are published
func WithKinds(kinds ...prefetch.EventKind) Option {
	return func(s *Sink) {
		s.kinds = make(map[prefetch.EventKind]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}
}

// WithTimeout bounds the time spent publishing one event
func WithTimeout(d time.Duration) Option {
	return func(s *Sink) {
		s.timeout = d
	}
}

// WithLogger sets the logger publish errors are reported to
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a sink publishing on client
func New(client Publisher, opts ...Option) *Sink {
	s := &Sink{
		client:  client,
		channel: DefaultChannel,
		timeout: time.Second,
		logger:  slog.Default(),
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// Sink is a [prefetch.EventSink] that publishes each event as a JSON [Message]
type Sink struct {
	client  Publisher
	channel string
	kinds   map[prefetch.EventKind]bool
	timeout time.Duration
	logger  *slog.Logger
}

// Message is the payload published for every event
type Message struct {
	Event string `json:"event"`
	prefetch.Execution
	EndTime      *time.Time `json:"end_time,omitempty"`
	DurationMS   *float64   `json:"duration_ms,omitempty"`
	ErrorClass   string     `json:"error_class,omitempty"`
	ErrorCode    string     `json:"error_code,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Enabled reports whether events of kind are published
func (s *Sink) Enabled(kind prefetch.EventKind) bool {
	if s.kinds == nil {
		return true
	}

	return s.kinds[kind]
}

// Publish sends the event to Redis.
// Errors are logged and otherwise ignored
func (s *Sink) Publish(ctx context.Context, e prefetch.Event) {
	payload, err := Encode(e)
	if err != nil {
		s.logger.WarnContext(ctx, "redisevents: encoding event", slog.Any("error", err))
		return
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
	}

	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.logger.WarnContext(ctx, "redisevents: publishing event",
			slog.String("channel", s.channel),
			slog.String("event", e.Kind().String()),
			slog.Any("error", err),
		)
	}
}

// Encode returns the JSON message for an event
func Encode(e prefetch.Event) ([]byte, error) {
	msg := Message{
		Event:     e.Kind().String(),
		Execution: e.Attempt(),
	}

	switch ev := e.(type) {
	case prefetch.EndEvent:
		end := ev.EndTime
		ms := float64(ev.Duration()) / float64(time.Millisecond)
		msg.EndTime = &end
		msg.DurationMS = &ms

	case prefetch.FailureEvent:
		msg.ErrorClass = ev.ErrorClass
		msg.ErrorCode = ev.ErrorCode
		msg.ErrorMessage = ev.ErrorMessage
	}

	return json.Marshal(msg)
}

// Decode reads a message published by a [Sink]
func Decode(data []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(data, &msg)
	return msg, err
}
