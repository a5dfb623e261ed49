package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/plan8/plan8-contacts/internal/domain"

	"github.com/redis/rueidis"
)

// DefaultStream is the Redis stream invitation activity is appended to.
const DefaultStream = "party:activity"

// streamWriter appends one entry of field/value pairs to a stream.
type streamWriter interface {
	XAdd(ctx context.Context, stream string, fields [][2]string) error
}

type streamPublisher struct {
	writer streamWriter
	stream string
}

// NewRedisPublisher publishes activity to stream with XADD. An empty stream uses DefaultStream.
func NewRedisPublisher(client rueidis.Client, stream string) domain.ActivityPublisher {
	return newStreamPublisher(&rueidisWriter{client: client}, stream)
}

func newStreamPublisher(w streamWriter, stream string) *streamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &streamPublisher{writer: w, stream: stream}
}

// Publish writes event_type, party_id and the JSON payload. Consumers filter on
// party_id without decoding the payload.
func (p *streamPublisher) Publish(ctx context.Context, ev domain.ActivityEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	fields := [][2]string{
		{"event_type", string(ev.Type)},
		{"party_id", ev.PartyID},
		{"payload", string(payload)},
	}
	if err := p.writer.XAdd(ctx, p.stream, fields); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

type rueidisWriter struct {
	client rueidis.Client
}

func (w *rueidisWriter) XAdd(ctx context.Context, stream string, fields [][2]string) error {
	fv := w.client.B().Xadd().Key(stream).Id("*").FieldValue()
	for _, f := range fields {
		fv = fv.FieldValue(f[0], f[1])
	}
	return w.client.Do(ctx, fv.Build()).Error()
}

// NewRedisClient connects to a single Redis node at addr.
func NewRedisClient(addr string) (rueidis.Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}

type noopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher logs activity at debug level and drops it.
func NewNoopPublisher(logger *slog.Logger) domain.ActivityPublisher {
	return &noopPublisher{logger: logger}
}

func (n *noopPublisher) Publish(ctx context.Context, ev domain.ActivityEvent) error {
	n.logger.DebugContext(ctx, "activity dropped (noop)", "type", ev.Type, "invitation_id", ev.InvitationID)
	return nil
}
