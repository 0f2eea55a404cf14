// Package nats publishes engine events to a JetStream stream.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
	"team-quiz-service/internal/domain"
)

type Config struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	DuplicateWindow time.Duration
}

// DefaultConfig returns the stream and subject names used when none are configured.
func DefaultConfig() Config {
	return Config{
		URL:             nats.DefaultURL,
		StreamName:      "QUIZ_EVENTS",
		SubjectPrefix:   "quiz.events",
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		MaxAge:          7 * 24 * time.Hour,
		DuplicateWindow: 2 * time.Minute,
	}
}

// Publisher implements app.EventPublisher on top of JetStream. Event IDs are
// used as Nats-Msg-Id so redelivered publishes are deduplicated by the server.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config Config
}

// NewPublisher connects to NATS and makes sure the event stream exists.
func NewPublisher(ctx context.Context, cfg Config) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("team-quiz-service"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &Publisher{nc: nc, js: js, config: cfg}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        p.config.StreamName,
		Description: "Team quiz engine events",
		Subjects:    []string{p.config.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      p.config.MaxAge,
		Storage:     jetstream.FileStorage,
		Duplicates:  p.config.DuplicateWindow,
	})
	if err != nil {
		return err
	}
	log.Info().Str("stream", p.config.StreamName).Msg("JetStream stream ready")
	return nil
}

func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	msg, err := encodeEvent(p.config.SubjectPrefix, event)
	if err != nil {
		return err
	}
	ack, err := p.js.PublishMsg(ctx, msg, jetstream.WithMsgID(event.ID))
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	if ack.Duplicate {
		log.Debug().Str("event_id", event.ID).Msg("duplicate event ignored by stream")
	}
	return nil
}

// Close drains pending publishes before closing the connection.
func (p *Publisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}

type envelope struct {
	EventID    string           `json:"eventId"`
	EventType  domain.EventType `json:"eventType"`
	TeamID     string           `json:"teamId,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
	Payload    map[string]any   `json:"payload,omitempty"`
}

func encodeEvent(prefix string, event domain.Event) (*nats.Msg, error) {
	data, err := json.Marshal(envelope{
		EventID:    event.ID,
		EventType:  event.Type,
		TeamID:     event.TeamID,
		OccurredAt: event.OccurredAt.UTC(),
		Payload:    event.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	msg := nats.NewMsg(prefix + "." + string(event.Type))
	msg.Data = data
	msg.Header.Set("Event-Type", string(event.Type))
	msg.Header.Set("Event-ID", event.ID)
	if event.TeamID != "" {
		msg.Header.Set("Team-ID", event.TeamID)
	}
	return msg, nil
}
