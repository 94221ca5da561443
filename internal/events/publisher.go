package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/analytics"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

const publishTimeout = 3 * time.Second

type PublisherOptions struct {
	Producer string
	Logger   *slog.Logger
	Now      func() time.Time
}

// Publisher sends analytics and checkout events to the storefront topic
// exchange.
type Publisher struct {
	ch       Channel
	producer string
	log      *slog.Logger
	now      func() time.Time
}

func NewPublisher(conn *amqp.Connection, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}
	return NewPublisherWithChannel(ch, opts)
}

func NewPublisherWithChannel(ch Channel, opts PublisherOptions) (*Publisher, error) {
	if err := declareEventsExchange(ch); err != nil {
		return nil, errors.Wrap(err, "declare events exchange")
	}

	p := &Publisher{ch: ch, producer: opts.Producer, log: opts.Logger, now: opts.Now}
	if p.producer == "" {
		p.producer = storefrontProducer
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// Track publishes e under analytics.<event>.v1. Failures are logged.
func (p *Publisher) Track(ctx context.Context, e analytics.Event) {
	if err := p.publishEvent(ctx, analyticsRoutingKey(e.Name), e.Name, analyticsEventVersion, analyticsSchema, e); err != nil {
		p.log.WarnContext(ctx, "analytics publish failed", "event", e.Name, "err", err)
	}
}

func (p *Publisher) CartCheckedOut(ctx context.Context, c checkout.CheckedOut) error {
	payload := newCartCheckedOutPayload(middleware.GetSessionID(ctx), c, analytics.DefaultCurrency)
	if err := p.publishEvent(ctx, CartCheckedOutRoutingKey, CartCheckedOutEventName, CartCheckedOutEventVersion, cartCheckedOutSchema, payload); err != nil {
		return errors.Wrap(err, "publish CartCheckedOut")
	}
	return nil
}

func (p *Publisher) publishEvent(ctx context.Context, routingKey, name string, version int, schema string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "marshal %s payload", name)
	}

	partitionKey := middleware.GetSessionID(ctx)
	if partitionKey == "" {
		partitionKey = "anonymous"
	}

	env := EventEnvelope{
		EventName:     name,
		EventVersion:  version,
		EventID:       uuid.NewString(),
		CorrelationID: middleware.GetCorrelationID(ctx),
		Producer:      p.producer,
		PartitionKey:  partitionKey,
		OccurredAt:    p.now().UTC(),
		Schema:        schema,
		Payload:       raw,
	}
	if err := env.Validate(name, version); err != nil {
		return errors.Wrapf(err, "invalid %s envelope", name)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return errors.Wrapf(err, "marshal %s envelope", name)
	}
	return p.publishJSON(ctx, routingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// ForSession returns a tracker that stamps every event with sessionID.
func (p *Publisher) ForSession(sessionID string) analytics.Tracker {
	return sessionTracker{p: p, sessionID: sessionID}
}

type sessionTracker struct {
	p         *Publisher
	sessionID string
}

func (t sessionTracker) Track(ctx context.Context, e analytics.Event) {
	t.p.Track(middleware.WithSessionID(ctx, t.sessionID), e)
}
