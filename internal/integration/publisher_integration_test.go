//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/analytics"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/testutil"
)

func bindQueue(t *testing.T, conn *amqp.Connection, keys ...string) <-chan amqp.Delivery {
	t.Helper()

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,   // args
	)
	require.NoError(t, err)

	for _, key := range keys {
		require.NoError(t, ch.QueueBind(q.Name, key, events.EventsExchange, false, nil))
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return msgs
}

func receive(t *testing.T, msgs <-chan amqp.Delivery) amqp.Delivery {
	t.Helper()
	select {
	case msg := <-msgs:
		return msg
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for message")
		return amqp.Delivery{}
	}
}

func TestPublisher_RoutesAnalyticsAndCheckout(t *testing.T) {
	conn := testutil.StartRabbitMQ(t)

	publisher, err := events.NewPublisher(conn, events.PublisherOptions{Logger: logger.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = publisher.Close() })

	msgs := bindQueue(t, conn, "analytics.#", events.CartCheckedOutRoutingKey)

	ctx := middleware.WithCorrelationID(context.Background(), "corr-int")
	publisher.ForSession("sess-int").Track(ctx, analytics.AddToCart(analytics.Item{ID: "hat-1", Name: "Hat", Price: decimal.RequireFromString("39.99"), Quantity: 1}))

	msg := receive(t, msgs)
	require.Equal(t, "analytics.add_to_cart.v1", msg.RoutingKey)
	var env events.EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Body, &env))
	require.NoError(t, env.Validate(analytics.EventAddToCart, 1))
	require.Equal(t, "sess-int", env.PartitionKey)
	require.Equal(t, "corr-int", env.CorrelationID)

	err = publisher.CartCheckedOut(middleware.WithSessionID(ctx, "sess-int"), checkout.CheckedOut{
		CheckoutURL: "https://aspenova.myshopify.com/cart/c/1",
		Lines:       []checkout.Line{{MerchandiseID: "gid://shopify/ProductVariant/1", Quantity: 2}},
		TotalItems:  2,
		TotalPrice:  decimal.RequireFromString("79.98"),
		OccurredAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	msg = receive(t, msgs)
	require.Equal(t, events.CartCheckedOutRoutingKey, msg.RoutingKey)
	env = events.EventEnvelope{}
	require.NoError(t, json.Unmarshal(msg.Body, &env))
	require.NoError(t, env.Validate(events.CartCheckedOutEventName, events.CartCheckedOutEventVersion))

	var payload events.CartCheckedOutPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, "https://aspenova.myshopify.com/cart/c/1", payload.CheckoutURL)
	require.Equal(t, 2, payload.TotalItems)
}
