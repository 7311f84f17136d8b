package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/user-manager/internal/models"
)

func TestDiscard(t *testing.T) {
	var p Discard
	assert.NoError(t, p.Publish(context.Background(), models.EventUserRegistered, models.UserEvent{}))
}

func TestPublisher_PublishUserEvent(t *testing.T) {
	uri := amqpURIForTest(t)

	conn, err := Connect(uri, 5, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	ch, err := SetupChannel(conn, "users-publish-test")
	require.NoError(t, err)

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "user.*", "users-publish-test", false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	publisher := NewPublisher(ch, "users-publish-test")
	defer func() { _ = publisher.Close() }()

	event := models.UserEvent{
		Type:       models.EventUserRegistered,
		UserUID:    "uid-1",
		Email:      "ana@x.com",
		OccurredAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, publisher.Publish(context.Background(), models.EventUserRegistered, event))

	select {
	case d := <-deliveries:
		assert.Equal(t, "application/json", d.ContentType)
		assert.Equal(t, models.EventUserRegistered, d.RoutingKey)

		var got models.UserEvent
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, event, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublisher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Publisher{}
	assert.ErrorIs(t, p.Publish(ctx, models.EventUserDeleted, nil), context.Canceled)
}
