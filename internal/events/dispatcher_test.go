package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishInvokesAllSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string

	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.ID)
		return errors.New("handler failure must not stop the rest")
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.ID)
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(_ context.Context, _ Event) error {
		calls = append(calls, "wrong-type")
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventTicketCreated})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:e1", "second:e1"}, calls)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventSessionEnded}))
}
