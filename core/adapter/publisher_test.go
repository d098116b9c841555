package adapter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventhttp/core/adapter"
	"github.com/dmitrymomot/eventhttp/core/subscription"
	"github.com/dmitrymomot/eventhttp/pkg/placeholder"
)

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := subscription.NewMemoryRegistry()
	_, err := reg.Subscribe(ctx, "OrderPaid", "billing-svc", "http://billing/consume")
	require.NoError(t, err)
	_, err = reg.Subscribe(ctx, "OrderPaid", "shipping-svc", "http://shipping/consume")
	require.NoError(t, err)

	cmds := &recordingCommands{}
	p := adapter.NewPublisher(reg, cmds, adapter.WithPublisherResolver(
		placeholder.New(placeholder.WithValues(map[string]string{"SELF": "http://orders"})),
	))

	payload := OrderPaid{OrderID: "42"}
	require.NoError(t, p.Publish(ctx, "OrderPaid@${SELF}/subscribe", "evt-1", payload).Await())

	assert.ElementsMatch(t, []any{
		adapter.CallbackTriggerRequest{CallbackURL: "http://billing/consume", UUID: "evt-1", Event: "OrderPaid", Payload: payload},
		adapter.CallbackTriggerRequest{CallbackURL: "http://shipping/consume", UUID: "evt-1", Event: "OrderPaid", Payload: payload},
	}, cmds.cmds)
}

func TestPublisher_NoSubscribers(t *testing.T) {
	t.Parallel()

	cmds := &recordingCommands{}
	p := adapter.NewPublisher(subscription.NewMemoryRegistry(), cmds)

	require.NoError(t, p.Publish(context.Background(), "OrderPaid", "evt-1", nil).Await())
	assert.Empty(t, cmds.cmds)

	assert.ErrorIs(t, p.Publish(context.Background(), "@http://x", "evt-2", nil).Await(), adapter.ErrPublishNoSource)
}

func TestPublisher_DispatchFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := subscription.NewMemoryRegistry()
	_, err := reg.Subscribe(ctx, "OrderPaid", "billing-svc", "http://billing/consume")
	require.NoError(t, err)

	errFull := errors.New("queue full")
	p := adapter.NewPublisher(reg, &recordingCommands{fail: func(any) error { return errFull }})
	assert.ErrorIs(t, p.Publish(ctx, "OrderPaid", "evt-1", OrderPaid{}).Await(), errFull)
}
