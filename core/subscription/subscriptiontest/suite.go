// Package subscriptiontest provides the contract suite every subscription.Registry
// backend must pass.
package subscriptiontest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventhttp/core/subscription"
)

// Factory returns a fresh, empty registry for one sub-test.
type Factory func(t *testing.T) subscription.Registry

// Run executes the registry contract against registries produced by newRegistry.
func Run(t *testing.T, newRegistry Factory) {
	t.Helper()

	t.Run("subscribe then list contains the triple", func(t *testing.T) {
		reg := newRegistry(t)
		ctx := context.Background()

		ok, err := reg.Subscribe(ctx, "OrderPaid", "billing-svc", "http://billing/cb")
		require.NoError(t, err)
		assert.True(t, ok)

		subs, err := reg.Subscribers(ctx, "OrderPaid")
		require.NoError(t, err)
		assert.Equal(t, []subscription.Subscription{{
			Event:       "OrderPaid",
			Subscriber:  "billing-svc",
			CallbackURL: "http://billing/cb",
		}}, subs)
	})

	t.Run("duplicate subscribe keeps original callback", func(t *testing.T) {
		reg := newRegistry(t)
		ctx := context.Background()

		ok, err := reg.Subscribe(ctx, "OrderPaid", "billing-svc", "http://billing/cb")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = reg.Subscribe(ctx, "OrderPaid", "billing-svc", "http://other/cb")
		require.NoError(t, err)
		assert.False(t, ok)

		subs, err := reg.Subscribers(ctx, "OrderPaid")
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "http://billing/cb", subs[0].CallbackURL)
	})

	t.Run("unsubscribe of unknown pair reports false", func(t *testing.T) {
		reg := newRegistry(t)
		ctx := context.Background()

		_, err := reg.Subscribe(ctx, "OrderPaid", "billing-svc", "http://billing/cb")
		require.NoError(t, err)

		ok, err := reg.Unsubscribe(ctx, "OrderPaid", "shipping-svc")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = reg.Unsubscribe(ctx, "OrderShipped", "billing-svc")
		require.NoError(t, err)
		assert.False(t, ok)

		subs, err := reg.Subscribers(ctx, "OrderPaid")
		require.NoError(t, err)
		assert.Len(t, subs, 1)
	})

	t.Run("full lifecycle", func(t *testing.T) {
		reg := newRegistry(t)
		ctx := context.Background()

		ok, err := reg.Subscribe(ctx, "OrderPaid", "billing-svc", "http://billing/cb")
		require.NoError(t, err)
		assert.True(t, ok)

		events, err := reg.Events(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"OrderPaid"}, events)

		ok, err = reg.Unsubscribe(ctx, "OrderPaid", "billing-svc")
		require.NoError(t, err)
		assert.True(t, ok)

		events, err = reg.Events(ctx)
		require.NoError(t, err)
		assert.Empty(t, events)

		subs, err := reg.Subscribers(ctx, "OrderPaid")
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("events are distinct", func(t *testing.T) {
		reg := newRegistry(t)
		ctx := context.Background()

		for _, s := range []string{"a", "b", "c"} {
			_, err := reg.Subscribe(ctx, "OrderPaid", s, "http://"+s+"/cb")
			require.NoError(t, err)
		}
		_, err := reg.Subscribe(ctx, "OrderShipped", "a", "http://a/cb")
		require.NoError(t, err)

		events, err := reg.Events(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"OrderPaid", "OrderShipped"}, events)

		subs, err := reg.Subscribers(ctx, "OrderPaid")
		require.NoError(t, err)
		assert.Len(t, subs, 3)
	})

	t.Run("event stays listed while subscribers remain", func(t *testing.T) {
		reg := newRegistry(t)
		ctx := context.Background()

		_, err := reg.Subscribe(ctx, "OrderPaid", "a", "http://a/cb")
		require.NoError(t, err)
		_, err = reg.Subscribe(ctx, "OrderPaid", "b", "http://b/cb")
		require.NoError(t, err)

		ok, err := reg.Unsubscribe(ctx, "OrderPaid", "a")
		require.NoError(t, err)
		require.True(t, ok)

		events, err := reg.Events(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"OrderPaid"}, events)
	})

	t.Run("resubscribe after unsubscribe uses new callback", func(t *testing.T) {
		reg := newRegistry(t)
		ctx := context.Background()

		_, err := reg.Subscribe(ctx, "OrderPaid", "billing-svc", "http://billing/cb")
		require.NoError(t, err)
		_, err = reg.Unsubscribe(ctx, "OrderPaid", "billing-svc")
		require.NoError(t, err)

		ok, err := reg.Subscribe(ctx, "OrderPaid", "billing-svc", "http://billing/v2/cb")
		require.NoError(t, err)
		assert.True(t, ok)

		subs, err := reg.Subscribers(ctx, "OrderPaid")
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "http://billing/v2/cb", subs[0].CallbackURL)
	})

	t.Run("rejects empty key", func(t *testing.T) {
		reg := newRegistry(t)
		ctx := context.Background()

		_, err := reg.Subscribe(ctx, "", "billing-svc", "http://billing/cb")
		assert.ErrorIs(t, err, subscription.ErrEmptyEvent)

		_, err = reg.Subscribe(ctx, "OrderPaid", "", "http://billing/cb")
		assert.ErrorIs(t, err, subscription.ErrEmptySubscriber)

		_, err = reg.Subscribe(ctx, "OrderPaid", "billing-svc", "")
		assert.ErrorIs(t, err, subscription.ErrEmptyCallbackURL)

		_, err = reg.Unsubscribe(ctx, "OrderPaid", " ")
		assert.ErrorIs(t, err, subscription.ErrEmptySubscriber)
	})

	t.Run("concurrent subscribe admits exactly one winner", func(t *testing.T) {
		reg := newRegistry(t)
		ctx := context.Background()

		const workers = 16
		var (
			wg   sync.WaitGroup
			wins atomic.Int32
		)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ok, err := reg.Subscribe(ctx, "OrderPaid", "billing-svc", fmt.Sprintf("http://billing/%d", i))
				if err == nil && ok {
					wins.Add(1)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())

		subs, err := reg.Subscribers(ctx, "OrderPaid")
		require.NoError(t, err)
		assert.Len(t, subs, 1)
	})
}
