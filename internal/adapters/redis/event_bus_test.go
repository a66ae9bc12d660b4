package redis

import (
	"context"
	"testing"
	"time"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_DeliversToOtherInstances(t *testing.T) {
	client, srv := testutil.SetupTestRedis(t)
	a := NewEventBus(client, EventBusOptions{Origin: "a"})
	b := NewEventBus(client, EventBusOptions{Origin: "b"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan domainauth.ChangeEvent, 4)
	done := make(chan error, 1)
	go func() { done <- b.Listen(ctx, func(ev domainauth.ChangeEvent) { got <- ev }) }()

	require.Eventually(t, func() bool {
		return srv.PubSubNumSub(DefaultAuthEventChannel)[DefaultAuthEventChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	// b's own publication is filtered out; a's arrives.
	require.NoError(t, b.Publish(ctx, domainauth.ChangeEvent{Kind: domainauth.ChangeSignedIn, Token: "own"}))
	require.NoError(t, a.Publish(ctx, domainauth.ChangeEvent{Kind: domainauth.ChangeSignedOut, Token: "tok-9"}))

	select {
	case ev := <-got:
		assert.Equal(t, domainauth.ChangeSignedOut, ev.Kind)
		assert.Equal(t, "tok-9", ev.Token)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
	assert.Empty(t, got)
}
