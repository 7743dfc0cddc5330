package subscribe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chirpmesh/chirp-go/subscribe"
	"github.com/chirpmesh/chirp-go/types"
)

func TestManagerRoutesUpdatesByChannel(t *testing.T) {
	manager := subscribe.NewManager(nil)

	sub1 := manager.NewSubscription([]string{"ch1"}, nil)
	sub2 := manager.NewSubscription([]string{"ch2"}, nil)
	defer sub1.Close()
	defer sub2.Close()

	manager.NotifyMessages([]types.Update{
		types.Message{Channel: "ch1", Timetoken: "10"},
		types.Message{Channel: "ch2", Timetoken: "11"},
		types.Message{Channel: "ch3", Timetoken: "12"},
	})

	select {
	case update := <-sub1.Updates():
		assert.Equal(t, "ch1", update.UpdateChannel())
	default:
		t.Fatal("expected an update for ch1")
	}
	select {
	case update := <-sub2.Updates():
		assert.Equal(t, "ch2", update.UpdateChannel())
	default:
		t.Fatal("expected an update for ch2")
	}
	// Nothing else was routed to either listener.
	assert.Empty(t, sub1.Updates())
	assert.Empty(t, sub2.Updates())
}

func TestManagerFansStatusToEveryListener(t *testing.T) {
	manager := subscribe.NewManager(nil)

	sub1 := manager.NewSubscription([]string{"ch1"}, nil)
	sub2 := manager.NewSubscription([]string{"ch2"}, nil)
	defer sub1.Close()
	defer sub2.Close()

	manager.NotifyStatus(subscribe.Status{Category: subscribe.StatusConnected})

	for _, sub := range []*subscribe.Subscription{sub1, sub2} {
		select {
		case status := <-sub.Statuses():
			assert.Equal(t, subscribe.StatusConnected, status.Category)
		default:
			t.Fatal("expected a status for every listener")
		}
	}
}

func TestManagerUnregisterOnClose(t *testing.T) {
	manager := subscribe.NewManager(nil)

	sub := manager.NewSubscription([]string{"ch1"}, nil)
	require.Equal(t, 1, manager.Listeners())

	sub.Close()
	assert.Equal(t, 0, manager.Listeners())

	// Closing twice is safe.
	sub.Close()
	assert.Equal(t, 0, manager.Listeners())

	// Updates after close are not delivered anywhere.
	manager.NotifyMessages([]types.Update{types.Message{Channel: "ch1"}})
}

func TestListenerDropsWhenBufferFull(t *testing.T) {
	manager := subscribe.NewManager(nil)
	manager.ListenerBuffer = 1

	sub := manager.NewSubscription([]string{"ch1"}, nil)
	defer sub.Close()

	manager.NotifyMessages([]types.Update{
		types.Message{Channel: "ch1", Timetoken: "1"},
		types.Message{Channel: "ch1", Timetoken: "2"},
	})

	// The second update was dropped, not queued behind the first.
	first := <-sub.Updates()
	assert.Equal(t, "1", first.(types.Message).Timetoken)
	assert.Empty(t, sub.Updates())
}
