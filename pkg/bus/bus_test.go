package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversToAllSubscribers(t *testing.T) {
	b := New[string]()
	ch1, unsub1 := b.Subscribe(4)
	defer unsub1()
	ch2, unsub2 := b.Subscribe(4)
	defer unsub2()

	dropped := b.Publish("hello")
	assert.Equal(t, 0, dropped)

	select {
	case v := <-ch1:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting on ch1")
	}
	select {
	case v := <-ch2:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting on ch2")
	}
}

func TestBus_PublishDropsOnFullChannel(t *testing.T) {
	b := New[int]()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	assert.Equal(t, 0, b.Publish(1))
	dropped := b.Publish(2)
	assert.Equal(t, 1, dropped, "second publish should drop since the subscriber never drained")

	v := <-ch
	assert.Equal(t, 1, v)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := New[int]()
	ch, unsub := b.Subscribe(1)
	unsub()

	assert.Equal(t, 0, b.SubscriberCount())
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestBus_SubscriberCount(t *testing.T) {
	b := New[int]()
	require.Equal(t, 0, b.SubscriberCount())
	_, unsub1 := b.Subscribe(1)
	_, unsub2 := b.Subscribe(1)
	assert.Equal(t, 2, b.SubscriberCount())
	unsub1()
	assert.Equal(t, 1, b.SubscriberCount())
	unsub2()
	assert.Equal(t, 0, b.SubscriberCount())
}
