package monitor

import (
	"testing"

	"github.com/lguibr/touchstone/contact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transition(key string) contact.Transition {
	return contact.Transition{Key: key, System: "triggers", From: contact.Begin, To: contact.Stay, ObjectA: "hero", ObjectB: "spike"}
}

func TestHub_FanOut(t *testing.T) {
	hub := NewHub(4)
	a, b := hub.Subscribe(), hub.Subscribe()
	assert.Equal(t, 2, hub.Len())

	hub.OnTransition(transition("hero|spike"))

	for _, sub := range []*Subscription{a, b} {
		ev := <-sub.C
		assert.Equal(t, uint64(1), ev.Seq)
		assert.Equal(t, "hero|spike", ev.Key)
	}
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe()

	hub.OnTransition(transition("a|b"))
	hub.OnTransition(transition("a|c"))

	ev := <-sub.C
	assert.Equal(t, "a|b", ev.Key)
	assert.Equal(t, uint64(1), sub.Dropped())
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(0)
	sub := hub.Subscribe()
	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	assert.Zero(t, hub.Len())

	_, open := <-sub.C
	assert.False(t, open)
	require.NotPanics(t, func() { hub.OnTransition(transition("a|b")) })
}
