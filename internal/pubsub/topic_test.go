package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic_LatestValueWins(t *testing.T) {
	topic := NewTopic[int]()
	ch, unsubscribe := topic.Subscribe()
	defer unsubscribe()

	topic.Publish(1)
	topic.Publish(2)
	topic.Publish(3)

	assert.Equal(t, 3, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %d", v)
	default:
	}
}

func TestTopic_Unsubscribe(t *testing.T) {
	topic := NewTopic[string]()
	first, unsubscribeFirst := topic.Subscribe()
	second, unsubscribeSecond := topic.Subscribe()
	defer unsubscribeSecond()
	require.Equal(t, 2, topic.Len())

	unsubscribeFirst()
	unsubscribeFirst()
	assert.Equal(t, 1, topic.Len())

	_, open := <-first
	assert.False(t, open)

	topic.Publish("hello")
	assert.Equal(t, "hello", <-second)
}
