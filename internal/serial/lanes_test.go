package serial

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanes_SameKeyRunsInJoinOrder(t *testing.T) {
	lanes := NewLanes[int64]()

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	tickets := make([]*Ticket[int64], 0, 5)
	for i := 0; i < 5; i++ {
		tickets = append(tickets, lanes.Join(7))
	}
	assert.Equal(t, 5, lanes.Depth(7))

	// Start in reverse to prove the ticket, not the goroutine start, decides the order.
	for i := len(tickets) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(i int, ticket *Ticket[int64]) {
			defer wg.Done()
			ticket.Wait()
			defer ticket.Leave()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}(i, tickets[i])
	}
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, 0, lanes.Depth(7))
}

func TestLanes_DifferentKeysDoNotWait(t *testing.T) {
	lanes := NewLanes[string]()

	first := lanes.Join("a")
	other := lanes.Join("b")

	waited := make(chan struct{})
	go func() {
		other.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("ticket for another key should not wait")
	}
	first.Leave()
	other.Leave()
}

func TestLanes_SecondTicketWaitsForFirst(t *testing.T) {
	lanes := NewLanes[int]()

	first := lanes.Join(1)
	second := lanes.Join(1)

	released := make(chan struct{})
	go func() {
		second.Wait()
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("second ticket must wait for the first")
	case <-time.After(30 * time.Millisecond):
	}

	first.Leave()
	first.Leave()
	require.Eventually(t, func() bool {
		select {
		case <-released:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	second.Leave()
	assert.Equal(t, 0, lanes.Depth(1))
}
