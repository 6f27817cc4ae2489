package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAtomicEvent(t *testing.T) {
	ae := NewAtomicEvent[any]()
	assert.NotNil(t, ae, "NewAtomicEvent should not return nil")
	assert.NotNil(t, ae.notify, "notify channel should be initialized")
	assert.False(t, ae.HasPending())
}

func TestSendAndValue(t *testing.T) {
	aeInt := NewAtomicEvent[int]()
	aeInt.Send(123)
	assert.Equal(t, 123, aeInt.Value(), "Value should be 123")

	type fault struct {
		Output string
		Err    string
	}
	f := fault{Output: "serial", Err: "broken pipe"}
	aeStruct := NewAtomicEvent[fault]()
	aeStruct.Send(f)
	assert.Equal(t, f, aeStruct.Value())
}

func TestNotificationChannel(t *testing.T) {
	ae := NewAtomicEvent[string]()

	ae.Send("event1")
	select {
	case <-ae.Channel():
	default:
		t.Fatal("should have received a notification")
	}

	select {
	case <-ae.Channel():
		t.Fatal("channel should be empty")
	default:
	}

	// Several sends collapse into one notification
	ae.Send("event2")
	ae.Send("event3")
	select {
	case <-ae.Channel():
	default:
		t.Fatal("should have received a notification")
	}
	select {
	case <-ae.Channel():
		t.Fatal("channel should be empty")
	default:
	}

	assert.Equal(t, "event3", ae.Value(), "Value should be the last event sent")
}

func TestConsume(t *testing.T) {
	ae := NewAtomicEvent[int]()

	_, ok := ae.Consume()
	assert.False(t, ok, "nothing sent yet")

	ae.Send(1)
	ae.Send(2)
	assert.True(t, ae.HasPending())

	v, ok := ae.Consume()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.False(t, ae.HasPending())

	select {
	case <-ae.Channel():
		t.Fatal("consume should drain the notification")
	default:
	}

	_, ok = ae.Consume()
	assert.False(t, ok, "second consume without send")
	assert.Equal(t, 2, ae.Value(), "Value survives Consume")
}

func TestConcurrency(t *testing.T) {
	ae := NewAtomicEvent[int]()
	done := make(chan struct{})

	go func() {
		for i := 0; i < 1000; i++ {
			ae.Send(i)
		}
		close(done)
	}()

	lastRead := -1
	var readerWg sync.WaitGroup
	readerWg.Add(1)
	go func() {
		defer readerWg.Done()
		for {
			select {
			case <-ae.Channel():
				val := ae.Value()
				if val < lastRead {
					t.Errorf("read a stale value: got %d, last was %d", val, lastRead)
				}
				lastRead = val
			case <-done:
				return
			}
		}
	}()

	readerWg.Wait()
	assert.Equal(t, 999, ae.Value(), "Final value should be 999")
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.5, 0.0, 1.0))
	assert.Equal(t, 1.0, Clamp(1.5, 0.0, 1.0))
	assert.Equal(t, 0.25, Clamp(0.25, 0.0, 1.0))
	assert.Equal(t, 3, Clamp(7, -3, 3))
	assert.Equal(t, -3, Clamp(-7, -3, 3))
}
