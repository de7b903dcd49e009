package events

import (
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan ProcessStartedEvent, 1)

	unsub := bus.Subscribe(func(e ProcessStartedEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(ProcessStartedEvent{Name: "db", PID: 4321})

	got := <-received
	if got.Name != "db" || got.PID != 4321 {
		t.Errorf("got %+v", got)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan ProcessCompletedEvent, 1)
	received2 := make(chan ProcessCompletedEvent, 1)

	unsub1 := bus.Subscribe(func(e ProcessCompletedEvent) { received1 <- e })
	defer unsub1()
	unsub2 := bus.Subscribe(func(e ProcessCompletedEvent) { received2 <- e })
	defer unsub2()

	bus.Publish(ProcessCompletedEvent{Name: "db", ExitValue: 0})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan ProcessFailedEvent, 1)

	unsub := bus.Subscribe(func(e ProcessFailedEvent) { received <- e })

	bus.Publish(ProcessFailedEvent{Name: "db", ExitValue: 1})
	<-received

	unsub()

	bus.Publish(ProcessFailedEvent{Name: "db", ExitValue: 2})
	select {
	case <-received:
		t.Fatal("received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	started := make(chan bool, 1)
	destroyed := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ ProcessStartedEvent) { started <- true })
	defer unsub1()
	unsub2 := bus.Subscribe(func(_ ProcessDestroyedEvent) { destroyed <- true })
	defer unsub2()

	bus.Publish(ProcessStartedEvent{Name: "db"})
	<-started

	select {
	case <-destroyed:
		t.Fatal("destroyed subscriber received a started event")
	case <-time.After(10 * time.Millisecond):
	}

	bus.Publish(ProcessDestroyedEvent{Name: "db"})
	<-destroyed
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ ProcessCompletedEvent) { receivedCh <- true })
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(ProcessCompletedEvent{
					Name:      "worker",
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}
