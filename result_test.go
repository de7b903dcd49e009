package procman

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestExitResultSettlesOnce(t *testing.T) {
	r := newExitResult()

	if r.isDone() {
		t.Fatal("fresh result reports done")
	}
	if err := r.complete(42); err != nil {
		t.Fatalf("first complete: %v", err)
	}

	if err := r.complete(7); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("second complete: expected ErrAlreadySettled, got %v", err)
	}
	if err := r.completeErr(errors.New("later")); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("completeErr after complete: expected ErrAlreadySettled, got %v", err)
	}

	// Reads stay idempotent on the first-settled value.
	for i := 0; i < 3; i++ {
		code, err, settled := r.peek()
		if !settled || err != nil || code != 42 {
			t.Fatalf("peek #%d = (%d, %v, %t), want (42, nil, true)", i, code, err, settled)
		}
	}
	if code, err := r.wait(); code != 42 || err != nil {
		t.Errorf("wait() = (%d, %v), want (42, nil)", code, err)
	}
}

func TestExitResultFailureWins(t *testing.T) {
	r := newExitResult()
	cause := errors.New("spawn exploded")

	if err := r.completeErr(cause); err != nil {
		t.Fatalf("completeErr: %v", err)
	}
	if err := r.complete(0); !errors.Is(err, ErrAlreadySettled) {
		t.Errorf("complete after completeErr: expected ErrAlreadySettled, got %v", err)
	}

	_, err, settled := r.peek()
	if !settled || !errors.Is(err, cause) {
		t.Errorf("peek after failure = (%v, %t)", err, settled)
	}
}

func TestExitResultConcurrentSettlersExactlyOneWins(t *testing.T) {
	r := newExitResult()

	const racers = 32
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(code int) {
			defer wg.Done()
			var err error
			if code%2 == 0 {
				err = r.complete(code)
			} else {
				err = r.completeErr(errors.New("racer"))
			}
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, ErrAlreadySettled) {
				t.Errorf("loser got unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("%d settlers won, want exactly 1", wins)
	}
	if !r.isDone() {
		t.Fatal("result not settled after race")
	}
}

func TestExitResultWaitMax(t *testing.T) {
	r := newExitResult()

	if _, _, settled := r.waitMax(20 * time.Millisecond); settled {
		t.Fatal("waitMax reported settled on an unset result")
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = r.complete(5)
	}()

	code, err, settled := r.waitMax(2 * time.Second)
	if !settled || err != nil || code != 5 {
		t.Fatalf("waitMax = (%d, %v, %t), want (5, nil, true)", code, err, settled)
	}
}

func TestExitResultDoneChannelBroadcasts(t *testing.T) {
	r := newExitResult()

	ready := make(chan struct{})
	got := make(chan int, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-ready
			<-r.done()
			code, _, _ := r.peek()
			got <- code
		}()
	}
	close(ready)
	_ = r.complete(9)

	for i := 0; i < 2; i++ {
		select {
		case code := <-got:
			if code != 9 {
				t.Errorf("waiter observed %d, want 9", code)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("waiter missed the settlement broadcast")
		}
	}
}
