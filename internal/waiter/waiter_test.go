package waiter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/ykomatsu/troupe/internal/model"
)

func testWaiter(list PaneLister) *Waiter {
	w := New(model.WaiterConfig{TimeoutSec: 1, PollIntervalMs: 10})
	w.SetPaneLister(list)
	return w
}

func TestWaitVisibleFindsImmediately(t *testing.T) {
	w := testWaiter(func() (map[string]int, error) {
		return map[string]int{"%1": 4242}, nil
	})

	found, err := w.WaitVisible(context.Background(), 4242)
	if err != nil {
		t.Fatalf("WaitVisible: %v", err)
	}
	if !found {
		t.Fatal("pid not found")
	}
}

func TestWaitVisibleFindsAfterPolls(t *testing.T) {
	var calls atomic.Int32
	w := testWaiter(func() (map[string]int, error) {
		if calls.Add(1) < 3 {
			return map[string]int{}, nil
		}
		return map[string]int{"%2": 777}, nil
	})

	found, err := w.WaitVisible(context.Background(), 777)
	if err != nil {
		t.Fatalf("WaitVisible: %v", err)
	}
	if !found {
		t.Fatal("pid not found after appearing")
	}
	if calls.Load() < 3 {
		t.Errorf("lister called %d times, want at least 3", calls.Load())
	}
}

func TestWaitVisibleTimesOut(t *testing.T) {
	w := testWaiter(func() (map[string]int, error) {
		return map[string]int{}, nil
	})

	found, err := w.WaitVisible(context.Background(), 1)
	if err != nil {
		t.Fatalf("WaitVisible: %v", err)
	}
	if found {
		t.Fatal("found pid that never appeared")
	}
}

func TestWaitVisibleListError(t *testing.T) {
	w := testWaiter(func() (map[string]int, error) {
		return nil, errors.New("no server running")
	})

	if _, err := w.WaitVisible(context.Background(), 1); err == nil {
		t.Fatal("expected listing error")
	}
}

func TestWaitVisibleContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := testWaiter(func() (map[string]int, error) {
		return map[string]int{}, nil
	})

	if _, err := w.WaitVisible(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
