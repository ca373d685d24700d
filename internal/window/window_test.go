package window

import (
	"sync"
	"testing"
	"time"

	"signal-enginev1/internal/model"
)

func candleAt(sec int, close float64) model.Candle {
	return model.Candle{
		Symbol:   "TEST",
		OpenTime: time.Date(2024, 6, 3, 9, 15, sec, 0, time.UTC),
		Close:    close,
	}
}

func TestWindow_PushSnapshotOrder(t *testing.T) {
	w := New(4)

	w.Push(candleAt(0, 100))
	w.Push(candleAt(1, 101))
	w.Push(candleAt(2, 102))

	if w.Len() != 3 {
		t.Fatalf("expected len=3, got %d", w.Len())
	}

	snap := w.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot len=%d, want 3", len(snap))
	}
	for i, want := range []float64{100, 101, 102} {
		if snap[i].Close != want {
			t.Fatalf("snapshot[%d].Close=%v, want %v", i, snap[i].Close, want)
		}
	}
}

func TestWindow_OverwritesOldestWhenFull(t *testing.T) {
	w := New(4) // capacity 4

	for i := 0; i < 6; i++ {
		if !w.Push(candleAt(i, 100+float64(i))) {
			t.Fatalf("push %d rejected", i)
		}
	}

	if w.Len() != 4 {
		t.Fatalf("expected len=4 after wraparound, got %d", w.Len())
	}

	snap := w.Snapshot()
	for i, want := range []float64{102, 103, 104, 105} {
		if snap[i].Close != want {
			t.Fatalf("snapshot[%d].Close=%v, want %v", i, snap[i].Close, want)
		}
	}
}

func TestWindow_RejectsOutOfOrder(t *testing.T) {
	w := New(8)

	w.Push(candleAt(5, 100))
	if w.Push(candleAt(5, 101)) {
		t.Fatal("duplicate open time accepted")
	}
	if w.Push(candleAt(3, 102)) {
		t.Fatal("older open time accepted")
	}
	if w.Rejected() != 2 {
		t.Fatalf("expected rejected=2, got %d", w.Rejected())
	}
	if w.Len() != 1 {
		t.Fatalf("rejected candles changed the window, len=%d", w.Len())
	}
}

func TestWindow_Last(t *testing.T) {
	w := New(4)
	if _, ok := w.Last(); ok {
		t.Fatal("empty window reported a last candle")
	}

	w.Push(candleAt(0, 100))
	w.Push(candleAt(1, 105))
	last, ok := w.Last()
	if !ok || last.Close != 105 {
		t.Fatalf("last=%v ok=%v, want close 105", last.Close, ok)
	}
}

func TestWindow_CapacityRounding(t *testing.T) {
	if got := New(3).Cap(); got != 4 {
		t.Fatalf("capacity 3 should round to 4, got %d", got)
	}
	if got := New(0).Cap(); got != 2 {
		t.Fatalf("capacity 0 should clamp to 2, got %d", got)
	}
}

func TestWindow_ConcurrentSnapshots(t *testing.T) {
	w := New(64)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			w.Push(candleAt(i, float64(i)))
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				snap := w.Snapshot()
				for j := 1; j < len(snap); j++ {
					if !snap[j].OpenTime.After(snap[j-1].OpenTime) {
						t.Error("snapshot out of order")
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}
