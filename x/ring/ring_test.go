package ring

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestOrderAcrossWrap(t *testing.T) {
	r := New[int](8)
	next, want := 0, 0
	const N = 1000
	for want < N {
		// Push a few, pop fewer, forcing frequent wraps.
		for i := 0; i < 3 && next < N; i++ {
			if r.TryPush(next) {
				next++
			}
		}
		for i := 0; i < 2; i++ {
			v, ok := r.TryPop()
			if !ok {
				break
			}
			if v != want {
				t.Fatalf("pop = %d, want %d", v, want)
			}
			want++
		}
		if next == N {
			for {
				v, ok := r.TryPop()
				if !ok {
					break
				}
				if v != want {
					t.Fatalf("drain pop = %d, want %d", v, want)
				}
				want++
			}
		}
	}
}

func TestTryPushFullLeavesRingUnchanged(t *testing.T) {
	r := New[string](2)
	if !r.TryPush("a") || !r.TryPush("b") {
		t.Fatal("push into empty ring failed")
	}
	if r.TryPush("c") {
		t.Fatal("push into full ring succeeded")
	}
	if r.Len() != 2 || r.Cap() != 2 {
		t.Fatalf("len/cap = %d/%d", r.Len(), r.Cap())
	}
	if v, _ := r.TryPop(); v != "a" {
		t.Fatalf("first pop = %q", v)
	}
	if v, _ := r.TryPop(); v != "b" {
		t.Fatalf("second pop = %q", v)
	}
	if _, ok := r.TryPop(); ok {
		t.Fatal("pop from empty ring succeeded")
	}
}

func TestReadableCoalesces(t *testing.T) {
	r := New[int](4)
	select {
	case <-r.Readable():
		t.Fatal("readable before any push")
	default:
	}
	r.TryPush(1)
	r.TryPush(2) // coalesced with the first signal
	select {
	case <-r.Readable():
	default:
		t.Fatal("missing readable edge")
	}
	select {
	case <-r.Readable():
		t.Fatal("signals not coalesced")
	default:
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	r := New[uint32](16)
	const N = 5000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint32(0); i < N; {
			if r.TryPush(i) {
				i++
				continue
			}
			// full: let the consumer run on a single P
			runtime.Gosched()
		}
	}()

	deadline := time.After(5 * time.Second)
	for want := uint32(0); want < N; {
		if v, ok := r.TryPop(); ok {
			if v != want {
				t.Fatalf("pop = %d, want %d", v, want)
			}
			want++
			continue
		}
		select {
		case <-r.Readable():
		case <-time.After(time.Millisecond):
		case <-deadline:
			t.Fatalf("timed out at %d", want)
		}
	}
	wg.Wait()
}
