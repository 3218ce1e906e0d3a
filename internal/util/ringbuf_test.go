package util

import (
	"sync"
	"testing"
)

func TestRingBufferOrderAndOverwrite(t *testing.T) {
	rb := NewRingBuffer[int](3)

	if rb.Len() != 0 || rb.Cap() != 3 {
		t.Fatalf("fresh buffer: len=%d cap=%d", rb.Len(), rb.Cap())
	}

	rb.Push(1)
	rb.Push(2)
	got := rb.Snapshot()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("partial snapshot = %v", got)
	}

	// Overflow: oldest elements drop off.
	rb.Push(3)
	rb.Push(4)
	rb.Push(5)
	got = rb.Snapshot()
	if len(got) != 3 || got[0] != 3 || got[1] != 4 || got[2] != 5 {
		t.Fatalf("overflowed snapshot = %v", got)
	}
}

func TestRingBufferZeroCapacity(t *testing.T) {
	rb := NewRingBuffer[string](0)
	rb.Push("a")
	rb.Push("b")
	got := rb.Snapshot()
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("snapshot = %v", got)
	}
}

func TestRingBufferConcurrentPush(t *testing.T) {
	rb := NewRingBuffer[int](64)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rb.Push(j)
				rb.Snapshot()
			}
		}()
	}
	wg.Wait()

	if rb.Len() != 64 {
		t.Fatalf("len after saturation = %d, want 64", rb.Len())
	}
}
