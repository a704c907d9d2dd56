package id

import (
	"strings"
	"sync"
	"testing"
)

func TestNewWorkerID(t *testing.T) {
	wid := NewWorkerID()

	if !strings.HasPrefix(wid.String(), WorkerPrefix+"_") {
		t.Errorf("Expected prefix %q, got %q", WorkerPrefix, wid)
	}

	raw := strings.TrimPrefix(wid.String(), WorkerPrefix+"_")
	if !IsValid(raw) {
		t.Errorf("Expected valid ULID, got %q", raw)
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[WorkerID]bool)
	for i := 0; i < 1000; i++ {
		wid := NewWorkerID()
		if seen[wid] {
			t.Fatalf("Duplicate ID generated: %s", wid)
		}
		seen[wid] = true
	}
}

func TestConcurrentGeneration(t *testing.T) {
	g := NewGenerator()

	var wg sync.WaitGroup
	ids := make(chan string, 100)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				ids <- g.GenerateString()
			}
		}()
	}

	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("Duplicate ID under concurrency: %s", id)
		}
		seen[id] = true
	}
}
