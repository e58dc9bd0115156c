package vulkan

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestSafeCallReturnsError(t *testing.T) {
	pool := NewVulkanLockPool()
	want := errors.New("boom")
	if err := pool.SafeCall(BufferManagement, func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	// the group lock must have been released
	if err := pool.SafeCall(BufferManagement, func() error { return nil }); err != nil {
		t.Fatal(err)
	}
}

func TestSafeQueueCallSerializesFamily(t *testing.T) {
	pool := NewVulkanLockPool()
	pool.SetQueueFamily(0)

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.SafeQueueCall(0, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Errorf("expected 50 calls, got %d", counter)
	}
}

func TestSafeQueueCallNestedFamilies(t *testing.T) {
	pool := NewVulkanLockPool()
	// an unregistered family gets its own lock, and holding one family does
	// not block another
	err := pool.SafeQueueCall(0, func() error {
		return pool.SafeQueueCall(2, func() error { return nil })
	})
	if err != nil {
		t.Fatal(err)
	}
}
