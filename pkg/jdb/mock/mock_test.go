package mock_test

import (
	"context"
	"sync"
	"testing"

	"github.com/JDrit/jdb-jepsen/internal/devseed"
	"github.com/JDrit/jdb-jepsen/pkg/jdb/mock"
)

func TestMockPutGetDelete(t *testing.T) {
	m := mock.New()
	ctx := context.Background()

	if err := m.Put(ctx, "foo", "1"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value, ok, err := m.Get(ctx, "foo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || value != "1" {
		t.Fatalf("unexpected value: %q ok=%v", value, ok)
	}

	if _, ok, _ := m.Get(ctx, "missing"); ok {
		t.Fatalf("expected miss for absent key")
	}

	existed, err := m.Delete(ctx, "foo")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !existed {
		t.Fatalf("expected delete of existing key to report true")
	}
	if existed, _ := m.Delete(ctx, "foo"); existed {
		t.Fatalf("expected delete of missing key to report false")
	}
}

func TestMockCAS(t *testing.T) {
	m := mock.New()
	ctx := context.Background()

	if err := m.Put(ctx, "counter", "1"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	replaced, err := m.CAS(ctx, "counter", "1", "2")
	if err != nil {
		t.Fatalf("CAS: %v", err)
	}
	if !replaced {
		t.Fatalf("expected matching CAS to replace")
	}
	value, _, _ := m.Get(ctx, "counter")
	if value != "2" {
		t.Fatalf("expected stored value 2, got %q", value)
	}

	replaced, err = m.CAS(ctx, "counter", "1", "3")
	if err != nil {
		t.Fatalf("CAS mismatch: %v", err)
	}
	if replaced {
		t.Fatalf("expected mismatched CAS to report false")
	}
	if value, _, _ := m.Get(ctx, "counter"); value != "2" {
		t.Fatalf("mismatched CAS must leave value, got %q", value)
	}

	if replaced, _ := m.CAS(ctx, "absent", "x", "y"); replaced {
		t.Fatalf("CAS on missing key must report false")
	}
	if _, ok, _ := m.Get(ctx, "absent"); ok {
		t.Fatalf("failed CAS must not create the key")
	}
}

func TestMockAppend(t *testing.T) {
	m := mock.New()
	ctx := context.Background()

	if err := m.Append(ctx, "log", "a"); err != nil {
		t.Fatalf("Append to missing key: %v", err)
	}
	if err := m.Append(ctx, "log", "b"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	value, ok, _ := m.Get(ctx, "log")
	if !ok || value != "ab" {
		t.Fatalf("expected concatenated value ab, got %q ok=%v", value, ok)
	}
}

func TestMockSeedAndKeys(t *testing.T) {
	m := mock.New()
	seed := []devseed.Entry{
		{Key: "b", Value: "2"},
		{Key: "a", Value: "1"},
	}
	if err := m.Seed(seed); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 seeded keys, got %d", m.Len())
	}

	keys, err := m.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("expected sorted keys [a b], got %#v", keys)
	}

	value, ok, _ := m.Get(context.Background(), "a")
	if !ok || value != "1" {
		t.Fatalf("unexpected seeded value: %q ok=%v", value, ok)
	}

	if err := m.Seed([]devseed.Entry{{Key: " ", Value: "x"}}); err == nil {
		t.Fatalf("expected error for blank seed key")
	}
}

func TestMockCanceledContext(t *testing.T) {
	m := mock.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := m.Get(ctx, "foo"); err == nil {
		t.Fatalf("expected context error from Get")
	}
	if err := m.Put(ctx, "foo", "1"); err == nil {
		t.Fatalf("expected context error from Put")
	}
	if _, err := m.CAS(ctx, "foo", "1", "2"); err == nil {
		t.Fatalf("expected context error from CAS")
	}
}

func TestMockConcurrentAppends(t *testing.T) {
	m := mock.New()
	ctx := context.Background()

	const writers = 8
	const perWriter = 25
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				if err := m.Append(ctx, "shared", "x"); err != nil {
					t.Errorf("Append: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	value, _, _ := m.Get(ctx, "shared")
	if len(value) != writers*perWriter {
		t.Fatalf("expected %d appended bytes, got %d", writers*perWriter, len(value))
	}
}
