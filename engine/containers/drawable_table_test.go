package containers

import (
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
)

func checkInvariants[I any](t *testing.T, table *DrawableTable[I]) {
	t.Helper()
	if len(table.handles) != len(table.instances) {
		t.Fatalf("expected %d handles, got %d", len(table.instances), len(table.handles))
	}
	if len(table.handleToIndex) != len(table.handles) {
		t.Fatalf("expected %d map entries, got %d", len(table.handles), len(table.handleToIndex))
	}
	for i, h := range table.handles {
		idx, ok := table.handleToIndex[h]
		if !ok {
			t.Fatalf("handle %d at index %d missing from map", h, i)
		}
		if idx != i {
			t.Fatalf("handle %d: expected index %d, got %d", h, i, idx)
		}
	}
	if table.firstInvisible < 0 || table.firstInvisible > len(table.instances) {
		t.Fatalf("partition point %d out of range [0, %d]", table.firstInvisible, len(table.instances))
	}
	for h, idx := range table.handleToIndex {
		visible, err := table.IsVisible(h)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if visible != (idx < table.firstInvisible) {
			t.Fatalf("handle %d: visibility %v disagrees with index %d", h, visible, idx)
		}
	}
}

func TestInsertIssuesIncreasingHandles(t *testing.T) {
	table := NewDrawableTable[string]()
	a := table.Insert("a")
	b := table.Insert("b")
	c := table.InsertVisibly("c")

	if a != 0 || b != 1 || c != 2 {
		t.Fatalf("expected handles 0,1,2, got %d,%d,%d", a, b, c)
	}
	if table.VisibleCount() != 1 {
		t.Errorf("expected 1 visible, got %d", table.VisibleCount())
	}
	if v, _ := table.IsVisible(a); v {
		t.Errorf("expected plain insert to be invisible")
	}
	if v, _ := table.IsVisible(c); !v {
		t.Errorf("expected visible insert to be visible")
	}
	checkInvariants(t, table)
}

func TestHandlesAreNotReused(t *testing.T) {
	table := NewDrawableTable[int]()
	h := table.Insert(1)
	if _, err := table.Remove(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next := table.Insert(2); next == h {
		t.Fatalf("handle %d was reused", h)
	}
}

func TestMakeInvisibleThenRemove(t *testing.T) {
	table := NewDrawableTable[int]()
	h0 := table.InsertVisibly(10)
	h1 := table.InsertVisibly(11)
	h2 := table.InsertVisibly(12)

	if err := table.MakeInvisible(h1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.VisibleCount() != 2 {
		t.Fatalf("expected 2 visible, got %d", table.VisibleCount())
	}
	expected := []Handle{h0, h2, h1}
	for i, h := range expected {
		if table.Handles()[i] != h {
			t.Fatalf("index %d: expected handle %d, got %d", i, h, table.Handles()[i])
		}
	}
	checkInvariants(t, table)

	payload, err := table.Remove(h0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload != 10 {
		t.Errorf("expected payload 10, got %d", payload)
	}
	if table.VisibleCount() != 1 {
		t.Errorf("expected 1 visible, got %d", table.VisibleCount())
	}
	if v, _ := table.Get(h1); v != 11 {
		t.Errorf("expected 11, got %d", v)
	}
	if v, _ := table.Get(h2); v != 12 {
		t.Errorf("expected 12, got %d", v)
	}
	if _, err := table.Get(h0); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected ErrInvalidHandle, got %v", err)
	}
	checkInvariants(t, table)
}

func TestInvalidHandleLeavesTableUntouched(t *testing.T) {
	table := NewDrawableTable[int]()
	table.InsertVisibly(1)
	table.Insert(2)
	missing := Handle(42)

	if _, err := table.Get(missing); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Get: expected ErrInvalidHandle, got %v", err)
	}
	if _, err := table.GetMut(missing); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("GetMut: expected ErrInvalidHandle, got %v", err)
	}
	if _, err := table.IsVisible(missing); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("IsVisible: expected ErrInvalidHandle, got %v", err)
	}
	if err := table.MakeVisible(missing); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("MakeVisible: expected ErrInvalidHandle, got %v", err)
	}
	if err := table.MakeInvisible(missing); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("MakeInvisible: expected ErrInvalidHandle, got %v", err)
	}
	if _, err := table.Remove(missing); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Remove: expected ErrInvalidHandle, got %v", err)
	}
	if table.Len() != 2 || table.VisibleCount() != 1 {
		t.Errorf("table changed: len %d, visible %d", table.Len(), table.VisibleCount())
	}
	checkInvariants(t, table)
}

func TestVisibilityRoundTripKeepsPayload(t *testing.T) {
	table := NewDrawableTable[string]()
	table.InsertVisibly("x")
	h := table.Insert("y")
	table.InsertVisibly("z")

	if err := table.MakeVisible(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := table.MakeVisible(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.VisibleCount() != 3 {
		t.Fatalf("expected 3 visible, got %d", table.VisibleCount())
	}
	if err := table.MakeInvisible(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := table.Get(h); v != "y" {
		t.Errorf("expected y, got %s", v)
	}
	if table.VisibleCount() != 2 {
		t.Errorf("expected 2 visible, got %d", table.VisibleCount())
	}
	checkInvariants(t, table)
}

func TestGetMutWritesThrough(t *testing.T) {
	table := NewDrawableTable[int]()
	h := table.InsertVisibly(1)
	p, err := table.GetMut(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	*p = 7
	if v, _ := table.Get(h); v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
	if table.Visible()[0] != 7 {
		t.Errorf("expected visible prefix to hold 7, got %d", table.Visible()[0])
	}
}

func TestSwapByIndexSameIndex(t *testing.T) {
	table := NewDrawableTable[int]()
	h := table.Insert(5)
	table.SwapByIndex(0, 0)
	if v, _ := table.Get(h); v != 5 {
		t.Errorf("expected 5, got %d", v)
	}
	checkInvariants(t, table)
}

func TestSwapByHandle(t *testing.T) {
	table := NewDrawableTable[int]()
	a := table.InsertVisibly(1)
	b := table.InsertVisibly(2)
	c := table.Insert(3)

	if err := table.SwapByHandle(a, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Visible()[0] != 2 || table.Visible()[1] != 1 {
		t.Errorf("expected [2 1], got %v", table.Visible())
	}
	if err := table.SwapByHandle(a, c); !errors.Is(err, ErrVisibilityMismatch) {
		t.Errorf("expected ErrVisibilityMismatch, got %v", err)
	}
	if err := table.SwapByHandle(a, Handle(99)); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("expected ErrInvalidHandle, got %v", err)
	}
	checkInvariants(t, table)
}

func TestRandomOperationsPreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	table := NewDrawableTable[int]()
	payloads := map[Handle]int{}

	for step := 0; step < 5000; step++ {
		live := table.Handles()
		switch op := rng.Intn(5); {
		case op == 0 || len(live) == 0:
			v := rng.Int()
			var h Handle
			if rng.Intn(2) == 0 {
				h = table.Insert(v)
			} else {
				h = table.InsertVisibly(v)
			}
			payloads[h] = v
		case op == 1:
			h := live[rng.Intn(len(live))]
			if err := table.MakeVisible(h); err != nil {
				t.Fatalf("step %d: unexpected error: %v", step, err)
			}
		case op == 2:
			h := live[rng.Intn(len(live))]
			if err := table.MakeInvisible(h); err != nil {
				t.Fatalf("step %d: unexpected error: %v", step, err)
			}
		default:
			h := live[rng.Intn(len(live))]
			v, err := table.Remove(h)
			if err != nil {
				t.Fatalf("step %d: unexpected error: %v", step, err)
			}
			if v != payloads[h] {
				t.Fatalf("step %d: expected payload %d, got %d", step, payloads[h], v)
			}
			delete(payloads, h)
		}

		checkInvariants(t, table)
		for h, want := range payloads {
			got, err := table.Get(h)
			if err != nil {
				t.Fatalf("step %d: handle %d: unexpected error: %v", step, h, err)
			}
			if got != want {
				t.Fatalf("step %d: handle %d: expected %d, got %d", step, h, want, got)
			}
		}
	}
}
