package containers

import (
	"github.com/cockroachdb/errors"
)

var (
	ErrInvalidHandle      = errors.New("invalid drawable handle")
	ErrVisibilityMismatch = errors.New("handles are on different sides of the visibility partition")
)

// Handle identifies an entry of a DrawableTable. Handles are issued in
// increasing order and never reused by the table that issued them.
type Handle uint64

// DrawableTable stores payloads densely and keeps every visible entry packed
// at the front, so that the prefix [0, VisibleCount()) can be uploaded as a
// single contiguous range.
type DrawableTable[I any] struct {
	instances      []I
	handles        []Handle
	handleToIndex  map[Handle]int
	firstInvisible int
	nextHandle     Handle
}

func NewDrawableTable[I any]() *DrawableTable[I] {
	return &DrawableTable[I]{
		instances:     make([]I, 0),
		handles:       make([]Handle, 0),
		handleToIndex: make(map[Handle]int),
	}
}

// Insert appends payload as an invisible entry.
func (t *DrawableTable[I]) Insert(payload I) Handle {
	h := t.nextHandle
	t.nextHandle++

	t.handleToIndex[h] = len(t.instances)
	t.instances = append(t.instances, payload)
	t.handles = append(t.handles, h)
	return h
}

// InsertVisibly appends payload and promotes it into the visible prefix.
func (t *DrawableTable[I]) InsertVisibly(payload I) Handle {
	h := t.Insert(payload)
	// the handle was just issued, MakeVisible cannot fail
	_ = t.MakeVisible(h)
	return h
}

func (t *DrawableTable[I]) index(h Handle) (int, error) {
	idx, ok := t.handleToIndex[h]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidHandle, "handle %d", h)
	}
	return idx, nil
}

func (t *DrawableTable[I]) Get(h Handle) (I, error) {
	idx, err := t.index(h)
	if err != nil {
		var zero I
		return zero, err
	}
	return t.instances[idx], nil
}

// GetMut returns a pointer into the dense storage. The pointer is only valid
// until the next mutation of the table.
func (t *DrawableTable[I]) GetMut(h Handle) (*I, error) {
	idx, err := t.index(h)
	if err != nil {
		return nil, err
	}
	return &t.instances[idx], nil
}

func (t *DrawableTable[I]) Contains(h Handle) bool {
	_, ok := t.handleToIndex[h]
	return ok
}

func (t *DrawableTable[I]) IsVisible(h Handle) (bool, error) {
	idx, err := t.index(h)
	if err != nil {
		return false, err
	}
	return idx < t.firstInvisible, nil
}

func (t *DrawableTable[I]) MakeVisible(h Handle) error {
	idx, err := t.index(h)
	if err != nil {
		return err
	}
	if idx < t.firstInvisible {
		return nil
	}
	t.SwapByIndex(idx, t.firstInvisible)
	t.firstInvisible++
	return nil
}

func (t *DrawableTable[I]) MakeInvisible(h Handle) error {
	idx, err := t.index(h)
	if err != nil {
		return err
	}
	if idx >= t.firstInvisible {
		return nil
	}
	t.SwapByIndex(idx, t.firstInvisible-1)
	t.firstInvisible--
	return nil
}

// Remove evicts the entry for h and returns its payload.
func (t *DrawableTable[I]) Remove(h Handle) (I, error) {
	var zero I
	if _, err := t.index(h); err != nil {
		return zero, err
	}
	if err := t.MakeInvisible(h); err != nil {
		return zero, err
	}

	last := len(t.instances) - 1
	t.SwapByIndex(t.handleToIndex[h], last)

	payload := t.instances[last]
	t.instances[last] = zero
	t.instances = t.instances[:last]
	t.handles = t.handles[:last]
	delete(t.handleToIndex, h)
	return payload, nil
}

// SwapByIndex exchanges the entries at i and j. Both indices must be in range.
func (t *DrawableTable[I]) SwapByIndex(i, j int) {
	if i == j {
		return
	}
	t.instances[i], t.instances[j] = t.instances[j], t.instances[i]
	t.handles[i], t.handles[j] = t.handles[j], t.handles[i]
	t.handleToIndex[t.handles[i]] = i
	t.handleToIndex[t.handles[j]] = j
}

// SwapByHandle exchanges the positions of two entries that share the same
// visibility. Swapping across the partition would silently change which
// entries are drawn, so it is refused.
func (t *DrawableTable[I]) SwapByHandle(h1, h2 Handle) error {
	i, err := t.index(h1)
	if err != nil {
		return err
	}
	j, err := t.index(h2)
	if err != nil {
		return err
	}
	if (i < t.firstInvisible) != (j < t.firstInvisible) {
		return errors.Wrapf(ErrVisibilityMismatch, "handles %d and %d", h1, h2)
	}
	t.SwapByIndex(i, j)
	return nil
}

func (t *DrawableTable[I]) Len() int {
	return len(t.instances)
}

// VisibleCount is the partition point: entries before it are visible.
func (t *DrawableTable[I]) VisibleCount() int {
	return t.firstInvisible
}

// Visible returns the visible prefix. The slice aliases the table storage.
func (t *DrawableTable[I]) Visible() []I {
	return t.instances[:t.firstInvisible]
}

func (t *DrawableTable[I]) Instances() []I {
	return t.instances
}

func (t *DrawableTable[I]) Handles() []Handle {
	return t.handles
}
