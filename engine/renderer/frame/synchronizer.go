package frame

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/oberon/engine/core"
)

type SlotState int

const (
	SlotStateIdle SlotState = iota
	SlotStateAcquired
	SlotStateRecorded
	SlotStateSubmitted
	SlotStatePresented
)

func (s SlotState) String() string {
	switch s {
	case SlotStateIdle:
		return "idle"
	case SlotStateAcquired:
		return "acquired"
	case SlotStateRecorded:
		return "recorded"
	case SlotStateSubmitted:
		return "submitted"
	case SlotStatePresented:
		return "presented"
	}
	return "unknown"
}

// Backend performs the API calls of one frame. Every slot owns one fence
// (created signaled) and an image-available / rendering-finished semaphore
// pair; image indexes the swapchain image and its command buffer.
type Backend interface {
	// AcquireNextImage requests the next presentable image, signaling the
	// slot's image-available semaphore once it is ready.
	AcquireNextImage(slot int) (uint32, error)
	// WaitFence blocks until the slot's fence is signaled.
	WaitFence(slot int) error
	ResetFence(slot int) error
	// Record re-records the command buffer of image.
	Record(image uint32, slot int) error
	// Submit waits on image-available, signals rendering-finished and the
	// slot's fence.
	Submit(image uint32, slot int) error
	// Present waits on rendering-finished.
	Present(image uint32, slot int) error
}

// UpdateFunc runs the CPU side of a frame once the slot is safe to reuse.
type UpdateFunc func(slot int, image uint32) error

const noSlot = -1

// Synchronizer drives the acquire, wait, record, submit, present sequence
// over a fixed ring of slots.
type Synchronizer struct {
	backend        Backend
	states         []SlotState
	imagesInFlight []int
	currentSlot    int
	frameNumber    uint64
	failed         error
}

func New(backend Backend, slotCount, imageCount int) (*Synchronizer, error) {
	if slotCount <= 0 || imageCount <= 0 {
		return nil, errors.Newf("invalid synchronizer size: %d slots, %d images", slotCount, imageCount)
	}
	inFlight := make([]int, imageCount)
	for i := range inFlight {
		inFlight[i] = noSlot
	}
	return &Synchronizer{
		backend:        backend,
		states:         make([]SlotState, slotCount),
		imagesInFlight: inFlight,
	}, nil
}

func (s *Synchronizer) SlotCount() int {
	return len(s.states)
}

func (s *Synchronizer) CurrentSlot() int {
	return s.currentSlot
}

func (s *Synchronizer) State(slot int) SlotState {
	return s.states[slot]
}

// FrameNumber is the number of frames presented so far.
func (s *Synchronizer) FrameNumber() uint64 {
	return s.frameNumber
}

func (s *Synchronizer) fail(err error, step string, slot int) error {
	s.failed = errors.Mark(errors.Wrapf(err, "%s (slot %d, frame %d)", step, slot, s.frameNumber), core.ErrSynchronization)
	core.LogError("frame aborted: %v", s.failed)
	return s.failed
}

// RunFrame renders one frame. Any error is fatal: the synchronizer refuses
// further frames afterwards.
func (s *Synchronizer) RunFrame(update UpdateFunc) error {
	if s.failed != nil {
		return errors.Mark(errors.Wrap(s.failed, "synchronizer stopped after an earlier failure"), core.ErrSynchronization)
	}

	slot := s.currentSlot
	s.states[slot] = SlotStateIdle

	image, err := s.backend.AcquireNextImage(slot)
	if err != nil {
		return s.fail(err, "acquire next image", slot)
	}
	if int(image) >= len(s.imagesInFlight) {
		return s.fail(errors.Newf("image index %d out of range", image), "acquire next image", slot)
	}
	s.states[slot] = SlotStateAcquired

	if err := s.backend.WaitFence(slot); err != nil {
		return s.fail(err, "wait fence", slot)
	}
	// the image may still be read by a submission made from another slot
	if other := s.imagesInFlight[image]; other != noSlot && other != slot {
		if err := s.backend.WaitFence(other); err != nil {
			return s.fail(err, "wait image fence", other)
		}
	}
	if err := s.backend.ResetFence(slot); err != nil {
		return s.fail(err, "reset fence", slot)
	}
	s.imagesInFlight[image] = slot

	if update != nil {
		if err := update(slot, image); err != nil {
			s.failed = errors.Wrapf(err, "scene update (slot %d, frame %d)", slot, s.frameNumber)
			core.LogError("frame aborted: %v", s.failed)
			return s.failed
		}
	}

	if err := s.backend.Record(image, slot); err != nil {
		return s.fail(err, "record command buffer", slot)
	}
	s.states[slot] = SlotStateRecorded

	if err := s.backend.Submit(image, slot); err != nil {
		return s.fail(err, "queue submit", slot)
	}
	s.states[slot] = SlotStateSubmitted

	if err := s.backend.Present(image, slot); err != nil {
		return s.fail(err, "queue present", slot)
	}
	s.states[slot] = SlotStatePresented

	s.frameNumber++
	s.currentSlot = (s.currentSlot + 1) % len(s.states)
	return nil
}
