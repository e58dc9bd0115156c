package core

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/oberon/engine/containers"
)

var (
	ErrAllocation       = errors.New("gpu allocation failed")
	ErrInvalidHandle    = containers.ErrInvalidHandle
	ErrSynchronization  = errors.New("frame synchronization failed")
	ErrNoSuitableDevice = errors.New("no suitable physical device")
	ErrSurfaceOutOfDate = errors.New("surface out of date")
	ErrShutdown         = errors.New("renderer already shut down")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrAssetNotFound    = errors.New("asset not found")
)

// Classify returns err marked with the given sentinel so that errors.Is
// matches it, while keeping the original message and cause chain.
func Classify(err error, sentinel error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, sentinel)
}
