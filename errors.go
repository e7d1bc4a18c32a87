package tinyrnn

import "fmt"

// Error is a wrapper for sentinel error conditions that carry no additional
// information beyond their message. Callers that need to distinguish a
// specific failure from a wrapped chain should compare against these with
// errors.Is.
type Error struct{ string }

func (err Error) Error() string {
	return err.string
}

// Sentinel errors returned by Network and graph operations.
var (
	ErrNetworkNotFinalized = Error{"network has not been finalized"}
	ErrAlreadyFinalized    = Error{"network has already been finalized"}
	ErrNegativeIteration   = Error{"iteration must not be negative"}
	ErrSizeMismatch        = Error{"size mismatch"}
	ErrNoNodes             = Error{"network has no neurons"}
	ErrNoOutputs           = Error{"no output neurons given"}
)

// SizeMismatchError documents a size mismatch between an expected and an
// actual count of values, e.g. between a Network's registered input count
// and the length of a slice passed to Feed.
type SizeMismatchError struct {
	Expected, Actual int
	What             string
}

func (e SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch for %s: expected %d, got %d", e.What, e.Expected, e.Actual)
}

// NilArgError documents an exported function receiving a nil argument where
// one was required.
type NilArgError struct{ Arg string }

func (e NilArgError) Error() string {
	return e.Arg + " is nil"
}
