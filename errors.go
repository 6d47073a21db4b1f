package cache

import "errors"

var (
	// ErrClosed is returned when a producer call is requested from a closed cache.
	ErrClosed = errors.New("query cache is closed")

	// ErrTypeMismatch is returned when a value produced or shared for a key is not
	// of the type the accessor expects.
	ErrTypeMismatch = errors.New("cached value has unexpected type")

	// ErrNilProducer is returned by accessors built without a producer.
	ErrNilProducer = errors.New("query producer is nil")
)
