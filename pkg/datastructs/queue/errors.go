package queue

import "github.com/pkg/errors"

// ErrInvalidCapacity is returned when a queue is constructed with a non-positive capacity.
var ErrInvalidCapacity = errors.New("queue: capacity must be positive")
