package core

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDAllocator hands out record identifiers.
type IDAllocator interface {
	NewID() string
}

// UUIDAllocator allocates random UUIDv4 identifiers.
type UUIDAllocator struct{}

func (UUIDAllocator) NewID() string {
	return uuid.New().String()
}

// SequenceAllocator allocates "<prefix>-<n>" identifiers from its own counter.
// Each instance counts independently.
type SequenceAllocator struct {
	Prefix string
	next   atomic.Int64
}

// NewSequenceAllocator returns an allocator whose first ID is "<prefix>-1".
func NewSequenceAllocator(prefix string) *SequenceAllocator {
	return &SequenceAllocator{Prefix: prefix}
}

func (a *SequenceAllocator) NewID() string {
	return fmt.Sprintf("%s-%d", a.Prefix, a.next.Add(1))
}
