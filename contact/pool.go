package contact

import (
	"errors"
	"fmt"
)

// ErrStaleHandle is returned when a handle refers to a slot that has since
// been freed (and possibly reused).
var ErrStaleHandle = errors.New("contact: stale record handle")

// Handle addresses a pool slot. Generation changes every time the slot is
// freed, so a handle kept across a free no longer resolves.
type Handle struct {
	Index      uint32
	Generation uint32
}

func (h Handle) String() string {
	return fmt.Sprintf("#%d.%d", h.Index, h.Generation)
}

type slot struct {
	record     Record
	generation uint32
	inUse      bool
}

// PoolStats describes pool usage.
type PoolStats struct {
	Slots     int `json:"slots"`
	InUse     int `json:"inUse"`
	Allocated int `json:"allocated"` // slots created by Obtain growing the arena
	Reused    int `json:"reused"`    // Obtain calls served from a freed slot
	Freed     int `json:"freed"`     // records returned by Free
}

// Pool is an arena of Records addressed by Handle. Slots are never
// released, only recycled.
type Pool struct {
	slots []*slot
	free  []uint32

	inUse     int
	allocated int
	reused    int
	freed     int
}

// NewPool creates a pool with capacity pre-built free slots.
func NewPool(capacity int) *Pool {
	p := &Pool{}
	for i := 0; i < capacity; i++ {
		p.slots = append(p.slots, &slot{})
		p.free = append(p.free, uint32(i))
	}
	return p
}

// Obtain returns a handle to a zeroed record, reusing a free slot when one
// exists.
func (p *Pool) Obtain() Handle {
	var idx uint32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
		if p.slots[idx].generation > 0 {
			p.reused++
		}
	} else {
		idx = uint32(len(p.slots))
		p.slots = append(p.slots, &slot{})
		p.allocated++
	}

	s := p.slots[idx]
	s.inUse = true
	s.record = Record{handle: Handle{Index: idx, Generation: s.generation}}
	p.inUse++
	return s.record.handle
}

// Get resolves h to its record. It fails for freed or reused slots.
func (p *Pool) Get(h Handle) (*Record, bool) {
	if int(h.Index) >= len(p.slots) {
		return nil, false
	}
	s := p.slots[h.Index]
	if !s.inUse || s.generation != h.Generation {
		return nil, false
	}
	return &s.record, true
}

// Free returns the slot to the pool and invalidates every handle to it.
func (p *Pool) Free(h Handle) error {
	if _, ok := p.Get(h); !ok {
		return fmt.Errorf("free %s: %w", h, ErrStaleHandle)
	}
	s := p.slots[h.Index]
	s.record.reset()
	s.inUse = false
	s.generation++
	p.free = append(p.free, h.Index)
	p.inUse--
	p.freed++
	return nil
}

// each visits in-use records in slot order.
func (p *Pool) each(fn func(*Record)) {
	for _, s := range p.slots {
		if s.inUse {
			fn(&s.record)
		}
	}
}

// Stats returns the pool's current counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Slots:     len(p.slots),
		InUse:     p.inUse,
		Allocated: p.allocated,
		Reused:    p.reused,
		Freed:     p.freed,
	}
}
