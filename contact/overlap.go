package contact

// OverlapCounter counts the raw begin events not yet matched by an end
// event, per pair. A logical contact ends only when its count returns to zero.
type OverlapCounter struct {
	counts map[PairKey]int
}

func NewOverlapCounter() *OverlapCounter {
	return &OverlapCounter{counts: make(map[PairKey]int)}
}

// Increment records one more touching shape pair and returns the new count.
func (c *OverlapCounter) Increment(k PairKey) int {
	c.counts[k]++
	return c.counts[k]
}

// Decrement records one separation. The count never drops below zero;
// tracked is false when the key was never incremented.
func (c *OverlapCounter) Decrement(k PairKey) (count int, tracked bool) {
	n, ok := c.counts[k]
	if !ok {
		return 0, false
	}
	if n > 0 {
		n--
	}
	c.counts[k] = n
	return n, true
}

func (c *OverlapCounter) Count(k PairKey) int {
	return c.counts[k]
}

func (c *OverlapCounter) Remove(k PairKey) {
	delete(c.counts, k)
}

func (c *OverlapCounter) Len() int {
	return len(c.counts)
}
