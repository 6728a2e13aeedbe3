package contact

import (
	"io"
	"log"
	"sort"
)

// CleanupPolicy bounds the work of one cleanup pass.
type CleanupPolicy uint8

const (
	// CleanupOne frees at most one flagged record per pass, keeping the
	// cost of each raw begin event constant.
	CleanupOne CleanupPolicy = iota
	// CleanupAll frees every flagged record in one pass.
	CleanupAll
)

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithLogger sets the listener's logger. Raw events are only logged in debug mode.
func WithLogger(l *log.Logger) ListenerOption {
	return func(cl *Listener) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithDebug logs every raw event and dropped contact.
func WithDebug(debug bool) ListenerOption {
	return func(cl *Listener) { cl.debug = debug }
}

// WithCleanupPolicy sets how many flagged records one Cleanup pass frees.
func WithCleanupPolicy(p CleanupPolicy) ListenerOption {
	return func(cl *Listener) { cl.policy = p }
}

// WithPoolCapacity pre-grows the record pool.
func WithPoolCapacity(n int) ListenerOption {
	return func(cl *Listener) { cl.pool = NewPool(n) }
}

// Listener turns raw shape-level touch events into logical contact records.
// It owns the overlap counter, the record pool and the key→record index;
// nothing else changes their membership.
//
// A Listener is not safe for concurrent use. Raw events and dispatch steps
// must come from one goroutine (see world.Actor).
type Listener struct {
	objects *Registry
	overlap *OverlapCounter
	pool    *Pool
	records map[PairKey]Handle

	policy CleanupPolicy
	debug  bool
	logger *log.Logger
}

// NewListener creates a listener resolving tags against objects.
func NewListener(objects *Registry, opts ...ListenerOption) *Listener {
	l := &Listener{
		objects: objects,
		overlap: NewOverlapCounter(),
		pool:    NewPool(0),
		records: make(map[PairKey]Handle),
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnRawBegin handles a "shapes started touching" callback.
func (l *Listener) OnRawBegin(tagA, tagB *Tag) {
	objA, objB, ok := l.resolve("begin", tagA, tagB)
	if !ok {
		return
	}

	l.Cleanup()

	key := KeyOf(tagA, tagB)
	if rec, exists := l.lookup(key); exists && rec.mustDelete {
		l.release(key, rec.handle)
	}

	count := l.overlap.Increment(key)

	if rec, exists := l.lookup(key); exists {
		if rec.State == End {
			rec.State = Begin
			if rec.begun {
				rec.State = Stay
			}
			l.debugf("revived %s as %s (overlap %d)", key, rec.State, count)
		}
		return
	}

	h := l.pool.Obtain()
	rec, _ := l.pool.Get(h)
	rec.State = Begin
	rec.ObjectA, rec.ObjectB = objA, objB
	rec.TagA, rec.TagB = tagA, tagB
	rec.key = key
	l.records[key] = h
	l.debugf("new contact %s (%s)", key, h)
}

// OnRawEnd handles a "shapes stopped touching" callback. The record moves
// to End only when no shape pair of the contact still touches.
func (l *Listener) OnRawEnd(tagA, tagB *Tag) {
	if _, _, ok := l.resolve("end", tagA, tagB); !ok {
		return
	}

	key := KeyOf(tagA, tagB)
	count, tracked := l.overlap.Decrement(key)
	if !tracked || count > 0 {
		return
	}
	if rec, exists := l.lookup(key); exists && !rec.mustDelete {
		rec.State = End
		l.debugf("contact %s ended", key)
	}
}

// Cleanup frees records flagged for deletion by a dispatch system and
// returns how many were freed. It runs at the start of every OnRawBegin.
func (l *Listener) Cleanup() int {
	if len(l.records) == 0 {
		return 0
	}
	var flagged []PairKey
	for key, h := range l.records {
		if rec, ok := l.pool.Get(h); ok && rec.mustDelete {
			flagged = append(flagged, key)
		}
	}
	if len(flagged) == 0 {
		return 0
	}
	// Slot order keeps bounded cleanup deterministic.
	sort.Slice(flagged, func(i, j int) bool {
		return l.records[flagged[i]].Index < l.records[flagged[j]].Index
	})
	if l.policy == CleanupOne {
		flagged = flagged[:1]
	}
	for _, key := range flagged {
		l.release(key, l.records[key])
	}
	return len(flagged)
}

func (l *Listener) release(key PairKey, h Handle) {
	delete(l.records, key)
	l.overlap.Remove(key)
	if err := l.pool.Free(h); err != nil {
		l.logger.Printf("release %s: %v", key, err)
		return
	}
	l.debugf("released %s (%s)", key, h)
}

func (l *Listener) resolve(event string, tagA, tagB *Tag) (Object, Object, bool) {
	objA, okA := l.objects.Resolve(tagA)
	objB, okB := l.objects.Resolve(tagB)
	if !okA || !okB {
		l.debugf("%s dropped: %v %v unresolved", event, tagA, tagB)
		return nil, nil, false
	}
	l.debugf("%s %v %v", event, tagA, tagB)
	return objA, objB, true
}

func (l *Listener) lookup(key PairKey) (*Record, bool) {
	h, ok := l.records[key]
	if !ok {
		return nil, false
	}
	return l.pool.Get(h)
}

func (l *Listener) debugf(format string, args ...interface{}) {
	if l.debug {
		l.logger.Printf(format, args...)
	}
}

// Lookup returns the active record for key.
func (l *Listener) Lookup(key PairKey) (*Record, bool) {
	return l.lookup(key)
}

// Each visits every tracked record, including ones flagged for deletion,
// in pool slot order.
func (l *Listener) Each(fn func(*Record)) {
	l.pool.each(fn)
}

// Len is the number of tracked records.
func (l *Listener) Len() int { return len(l.records) }

// Overlap returns the live shape-pair count for key.
func (l *Listener) Overlap(key PairKey) int { return l.overlap.Count(key) }

// PoolStats reports usage of the record pool.
func (l *Listener) PoolStats() PoolStats { return l.pool.Stats() }

// RecordView is a copy of a record's observable state.
type RecordView struct {
	Key        string `json:"key"`
	State      State  `json:"state"`
	ObjectA    string `json:"objectA"`
	ObjectB    string `json:"objectB"`
	TagA       string `json:"tagA"`
	TagB       string `json:"tagB"`
	Overlap    int    `json:"overlap"`
	MustDelete bool   `json:"mustDelete"`
}

// Snapshot copies every tracked record, ordered by key.
func (l *Listener) Snapshot() []RecordView {
	views := make([]RecordView, 0, len(l.records))
	l.Each(func(r *Record) {
		views = append(views, RecordView{
			Key:        r.key.String(),
			State:      r.State,
			ObjectA:    r.ObjectA.Name(),
			ObjectB:    r.ObjectB.Name(),
			TagA:       r.TagA.Name(),
			TagB:       r.TagB.Name(),
			Overlap:    l.overlap.Count(r.key),
			MustDelete: r.mustDelete,
		})
	})
	sort.Slice(views, func(i, j int) bool { return views[i].Key < views[j].Key })
	return views
}
