package contact

import "fmt"

// State is the lifecycle stage of a logical contact.
type State uint8

const (
	// Begin: the objects started touching; waiting for a begin handler to
	// accept the contact.
	Begin State = iota
	// Stay: the contact was accepted and is ongoing.
	Stay
	// End: every shape pair separated; waiting for an end handler to confirm.
	End
)

func (s State) String() string {
	switch s {
	case Begin:
		return "BEGIN"
	case Stay:
		return "STAY"
	case End:
		return "END"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// MarshalText lets State appear as its name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "BEGIN":
		*s = Begin
	case "STAY":
		*s = Stay
	case "END":
		*s = End
	default:
		return fmt.Errorf("unknown contact state %q", text)
	}
	return nil
}

// Record is the tracked state of one logical contact. Records live in a
// Pool and are reused; handlers must not keep a *Record past the call that
// received it (keep Key() or Handle() instead).
type Record struct {
	State   State
	ObjectA Object
	ObjectB Object
	TagA    *Tag
	TagB    *Tag

	key        PairKey
	handle     Handle
	mustDelete bool
	begun      bool
}

func (r *Record) Key() PairKey     { return r.key }
func (r *Record) Handle() Handle   { return r.handle }
func (r *Record) MustDelete() bool { return r.mustDelete }

// Other returns the object on the opposite side of obj, or nil if obj is not
// part of this contact.
func (r *Record) Other(obj Object) Object {
	switch obj {
	case r.ObjectA:
		return r.ObjectB
	case r.ObjectB:
		return r.ObjectA
	}
	return nil
}

// TagOfType returns the first tag with the given type and the object on the
// other side of the contact.
func (r *Record) TagOfType(typ string) (tag *Tag, other Object, ok bool) {
	switch {
	case r.TagA != nil && r.TagA.Type() == typ:
		return r.TagA, r.ObjectB, true
	case r.TagB != nil && r.TagB.Type() == typ:
		return r.TagB, r.ObjectA, true
	}
	return nil, nil, false
}

func (r *Record) markDelete() {
	r.mustDelete = true
}

func (r *Record) reset() {
	*r = Record{handle: r.handle}
}

func (r *Record) String() string {
	return fmt.Sprintf("Record{%s %s}", r.key, r.State)
}
