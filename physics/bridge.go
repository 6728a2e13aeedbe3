package physics

import (
	"github.com/ByteArena/box2d"
	"github.com/lguibr/touchstone/contact"
)

// Sink receives raw contact events. *contact.Listener satisfies it.
type Sink interface {
	OnRawBegin(a, b *contact.Tag)
	OnRawEnd(a, b *contact.Tag)
}

// Bridge forwards box2d contact callbacks to a Sink. Fixtures without a
// tag are forwarded as nil and dropped by the listener.
type Bridge struct {
	sink   Sink
	begins uint64
	ends   uint64
}

var _ box2d.B2ContactListenerInterface = (*Bridge)(nil)

func NewBridge(sink Sink) *Bridge {
	return &Bridge{sink: sink}
}

func (b *Bridge) BeginContact(c box2d.B2ContactInterface) {
	b.begins++
	b.sink.OnRawBegin(TagOf(c.GetFixtureA()), TagOf(c.GetFixtureB()))
}

func (b *Bridge) EndContact(c box2d.B2ContactInterface) {
	b.ends++
	b.sink.OnRawEnd(TagOf(c.GetFixtureA()), TagOf(c.GetFixtureB()))
}

func (b *Bridge) PreSolve(box2d.B2ContactInterface, box2d.B2Manifold) {}

func (b *Bridge) PostSolve(box2d.B2ContactInterface, *box2d.B2ContactImpulse) {}

// Counts returns how many raw begin and end callbacks have been forwarded.
func (b *Bridge) Counts() (begins, ends uint64) { return b.begins, b.ends }

// TagOf returns the tag stored on a fixture, or nil.
func TagOf(f *box2d.B2Fixture) *contact.Tag {
	if f == nil {
		return nil
	}
	tag, _ := f.GetUserData().(*contact.Tag)
	return tag
}

// AttachTag stores tag as the fixture definition's user data.
func AttachTag(def *box2d.B2FixtureDef, tag *contact.Tag) {
	def.UserData = tag
}
