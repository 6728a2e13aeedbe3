package contact

import (
	"errors"
	"fmt"
)

var (
	// ErrTagName is returned when a tag is built without a name.
	ErrTagName = errors.New("contact: tag name must not be empty")
	// ErrTagType is returned when a tag is built without a type.
	ErrTagType = errors.New("contact: tag type must not be empty")
)

// Tag identifies the logical object behind a physical shape. It is attached
// to every fixture when the body is built and never changes afterwards.
//
// Owner, when set, makes the shape resolve to a different object than its
// own name, e.g. a sensor "hero-feet" owned by "hero".
type Tag struct {
	name  string
	typ   string
	owner string
}

// NewTag validates and builds a tag.
func NewTag(name, typ, owner string) (*Tag, error) {
	if name == "" {
		return nil, ErrTagName
	}
	if typ == "" {
		return nil, fmt.Errorf("tag %q: %w", name, ErrTagType)
	}
	return &Tag{name: name, typ: typ, owner: owner}, nil
}

// MustTag is NewTag for statically known tags; it panics on invalid input.
func MustTag(name, typ, owner string) *Tag {
	t, err := NewTag(name, typ, owner)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tag) Name() string  { return t.name }
func (t *Tag) Type() string  { return t.typ }
func (t *Tag) Owner() string { return t.owner }

// ResolveName is the registry name this shape belongs to: the owner when
// present, otherwise the tag's own name.
func (t *Tag) ResolveName() string {
	if t.owner != "" {
		return t.owner
	}
	return t.name
}

func (t *Tag) String() string {
	if t == nil {
		return "Tag<nil>"
	}
	return fmt.Sprintf("Tag{name=%q type=%q owner=%q}", t.name, t.typ, t.owner)
}
