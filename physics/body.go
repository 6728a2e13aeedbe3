package physics

import (
	"errors"
	"fmt"

	"github.com/ByteArena/box2d"
	"github.com/lguibr/touchstone/contact"
)

var (
	ErrNoShape  = errors.New("fixture has no shape")
	ErrNilWorld = errors.New("nil world")
)

// BodyKind mirrors box2d's body types.
type BodyKind uint8

const (
	Static BodyKind = iota
	Kinematic
	Dynamic
)

func (k BodyKind) bodyType() uint8 {
	switch k {
	case Kinematic:
		return box2d.B2BodyType.B2_kinematicBody
	case Dynamic:
		return box2d.B2BodyType.B2_dynamicBody
	default:
		return box2d.B2BodyType.B2_staticBody
	}
}

// FixtureSpec describes one shape. Radius > 0 selects a circle, otherwise
// HalfWidth and HalfHeight select a box.
type FixtureSpec struct {
	Tag        *contact.Tag
	Radius     float64
	HalfWidth  float64
	HalfHeight float64
	Density    float64
	Sensor     bool
}

// BodySpec describes a body and its fixtures.
type BodySpec struct {
	Kind     BodyKind
	X, Y     float64
	Fixtures []FixtureSpec
}

func (f FixtureSpec) shape() (box2d.B2ShapeInterface, error) {
	switch {
	case f.Radius > 0:
		circle := box2d.MakeB2CircleShape()
		circle.M_radius = f.Radius
		return &circle, nil
	case f.HalfWidth > 0 && f.HalfHeight > 0:
		poly := box2d.MakeB2PolygonShape()
		poly.SetAsBox(f.HalfWidth, f.HalfHeight)
		return &poly, nil
	default:
		return nil, ErrNoShape
	}
}

// Spawn creates the body described by spec in world. Shapes are validated
// before the body is created so a bad spec leaves the world untouched.
func Spawn(world *box2d.B2World, spec BodySpec) (*box2d.B2Body, error) {
	if world == nil {
		return nil, ErrNilWorld
	}
	shapes := make([]box2d.B2ShapeInterface, len(spec.Fixtures))
	for i, f := range spec.Fixtures {
		s, err := f.shape()
		if err != nil {
			return nil, fmt.Errorf("fixture %d (%s): %w", i, f.Tag, err)
		}
		shapes[i] = s
	}

	def := box2d.MakeB2BodyDef()
	def.Type = spec.Kind.bodyType()
	def.Position = box2d.MakeB2Vec2(spec.X, spec.Y)
	body := world.CreateBody(&def)

	for i, f := range spec.Fixtures {
		fd := box2d.MakeB2FixtureDef()
		fd.Shape = shapes[i]
		fd.Density = f.Density
		fd.IsSensor = f.Sensor
		AttachTag(&fd, f.Tag)
		body.CreateFixtureFromDef(&fd)
	}
	return body, nil
}

// MoveTo teleports a body, keeping its angle. The body is woken so its
// contacts are re-evaluated on the next step.
func MoveTo(body *box2d.B2Body, x, y float64) {
	body.SetTransform(box2d.MakeB2Vec2(x, y), body.GetAngle())
	body.SetAwake(true)
}
