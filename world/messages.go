package world

import (
	"github.com/lguibr/touchstone/contact"
	"github.com/lguibr/touchstone/physics"
)

// StepTick advances the simulation by DT seconds. A non-positive DT uses
// the configured tick period. Asked, it replies with the transition count.
type StepTick struct {
	DT float64
}

// RawBegin injects a raw begin event without going through physics.
type RawBegin struct {
	A, B *contact.Tag
}

// RawEnd injects a raw end event without going through physics.
type RawEnd struct {
	A, B *contact.Tag
}

// RegisterSystem appends a dispatch system. Asked, it replies nil or the
// registration error.
type RegisterSystem struct {
	System *contact.System
}

// RegisterTrigger adds a trigger to the trigger registry.
type RegisterTrigger struct {
	Trigger contact.Trigger
}

// AddBody registers an object and spawns its body.
type AddBody struct {
	Object contact.Object
	Spec   physics.BodySpec
}

// RemoveBody destroys a body and unregisters its object.
type RemoveBody struct {
	Name string
}

// MoveBody teleports a body.
type MoveBody struct {
	Name string
	X, Y float64
}

// SnapshotRequest asks for a Snapshot.
type SnapshotRequest struct{}

// internalTick is sent by the actor's own ticker.
type internalTick struct{}
