// File: test/e2e_test.go
package test

import (
	"testing"
	"time"

	"github.com/lguibr/touchstone/contact"
	"github.com/lguibr/touchstone/monitor"
	"github.com/lguibr/touchstone/physics"
	"github.com/lguibr/touchstone/script"
	"github.com/lguibr/touchstone/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

const hazardType = "hazard"

// player is a registry object with hit points.
type player struct {
	*contact.Entity
	hp int
}

// damage hurts players touching a hazard once per contact.
type damage struct {
	amount int
	ended  int
}

func (d *damage) BeginContact(rec *contact.Record, _ float64) bool {
	_, other, ok := rec.TagOfType(hazardType)
	if !ok {
		return false
	}
	p, ok := other.(*player)
	if !ok {
		return false
	}
	p.hp -= d.amount
	return true
}

func (d *damage) StayContact(*contact.Record, float64) bool { return false }

func (d *damage) EndContact(*contact.Record, float64) bool {
	d.ended++
	return true
}

// heroSpec has two fixtures sharing one tag, like a body and feet sensor.
func heroSpec(tag *contact.Tag) physics.BodySpec {
	return physics.BodySpec{
		Kind: physics.Dynamic,
		Fixtures: []physics.FixtureSpec{
			{Tag: tag, Radius: 0.5, Density: 1},
			{Tag: tag, HalfWidth: 0.3, HalfHeight: 0.6, Sensor: true},
		},
	}
}

func TestE2E_HeroTouchesSpike(t *testing.T) {
	setup := SetupE2ETest(t, e2eConfig())
	defer TeardownE2ETest(t, setup, 2*time.Second)

	dmg := &damage{amount: 10}
	sys, err := contact.NewSystem("damage", dmg, contact.Full, contact.WithFilter(contact.NewTypeFilter("player", hazardType)))
	require.NoError(t, err)
	ask(t, setup, world.RegisterSystem{System: sys})

	heroTag := contact.MustTag("hero", "player", "")
	spikeTag := contact.MustTag("spike", hazardType, "")
	hero := &player{Entity: contact.NewEntity("hero", "player"), hp: 100}
	ask(t, setup, world.AddBody{Object: hero, Spec: heroSpec(heroTag)})
	ask(t, setup, world.AddBody{Object: contact.NewEntity("spike", hazardType), Spec: physics.BodySpec{
		Kind:     physics.Static,
		X:        10,
		Fixtures: []physics.FixtureSpec{{Tag: spikeTag, HalfWidth: 0.5, HalfHeight: 0.5, Sensor: true}},
	}})
	key := contact.KeyOf(heroTag, spikeTag).String()

	assert.Equal(t, 0, step(t, setup), "apart, nothing touches")

	ask(t, setup, world.MoveBody{Name: "hero", X: 10, Y: 0})
	assert.Equal(t, 1, steps(t, setup, 2), "begin accepted")

	snap := snapshot(t, setup)
	require.Len(t, snap.Contacts, 1, "both hero fixtures map to one contact")
	assert.Equal(t, key, snap.Contacts[0].Key)
	assert.Equal(t, contact.Stay, snap.Contacts[0].State)
	assert.Equal(t, 2, snap.Contacts[0].Overlap)

	assert.Equal(t, 0, step(t, setup), "staying produces no transitions")

	ask(t, setup, world.MoveBody{Name: "hero", X: -10, Y: 0})
	assert.Equal(t, 1, steps(t, setup, 2), "end confirmed once the shapes separated")

	snap = snapshot(t, setup)
	require.Len(t, snap.Contacts, 1)
	assert.True(t, snap.Contacts[0].MustDelete)
	freedBefore := snap.Pool.Freed

	// The flagged record is released by the next raw begin's cleanup.
	ask(t, setup, world.MoveBody{Name: "hero", X: 10, Y: 0})
	assert.Equal(t, 1, steps(t, setup, 2))

	snap = snapshot(t, setup)
	assert.Equal(t, freedBefore+1, snap.Pool.Freed)
	assert.Equal(t, 1, snap.Pool.Reused)
	require.Len(t, snap.Contacts, 1)
	assert.False(t, snap.Contacts[0].MustDelete, "a fresh record replaced the released one")

	assert.Equal(t, 1, dmg.ended)
	assert.Equal(t, 80, hero.hp, "one hit per contact, not per fixture")
}

func TestE2E_EndedContactReleasedByCleanup(t *testing.T) {
	setup := SetupE2ETest(t, e2eConfig())
	defer TeardownE2ETest(t, setup, 2*time.Second)

	dmg := &damage{amount: 1}
	sys, err := contact.NewSystem("damage", dmg, contact.Full)
	require.NoError(t, err)
	ask(t, setup, world.RegisterSystem{System: sys})

	heroTag := contact.MustTag("hero", "player", "")
	spikeTag := contact.MustTag("spike", hazardType, "")
	for _, obj := range []contact.Object{&player{Entity: contact.NewEntity("hero", "player"), hp: 3}, contact.NewEntity("spike", hazardType)} {
		ask(t, setup, world.AddBody{Object: obj, Spec: physics.BodySpec{X: float64(len(obj.Name()) * 10), Fixtures: []physics.FixtureSpec{{Radius: 0.1}}}})
	}

	setup.Engine.Send(setup.WorldPID, world.RawBegin{A: heroTag, B: spikeTag}, nil)
	step(t, setup)
	setup.Engine.Send(setup.WorldPID, world.RawEnd{A: spikeTag, B: heroTag}, nil)
	step(t, setup)
	require.True(t, snapshot(t, setup).Contacts[0].MustDelete)

	// A begin between unrelated objects triggers the cleanup pass.
	require.NoError(t, setup.Sim.Registry().Register(contact.NewEntity("rock", "prop")))
	setup.Engine.Send(setup.WorldPID, world.RawBegin{A: heroTag, B: contact.MustTag("rock", "prop", "")}, nil)
	snap := snapshot(t, setup)

	keys := make([]string, 0, len(snap.Contacts))
	for _, c := range snap.Contacts {
		keys = append(keys, c.Key)
	}
	assert.NotContains(t, keys, contact.KeyOf(heroTag, spikeTag).String())
	assert.Equal(t, 1, snap.Pool.Freed)
}

func TestE2E_LuaTriggerStreamedToMonitor(t *testing.T) {
	setup := SetupE2ETest(t, e2eConfig())
	defer TeardownE2ETest(t, setup, 2*time.Second)

	ws, err := websocket.Dial(setup.WsURL, "", setup.Origin)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return setup.Hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	trig, err := script.NewLuaTrigger("door", "", `
function begin_contact(a, b, dt)
  return a.type == "player" or b.type == "player"
end
`, nil)
	require.NoError(t, err)
	ask(t, setup, world.RegisterTrigger{Trigger: trig})

	doorTag := contact.MustTag("door", contact.TriggerType, "")
	heroTag := contact.MustTag("hero", "player", "")
	ask(t, setup, world.AddBody{Object: contact.NewEntity("door", contact.TriggerType), Spec: physics.BodySpec{
		Fixtures: []physics.FixtureSpec{{Tag: doorTag, HalfWidth: 1, HalfHeight: 1, Sensor: true}},
	}})
	ask(t, setup, world.AddBody{Object: contact.NewEntity("hero", "player"), Spec: heroSpec(heroTag)})

	assert.Equal(t, 1, step(t, setup))

	var ev monitor.Event
	require.NoError(t, ReadWsJSONMessage(t, ws, time.Second, &ev))
	assert.Equal(t, "triggers", ev.System)
	assert.Equal(t, contact.Begin, ev.From)
	assert.Equal(t, contact.Stay, ev.To)
	assert.Equal(t, contact.KeyOf(doorTag, heroTag).String(), ev.Key)
}
