package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lguibr/touchstone/bollywood"
	"github.com/lguibr/touchstone/contact"
	"github.com/lguibr/touchstone/physics"
	"github.com/lguibr/touchstone/utils"
	"github.com/lguibr/touchstone/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func setupTestServer(t *testing.T) (*Server, *Hub, *bollywood.Engine, *bollywood.PID) {
	t.Helper()
	engine := bollywood.NewEngine()
	t.Cleanup(func() { engine.Shutdown(2 * time.Second) })

	cfg := utils.DefaultConfig()
	cfg.GravityY = 0
	sim := world.New(cfg)
	hub := NewHub(16)
	sim.Dispatcher().Observe(hub)

	pid := world.Spawn(engine, sim)
	require.NotNil(t, pid)
	return NewServer(hub, engine, pid), hub, engine, pid
}

func TestHandleSubscribe_StreamsTransitions(t *testing.T) {
	server, hub, _, _ := setupTestServer(t)
	s := httptest.NewServer(server.Handler())
	defer s.Close()

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/subscribe"
	ws, err := websocket.Dial(wsURL, "", s.URL)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	hub.OnTransition(transition("hero|spike"))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(time.Second)))
	var ev Event
	require.NoError(t, websocket.JSON.Receive(ws, &ev))
	assert.Equal(t, "hero|spike", ev.Key)
	assert.Equal(t, contact.Begin, ev.From)
	assert.Equal(t, contact.Stay, ev.To)

	ws.Close()
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHandleContacts_ReturnsSnapshot(t *testing.T) {
	server, _, engine, pid := setupTestServer(t)

	for i, obj := range []contact.Object{contact.NewEntity("hero", "player"), contact.NewEntity("spike", contact.TriggerType)} {
		spec := physics.BodySpec{Kind: physics.Dynamic, X: float64(i * 20), Fixtures: []physics.FixtureSpec{{Radius: 0.5}}}
		_, err := engine.Ask(pid, world.AddBody{Object: obj, Spec: spec}, time.Second)
		require.NoError(t, err)
	}
	_, err := engine.Ask(pid, world.RegisterTrigger{Trigger: contact.NewBaseTrigger("spike", "", nil)}, time.Second)
	require.NoError(t, err)
	engine.Send(pid, world.RawBegin{A: contact.MustTag("hero", "player", ""), B: contact.MustTag("spike", contact.TriggerType, "")}, nil)
	_, err = engine.Ask(pid, world.StepTick{}, time.Second)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.HandleContacts()(rec, httptest.NewRequest(http.MethodGet, "/contacts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap world.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, []string{"hero", "spike"}, snap.Objects)
	require.Len(t, snap.Contacts, 1)
	assert.Equal(t, "hero|spike", snap.Contacts[0].Key)
	assert.Equal(t, contact.Stay, snap.Contacts[0].State)
}

func TestHandleContacts_Errors(t *testing.T) {
	server, _, engine, pid := setupTestServer(t)

	rec := httptest.NewRecorder()
	server.HandleContacts()(rec, httptest.NewRequest(http.MethodPost, "/contacts", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	engine.Stop(pid)
	require.Eventually(t, func() bool { return !engine.Alive(pid) }, time.Second, 10*time.Millisecond)

	rec = httptest.NewRecorder()
	server.HandleContacts()(rec, httptest.NewRequest(http.MethodGet, "/contacts", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
