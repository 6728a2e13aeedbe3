// File: test/helpers_test.go
package test

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/lguibr/touchstone/world"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

// ReadWsJSONMessage reads a JSON message from the WebSocket with a timeout.
// It handles setting/clearing read deadlines and checks for common errors.
func ReadWsJSONMessage(t *testing.T, ws *websocket.Conn, timeout time.Duration, v interface{}) error {
	t.Helper()
	if ws == nil {
		return errors.New("websocket connection is nil")
	}

	readDone := make(chan error, 1)
	var readErr error

	go func() {
		// It's crucial to set deadline *before* Receive
		setReadErr := ws.SetReadDeadline(time.Now().Add(timeout))
		if setReadErr != nil {
			// Check if the error is due to closed connection, which might be expected
			if errors.Is(setReadErr, net.ErrClosed) || strings.Contains(setReadErr.Error(), "use of closed network connection") {
				readDone <- io.EOF // Signal EOF if connection already closed
				return
			}
			// Report other deadline errors
			readDone <- fmt.Errorf("failed to set read deadline: %w", setReadErr)
			return
		}

		// Attempt to receive JSON message
		err := websocket.JSON.Receive(ws, v)

		_ = ws.SetReadDeadline(time.Time{})
		readDone <- err
	}()

	select {
	case readErr = <-readDone:
		return readErr
	case <-time.After(timeout + 500*time.Millisecond):
		_ = ws.Close()
		return fmt.Errorf("websocket read timeout after %v (Receive call blocked)", timeout)
	}
}

// ask sends msg to the world actor and fails the test on error.
func ask(t *testing.T, setup E2ESetupResult, msg interface{}) interface{} {
	t.Helper()
	reply, err := setup.Engine.Ask(setup.WorldPID, msg, time.Second)
	require.NoError(t, err, "ask %T", msg)
	return reply
}

// step advances the world once and returns the transition count.
func step(t *testing.T, setup E2ESetupResult) int {
	t.Helper()
	n, ok := ask(t, setup, world.StepTick{}).(int)
	require.True(t, ok)
	return n
}

// steps advances the world n times and returns the total transition count.
// box2d reports overlaps created by a teleport one step late, so callers
// moving bodies step twice.
func steps(t *testing.T, setup E2ESetupResult, n int) int {
	t.Helper()
	total := 0
	for i := 0; i < n; i++ {
		total += step(t, setup)
	}
	return total
}

func snapshot(t *testing.T, setup E2ESetupResult) world.Snapshot {
	t.Helper()
	snap, ok := ask(t, setup, world.SnapshotRequest{}).(world.Snapshot)
	require.True(t, ok)
	return snap
}
