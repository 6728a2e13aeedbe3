package bollywood

// --- System Messages ---

// Started is delivered once, before any user message.
type Started struct{}

// Stopping signals the actor should clean up. No user messages follow it.
type Stopping struct{}

// Stopped is the final message an actor will receive.
type Stopped struct{}

// messageEnvelope wraps a user message with sender information.
// requestID and replyCh are set only for messages sent through Ask.
type messageEnvelope struct {
	Sender    *PID
	Message   interface{}
	requestID string
	replyCh   chan interface{}
}
