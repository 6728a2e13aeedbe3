package bollywood

import "fmt"

// PanicError is the Ask reply produced when the target actor panicked while
// handling the request.
type PanicError struct {
	PID   string
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("bollywood: actor %s panicked: %v", e.PID, e.Value)
}

// Unwrap exposes a panic value that is itself an error, so errors.Is sees
// through the actor boundary.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
