package console

import (
	"fmt"

	"github.com/bft-labs/modelstation/internal/domain"
)

// State represents the protocol state of a console session.
type State int

const (
	// StateAwaitingPrompt means the session has not yet seen the prompt
	// sentinel and is still synchronizing with the remote console.
	StateAwaitingPrompt State = iota

	// StateIdle means the console is at a fresh prompt and ready for a command.
	StateIdle

	// StateSendingCommand means a command is being written to the device.
	StateSendingCommand

	// StateAwaitingResponse means the session is collecting response lines
	// until the next prompt sentinel.
	StateAwaitingResponse

	// StateFailed is terminal; the session can no longer be used.
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateAwaitingPrompt:
		return "AwaitingPrompt"
	case StateIdle:
		return "Idle"
	case StateSendingCommand:
		return "SendingCommand"
	case StateAwaitingResponse:
		return "AwaitingResponse"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// transition attempts to move the session to a new state.
// Any state may transition to StateFailed; other transitions follow the
// protocol order. Returns domain.ErrSessionState for anything else.
func (s *Session) transition(to State) error {
	if to == StateFailed {
		s.state = StateFailed
		return nil
	}

	valid := false
	switch s.state {
	case StateAwaitingPrompt:
		valid = to == StateIdle
	case StateIdle:
		valid = to == StateSendingCommand
	case StateSendingCommand:
		valid = to == StateAwaitingResponse
	case StateAwaitingResponse:
		valid = to == StateIdle
	case StateFailed:
		valid = false
	}

	if !valid {
		return fmt.Errorf("%w: %s -> %s", domain.ErrSessionState, s.state, to)
	}
	s.state = to
	return nil
}
