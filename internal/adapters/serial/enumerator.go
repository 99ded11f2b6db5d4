package serial

import (
	"fmt"

	gobug "go.bug.st/serial"
)

// Enumerator implements ports.PortEnumerator using the OS serial port list.
type Enumerator struct{}

// NewEnumerator creates a new port enumerator.
func NewEnumerator() *Enumerator {
	return &Enumerator{}
}

// List returns the device paths of all currently attached serial ports.
func (*Enumerator) List() ([]string, error) {
	names, err := gobug.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return names, nil
}
