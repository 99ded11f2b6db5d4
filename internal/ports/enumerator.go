package ports

// PortEnumerator lists the serial ports currently visible to the operating
// system. The result carries no ordering guarantee, and a port name is not a
// device identity: the same physical device may reappear on a different port.
type PortEnumerator interface {
	// List returns the device paths of all currently attached serial ports.
	List() ([]string, error)
}
