package domain

// Outcome classifies how a single programming attempt concluded.
type Outcome int

const (
	// OutcomeFailed means the attempt did not program the device. If an
	// identity was obtained the failure is terminal for this run (fail-once);
	// otherwise the port stays retriable.
	OutcomeFailed Outcome = iota

	// OutcomeDone means the device was programmed and verified.
	OutcomeDone

	// OutcomeSkip means the device identity was already processed in this
	// run and no programming commands were sent.
	OutcomeSkip
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "Failed"
	case OutcomeDone:
		return "Done"
	case OutcomeSkip:
		return "Skip"
	default:
		return "Unknown"
	}
}

// Result is the terminal state of one per-device workflow run.
// MAC is empty when the workflow failed before an identity was obtained.
type Result struct {
	Outcome Outcome
	MAC     MAC
	Err     error
}

// HasIdentity reports whether the workflow obtained a device identity,
// regardless of the outcome.
func (r Result) HasIdentity() bool {
	return r.MAC != ""
}
