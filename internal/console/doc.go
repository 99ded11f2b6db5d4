// Package console implements the interactive console protocol spoken by
// attached devices over a serial link.
//
// A [Session] owns one open transport connection and drives it through a
// small state machine:
//
//	AwaitingPrompt -> Idle -> SendingCommand -> AwaitingResponse -> {Idle | Failed}
//
// Prompt synchronization provokes fresh prompt lines by periodically writing
// a line terminator, while scanning incoming bytes for the prompt sentinel.
// Whenever the remote line editor queries terminal capabilities with ESC[6n,
// the session answers ESC[1;1R immediately and strips the query before any
// buffering; the device blocks awaiting that reply otherwise.
//
// All reads are bounded-timeout reads, so a session never blocks past its
// own budget and stays responsive to context cancellation.
package console
