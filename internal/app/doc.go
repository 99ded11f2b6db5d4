// Package app orchestrates device provisioning.
//
// The [Supervisor] polls the port enumerator for newly attached serial ports
// and dispatches one worker goroutine per port. Each worker runs a
// [Programmer], the per-device workflow that synchronizes with the console,
// identifies the device, and programs and verifies the model number. The
// [Tracker] is the single serialization point for deduplication: a device
// identity is programmed at most once per run no matter how many ports it
// appears on.
package app
