// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [Transport]: Opens serial console connections to attached devices
//   - [Conn]: One open serial connection with bounded-timeout reads
//   - [PortEnumerator]: Lists serial ports currently visible to the OS
//   - [ReportRepository]: Persists the end-of-run summary report
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app, internal/console) depends only on
// these interfaces. Infrastructure adapters (internal/adapters) implement
// them with concrete implementations (go.bug.st/serial, file system, zerolog).
//
// This separation enables:
//   - Testing the protocol engine and orchestration with scripted fakes
//   - Swapping infrastructure without changing business logic
//   - Clear boundaries and dependency direction
package ports
