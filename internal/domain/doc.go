// Package domain contains the core domain entities and value objects for
// modelstation.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (serial transport, file system,
// logging) and contains only pure business logic.
//
// # Entities
//
//   - [MAC]: Canonical six-octet device identity, stable across port changes
//   - [Result]: Outcome of one programming attempt (Done, Skip or Failed)
//   - [Report]: End-of-run summary artifact for factory traceability
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
