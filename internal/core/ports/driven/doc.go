// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SourceAdapter: Lists and fetches content from one source
//   - AdapterFactory: Creates adapters from source configuration
//   - BlobStore: Content-addressed blob persistence
//   - RecordStore: Canonical record persistence
//   - CollectStateStore: Per-source listing cursor persistence
//   - SourceStore: Source configuration persistence
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
