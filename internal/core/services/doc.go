// Package services implements the core use cases for Harvest.
//
// Services implement the driving ports and depend only on the driven
// ports, never on concrete adapters:
//
//   - FetchScheduler: rate-limited, fallback-aware content fetching
//   - Unifier: cross-source unification and content deduplication
//   - CollectOrchestrator: drives listing, fetching and unification
//   - ReportService: summary statistics over the record set
//   - AdapterRegistry: source type to adapter constructor mapping
package services
