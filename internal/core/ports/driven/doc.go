// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Connector: Fetches record batches from a data source
//   - ConnectorFactory: Creates connectors from connection configuration
//   - ExtractorRegistry, MIMESniffer, Chunker: Turn record bytes into text chunks
//   - ConnectionStore: Connection configuration and cursor persistence
//   - CategoryStore: Categories and user memberships
//   - PrimaryIndex: Keyword index every document is written to
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SecondaryIndex: Second write target. A nil secondary accepts every write.
//   - EmbeddingService: Needed only by the vector secondary index.
//   - SearchLogStore: Without it queries are not recorded.
//   - ConfigWatcher: Only file-backed configuration can be watched.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or extractor package
package driven
